package domain

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAssignmentDecoding(t *testing.T) {
	Convey("Given Canvas assignment payloads", t, func() {
		payload := `[
			{"id": 1, "name": "Essay", "due_at": "2024-03-01T23:59:00Z", "points_possible": 0,
			 "html_url": "https://canvas.example.edu/courses/7/assignments/1",
			 "rubric": [{"id": "c1", "description": "Thesis", "points": 5,
			             "ratings": [{"description": "Full", "points": 5}, {"description": "None", "points": 0}]}]},
			{"id": 2, "name": "Quiz", "due_at": null, "points_possible": null, "description": null},
			{"id": 3, "name": "Reading"}
		]`

		var got []Assignment
		So(json.Unmarshal([]byte(payload), &got), ShouldBeNil)
		So(got, ShouldHaveLength, 3)

		Convey("Zero points stay distinguishable from null", func() {
			So(got[0].PointsPossible, ShouldNotBeNil)
			So(*got[0].PointsPossible, ShouldEqual, 0)
			So(got[1].PointsPossible, ShouldBeNil)
			So(got[2].PointsPossible, ShouldBeNil)
		})

		Convey("Due dates are optional", func() {
			So(got[0].DueAt, ShouldNotBeNil)
			So(got[0].DueAt.Day(), ShouldEqual, 1)
			So(got[1].DueAt, ShouldBeNil)
		})

		Convey("Rubric criteria keep their order and ratings", func() {
			So(got[0].Rubric, ShouldHaveLength, 1)
			So(got[0].Rubric[0].Description, ShouldEqual, "Thesis")
			So(got[0].Rubric[0].Ratings, ShouldHaveLength, 2)
			So(got[0].Rubric[0].Ratings[1].Description, ShouldEqual, "None")
			So(got[1].Rubric, ShouldBeNil)
		})

		Convey("A null description decodes empty", func() {
			So(got[1].Description, ShouldEqual, "")
		})
	})
}

func TestConfigurationComplete(t *testing.T) {
	Convey("A configuration needs both domain and token", t, func() {
		So(Configuration{}.Complete(), ShouldBeFalse)
		So(Configuration{Domain: "canvas.example.edu"}.Complete(), ShouldBeFalse)
		So(Configuration{AccessToken: "t"}.Complete(), ShouldBeFalse)
		So(Configuration{Domain: "canvas.example.edu", AccessToken: "t"}.Complete(), ShouldBeTrue)
	})
}
