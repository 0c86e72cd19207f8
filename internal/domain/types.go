package domain

import "time"

// Configuration holds what is needed to reach the Canvas API.
type Configuration struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"-"`
	ProxyPrefix string `json:"proxy_prefix"`
}

// Complete reports whether both domain and token are set.
func (c Configuration) Complete() bool {
	return c.Domain != "" && c.AccessToken != ""
}

// Course is an active course enrollment
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code,omitempty"`
}

// Assignment is a course assignment, optionally with its rubric.
// A nil PointsPossible means the API sent null, which is not the same as 0.
type Assignment struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	DueAt          *time.Time  `json:"due_at,omitempty"`
	PointsPossible *float64    `json:"points_possible,omitempty"`
	Rubric         []Criterion `json:"rubric,omitempty"`
	Description    string      `json:"description,omitempty"`
	HTMLURL        string      `json:"html_url"`
}

// Criterion is one row of a rubric
type Criterion struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	Points      float64  `json:"points"`
	Ratings     []Rating `json:"ratings,omitempty"`
}

// Rating is a named scoring tier within a criterion
type Rating struct {
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}
