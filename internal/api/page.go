package api

import (
	"embed"
	"html/template"
	"io"

	"github.com/pbaille/coursework/internal/controller"
	"github.com/pbaille/coursework/internal/render"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// pageData is what the page template renders: the snapshot plus its
// formatted cards and rows.
type pageData struct {
	controller.Snapshot
	Cards         []render.CourseCard
	Rows          []render.AssignmentRow
	NoCourses     string
	NoAssignments string
}

func newPageData(s controller.Snapshot) pageData {
	d := pageData{
		Snapshot:      s,
		Cards:         make([]render.CourseCard, 0, len(s.Courses)),
		Rows:          make([]render.AssignmentRow, 0, len(s.Assignments)),
		NoCourses:     render.NoCourses,
		NoAssignments: render.NoAssignments,
	}
	for _, c := range s.Courses {
		d.Cards = append(d.Cards, render.NewCourseCard(c))
	}
	for _, a := range s.Assignments {
		d.Rows = append(d.Rows, render.NewAssignmentRow(a, s.Location))
	}
	return d
}

// renderPage writes the whole UI for s.
func renderPage(w io.Writer, s controller.Snapshot) error {
	return pageTemplate.ExecuteTemplate(w, "index.html", newPageData(s))
}
