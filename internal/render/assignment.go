package render

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/coursework/internal/domain"
)

// Placeholder texts.
const (
	NoCourses      = "No active courses found."
	NoAssignments  = "No assignments found."
	NoDueDate      = "No due date"
	NoPoints       = "N/A"
	NoRubric       = "No rubric"
	NoInstructions = "No instructions"
)

// dueDateLayout is how due dates are shown.
const dueDateLayout = "Jan 2, 2006, 3:04 PM"

// AssignmentRow holds the five cells of one assignment table row. Rubric
// and Instructions are markup; the rest is plain text.
type AssignmentRow struct {
	Name         string
	URL          string
	Due          string
	Points       string
	Rubric       template.HTML
	Instructions template.HTML
}

// NewAssignmentRow formats a for display, showing due dates in loc.
func NewAssignmentRow(a domain.Assignment, loc *time.Location) AssignmentRow {
	return AssignmentRow{
		Name:         a.Name,
		URL:          a.HTMLURL,
		Due:          FormatDueDate(a.DueAt, loc),
		Points:       FormatPoints(a.PointsPossible),
		Rubric:       template.HTML(FormatRubric(a.Rubric)),
		Instructions: template.HTML(FormatInstructions(a.Description)),
	}
}

// CourseCard is one clickable course.
type CourseCard struct {
	Name string
	Code string
	Href string
}

// NewCourseCard formats c. Href opens the course's assignment table.
func NewCourseCard(c domain.Course) CourseCard {
	q := url.Values{"name": {c.Name}}
	return CourseCard{
		Name: c.Name,
		Code: c.CourseCode,
		Href: "/courses/" + strconv.FormatInt(c.ID, 10) + "/assignments?" + q.Encode(),
	}
}

// FormatDueDate renders t in loc, or NoDueDate when t is nil.
func FormatDueDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return NoDueDate
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dueDateLayout)
}

// FormatPoints renders p in its shortest form. Zero is a value; nil is NoPoints.
func FormatPoints(p *float64) string {
	if p == nil {
		return NoPoints
	}
	return formatNumber(*p)
}

// FormatInstructions renders an assignment description, collapsing long ones.
func FormatInstructions(description string) string {
	if description == "" {
		return NoInstructions
	}
	return TruncateHTML(description, InstructionsLimit)
}

// FormatRubric renders a rubric as a list, one item per criterion in order.
func FormatRubric(rubric []domain.Criterion) string {
	if len(rubric) == 0 {
		return NoRubric
	}

	var sb strings.Builder
	sb.WriteString(`<ul class="rubric-list">`)
	for _, c := range rubric {
		sb.WriteString(`<li><strong>`)
		sb.WriteString(EscapeHTML(c.Description))
		sb.WriteString(`</strong> (`)
		sb.WriteString(formatNumber(c.Points))
		sb.WriteString(`pts)`)
		if ratings := formatRatings(c.Ratings); ratings != "" {
			sb.WriteString(`<br><small>`)
			sb.WriteString(EscapeHTML(ratings))
			sb.WriteString(`</small>`)
		}
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)
	return sb.String()
}

func formatRatings(ratings []domain.Rating) string {
	parts := make([]string, len(ratings))
	for i, r := range ratings {
		parts[i] = r.Description + " (" + formatNumber(r.Points) + "pts)"
	}
	return strings.Join(parts, ", ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
