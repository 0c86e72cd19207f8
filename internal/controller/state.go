package controller

import (
	"time"

	"github.com/pbaille/coursework/internal/domain"
)

// View is the screen currently shown. Exactly one is visible at a time.
type View int

const (
	CourseList View = iota
	AssignmentTable
)

func (v View) String() string {
	switch v {
	case CourseList:
		return "courses"
	case AssignmentTable:
		return "assignments"
	default:
		return "unknown"
	}
}

// Banner is the error banner.
type Banner struct {
	message string
	visible bool
}

// Show sets the text and makes the banner visible.
func (b *Banner) Show(message string) {
	b.message = message
	b.visible = true
}

// Hide makes the banner invisible. The last message is kept.
func (b *Banner) Hide() {
	b.visible = false
}

func (b *Banner) Visible() bool   { return b.visible }
func (b *Banner) Message() string { return b.message }

// Snapshot is a point-in-time copy of everything the UI renders.
type Snapshot struct {
	View    View
	Loading bool

	ErrorVisible bool
	ErrorMessage string

	// Notice is a transient message, shown on one render only.
	Notice string

	Config   domain.Configuration
	Location *time.Location

	// CoursesLoaded is false until a course list request has succeeded,
	// so "never loaded" and "no courses" render differently.
	CoursesLoaded bool
	Courses       []domain.Course

	Heading           string
	CourseID          int64
	AssignmentsLoaded bool
	Assignments       []domain.Assignment
}

// CourseSectionVisible reports whether the course list is shown.
func (s Snapshot) CourseSectionVisible() bool { return s.View == CourseList }

// AssignmentSectionVisible reports whether the assignment table is shown.
func (s Snapshot) AssignmentSectionVisible() bool { return s.View == AssignmentTable }
