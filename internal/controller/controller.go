// Package controller holds the client's view state and drives the load
// operations behind the course list and the assignment table.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/coursework/internal/canvas"
	"github.com/pbaille/coursework/internal/domain"
	"github.com/pbaille/coursework/internal/settings"
	"github.com/pbaille/coursework/pkg/logger"
	"github.com/pbaille/coursework/pkg/metrics"
)

// ErrSuperseded is returned by a load whose result was dropped because a
// newer load started while it was in flight.
var ErrSuperseded = errors.New("load superseded by a newer request")

// SavedNotice is posted after a successful configuration save.
const SavedNotice = "Configuration saved!"

// Controller owns the configuration and the view state.
// Loads follow latest-wins: only the most recently started load may change
// the view, the banner or the loading flag.
type Controller struct {
	mu sync.Mutex

	kv         settings.KV
	cfg        domain.Configuration
	httpClient *http.Client
	loc        *time.Location
	logger     logger.Logger

	view    View
	loading bool
	pending string
	banner  Banner
	notice  string

	coursesLoaded bool
	courses       []domain.Course

	heading           string
	courseID          int64
	assignmentsLoaded bool
	assignments       []domain.Assignment
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient sets the transport used for Canvas requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Controller) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLocation sets the zone due dates are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New builds a Controller, loading the saved configuration from kv.
func New(ctx context.Context, kv settings.KV, opts ...Option) (*Controller, error) {
	c := &Controller{
		kv:         kv,
		httpClient: http.DefaultClient,
		loc:        time.Local,
		logger:     logger.Nop(),
		view:       CourseList,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg, err := settings.Load(ctx, kv)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg
	return c, nil
}

// Configuration returns the configuration in use.
func (c *Controller) Configuration() domain.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// SaveConfiguration stores new settings and makes them current.
func (c *Controller) SaveConfiguration(ctx context.Context, domainName, token, proxy string) error {
	cfg, err := settings.Save(ctx, c.kv, domainName, token, proxy)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.banner.Show("Could not save configuration: " + err.Error())
		c.logger.Error(ctx, "save configuration", logger.Error(err))
		return err
	}
	c.cfg = cfg
	c.banner.Hide()
	c.notice = SavedNotice
	c.logger.Info(ctx, "configuration saved", logger.String("domain", cfg.Domain))
	return nil
}

// LoadCourses fetches the active courses into the course list.
func (c *Controller) LoadCourses(ctx context.Context) error {
	gen, client := c.begin(func() {
		c.coursesLoaded = false
		c.courses = nil
	})

	courses, err := client.Courses(ctx)

	return c.finish(ctx, gen, CourseList, err, func() {
		c.coursesLoaded = true
		c.courses = courses
	})
}

// LoadAssignments fetches a course's assignments and, on success, shows
// the assignment table. On failure the current view stays. The heading is
// the loaded course's name; courseName is used only for unknown courses.
func (c *Controller) LoadAssignments(ctx context.Context, courseID int64, courseName string) error {
	gen, client := c.begin(func() {
		c.assignmentsLoaded = false
		c.assignments = nil
		c.heading = courseName
		if i := slices.IndexFunc(c.courses, func(co domain.Course) bool { return co.ID == courseID }); i >= 0 {
			c.heading = c.courses[i].Name
		}
		c.courseID = courseID
	})

	assignments, err := client.Assignments(ctx, courseID)

	return c.finish(ctx, gen, AssignmentTable, err, func() {
		c.assignmentsLoaded = true
		c.assignments = assignments
		c.view = AssignmentTable
	})
}

// Back returns to the course list without fetching anything.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = CourseList
}

// Snapshot copies the view state for rendering and consumes the notice.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		View:              c.view,
		Loading:           c.loading,
		ErrorVisible:      c.banner.Visible(),
		ErrorMessage:      c.banner.Message(),
		Notice:            c.notice,
		Config:            c.cfg,
		Location:          c.loc,
		CoursesLoaded:     c.coursesLoaded,
		Courses:           slices.Clone(c.courses),
		Heading:           c.heading,
		CourseID:          c.courseID,
		AssignmentsLoaded: c.assignmentsLoaded,
		Assignments:       slices.Clone(c.assignments),
	}
	c.notice = ""
	return s
}

// begin starts a load: it hides the banner, resets the target view's data,
// raises the loading flag and claims the pending generation.
func (c *Controller) begin(reset func()) (string, *canvas.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := uuid.NewString()
	c.pending = gen
	c.loading = true
	c.banner.Hide()
	reset()

	client := canvas.New(c.cfg,
		canvas.WithHTTPClient(c.httpClient),
		canvas.WithLogger(c.logger.Named("canvas")),
	)
	return gen, client
}

// finish ends a load. A superseded load changes nothing. Otherwise the
// loading flag drops whatever the outcome, and err goes to the banner.
func (c *Controller) finish(ctx context.Context, gen string, view View, err error, apply func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != gen {
		metrics.RecordLoad(view.String(), "superseded")
		c.logger.Debug(ctx, "discarding superseded load", logger.String("view", view.String()))
		return ErrSuperseded
	}

	c.pending = ""
	c.loading = false
	if err != nil {
		c.banner.Show(err.Error())
		metrics.RecordLoad(view.String(), "error")
		return err
	}

	apply()
	metrics.RecordLoad(view.String(), "ok")
	return nil
}
