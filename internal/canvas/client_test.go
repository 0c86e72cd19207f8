package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pbaille/coursework/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

// upstream starts a TLS server standing in for a Canvas instance.
func upstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, domain.Configuration) {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)
	cfg := domain.Configuration{
		Domain:      strings.TrimPrefix(ts.URL, "https://"),
		AccessToken: "secret-token",
	}
	return ts, cfg
}

func TestRequestRequiresConfiguration(t *testing.T) {
	Convey("Given a client without a domain or token", t, func() {
		var calls int32
		ts, cfg := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		})

		cases := []struct {
			name string
			cfg  domain.Configuration
		}{
			{"no token", domain.Configuration{Domain: cfg.Domain}},
			{"no domain", domain.Configuration{AccessToken: cfg.AccessToken}},
			{"nothing", domain.Configuration{ProxyPrefix: "https://corsproxy.io/?"}},
		}
		for _, tc := range cases {
			Convey("With "+tc.name+" the request fails before any network call", func() {
				err := New(tc.cfg, WithHTTPClient(ts.Client())).Request(context.Background(), "/courses", &[]domain.Course{})

				var cfgErr *ConfigurationError
				So(errors.As(err, &cfgErr), ShouldBeTrue)
				So(atomic.LoadInt32(&calls), ShouldEqual, 0)
			})
		}
	})
}

func TestRequestHeadersAndURL(t *testing.T) {
	Convey("Given a configured client", t, func() {
		var got *http.Request
		ts, cfg := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			got = r.Clone(context.Background())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id": 42, "name": "Biology", "course_code": "BIO-101"}]`))
		})
		c := New(cfg, WithHTTPClient(ts.Client()))

		Convey("Courses hits the active-enrollment endpoint", func() {
			courses, err := c.Courses(context.Background())
			So(err, ShouldBeNil)
			So(courses, ShouldResemble, []domain.Course{{ID: 42, Name: "Biology", CourseCode: "BIO-101"}})

			So(got.URL.Path, ShouldEqual, "/api/v1/courses")
			So(got.URL.Query().Get("enrollment_state"), ShouldEqual, "active")
			So(got.URL.Query().Get("per_page"), ShouldEqual, "100")
		})

		Convey("Requests carry the bearer token and the proxy header", func() {
			_, err := c.Courses(context.Background())
			So(err, ShouldBeNil)
			So(got.Header.Get("Authorization"), ShouldEqual, "Bearer secret-token")
			So(got.Header.Get("X-Requested-With"), ShouldEqual, "XMLHttpRequest")
		})

		Convey("Assignments asks for rubrics explicitly", func() {
			_, err := c.Assignments(context.Background(), 42)
			So(err, ShouldBeNil)
			So(got.URL.Path, ShouldEqual, "/api/v1/courses/42/assignments")
			So(got.URL.Query()["include[]"], ShouldResemble, []string{"rubric"})
			So(got.URL.Query().Get("per_page"), ShouldEqual, "100")
		})
	})
}

func TestStatusMapping(t *testing.T) {
	Convey("Given an upstream answering with an error status", t, func() {
		status := http.StatusOK
		ts, cfg := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"errors":[{"message":"nope"}]}`))
		})
		c := New(cfg, WithHTTPClient(ts.Client()))
		ctx := context.Background()

		Convey("401 yields an AuthError", func() {
			status = http.StatusUnauthorized
			_, err := c.Courses(ctx)
			var authErr *AuthError
			So(errors.As(err, &authErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Invalid access token")
		})

		Convey("403 yields a ForbiddenError naming both causes", func() {
			status = http.StatusForbidden
			_, err := c.Courses(ctx)
			var forbidden *ForbiddenError
			So(errors.As(err, &forbidden), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "proxy")
			So(err.Error(), ShouldContainSubstring, "permissions")
		})

		Convey("Other statuses yield a RequestError with code and text", func() {
			for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusTooManyRequests} {
				status = code
				_, err := c.Courses(ctx)
				var reqErr *RequestError
				So(errors.As(err, &reqErr), ShouldBeTrue)
				So(reqErr.StatusCode, ShouldEqual, code)
				So(err.Error(), ShouldEqual, fmt.Sprintf("API request failed: %d %s", code, http.StatusText(code)))
			}
		})
	})
}

func TestStatusMessageIncludesCode(t *testing.T) {
	Convey("The RequestError message leads with the numeric status", t, func() {
		err := &RequestError{StatusCode: 404, StatusText: "Not Found"}
		So(err.Error(), ShouldEqual, "API request failed: 404 Not Found")
	})
}

func TestDecodeAndTransportFailures(t *testing.T) {
	Convey("Given an upstream returning garbage", t, func() {
		ts, cfg := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		})

		Convey("The parse failure is a RequestError", func() {
			_, err := New(cfg, WithHTTPClient(ts.Client())).Courses(context.Background())
			var reqErr *RequestError
			So(errors.As(err, &reqErr), ShouldBeTrue)
			So(reqErr.StatusCode, ShouldEqual, 0)
			So(reqErr.Unwrap(), ShouldNotBeNil)
		})
	})

	Convey("Given an unreachable upstream", t, func() {
		ts := httptest.NewTLSServer(http.NotFoundHandler())
		cfg := domain.Configuration{Domain: strings.TrimPrefix(ts.URL, "https://"), AccessToken: "t"}
		client := ts.Client()
		ts.Close()

		Convey("The transport failure is a RequestError", func() {
			_, err := New(cfg, WithHTTPClient(client)).Courses(context.Background())
			var reqErr *RequestError
			So(errors.As(err, &reqErr), ShouldBeTrue)
		})
	})
}

func TestProxyWrapping(t *testing.T) {
	Convey("Given a forwarding proxy prefix", t, func() {
		var rawQuery, auth string
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawQuery = r.URL.RawQuery
			auth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer proxy.Close()

		cfg := domain.Configuration{
			Domain:      "canvas.example.edu",
			AccessToken: "tok",
			ProxyPrefix: proxy.URL + "/?",
		}
		c := New(cfg, WithHTTPClient(proxy.Client()))

		Convey("The upstream URL is percent-encoded after the prefix", func() {
			courses, err := c.Courses(context.Background())
			So(err, ShouldBeNil)
			So(courses, ShouldBeEmpty)

			upstreamURL, err := url.QueryUnescape(rawQuery)
			So(err, ShouldBeNil)
			So(upstreamURL, ShouldEqual, "https://canvas.example.edu/api/v1/courses?enrollment_state=active&per_page=100")
			So(rawQuery, ShouldNotContainSubstring, "&")
			So(auth, ShouldEqual, "Bearer tok")
		})
	})
}

func TestURL(t *testing.T) {
	Convey("URL builds the upstream address", t, func() {
		cfg := domain.Configuration{Domain: "canvas.example.edu", AccessToken: "t"}

		Convey("Directly without a proxy", func() {
			So(New(cfg).URL("/courses/1/assignments?per_page=100&include[]=rubric"), ShouldEqual,
				"https://canvas.example.edu/api/v1/courses/1/assignments?per_page=100&include[]=rubric")
		})

		Convey("Behind a proxy with component encoding", func() {
			cfg.ProxyPrefix = "https://corsproxy.io/?"
			So(New(cfg).URL("/courses?enrollment_state=active&per_page=100"), ShouldEqual,
				"https://corsproxy.io/?https%3A%2F%2Fcanvas.example.edu%2Fapi%2Fv1%2Fcourses%3Fenrollment_state%3Dactive%26per_page%3D100")
		})
	})
}

func TestEncodeURIComponent(t *testing.T) {
	Convey("encodeURIComponent matches browser escaping", t, func() {
		So(encodeURIComponent("a b"), ShouldEqual, "a%20b")
		So(encodeURIComponent("it's (ok)!*~"), ShouldEqual, "it's%20(ok)!*~")
		So(encodeURIComponent("a+b"), ShouldEqual, "a%2Bb")
		So(encodeURIComponent("include[]=rubric"), ShouldEqual, "include%5B%5D%3Drubric")
	})
}
