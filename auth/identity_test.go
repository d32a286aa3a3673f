package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/sessions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type teachers map[uint]bool

func (t teachers) IsTeacher(_ context.Context, id uint) (bool, error) {
	if id == 99 {
		return false, errors.New("roster unavailable")
	}
	return t[id], nil
}

func TestStudentID(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
		header string
		want   uint
		err    bool
	}{
		{name: "cookie", cookie: "12", want: 12},
		{name: "header", header: "7", want: 7},
		{name: "cookie wins", cookie: "3", header: "4", want: 3},
		{name: "missing", err: true},
		{name: "garbage", header: "abc", err: true},
		{name: "zero", header: "0", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: StudentCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				c.Request.Header.Set(StudentHeader, tc.header)
			}
			got, err := StudentID(c)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %d, %v", got, err)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	reg := sessions.NewRegistry()
	sc := reg.Create(1, 2)

	r := gin.New()
	r.GET("/x", RequireSession(reg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"exam": Session(c).ExamID})
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sc.ID})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"exam":2}` {
		t.Fatalf("cookie: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(SessionHeader, sc.ID)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("header: %d", w.Code)
	}

	for _, id := range []string{"", "unknown"} {
		req = httptest.NewRequest(http.MethodGet, "/x", nil)
		if id != "" {
			req.Header.Set(SessionHeader, id)
		}
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("session %q: %d", id, w.Code)
		}
	}
}

func TestRequireTeacher(t *testing.T) {
	r := gin.New()
	r.GET("/t", RequireTeacher(teachers{5: true}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"teacher": TeacherID(c)})
	})

	cases := map[string]int{
		"5":  http.StatusOK,
		"6":  http.StatusForbidden,
		"x":  http.StatusBadRequest,
		"":   http.StatusUnauthorized,
		"99": http.StatusInternalServerError,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		if header != "" {
			req.Header.Set(TeacherHeader, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("header %q: got %d, want %d", header, w.Code, want)
		}
	}
}

func TestRequireTeacherFromCookie(t *testing.T) {
	r := gin.New()
	r.GET("/t", RequireTeacher(teachers{5: true}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"teacher": TeacherID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.AddCookie(&http.Cookie{Name: TeacherCookie, Value: "5"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"teacher":5}` {
		t.Fatalf("cookie: %d %s", w.Code, w.Body.String())
	}

	// the header wins over the cookie
	req = httptest.NewRequest(http.MethodGet, "/t", nil)
	req.AddCookie(&http.Cookie{Name: TeacherCookie, Value: "5"})
	req.Header.Set(TeacherHeader, "6")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("header over cookie: %d", w.Code)
	}
}
