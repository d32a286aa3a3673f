// Package auth resolves who is calling. Sign-in itself is handled upstream:
// the identity provider in front of this service sets the student or teacher
// ID, and exam entry hands out a proctoring session cookie.
package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/sessions"
)

const (
	SessionCookie = "proctor_session"
	SessionHeader = "X-Proctor-Session"
	StudentCookie = "student_id"
	StudentHeader = "X-Student-ID"
	TeacherCookie = "teacher_id"
	TeacherHeader = "X-Teacher-ID"

	sessionKey = "proctorSession"
	teacherKey = "teacherID"
)

var ErrNoIdentity = errors.New("no identity on request")

// StudentID reads the student identity from the cookie, falling back to the
// header for clients that cannot send cookies.
func StudentID(c *gin.Context) (uint, error) {
	raw, err := c.Cookie(StudentCookie)
	if err != nil || raw == "" {
		raw = c.GetHeader(StudentHeader)
	}
	if raw == "" {
		return 0, ErrNoIdentity
	}
	return parseID(raw)
}

// SetSession hands the session to the browser. The cookie is HTTP only and
// lives as long as the browser session.
func SetSession(c *gin.Context, sc models.SessionContext) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sc.ID, 0, "/", "", false, true)
}

func ClearSession(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// RequireSession rejects requests without a live proctoring session.
func RequireSession(reg *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = c.GetHeader(SessionHeader)
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "proctoring session not found"})
			return
		}
		sc, err := reg.Lookup(id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(sessionKey, sc)
		c.Next()
	}
}

// Session returns the context stored by RequireSession.
func Session(c *gin.Context) models.SessionContext {
	return c.MustGet(sessionKey).(models.SessionContext)
}

type TeacherChecker interface {
	IsTeacher(ctx context.Context, id uint) (bool, error)
}

func RequireTeacher(roster TeacherChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TeacherHeader)
		if raw == "" {
			// browsers cannot set headers on a websocket upgrade
			raw, _ = c.Cookie(TeacherCookie)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "teacher identity not found"})
			return
		}
		id, err := parseID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ok, err := roster.IsTeacher(c.Request.Context(), id)
		if err != nil {
			log.Printf("Failed to look up teacher %d: %v", id, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to look up teacher"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a teacher"})
			return
		}
		c.Set(teacherKey, id)
		c.Next()
	}
}

func TeacherID(c *gin.Context) uint {
	return c.MustGet(teacherKey).(uint)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id " + strconv.Quote(raw))
	}
	return uint(id), nil
}
