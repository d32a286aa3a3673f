package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/auth"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/broadcast"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/detector"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/feed"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/sessions"
)

// Roster is the part of the user and exam services the handlers read.
type Roster interface {
	StudentName(ctx context.Context, id uint) (string, error)
	ExamTitle(ctx context.Context, id uint) (string, error)
	IsTeacher(ctx context.Context, id uint) (bool, error)
	ExamsByTeacher(ctx context.Context, teacherID uint) ([]uint, error)
}

// Handler carries everything the routes share. It is built once in main.
type Handler struct {
	Store      *database.Store
	Warnings   database.WarningStore
	Roster     Roster
	Sessions   *sessions.Registry
	Feed       *feed.Feed
	Detector   detector.Detector
	Hub        *broadcast.Hub
	Publisher  *broadcast.Publisher
	OpenCamera camera.Opener
	Upgrader   websocket.Upgrader
}

// NewUpgrader only accepts websocket connections from the listed origins.
func NewUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}
}

func (h *Handler) Register(router *gin.Engine) {
	student := router.Group("/student/exam/:exam_id")
	student.POST("/enter", h.EnterExam)
	student.GET("", auth.RequireSession(h.Sessions), h.AttemptExam)
	student.POST("/submit", auth.RequireSession(h.Sessions), h.SubmitExam)

	router.GET("/video_feed/", auth.RequireSession(h.Sessions), h.VideoFeed)

	teacher := router.Group("/", auth.RequireTeacher(h.Roster))
	teacher.GET("/teacher/integrity-logs/", h.IntegrityLogs)
	teacher.GET("/proctoring/", h.ProctoringView)
	teacher.GET("/ws/warnings/", h.ObserveWarnings)

	router.GET("/healthz", h.Health)
}

func examParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("exam_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid exam id")
	}
	return uint(id), nil
}

// sessionExam returns the session of the request after checking it belongs
// to the exam in the path.
func sessionExam(c *gin.Context) (uint, bool) {
	examID, err := examParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	if auth.Session(c).ExamID != examID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another exam"})
		return 0, false
	}
	return examID, true
}
