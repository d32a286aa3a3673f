package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/auth"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/feed"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/mjpeg"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/proctor"
)

// EnterExam starts a proctoring session for an assigned, unsubmitted exam.
func (h *Handler) EnterExam(c *gin.Context) {
	studentID, err := auth.StudentID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	examID, err := examParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	title, err := h.Roster.ExamTitle(ctx, examID)
	if err != nil {
		if errors.Is(err, database.ErrUnknown) {
			c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
			return
		}
		log.Printf("Failed to look up exam %d: %v", examID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up exam"})
		return
	}

	assignment, err := h.Store.GetAssignment(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, database.ErrNotAssigned) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to load assignment for student %d exam %d: %v", studentID, examID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assignment"})
		return
	}
	if assignment.Submitted {
		c.JSON(http.StatusConflict, gin.H{"error": database.ErrAlreadySubmitted.Error()})
		return
	}

	sc := h.Sessions.Create(studentID, examID)
	auth.SetSession(c, sc)

	resp, err := h.Feed.Poll(ctx, studentID, examID)
	if err != nil {
		log.Printf("Failed to read warnings for session %s: %v", sc.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionID": sc.ID,
		"exam":      gin.H{"examID": examID, "title": title},
		"streamURL": "/video_feed/",
		"feed":      resp,
	})
}

// AttemptExam answers the page's XHR poll with the warning feed and any other
// request with a description of the attempt.
func (h *Handler) AttemptExam(c *gin.Context) {
	examID, ok := sessionExam(c)
	if !ok {
		return
	}
	sc := auth.Session(c)

	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		resp, err := h.Feed.Poll(c.Request.Context(), sc.StudentID, examID)
		if err != nil {
			log.Printf("Poll failed for session %s: %v", sc.ID, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warnings unavailable"})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	title, err := h.Roster.ExamTitle(c.Request.Context(), examID)
	if err != nil && !errors.Is(err, database.ErrUnknown) {
		log.Printf("Failed to look up exam %d: %v", examID, err)
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionID":           sc.ID,
		"exam":                gin.H{"examID": examID, "title": title},
		"streamURL":           "/video_feed/",
		"autoSubmitThreshold": feed.AutoSubmitThreshold,
	})
}

// VideoFeed streams the session's camera as MJPEG while the proctoring
// pipeline watches it. The stream ends when the camera does, the client goes
// away or the exam is submitted.
func (h *Handler) VideoFeed(c *gin.Context) {
	sc := auth.Session(c)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	gen, err := h.Sessions.Attach(sc.ID, cancel)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	defer h.Sessions.Detach(sc.ID, gen)

	src, err := h.OpenCamera(ctx, sc)
	if err != nil {
		log.Printf("Camera unavailable for session %s: %v", sc.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "camera unavailable"})
		return
	}

	ctrl := proctor.NewController(sc, h.Detector, h.Warnings, h.Store, h.Publisher)
	c.Header("Content-Type", mjpeg.ContentType)
	c.Header("Cache-Control", "no-cache, no-store")
	c.Status(http.StatusOK)
	mw := mjpeg.NewWriter(c.Writer)

	log.Printf("Streaming session %s (student %d exam %d)", sc.ID, sc.StudentID, sc.ExamID)
	err = proctor.NewPipeline(sc, ctrl).Run(ctx, src, func(f models.Frame) error {
		return mw.WriteFrame(f.Data)
	})
	if err != nil {
		log.Printf("Stream for session %s ended: %v", sc.ID, err)
	}
}

// SubmitExam ends the attempt. The warning log decides whether it was
// terminated; the live counter stands in only when the log cannot be read.
func (h *Handler) SubmitExam(c *gin.Context) {
	examID, ok := sessionExam(c)
	if !ok {
		return
	}
	sc := auth.Session(c)
	ctx := c.Request.Context()

	var req models.SubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	h.Sessions.Stop(sc.ID)

	count, err := h.Warnings.CountFor(ctx, sc.StudentID, examID)
	if err != nil {
		log.Printf("Failed to count warnings for session %s, using live counter: %v", sc.ID, err)
		count = database.StoredWarningCount
	}

	result, count, err := h.Store.Submit(ctx, sc.StudentID, examID, count, feed.ShouldSubmit, req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadySubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, database.ErrNotAssigned):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Failed to submit session %s: %v", sc.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit exam"})
		}
		return
	}

	h.Sessions.Delete(sc.ID)
	auth.ClearSession(c)
	log.Printf("Student %d submitted exam %d with %d warnings (terminated=%v)", sc.StudentID, examID, count, result.IsTerminated)
	c.JSON(http.StatusOK, gin.H{
		"resultID":     result.ID,
		"score":        result.Score,
		"totalMarks":   result.TotalMarks,
		"warningCount": count,
		"isTerminated": result.IsTerminated,
	})
}
