package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/auth"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/broadcast"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/feed"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

const (
	writeWait    = 10 * time.Second
	latestLimit  = 20
	detailLayout = "2006-01-02 15:04:05"
)

// ObserveWarnings pushes every warning published while the socket is open.
// Nothing is replayed and nothing is expected from the client.
func (h *Handler) ObserveWarnings(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	sub := h.Hub.Join(broadcast.GroupWarnings)
	defer h.Hub.Leave(broadcast.GroupWarnings, sub)

	// reads only to notice the client leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("Observer %s disconnected: %v", sub.ID, err)
				return
			}
		}
	}
}

// IntegrityLogs reports, for the calling teacher's exams, every student who
// raised warnings, busiest first.
func (h *Handler) IntegrityLogs(c *gin.Context) {
	ctx := c.Request.Context()
	teacherID := auth.TeacherID(c)

	examIDs, err := h.Roster.ExamsByTeacher(ctx, teacherID)
	if err != nil {
		log.Printf("Failed to list exams of teacher %d: %v", teacherID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list exams"})
		return
	}
	groups, err := h.Warnings.GroupSummary(ctx, examIDs)
	if err != nil {
		log.Printf("Failed to group warnings: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warnings unavailable"})
		return
	}

	logs := make([]models.IntegritySummary, 0, len(groups))
	for _, g := range groups {
		summary := models.IntegritySummary{
			StudentID: g.StudentID,
			ExamID:    g.ExamID,
			LogCount:  g.Count,
			Details:   make([]models.IntegrityDetail, 0, len(g.Events)),
		}
		if summary.StudentName, err = h.Roster.StudentName(ctx, g.StudentID); err != nil && !errors.Is(err, database.ErrUnknown) {
			log.Printf("Failed to look up student %d: %v", g.StudentID, err)
		}
		if summary.ExamTitle, err = h.Roster.ExamTitle(ctx, g.ExamID); err != nil && !errors.Is(err, database.ErrUnknown) {
			log.Printf("Failed to look up exam %d: %v", g.ExamID, err)
		}
		result, err := h.Store.ResultFor(ctx, g.StudentID, g.ExamID)
		if err != nil {
			log.Printf("Failed to load result of student %d exam %d: %v", g.StudentID, g.ExamID, err)
		}
		if result != nil {
			score := result.Score
			summary.Score = &score
		}
		for _, ev := range g.Events {
			summary.Details = append(summary.Details, models.IntegrityDetail{
				Object: ev.ObjectLabel,
				Time:   ev.Timestamp.Local().Format(detailLayout),
			})
		}
		logs = append(logs, summary)
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ProctoringView lists the latest warnings across every running exam.
func (h *Handler) ProctoringView(c *gin.Context) {
	events, err := h.Warnings.Latest(c.Request.Context(), latestLimit)
	if err != nil {
		log.Printf("Failed to load latest warnings: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warnings unavailable"})
		return
	}
	warnings := make([]gin.H, 0, len(events))
	for _, ev := range events {
		warnings = append(warnings, gin.H{
			"studentID":    ev.StudentID,
			"examID":       ev.ExamID,
			"object_name":  ev.ObjectLabel,
			"warning_type": ev.WarningType,
			"time":         ev.Timestamp.Local().Format(feed.TimeLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warnings})
}

// Health reports live sessions and observer traffic.
func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["error"] = err.Error()
	}
	total, streaming := h.Sessions.Active()
	body["sessions"] = gin.H{"active": total, "streaming": streaming}
	body["observers"] = h.Hub.Stats()
	c.JSON(status, body)
}
