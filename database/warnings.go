package database

import (
	"context"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

func (s *Store) Append(ctx context.Context, ev models.WarningEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := ev.Log()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storageErr("append warning", err)
	}
	return nil
}

func (s *Store) CountFor(ctx context.Context, studentID, examID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WarningLog{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	if err != nil {
		return 0, storageErr("count warnings", err)
	}
	return count, nil
}

// RecentFor returns at most limit events for the pair, newest first.
func (s *Store) RecentFor(ctx context.Context, studentID, examID uint, limit int) ([]models.WarningEvent, error) {
	var rows []models.WarningLog
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("recent warnings", err)
	}
	return toEvents(rows), nil
}

// Latest returns the newest events across every session.
func (s *Store) Latest(ctx context.Context, limit int) ([]models.WarningEvent, error) {
	var rows []models.WarningLog
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("latest warnings", err)
	}
	return toEvents(rows), nil
}

// GroupSummary groups the warnings of the given exams by (student, exam),
// busiest pair first.
func (s *Store) GroupSummary(ctx context.Context, examIDs []uint) ([]WarningGroup, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}

	var counts []struct {
		StudentID uint
		ExamID    uint
		LogCount  int64
	}
	err := s.db.WithContext(ctx).Model(&models.WarningLog{}).
		Select("student_id, exam_id, COUNT(id) AS log_count").
		Where("exam_id IN ?", examIDs).
		Group("student_id, exam_id").
		Order("log_count DESC").Order("student_id").Order("exam_id").
		Scan(&counts).Error
	if err != nil {
		return nil, storageErr("group warnings", err)
	}

	groups := make([]WarningGroup, 0, len(counts))
	for _, c := range counts {
		var rows []models.WarningLog
		err := s.db.WithContext(ctx).
			Where("student_id = ? AND exam_id = ?", c.StudentID, c.ExamID).
			Order("timestamp").Order("id").
			Find(&rows).Error
		if err != nil {
			return nil, storageErr("group warning details", err)
		}
		groups = append(groups, WarningGroup{
			StudentID: c.StudentID,
			ExamID:    c.ExamID,
			Count:     c.LogCount,
			Events:    toEvents(rows),
		})
	}
	return groups, nil
}

func toEvents(rows []models.WarningLog) []models.WarningEvent {
	events := make([]models.WarningEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, models.EventFromLog(r))
	}
	return events
}
