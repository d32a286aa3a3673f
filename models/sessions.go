package models

import "time"

// SessionContext identifies one student's attempt at one exam. It is created
// when the student enters the exam and handed explicitly to every component
// that works on that attempt.
type SessionContext struct {
	ID        string
	StudentID uint
	ExamID    uint
	CreatedAt time.Time
}

// WarningEvent is an immutable record of a qualifying detection that survived
// the cooldown filter.
type WarningEvent struct {
	StudentID   uint      `json:"student_id"`
	ExamID      uint      `json:"exam_id"`
	ObjectLabel string    `json:"object_label"`
	WarningType string    `json:"warning_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e WarningEvent) Log() WarningLog {
	return WarningLog{
		StudentID:   e.StudentID,
		ExamID:      e.ExamID,
		ObjectName:  e.ObjectLabel,
		WarningType: e.WarningType,
		Timestamp:   e.Timestamp,
	}
}

func EventFromLog(l WarningLog) WarningEvent {
	return WarningEvent{
		StudentID:   l.StudentID,
		ExamID:      l.ExamID,
		ObjectLabel: l.ObjectName,
		WarningType: l.WarningType,
		Timestamp:   l.Timestamp,
	}
}
