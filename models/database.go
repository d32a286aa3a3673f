package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment links a student to an exam and carries the live warning counter.
type Assignment struct {
	gorm.Model
	ExamID       uint      `json:"examID" gorm:"uniqueIndex:idx_assignment_exam_student"`
	StudentID    uint      `json:"studentID" gorm:"uniqueIndex:idx_assignment_exam_student"`
	AssignedAt   time.Time `json:"assignedAt" gorm:"autoCreateTime"`
	Submitted    bool      `json:"submitted"`
	Terminated   bool      `json:"terminated"`
	WarningCount int       `json:"warningCount"`
}

// WarningLog is the persisted form of a WarningEvent. Rows are only ever inserted.
type WarningLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	StudentID   uint      `json:"studentID" gorm:"index:idx_warning_student_exam"`
	ExamID      uint      `json:"examID" gorm:"index:idx_warning_student_exam"`
	ObjectName  string    `json:"objectName" gorm:"size:100"`
	WarningType string    `json:"warningType" gorm:"size:255"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}

type Result struct {
	gorm.Model
	ExamID       uint `json:"examID" gorm:"index"`
	StudentID    uint `json:"studentID" gorm:"index"`
	Score        int  `json:"score"`
	TotalMarks   int  `json:"totalMarks"`
	IsTerminated bool `json:"isTerminated"`
}
