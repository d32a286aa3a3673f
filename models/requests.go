package models

// WarningView is one entry of the poll response. Timestamp is HH:MM:SS.
type WarningView struct {
	ObjectName  string `json:"object_name"`
	WarningType string `json:"warning_type"`
	Timestamp   string `json:"timestamp"`
}

type FeedResponse struct {
	Warnings     []WarningView `json:"warnings"`
	TotalCount   int64         `json:"total_count"`
	ShouldSubmit bool          `json:"should_submit"`
}

// SubmitRequest carries the grading collaborator's score for the attempt.
type SubmitRequest struct {
	Score      int `json:"score"`
	TotalMarks int `json:"totalMarks"`
}

type IntegrityDetail struct {
	Object string `json:"object"`
	Time   string `json:"time"`
}

// IntegritySummary is one (student, exam) row of the teacher's report.
type IntegritySummary struct {
	StudentID   uint              `json:"studentID"`
	ExamID      uint              `json:"examID"`
	StudentName string            `json:"studentName"`
	ExamTitle   string            `json:"examTitle"`
	LogCount    int64             `json:"logCount"`
	Score       *int              `json:"score"`
	Details     []IntegrityDetail `json:"details"`
}

// BroadcastMessage is what observers receive on the warnings socket. Type is
// "warning" or "auto_submit".
type BroadcastMessage struct {
	Type      string        `json:"type"`
	Warning   *WarningEvent `json:"warning,omitempty"`
	StudentID uint          `json:"student_id,omitempty"`
	ExamID    uint          `json:"exam_id,omitempty"`
	Count     int64         `json:"count,omitempty"`
	Origin    string        `json:"origin,omitempty"`
}
