package database

import (
	"context"
	"errors"
	"log"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"gorm.io/gorm"
)

// EnsureAssignment returns the assignment for the pair, creating it if needed.
func (s *Store) EnsureAssignment(ctx context.Context, studentID, examID uint) (models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var assignment models.Assignment
	result := s.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Limit(1).
		Find(&assignment)
	if result.Error != nil {
		return assignment, storageErr("find assignment", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Println("Assigning exam", examID, "to student", studentID)
		assignment = models.Assignment{StudentID: studentID, ExamID: examID}
		if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
			return assignment, storageErr("create assignment", err)
		}
	}
	return assignment, nil
}

func (s *Store) GetAssignment(ctx context.Context, studentID, examID uint) (models.Assignment, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).First(&assignment, "student_id = ? AND exam_id = ?", studentID, examID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return assignment, ErrNotAssigned
		}
		return assignment, storageErr("get assignment", err)
	}
	return assignment, nil
}

// IncrementWarningCount bumps the live counter on the assignment by one and
// returns the new value. It is a plain read-modify-write: one student runs one
// session, so concurrent writers to the same row are not expected and the last
// writer wins.
func (s *Store) IncrementWarningCount(ctx context.Context, studentID, examID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var assignment models.Assignment
	err := s.db.WithContext(ctx).First(&assignment, "student_id = ? AND exam_id = ?", studentID, examID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotAssigned
		}
		return 0, storageErr("load assignment", err)
	}
	assignment.WarningCount++
	if err := s.db.WithContext(ctx).Save(&assignment).Error; err != nil {
		return 0, storageErr("save assignment", err)
	}
	return assignment.WarningCount, nil
}

// StoredWarningCount tells Submit to use the live counter on the assignment
// instead of a count read from the warning log.
const StoredWarningCount int64 = -1

// Submit closes the attempt: it stores the result and overwrites the live
// counter with warningCount, the authoritative count read from the warning log.
// When warningCount is StoredWarningCount the live counter is kept and used.
// terminate decides from the final count whether the attempt was cut short.
// The final count is returned alongside the result.
func (s *Store) Submit(ctx context.Context, studentID, examID uint, warningCount int64, terminate func(int64) bool, req models.SubmitRequest) (models.Result, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.Result
	count := warningCount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.Assignment
		if err := tx.First(&assignment, "student_id = ? AND exam_id = ?", studentID, examID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAssigned
			}
			return storageErr("load assignment", err)
		}
		if assignment.Submitted {
			return ErrAlreadySubmitted
		}
		if count < 0 {
			count = int64(assignment.WarningCount)
		}
		terminated := terminate != nil && terminate(count)

		result = models.Result{
			ExamID:       examID,
			StudentID:    studentID,
			Score:        req.Score,
			TotalMarks:   req.TotalMarks,
			IsTerminated: terminated,
		}
		if err := tx.Create(&result).Error; err != nil {
			return storageErr("create result", err)
		}

		assignment.Submitted = true
		assignment.Terminated = terminated
		assignment.WarningCount = int(count)
		if err := tx.Save(&assignment).Error; err != nil {
			return storageErr("save assignment", err)
		}
		return nil
	})
	return result, count, err
}

// ResultFor returns the latest result of the pair, or nil if there is none.
func (s *Store) ResultFor(ctx context.Context, studentID, examID uint) (*models.Result, error) {
	var result models.Result
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("id DESC").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get result", err)
	}
	return &result, nil
}
