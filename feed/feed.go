// Package feed builds the warning summary a student's exam page polls for.
package feed

import (
	"context"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

const (
	// AutoSubmitThreshold is the warning count at which an attempt is
	// submitted and marked terminated.
	AutoSubmitThreshold = 10
	// RecentLimit is how many warnings the poll response carries.
	RecentLimit = 10
	TimeLayout  = "15:04:05"
)

type Reader interface {
	CountFor(ctx context.Context, studentID, examID uint) (int64, error)
	RecentFor(ctx context.Context, studentID, examID uint, limit int) ([]models.WarningEvent, error)
}

type Feed struct {
	store Reader
}

func New(store Reader) *Feed {
	return &Feed{store: store}
}

func ShouldSubmit(count int64) bool {
	return count >= AutoSubmitThreshold
}

// Poll reads the current state of the attempt. It has no side effects.
func (f *Feed) Poll(ctx context.Context, studentID, examID uint) (models.FeedResponse, error) {
	recent, err := f.store.RecentFor(ctx, studentID, examID, RecentLimit)
	if err != nil {
		return models.FeedResponse{}, err
	}
	count, err := f.store.CountFor(ctx, studentID, examID)
	if err != nil {
		return models.FeedResponse{}, err
	}

	warnings := make([]models.WarningView, 0, len(recent))
	for _, ev := range recent {
		warnings = append(warnings, models.WarningView{
			ObjectName:  ev.ObjectLabel,
			WarningType: ev.WarningType,
			Timestamp:   ev.Timestamp.Local().Format(TimeLayout),
		})
	}
	return models.FeedResponse{
		Warnings:     warnings,
		TotalCount:   count,
		ShouldSubmit: ShouldSubmit(count),
	}, nil
}
