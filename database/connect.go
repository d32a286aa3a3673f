package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrStorage wraps every failure of the underlying record store.
	ErrStorage          = errors.New("storage unavailable")
	ErrNotAssigned      = errors.New("exam not assigned to student")
	ErrAlreadySubmitted = errors.New("exam already submitted")
)

// WarningStore is the append-only log of warning events.
type WarningStore interface {
	Append(ctx context.Context, ev models.WarningEvent) error
	CountFor(ctx context.Context, studentID, examID uint) (int64, error)
	RecentFor(ctx context.Context, studentID, examID uint, limit int) ([]models.WarningEvent, error)
	Latest(ctx context.Context, limit int) ([]models.WarningEvent, error)
	GroupSummary(ctx context.Context, examIDs []uint) ([]WarningGroup, error)
}

// WarningGroup is the per (student, exam) aggregate used by reporting.
// Events are ordered oldest first.
type WarningGroup struct {
	StudentID uint
	ExamID    uint
	Count     int64
	Events    []models.WarningEvent
}

// Store keeps assignments, warning logs and results in sqlite through gorm.
type Store struct {
	db *gorm.DB
	// sqlite allows a single writer
	mu sync.Mutex
}

// A missing row is an expected answer for lookups, not a warning.
var gormLogger = logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
	SlowThreshold:             200 * time.Millisecond,
	LogLevel:                  logger.Warn,
	IgnoreRecordNotFoundError: true,
	Colorful:                  true,
})

// Open connects to the sqlite file at path and migrates the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open sessions database: %w", err)
	}
	if err := db.AutoMigrate(&models.Assignment{}, &models.WarningLog{}, &models.Result{}); err != nil {
		return nil, fmt.Errorf("migrate sessions database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
