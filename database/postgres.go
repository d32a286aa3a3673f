package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS warning_logs (
		id           BIGSERIAL PRIMARY KEY,
		student_id   BIGINT NOT NULL,
		exam_id      BIGINT NOT NULL,
		object_name  VARCHAR(100) NOT NULL,
		warning_type VARCHAR(255) NOT NULL,
		timestamp    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_warning_student_exam ON warning_logs (student_id, exam_id)`,
	`CREATE INDEX IF NOT EXISTS idx_warning_timestamp ON warning_logs (timestamp)`,
}

// PGWarnings keeps the warning log in postgres so several backend instances
// can share it.
type PGWarnings struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, url string) (*PGWarnings, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}
	for _, stmt := range pgSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return &PGWarnings{pool: pool}, nil
}

func (p *PGWarnings) Close() {
	p.pool.Close()
}

func (p *PGWarnings) Append(ctx context.Context, ev models.WarningEvent) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO warning_logs (student_id, exam_id, object_name, warning_type, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		int64(ev.StudentID), int64(ev.ExamID), ev.ObjectLabel, ev.WarningType, ev.Timestamp.UTC())
	if err != nil {
		return storageErr("append warning", err)
	}
	return nil
}

func (p *PGWarnings) CountFor(ctx context.Context, studentID, examID uint) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM warning_logs WHERE student_id = $1 AND exam_id = $2`,
		int64(studentID), int64(examID)).Scan(&count)
	if err != nil {
		return 0, storageErr("count warnings", err)
	}
	return count, nil
}

func (p *PGWarnings) RecentFor(ctx context.Context, studentID, examID uint, limit int) ([]models.WarningEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT student_id, exam_id, object_name, warning_type, timestamp FROM warning_logs
		 WHERE student_id = $1 AND exam_id = $2
		 ORDER BY timestamp DESC, id DESC LIMIT $3`,
		int64(studentID), int64(examID), limit)
	if err != nil {
		return nil, storageErr("recent warnings", err)
	}
	return scanEvents(rows, "recent warnings")
}

func (p *PGWarnings) Latest(ctx context.Context, limit int) ([]models.WarningEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT student_id, exam_id, object_name, warning_type, timestamp FROM warning_logs
		 ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storageErr("latest warnings", err)
	}
	return scanEvents(rows, "latest warnings")
}

func (p *PGWarnings) GroupSummary(ctx context.Context, examIDs []uint) ([]WarningGroup, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(examIDs))
	for i, id := range examIDs {
		ids[i] = int64(id)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT student_id, exam_id, COUNT(id) AS log_count FROM warning_logs
		 WHERE exam_id = ANY($1)
		 GROUP BY student_id, exam_id
		 ORDER BY log_count DESC, student_id, exam_id`, ids)
	if err != nil {
		return nil, storageErr("group warnings", err)
	}
	var groups []WarningGroup
	for rows.Next() {
		var studentID, examID, count int64
		if err := rows.Scan(&studentID, &examID, &count); err != nil {
			rows.Close()
			return nil, storageErr("scan group", err)
		}
		groups = append(groups, WarningGroup{StudentID: uint(studentID), ExamID: uint(examID), Count: count})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("group warnings", err)
	}

	for i := range groups {
		detail, err := p.pool.Query(ctx,
			`SELECT student_id, exam_id, object_name, warning_type, timestamp FROM warning_logs
			 WHERE student_id = $1 AND exam_id = $2 ORDER BY timestamp, id`,
			int64(groups[i].StudentID), int64(groups[i].ExamID))
		if err != nil {
			return nil, storageErr("group warning details", err)
		}
		if groups[i].Events, err = scanEvents(detail, "group warning details"); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func scanEvents(rows pgx.Rows, op string) ([]models.WarningEvent, error) {
	defer rows.Close()
	var events []models.WarningEvent
	for rows.Next() {
		var (
			studentID, examID int64
			ev                models.WarningEvent
			ts                time.Time
		)
		if err := rows.Scan(&studentID, &examID, &ev.ObjectLabel, &ev.WarningType, &ts); err != nil {
			return nil, storageErr(op, err)
		}
		ev.StudentID, ev.ExamID, ev.Timestamp = uint(studentID), uint(examID), ts
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return events, nil
}
