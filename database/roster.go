package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const rosterSchema = `
CREATE TABLE IF NOT EXISTS teachers (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	teacher_id  INTEGER NOT NULL REFERENCES teachers(id),
	title       TEXT NOT NULL,
	duration    INTEGER NOT NULL,
	total_marks INTEGER NOT NULL
);
`

var ErrUnknown = errors.New("not found in roster")

// Roster reads people and exams owned by the user and exam management
// services. The proctoring pipeline only needs names, titles and ownership.
type Roster struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenRoster(path string) (*Roster, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	if _, err := db.Exec(rosterSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate roster: %w", err)
	}
	return &Roster{db: db}, nil
}

func (r *Roster) Close() error {
	return r.db.Close()
}

func (r *Roster) StudentName(ctx context.Context, id uint) (string, error) {
	return r.name(ctx, "SELECT username FROM students WHERE id = ?", id)
}

func (r *Roster) ExamTitle(ctx context.Context, id uint) (string, error) {
	return r.name(ctx, "SELECT title FROM exams WHERE id = ?", id)
}

func (r *Roster) IsTeacher(ctx context.Context, id uint) (bool, error) {
	_, err := r.name(ctx, "SELECT username FROM teachers WHERE id = ?", id)
	if errors.Is(err, ErrUnknown) {
		return false, nil
	}
	return err == nil, err
}

func (r *Roster) name(ctx context.Context, query string, id uint) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("id %d: %w", id, ErrUnknown)
	}
	if err != nil {
		return "", fmt.Errorf("roster lookup: %w", err)
	}
	return name, nil
}

// ExamsByTeacher lists the exam ids owned by a teacher.
func (r *Roster) ExamsByTeacher(ctx context.Context, teacherID uint) (examIDs []uint, err error) {
	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx, "SELECT id FROM exams WHERE teacher_id = ? ORDER BY id", teacherID)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		examIDs = append(examIDs, id)
	}
	return examIDs, rows.Err()
}

func (r *Roster) AddTeacher(ctx context.Context, username, name string) (uint, error) {
	return r.insert(ctx, "INSERT INTO teachers (username, name) VALUES (?, ?)", username, name)
}

func (r *Roster) AddStudent(ctx context.Context, username, name string) (uint, error) {
	return r.insert(ctx, "INSERT INTO students (username, name) VALUES (?, ?)", username, name)
}

func (r *Roster) AddExam(ctx context.Context, teacherID uint, title string, durationMin, totalMarks int) (uint, error) {
	return r.insert(ctx,
		"INSERT INTO exams (teacher_id, title, duration, total_marks) VALUES (?, ?, ?, ?)",
		teacherID, title, durationMin, totalMarks)
}

func (r *Roster) insert(ctx context.Context, query string, args ...any) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("roster insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("roster insert id: %w", err)
	}
	return uint(id), nil
}
