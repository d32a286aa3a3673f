// Command seed fills the roster and sessions databases with fake teachers,
// students, exams and assignments for local runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/config"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/proctor"
)

var subjects = []string{"Physics", "Chemistry", "Biology", "Algebra", "History", "Geography", "Economics"}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	teachers := flag.Int("teachers", 2, "number of teachers")
	students := flag.Int("students", 20, "number of students")
	examsPer := flag.Int("exams", 2, "exams per teacher")
	warnings := flag.Int("warnings", 0, "historical warnings per assignment, at most")
	seed := flag.Uint64("seed", 123, "faker seed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	store, err := database.Open(cfg.Database.SessionsPath)
	if err != nil {
		log.Fatalf("Failed to open sessions database: %v", err)
	}
	defer store.Close()
	roster, err := database.OpenRoster(cfg.Database.RosterPath)
	if err != nil {
		log.Fatalf("Failed to open roster: %v", err)
	}
	defer roster.Close()

	faker := gofakeit.New(*seed)
	ctx := context.Background()

	var examIDs []uint
	for i := 0; i < *teachers; i++ {
		teacherID, err := roster.AddTeacher(ctx, fmt.Sprintf("%s%d", faker.Username(), i), faker.Name())
		if err != nil {
			log.Fatalf("Failed to add teacher: %v", err)
		}
		for j := 0; j < *examsPer; j++ {
			title := fmt.Sprintf("%s %s", faker.RandomString(subjects), faker.RandomString([]string{"Midterm", "Final", "Quiz"}))
			examID, err := roster.AddExam(ctx, teacherID, title, faker.IntRange(30, 120), faker.IntRange(10, 100))
			if err != nil {
				log.Fatalf("Failed to add exam: %v", err)
			}
			examIDs = append(examIDs, examID)
		}
		log.Printf("Teacher %d owns %d exams", teacherID, *examsPer)
	}

	assigned := 0
	for i := 0; i < *students; i++ {
		studentID, err := roster.AddStudent(ctx, fmt.Sprintf("%s%d", faker.Username(), i), faker.Name())
		if err != nil {
			log.Fatalf("Failed to add student: %v", err)
		}
		for _, examID := range examIDs {
			if _, err := store.EnsureAssignment(ctx, studentID, examID); err != nil {
				log.Fatalf("Failed to assign exam %d to student %d: %v", examID, studentID, err)
			}
			assigned++
			if *warnings > 0 {
				if err := seedWarnings(ctx, store, faker, studentID, examID, faker.IntRange(0, *warnings)); err != nil {
					log.Fatalf("Failed to add warnings: %v", err)
				}
			}
		}
	}
	log.Printf("Seeded %d teachers, %d students, %d exams, %d assignments", *teachers, *students, len(examIDs), assigned)
}

// seedWarnings writes n past warnings spaced further apart than the cooldown.
func seedWarnings(ctx context.Context, store *database.Store, faker *gofakeit.Faker, studentID, examID uint, n int) error {
	ts := time.Now().Add(-24 * time.Hour)
	for i := 0; i < n; i++ {
		ts = ts.Add(proctor.LogCooldown + time.Duration(faker.IntRange(1, 60))*time.Second)
		label := faker.RandomString([]string{"cell phone", "book", "notebook"})
		ev := models.WarningEvent{
			StudentID:   studentID,
			ExamID:      examID,
			ObjectLabel: label,
			WarningType: proctor.WarningType(label),
			Timestamp:   ts,
		}
		if err := store.Append(ctx, ev); err != nil {
			return err
		}
		if _, err := store.IncrementWarningCount(ctx, studentID, examID); err != nil {
			return err
		}
	}
	return nil
}
