// Command seed loads the demo catalogue and student roster into an empty
// database. Inserts are idempotent, so the command is safe to re-run.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oes-platform/enrolment-api/pkg/config"
	"github.com/oes-platform/enrolment-api/pkg/database"
)

type seedCourse struct {
	id           string
	code         string
	name         string
	credits      int
	prerequisite string // code of the prerequisite course, empty for none
}

type seedClass struct {
	courseCode string
	section    string
	capacity   int
	schedule   string
}

type seedStudent struct {
	id    string
	name  string
	email string
}

var courses = []seedCourse{
	{code: "PRG3204E", name: "ADVANCED PROGRAMMING", credits: 6},
	{code: "IBM2202E", name: "INTRODUCTION TO BUSINESS MANAGEMENT", credits: 4},
	{code: "ITM3206E", name: "BUSINESS INTELLIGENCE SYSTEMS", credits: 6, prerequisite: "PRG3204E"},
	{code: "CIS3201E", name: "COMPUTER COMMUNICATION & NETWORKS", credits: 6, prerequisite: "IBM2202E"},
	{code: "MMD2205E", name: "MULTIMEDIA DESIGN", credits: 4},
}

var classes = []seedClass{
	{courseCode: "PRG3204E", section: "A", capacity: 30, schedule: "Mon 09:00-11:00"},
	{courseCode: "PRG3204E", section: "B", capacity: 30, schedule: "Tue 14:00-16:00"},
	{courseCode: "IBM2202E", section: "A", capacity: 40, schedule: "Wed 10:00-12:00"},
	{courseCode: "ITM3206E", section: "A", capacity: 25, schedule: "Thu 09:00-11:00"},
	{courseCode: "CIS3201E", section: "A", capacity: 25, schedule: "Wed 19:30-21:30"},
	// Closed section: capacity 0 rejects every admission.
	{courseCode: "MMD2205E", section: "A", capacity: 0, schedule: "Fri 14:00-16:00"},
}

var students = []seedStudent{
	{id: "stu-0001", name: "Siti Aminah", email: "siti@example.edu"},
	{id: "stu-0002", name: "Tan Wei Ming", email: "weiming@example.edu"},
	{id: "stu-0003", name: "Priya Nair", email: "priya@example.edu"},
}

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := seed(ctx, db); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("seeded %d courses, %d classes, %d students", len(courses), len(classes), len(students))
}

func seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	courseIDs := make(map[string]string, len(courses))
	for _, course := range courses {
		id := uuid.NewString()
		var existing string
		err := tx.GetContext(ctx, &existing, `SELECT id FROM courses WHERE code = $1`, course.code)
		if err == nil {
			courseIDs[course.code] = existing
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses (id, code, name, credits) VALUES ($1, $2, $3, $4)`,
			id, course.code, course.name, course.credits); err != nil {
			return err
		}
		courseIDs[course.code] = id
	}

	// Prerequisites are linked after all courses exist so declaration order
	// does not matter.
	for _, course := range courses {
		if course.prerequisite == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE courses SET prerequisite_course_id = $1 WHERE id = $2`,
			courseIDs[course.prerequisite], courseIDs[course.code]); err != nil {
			return err
		}
	}

	for _, class := range classes {
		var existing string
		err := tx.GetContext(ctx, &existing,
			`SELECT id FROM classes WHERE course_id = $1 AND section = $2`,
			courseIDs[class.courseCode], class.section)
		if err == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classes (id, course_id, section, capacity, schedule) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), courseIDs[class.courseCode], class.section, class.capacity, class.schedule); err != nil {
			return err
		}
	}

	for _, student := range students {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO students (id, name, email, created_at) VALUES ($1, $2, $3, NOW())
             ON CONFLICT (id) DO NOTHING`,
			student.id, student.name, student.email); err != nil {
			return err
		}
	}

	return tx.Commit()
}
