// Package store persists users, tracked applications and run history in
// Postgres. It is optional: without it the server still processes ad-hoc
// requests but loses auth, tracked applications and scheduled re-processing.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/yashsmehta/auto-apply/models"
)

type Store struct {
	DB *sql.DB
}

// Run statuses persisted in the runs table.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// TrackedApplication is an application registered for (re-)processing, as
// opposed to the ad-hoc job payload handed to the pipeline.
type TrackedApplication struct {
	ID             string
	UserID         string
	Name           string
	InfoURL        string
	ApplicationURL string
	Context        string
	ScheduleCron   string
	CreatedAt      time.Time
}

// Job converts a tracked application into a pipeline job.
func (t TrackedApplication) Job() models.Application {
	return models.Application{
		Name:           t.Name,
		InfoURL:        t.InfoURL,
		ApplicationURL: t.ApplicationURL,
		Context:        t.Context,
	}
}

// Run is one row of run history.
type Run struct {
	ID             string
	ApplicationID  string
	Status         string
	Error          *string
	TotalQuestions int
	TotalAnswers   int
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// New connects using DATABASE_URL or the POSTGRES_* variables.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Application operations
func (s *Store) CreateApplication(ctx context.Context, userID string, app models.Application, scheduleCron string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO applications (user_id, name, info_url, application_url, context, schedule_cron)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		userID, app.Name, app.InfoURL, app.ApplicationURL, app.Context, scheduleCron).Scan(&id)
	return id, err
}

func (s *Store) ListApplications(ctx context.Context, userID string) ([]TrackedApplication, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, name, info_url, application_url, context, schedule_cron, created_at
FROM applications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanApplications(rows)
}

// ListAllApplications returns every tracked application; the scheduler uses
// it to find work across all users.
func (s *Store) ListAllApplications(ctx context.Context) ([]TrackedApplication, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, name, info_url, application_url, context, schedule_cron, created_at
FROM applications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanApplications(rows)
}

func (s *Store) GetApplicationByID(ctx context.Context, id, userID string) (TrackedApplication, error) {
	var t TrackedApplication
	err := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, name, info_url, application_url, context, schedule_cron, created_at
FROM applications WHERE id=$1 AND user_id=$2`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Name, &t.InfoURL, &t.ApplicationURL, &t.Context, &t.ScheduleCron, &t.CreatedAt)
	return t, err
}

func scanApplications(rows *sql.Rows) ([]TrackedApplication, error) {
	defer rows.Close()
	var out []TrackedApplication
	for rows.Next() {
		var t TrackedApplication
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.InfoURL, &t.ApplicationURL, &t.Context, &t.ScheduleCron, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Run operations
func (s *Store) CreateRun(ctx context.Context, applicationID, status string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `INSERT INTO runs (application_id, status) VALUES ($1,$2) RETURNING id`, applicationID, status).Scan(&id)
	return id, err
}

// FinishRun closes a run with its outcome and answer counts.
func (s *Store) FinishRun(ctx context.Context, runID, status string, errMsg *string, questions, answers int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE runs SET status=$1, error=$2, total_questions=$3, total_answers=$4, finished_at=NOW() WHERE id=$5`,
		status, errMsg, questions, answers, runID)
	return err
}

func (s *Store) ListRuns(ctx context.Context, applicationID string) ([]Run, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, application_id, status, error, total_questions, total_answers, started_at, finished_at
FROM runs WHERE application_id=$1 ORDER BY started_at DESC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ApplicationID, &r.Status, &r.Error, &r.TotalQuestions, &r.TotalAnswers, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRunTime returns when applicationID last ran, preferring the finish
// time, or nil when it never ran.
func (s *Store) LatestRunTime(ctx context.Context, applicationID string) (*time.Time, error) {
	var ts *time.Time
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(COALESCE(finished_at, started_at)) FROM runs WHERE application_id=$1`, applicationID).Scan(&ts)
	return ts, err
}
