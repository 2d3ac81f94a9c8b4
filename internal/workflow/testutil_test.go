package workflow

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  is_archived BOOLEAN NOT NULL DEFAULT 0,
  enabled_statuses TEXT NOT NULL DEFAULT 'Todo,InProgress,Done'
);
CREATE TABLE project_members (
  project_id INTEGER NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  joined_at TIMESTAMP NOT NULL,
  PRIMARY KEY (project_id, user_id)
);
CREATE TABLE sprints (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  start_date TIMESTAMP NOT NULL,
  end_date TIMESTAMP NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT 0,
  is_archived BOOLEAN NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE task_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id INTEGER,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  completed_at TIMESTAMP,
  sprint_id INTEGER,
  assignee_id TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE work_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task_item_id INTEGER NOT NULL,
  start_time TIMESTAMP NOT NULL,
  end_time TIMESTAMP,
  description TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
);
`

func setupService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	// every pooled connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewService(conn), conn
}

func insertUser(t *testing.T, conn *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:           id,
		Email:        id.String() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.NewUserRepository(conn).Create(context.Background(), user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func userEmail(t *testing.T, conn *sql.DB, id uuid.UUID) string {
	t.Helper()
	user, err := db.NewUserRepository(conn).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return user.Email
}

func mustCreateProject(t *testing.T, s *Service, owner uuid.UUID, statuses []models.TaskStatus) *models.Project {
	t.Helper()
	project, err := s.CreateProject(context.Background(), owner, "Project X", statuses)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func mustCreateSprint(t *testing.T, s *Service, actor uuid.UUID, projectID int64, active bool) *models.Sprint {
	t.Helper()
	now := time.Now().UTC()
	sprint, err := s.CreateSprint(context.Background(), actor, projectID, SprintInput{
		Name:      "Sprint",
		StartDate: now,
		EndDate:   now.AddDate(0, 0, 14),
		IsActive:  active,
	})
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	return sprint
}

func activeSprintCount(t *testing.T, conn *sql.DB, projectID int64) int {
	t.Helper()
	n, err := db.NewSprintRepository(conn).CountActive(context.Background(), projectID)
	if err != nil {
		t.Fatalf("count active sprints: %v", err)
	}
	return n
}
