package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
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

func setupDB(t *testing.T) *sql.DB {
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
	return conn
}

func seedUser(t *testing.T, conn *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:           id,
		Email:        id.String() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := NewUserRepository(conn).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedProject(t *testing.T, conn *sql.DB, owner uuid.UUID) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:      "Project",
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
		EnabledStatuses: []models.TaskStatus{
			models.StatusTodo, models.StatusInProgress, models.StatusDone,
		},
	}
	repo := NewProjectRepository(conn)
	if err := repo.Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := repo.AddMember(context.Background(), &models.ProjectMember{
		ProjectID: project.ID, UserID: owner, Role: models.RoleOwner, JoinedAt: project.CreatedAt,
	}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return project
}

func TestUserRepository_RoundTrip(t *testing.T) {
	conn := setupDB(t)
	repo := NewUserRepository(conn)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "dev@example.com",
		PasswordHash: "hash",
		FirstName:    "Dev",
		LastName:     "Eloper",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create: %v", err)
	}

	byEmail, err := repo.GetByEmail(context.Background(), "dev@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.FirstName != "Dev" {
		t.Errorf("by email = %+v", byEmail)
	}
	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("absent email: got %v, want ErrNoRows", err)
	}
}

func TestProjectRepository_NormalizesStatuses(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	repo := NewProjectRepository(conn)

	// raw column value with duplicates, noise and missing core statuses
	res, err := conn.Exec(
		`INSERT INTO projects (name, owner_id, created_at, enabled_statuses)
		 VALUES ('Raw', ?, ?, 'done,review,bogus,done')`,
		owner, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := res.LastInsertId()

	project, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []models.TaskStatus{
		models.StatusTodo, models.StatusInProgress, models.StatusReview, models.StatusDone,
	}
	if len(project.EnabledStatuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", project.EnabledStatuses, want)
	}
	for i, status := range want {
		if project.EnabledStatuses[i] != status {
			t.Errorf("statuses[%d] = %s, want %s", i, project.EnabledStatuses[i], status)
		}
	}
}

func TestProjectRepository_Membership(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	stranger := seedUser(t, conn)
	project := seedProject(t, conn, owner)
	repo := NewProjectRepository(conn)

	ok, err := repo.IsMember(context.Background(), project.ID, owner)
	if err != nil || !ok {
		t.Errorf("owner IsMember = %v, %v", ok, err)
	}
	ok, err = repo.IsMember(context.Background(), project.ID, stranger)
	if err != nil || ok {
		t.Errorf("stranger IsMember = %v, %v", ok, err)
	}

	if err := repo.RemoveMember(context.Background(), project.ID, stranger); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("remove non-member: got %v, want ErrNoRows", err)
	}

	mine, err := repo.ListByUserID(context.Background(), owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != project.ID {
		t.Errorf("owner projects = %+v", mine)
	}
	theirs, err := repo.ListByUserID(context.Background(), stranger)
	if err != nil {
		t.Fatalf("list stranger: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("stranger projects = %+v", theirs)
	}
}

func TestSprintRepository_ScopedLookupAndSiblings(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	projectA := seedProject(t, conn, owner)
	projectB := seedProject(t, conn, owner)
	repo := NewSprintRepository(conn)

	now := time.Now().UTC()
	newSprint := func(projectID int64, order int, active bool) *models.Sprint {
		sprint := &models.Sprint{
			ProjectID: projectID, Name: "S", StartDate: now, EndDate: now.AddDate(0, 0, 14),
			IsActive: active, CreatedAt: now, Order: order,
		}
		if err := repo.Create(context.Background(), sprint); err != nil {
			t.Fatalf("create sprint: %v", err)
		}
		return sprint
	}

	if max, err := repo.MaxOrder(context.Background(), projectA.ID); err != nil || max != 0 {
		t.Errorf("empty MaxOrder = %d, %v", max, err)
	}
	first := newSprint(projectA.ID, 1, true)
	second := newSprint(projectA.ID, 2, true)
	other := newSprint(projectB.ID, 1, true)
	if max, err := repo.MaxOrder(context.Background(), projectA.ID); err != nil || max != 2 {
		t.Errorf("MaxOrder = %d, %v, want 2", max, err)
	}

	// lookup is scoped by project
	if _, err := repo.GetByID(context.Background(), projectB.ID, first.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("cross-project lookup: got %v, want ErrNoRows", err)
	}

	if err := repo.DeactivateSiblings(context.Background(), projectA.ID, second.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n, err := repo.CountActive(context.Background(), projectA.ID); err != nil || n != 1 {
		t.Errorf("active in A = %d, %v, want 1", n, err)
	}
	// the other project is untouched
	got, err := repo.GetByID(context.Background(), projectB.ID, other.ID)
	if err != nil || !got.IsActive {
		t.Errorf("sprint in B = %+v, %v, want still active", got, err)
	}
}

func TestSprintRepository_CASVersioning(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	project := seedProject(t, conn, owner)
	repo := NewSprintRepository(conn)

	now := time.Now().UTC()
	sprint := &models.Sprint{
		ProjectID: project.ID, Name: "S", StartDate: now, EndDate: now.AddDate(0, 0, 14),
		CreatedAt: now, Order: 1,
	}
	if err := repo.Create(context.Background(), sprint); err != nil {
		t.Fatalf("create: %v", err)
	}

	sprint.Name = "Renamed"
	if ok, err := repo.UpdateCAS(context.Background(), sprint); err != nil || !ok {
		t.Fatalf("first CAS: ok=%v err=%v", ok, err)
	}
	if sprint.Version != 1 {
		t.Errorf("version after CAS = %d, want 1", sprint.Version)
	}

	stale := *sprint
	stale.Version = 0
	if ok, err := repo.UpdateCAS(context.Background(), &stale); err != nil || ok {
		t.Errorf("stale CAS: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestTaskRepository_NullableColumns(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	project := seedProject(t, conn, owner)
	repo := NewTaskRepository(conn)

	now := time.Now().UTC()
	bare := &models.TaskItem{
		ProjectID: &project.ID, Title: "bare", Status: models.StatusBacklog,
		CreatedAt: now, Order: 1,
	}
	if err := repo.Create(context.Background(), bare); err != nil {
		t.Fatalf("create bare: %v", err)
	}

	got, err := repo.GetByID(context.Background(), bare.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SprintID != nil || got.AssigneeID != nil || got.CompletedAt != nil {
		t.Errorf("bare task = %+v, want nil sprint/assignee/completed", got)
	}

	got.AssigneeID = &owner
	done := now
	got.CompletedAt = &done
	got.Status = models.StatusDone
	if ok, err := repo.UpdateCAS(context.Background(), got); err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	reread, err := repo.GetByID(context.Background(), bare.ID)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if reread.AssigneeID == nil || *reread.AssigneeID != owner {
		t.Errorf("assignee = %v", reread.AssigneeID)
	}
	if reread.CompletedAt == nil {
		t.Error("completed_at not persisted")
	}
}

func TestTaskRepository_BucketOrders(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	project := seedProject(t, conn, owner)
	repo := NewTaskRepository(conn)

	now := time.Now().UTC()
	sprint := &models.Sprint{
		ProjectID: project.ID, Name: "S", StartDate: now, EndDate: now.AddDate(0, 0, 14),
		CreatedAt: now, Order: 1,
	}
	if err := NewSprintRepository(conn).Create(context.Background(), sprint); err != nil {
		t.Fatalf("create sprint: %v", err)
	}

	add := func(sprintID *int64, status models.TaskStatus, order int) {
		task := &models.TaskItem{
			ProjectID: &project.ID, Title: "t", Status: status,
			CreatedAt: now, SprintID: sprintID, Order: order,
		}
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	add(nil, models.StatusBacklog, 3)
	add(nil, models.StatusBacklog, 1)
	add(&sprint.ID, models.StatusTodo, 2)
	add(&sprint.ID, models.StatusDone, 7)

	backlog, err := repo.BucketOrders(context.Background(), project.ID, nil, models.StatusBacklog)
	if err != nil {
		t.Fatalf("backlog orders: %v", err)
	}
	if len(backlog) != 2 || backlog[0] != 1 || backlog[1] != 3 {
		t.Errorf("backlog orders = %v, want [1 3]", backlog)
	}

	todo, err := repo.BucketOrders(context.Background(), project.ID, &sprint.ID, models.StatusTodo)
	if err != nil {
		t.Fatalf("todo orders: %v", err)
	}
	if len(todo) != 1 || todo[0] != 2 {
		t.Errorf("todo orders = %v, want [2]", todo)
	}
}

func TestTaskRepository_DeleteReportsMissing(t *testing.T) {
	conn := setupDB(t)
	repo := NewTaskRepository(conn)
	if err := repo.Delete(context.Background(), 42); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("delete absent: got %v, want ErrNoRows", err)
	}
}

func TestWorkEntryRepository_CompletedWindow(t *testing.T) {
	conn := setupDB(t)
	owner := seedUser(t, conn)
	project := seedProject(t, conn, owner)

	now := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	task := &models.TaskItem{
		ProjectID: &project.ID, Title: "tracked", Status: models.StatusBacklog,
		CreatedAt: now, Order: 1,
	}
	if err := NewTaskRepository(conn).Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	repo := NewWorkEntryRepository(conn)
	add := func(start time.Time, end *time.Time) {
		entry := &models.WorkEntry{
			TaskItemID: task.ID, StartTime: start, EndTime: end, CreatedAt: now,
		}
		if err := repo.Create(context.Background(), entry); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}
	inWindow := now.Add(9 * time.Hour)
	inWindowEnd := inWindow.Add(time.Hour)
	add(inWindow, &inWindowEnd)
	add(now.Add(10*time.Hour), nil) // open, excluded
	before := now.Add(-2 * time.Hour)
	beforeEnd := before.Add(time.Hour)
	add(before, &beforeEnd) // outside the window

	entries, err := repo.ListCompletedBetween(
		context.Background(), owner, now, now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].TaskTitle != "tracked" {
		t.Errorf("task title = %q", entries[0].TaskTitle)
	}

	all, err := repo.ListByTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("by task: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("by task = %d, want 3", len(all))
	}
}
