package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
)

type WorkEntryInput struct {
	TaskItemID  int64
	StartTime   time.Time
	EndTime     *time.Time
	Description string
}

func validateWorkEntryInput(in WorkEntryInput) error {
	if in.StartTime.IsZero() {
		return validationf("start time is required")
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return validationf("end time must not be before start time")
	}
	return nil
}

// authorizeTaskAccess resolves a task to its project and requires the actor to
// be a member. Orphaned tasks (project deleted) are not reachable.
func (s *Service) authorizeTaskAccess(ctx context.Context, actor uuid.UUID, taskID int64) (*models.TaskItem, error) {
	task, err := db.NewTaskRepository(s.db).GetByID(ctx, taskID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if task.ProjectID == nil {
		return nil, ErrNotFound
	}
	if err := s.requireMember(ctx, s.db, actor, *task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) CreateWorkEntry(ctx context.Context, actor uuid.UUID, in WorkEntryInput) (*models.WorkEntry, error) {
	if err := validateWorkEntryInput(in); err != nil {
		return nil, err
	}
	if _, err := s.authorizeTaskAccess(ctx, actor, in.TaskItemID); err != nil {
		return nil, err
	}

	entry := &models.WorkEntry{
		TaskItemID:  in.TaskItemID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.NewWorkEntryRepository(s.db).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetWorkEntry merges "absent" and "not visible" into ErrNotFound.
func (s *Service) GetWorkEntry(ctx context.Context, actor uuid.UUID, entryID int64) (*models.WorkEntry, error) {
	entry, err := db.NewWorkEntryRepository(s.db).GetByID(ctx, entryID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if _, err := s.authorizeTaskAccess(ctx, actor, entry.TaskItemID); err != nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *Service) ListWorkEntries(ctx context.Context, actor uuid.UUID) ([]*models.WorkEntry, error) {
	return db.NewWorkEntryRepository(s.db).ListVisible(ctx, actor)
}

func (s *Service) ListWorkEntriesByTask(ctx context.Context, actor uuid.UUID, taskID int64) ([]*models.WorkEntry, error) {
	if _, err := s.authorizeTaskAccess(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return db.NewWorkEntryRepository(s.db).ListByTask(ctx, taskID)
}

func (s *Service) UpdateWorkEntry(ctx context.Context, actor uuid.UUID, entryID int64, in WorkEntryInput) (*models.WorkEntry, error) {
	if err := validateWorkEntryInput(in); err != nil {
		return nil, err
	}

	entries := db.NewWorkEntryRepository(s.db)
	entry, err := entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if _, err := s.authorizeTaskAccess(ctx, actor, entry.TaskItemID); err != nil {
		return nil, err
	}

	entry.StartTime = in.StartTime
	entry.EndTime = in.EndTime
	entry.Description = strings.TrimSpace(in.Description)
	if err := entries.Update(ctx, entry); err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return entry, nil
}

func (s *Service) DeleteWorkEntry(ctx context.Context, actor uuid.UUID, entryID int64) error {
	entries := db.NewWorkEntryRepository(s.db)
	entry, err := entries.GetByID(ctx, entryID)
	if err != nil {
		return notFoundIfNoRows(err)
	}
	if _, err := s.authorizeTaskAccess(ctx, actor, entry.TaskItemID); err != nil {
		return err
	}
	return notFoundIfNoRows(entries.Delete(ctx, entryID))
}
