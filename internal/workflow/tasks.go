package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
)

type TaskInput struct {
	ProjectID   int64
	Title       string
	Description string
	Status      models.TaskStatus
	AssigneeID  *uuid.UUID
	SprintID    *int64
	Order       int
}

// ValidateBucket enforces the backlog/sprint coupling: no sprint means Backlog
// status, a sprint means anything but Backlog.
func ValidateBucket(sprintID *int64, status models.TaskStatus) error {
	if sprintID == nil && status != models.StatusBacklog {
		return ErrBacklogStatusMismatch
	}
	if sprintID != nil && status == models.StatusBacklog {
		return ErrSprintStatusMismatch
	}
	return nil
}

// validateTarget checks everything about a task's destination that needs the
// store: the bucket coupling, the sprint reference (same project, not
// archived), the project's enabled status set, and assignee membership.
func validateTarget(ctx context.Context, q db.Querier, project *models.Project, sprintID *int64, status models.TaskStatus, assigneeID *uuid.UUID) error {
	if err := ValidateBucket(sprintID, status); err != nil {
		return err
	}
	if sprintID != nil {
		sprint, err := db.NewSprintRepository(q).GetByID(ctx, project.ID, *sprintID)
		if err != nil {
			return ErrInvalidSprintReference
		}
		if sprint.IsArchived {
			return ErrInvalidSprintReference
		}
	}
	if !models.StatusEnabled(project.EnabledStatuses, status) {
		return ErrStatusNotEnabled
	}
	if assigneeID != nil {
		ok, err := db.NewProjectRepository(q).IsMember(ctx, project.ID, *assigneeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidAssignee
		}
	}
	return nil
}

// CreateTask validates the target bucket, allocates the rank and inserts, all
// in one transaction.
func (s *Service) CreateTask(ctx context.Context, actor uuid.UUID, in TaskInput) (*models.TaskItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if err := s.requireMember(ctx, s.db, actor, in.ProjectID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &models.TaskItem{
		ProjectID:   &in.ProjectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		CreatedAt:   now,
		SprintID:    in.SprintID,
		AssigneeID:  in.AssigneeID,
	}

	err := s.withTx(ctx, func(q db.Querier) error {
		project, err := db.NewProjectRepository(q).GetByID(ctx, in.ProjectID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if err := validateTarget(ctx, q, project, in.SprintID, in.Status, in.AssigneeID); err != nil {
			return err
		}

		tasks := db.NewTaskRepository(q)
		orders, err := tasks.BucketOrders(ctx, in.ProjectID, in.SprintID, in.Status)
		if err != nil {
			return err
		}
		task.Order = AllocateOrder(orders, in.Order)

		if task.Status == models.StatusDone {
			done := now
			task.CompletedAt = &done
		}
		return tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, actor uuid.UUID, projectID, sprintID *int64) ([]*models.TaskItem, error) {
	return db.NewTaskRepository(s.db).List(ctx, actor, projectID, sprintID)
}

// GetTask merges "absent" and "not visible" into ErrNotFound.
func (s *Service) GetTask(ctx context.Context, actor uuid.UUID, taskID int64) (*models.TaskItem, error) {
	task, err := db.NewTaskRepository(s.db).GetByID(ctx, taskID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if task.ProjectID == nil {
		return nil, ErrNotFound
	}
	ok, err := db.NewProjectRepository(s.db).IsMember(ctx, *task.ProjectID, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return task, nil
}

// UpdateTask rewrites the task's fields, revalidating the target bucket and
// reallocating the rank when no explicit order is given.
func (s *Service) UpdateTask(ctx context.Context, actor uuid.UUID, taskID int64, in TaskInput) (*models.TaskItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}

	var updated *models.TaskItem
	err := s.retryOnConflict(ctx, func(q db.Querier) error {
		tasks := db.NewTaskRepository(q)
		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if task.ProjectID == nil {
			return validationf("task has no project")
		}
		if err := s.requireMember(ctx, q, actor, *task.ProjectID); err != nil {
			return err
		}
		project, err := db.NewProjectRepository(q).GetByID(ctx, *task.ProjectID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if err := validateTarget(ctx, q, project, in.SprintID, in.Status, in.AssigneeID); err != nil {
			return err
		}

		task.Title = title
		task.Description = strings.TrimSpace(in.Description)
		task.Status = in.Status
		task.SprintID = in.SprintID
		task.AssigneeID = in.AssigneeID
		task.Order = in.Order

		if task.Order <= 0 {
			orders, err := tasks.BucketOrders(ctx, *task.ProjectID, task.SprintID, task.Status)
			if err != nil {
				return err
			}
			task.Order = AllocateOrder(orders, 0)
		}
		maintainCompletedAt(task)

		updated = task
		return casTask(ctx, tasks, task)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, actor uuid.UUID, taskID int64) error {
	tasks := db.NewTaskRepository(s.db)
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		return notFoundIfNoRows(err)
	}
	if task.ProjectID == nil {
		return validationf("task has no project")
	}
	if err := s.requireMember(ctx, s.db, actor, *task.ProjectID); err != nil {
		return err
	}
	return notFoundIfNoRows(tasks.Delete(ctx, taskID))
}

// MoveTask is the drag-and-drop operation: guard, validate the target bucket,
// allocate the rank and swap sprint/status/order atomically. A version
// conflict restarts the whole sequence once.
func (s *Service) MoveTask(ctx context.Context, actor uuid.UUID, taskID int64, targetSprintID *int64, targetStatus models.TaskStatus, requestedOrder int) (*models.TaskItem, error) {
	var moved *models.TaskItem
	err := s.retryOnConflict(ctx, func(q db.Querier) error {
		tasks := db.NewTaskRepository(q)
		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if task.ProjectID == nil {
			return validationf("task has no project")
		}
		if err := s.requireMember(ctx, q, actor, *task.ProjectID); err != nil {
			return err
		}
		project, err := db.NewProjectRepository(q).GetByID(ctx, *task.ProjectID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if err := validateTarget(ctx, q, project, targetSprintID, targetStatus, nil); err != nil {
			return err
		}

		orders, err := tasks.BucketOrders(ctx, *task.ProjectID, targetSprintID, targetStatus)
		if err != nil {
			return err
		}

		task.SprintID = targetSprintID
		task.Status = targetStatus
		task.Order = AllocateOrder(orders, requestedOrder)
		maintainCompletedAt(task)

		moved = task
		return casTask(ctx, tasks, task)
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// maintainCompletedAt keeps Done ⇔ CompletedAt≠nil: entering Done stamps the
// time once, leaving Done clears it.
func maintainCompletedAt(task *models.TaskItem) {
	if task.Status == models.StatusDone {
		if task.CompletedAt == nil {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
		return
	}
	task.CompletedAt = nil
}

func casTask(ctx context.Context, tasks *db.TaskRepository, task *models.TaskItem) error {
	ok, err := tasks.UpdateCAS(ctx, task)
	if err != nil {
		return err
	}
	if !ok {
		return errConflictRetry
	}
	return nil
}
