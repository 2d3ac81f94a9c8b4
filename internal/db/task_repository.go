package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/models"
)

type TaskRepository struct {
	db Querier
}

func NewTaskRepository(db Querier) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.TaskItem) error {
	query := `INSERT INTO task_items
	 (project_id, title, description, status, created_at, completed_at, sprint_id, assignee_id, sort_order, version)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0) RETURNING id`

	return r.db.QueryRowContext(
		ctx, query, task.ProjectID, task.Title, task.Description, task.Status,
		task.CreatedAt, task.CompletedAt, task.SprintID, nullUUID(task.AssigneeID), task.Order,
	).Scan(&task.ID)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.TaskItem, error) {
	query := taskSelect + ` WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

// List returns tasks visible to the user (member of the owning project),
// optionally narrowed to a project and/or sprint, sorted by rank.
func (r *TaskRepository) List(ctx context.Context, userID uuid.UUID, projectID, sprintID *int64) ([]*models.TaskItem, error) {
	query := `SELECT t.id, t.project_id, t.title, t.description, t.status, t.created_at,
	 t.completed_at, t.sprint_id, t.assignee_id, t.sort_order, t.version
	 FROM task_items t
	 JOIN project_members m ON m.project_id = t.project_id AND m.user_id = $1
	 WHERE t.project_id IS NOT NULL`
	args := []any{userID}
	if projectID != nil {
		args = append(args, *projectID)
		query += fmt.Sprintf(" AND t.project_id = $%d", len(args))
	}
	if sprintID != nil {
		args = append(args, *sprintID)
		query += fmt.Sprintf(" AND t.sprint_id = $%d", len(args))
	}
	query += ` ORDER BY t.sort_order, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.TaskItem
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// BucketOrders lists the existing ranks in a (project, sprint-or-null, status)
// bucket, ascending.
func (r *TaskRepository) BucketOrders(ctx context.Context, projectID int64, sprintID *int64, status models.TaskStatus) ([]int, error) {
	query := `SELECT sort_order FROM task_items WHERE project_id = $1 AND status = $2`
	args := []any{projectID, status}
	if sprintID == nil {
		query += ` AND sprint_id IS NULL`
	} else {
		args = append(args, *sprintID)
		query += fmt.Sprintf(" AND sprint_id = $%d", len(args))
	}
	query += ` ORDER BY sort_order`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []int
	for rows.Next() {
		var order int
		if err := rows.Scan(&order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateCAS persists every mutable field if the version is unchanged and
// reports whether the swap succeeded.
func (r *TaskRepository) UpdateCAS(ctx context.Context, task *models.TaskItem) (bool, error) {
	query := `UPDATE task_items
	 SET title = $1, description = $2, status = $3, completed_at = $4, sprint_id = $5,
	     assignee_id = $6, sort_order = $7, version = version + 1
	 WHERE id = $8 AND version = $9`
	res, err := r.db.ExecContext(
		ctx, query, task.Title, task.Description, task.Status, task.CompletedAt,
		task.SprintID, nullUUID(task.AssigneeID), task.Order, task.ID, task.Version)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	task.Version++
	return true, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const taskSelect = `SELECT id, project_id, title, description, status, created_at,
 completed_at, sprint_id, assignee_id, sort_order, version FROM task_items`

func scanTask(row rowScanner) (*models.TaskItem, error) {
	task := &models.TaskItem{}
	var (
		projectID   sql.NullInt64
		sprintID    sql.NullInt64
		assigneeID  uuid.NullUUID
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&task.ID, &projectID, &task.Title, &task.Description, &task.Status,
		&task.CreatedAt, &completedAt, &sprintID, &assigneeID, &task.Order, &task.Version,
	); err != nil {
		return nil, err
	}
	if projectID.Valid {
		task.ProjectID = &projectID.Int64
	}
	if sprintID.Valid {
		task.SprintID = &sprintID.Int64
	}
	if assigneeID.Valid {
		id := assigneeID.UUID
		task.AssigneeID = &id
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return task, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
