package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/models"
)

type WorkEntryRepository struct {
	db Querier
}

func NewWorkEntryRepository(db Querier) *WorkEntryRepository {
	return &WorkEntryRepository{db: db}
}

// WorkEntryWithTask carries the owning task's title for summary views.
type WorkEntryWithTask struct {
	models.WorkEntry
	TaskTitle string `json:"task_title"`
}

func (r *WorkEntryRepository) Create(ctx context.Context, entry *models.WorkEntry) error {
	query := `INSERT INTO work_entries (task_item_id, start_time, end_time, description, created_at)
	 VALUES ($1, $2, $3, $4, $5) RETURNING id`

	return r.db.QueryRowContext(
		ctx, query, entry.TaskItemID, entry.StartTime, entry.EndTime,
		entry.Description, entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *WorkEntryRepository) GetByID(ctx context.Context, id int64) (*models.WorkEntry, error) {
	query := `SELECT id, task_item_id, start_time, end_time, description, created_at
	 FROM work_entries WHERE id = $1`
	return scanWorkEntry(r.db.QueryRowContext(ctx, query, id))
}

// ListVisible returns the entries on tasks in projects the user belongs to,
// newest first.
func (r *WorkEntryRepository) ListVisible(ctx context.Context, userID uuid.UUID) ([]*models.WorkEntry, error) {
	query := `SELECT we.id, we.task_item_id, we.start_time, we.end_time, we.description, we.created_at
	 FROM work_entries we
	 JOIN task_items t ON t.id = we.task_item_id
	 JOIN project_members m ON m.project_id = t.project_id AND m.user_id = $1
	 ORDER BY we.start_time DESC`
	return r.queryEntries(ctx, query, userID)
}

func (r *WorkEntryRepository) ListByTask(ctx context.Context, taskID int64) ([]*models.WorkEntry, error) {
	query := `SELECT id, task_item_id, start_time, end_time, description, created_at
	 FROM work_entries WHERE task_item_id = $1 ORDER BY start_time DESC`
	return r.queryEntries(ctx, query, taskID)
}

// ListCompletedBetween fetches finished entries started in [from, to) on tasks
// visible to the user, joined with the task title for summaries.
func (r *WorkEntryRepository) ListCompletedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*WorkEntryWithTask, error) {
	query := `SELECT we.id, we.task_item_id, we.start_time, we.end_time, we.description, we.created_at, t.title
	 FROM work_entries we
	 JOIN task_items t ON t.id = we.task_item_id
	 JOIN project_members m ON m.project_id = t.project_id AND m.user_id = $1
	 WHERE we.start_time >= $2 AND we.start_time < $3 AND we.end_time IS NOT NULL
	 ORDER BY we.start_time`
	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*WorkEntryWithTask
	for rows.Next() {
		entry := &WorkEntryWithTask{}
		var end sql.NullTime
		if err := rows.Scan(
			&entry.ID, &entry.TaskItemID, &entry.StartTime, &end,
			&entry.Description, &entry.CreatedAt, &entry.TaskTitle,
		); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			entry.EndTime = &t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *WorkEntryRepository) Update(ctx context.Context, entry *models.WorkEntry) error {
	query := `UPDATE work_entries SET start_time = $1, end_time = $2, description = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, entry.StartTime, entry.EndTime, entry.Description, entry.ID)
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

func (r *WorkEntryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_entries WHERE id = $1`, id)
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

func (r *WorkEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.WorkEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.WorkEntry
	for rows.Next() {
		entry, err := scanWorkEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanWorkEntry(row rowScanner) (*models.WorkEntry, error) {
	entry := &models.WorkEntry{}
	var end sql.NullTime
	if err := row.Scan(
		&entry.ID, &entry.TaskItemID, &entry.StartTime, &end,
		&entry.Description, &entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		entry.EndTime = &t
	}
	return entry, nil
}
