package db

import (
	"context"
	"database/sql"

	"github.com/klimenko/work-planner/internal/models"
)

type SprintRepository struct {
	db Querier
}

func NewSprintRepository(db Querier) *SprintRepository {
	return &SprintRepository{db: db}
}

func (r *SprintRepository) Create(ctx context.Context, sprint *models.Sprint) error {
	query := `INSERT INTO sprints
	 (project_id, name, start_date, end_date, is_active, is_archived, created_at, sort_order, version)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0) RETURNING id`

	return r.db.QueryRowContext(
		ctx, query, sprint.ProjectID, sprint.Name, sprint.StartDate, sprint.EndDate,
		sprint.IsActive, sprint.IsArchived, sprint.CreatedAt, sprint.Order,
	).Scan(&sprint.ID)
}

// GetByID scopes the lookup to a project so a sprint id from another project
// reads as absent.
func (r *SprintRepository) GetByID(ctx context.Context, projectID, sprintID int64) (*models.Sprint, error) {
	query := `SELECT id, project_id, name, start_date, end_date, is_active, is_archived, created_at, sort_order, version
	 FROM sprints WHERE id = $1 AND project_id = $2`
	sprint := &models.Sprint{}
	err := r.db.QueryRowContext(ctx, query, sprintID, projectID).Scan(
		&sprint.ID, &sprint.ProjectID, &sprint.Name, &sprint.StartDate, &sprint.EndDate,
		&sprint.IsActive, &sprint.IsArchived, &sprint.CreatedAt, &sprint.Order, &sprint.Version,
	)
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

func (r *SprintRepository) ListByProject(ctx context.Context, projectID int64, includeArchived bool) ([]*models.Sprint, error) {
	query := `SELECT id, project_id, name, start_date, end_date, is_active, is_archived, created_at, sort_order, version
	 FROM sprints WHERE project_id = $1`
	if !includeArchived {
		query += ` AND NOT is_archived`
	}
	query += ` ORDER BY sort_order`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sprints []*models.Sprint
	for rows.Next() {
		sprint := &models.Sprint{}
		if err := rows.Scan(
			&sprint.ID, &sprint.ProjectID, &sprint.Name, &sprint.StartDate, &sprint.EndDate,
			&sprint.IsActive, &sprint.IsArchived, &sprint.CreatedAt, &sprint.Order, &sprint.Version,
		); err != nil {
			return nil, err
		}
		sprints = append(sprints, sprint)
	}
	return sprints, rows.Err()
}

// MaxOrder returns 0 for a project with no sprints.
func (r *SprintRepository) MaxOrder(ctx context.Context, projectID int64) (int, error) {
	var max sql.NullInt64
	query := `SELECT MAX(sort_order) FROM sprints WHERE project_id = $1`
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&max); err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

// DeactivateSiblings clears the active flag on every other sprint of the
// project in a single statement.
func (r *SprintRepository) DeactivateSiblings(ctx context.Context, projectID, exceptID int64) error {
	query := `UPDATE sprints SET is_active = $1, version = version + 1
	 WHERE project_id = $2 AND is_active AND id <> $3`
	_, err := r.db.ExecContext(ctx, query, false, projectID, exceptID)
	return err
}

// UpdateCAS persists the sprint only if its version is unchanged and reports
// whether the swap succeeded.
func (r *SprintRepository) UpdateCAS(ctx context.Context, sprint *models.Sprint) (bool, error) {
	query := `UPDATE sprints
	 SET name = $1, start_date = $2, end_date = $3, is_active = $4, is_archived = $5, version = version + 1
	 WHERE id = $6 AND version = $7`
	res, err := r.db.ExecContext(
		ctx, query, sprint.Name, sprint.StartDate, sprint.EndDate,
		sprint.IsActive, sprint.IsArchived, sprint.ID, sprint.Version)
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
	sprint.Version++
	return true, nil
}

// CountActive counts non-archived active sprints in a project.
func (r *SprintRepository) CountActive(ctx context.Context, projectID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM sprints WHERE project_id = $1 AND is_active AND NOT is_archived`
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(&n)
	return n, err
}
