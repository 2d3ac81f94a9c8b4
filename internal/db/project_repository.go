package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/models"
)

type ProjectRepository struct {
	db Querier
}

func NewProjectRepository(db Querier) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `INSERT INTO projects (name, owner_id, created_at, is_archived, enabled_statuses)
	 VALUES ($1, $2, $3, $4, $5) RETURNING id`

	return r.db.QueryRowContext(
		ctx, query, project.Name, project.OwnerID, project.CreatedAt, project.IsArchived,
		models.JoinStatuses(project.EnabledStatuses),
	).Scan(&project.ID)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT id, name, owner_id, created_at, is_archived, enabled_statuses
	 FROM projects WHERE id = $1`
	return r.scanProject(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `UPDATE projects SET name = $1, is_archived = $2, enabled_statuses = $3 WHERE id = $4`
	_, err := r.db.ExecContext(
		ctx, query, project.Name, project.IsArchived,
		models.JoinStatuses(project.EnabledStatuses), project.ID)
	return err
}

// ListByUserID returns every project the user is a member of, sorted by name.
func (r *ProjectRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	query := `SELECT p.id, p.name, p.owner_id, p.created_at, p.is_archived, p.enabled_statuses
	 FROM projects p
	 JOIN project_members m ON m.project_id = p.id
	 WHERE m.user_id = $1
	 ORDER BY p.name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProjectRepository) scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	var statuses string
	if err := row.Scan(
		&project.ID, &project.Name, &project.OwnerID, &project.CreatedAt,
		&project.IsArchived, &statuses,
	); err != nil {
		return nil, err
	}
	project.EnabledStatuses = models.NormalizeStatuses(statuses)
	return project, nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	query := `INSERT INTO project_members (project_id, user_id, role, joined_at)
	 VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(
		ctx, query, member.ProjectID, member.UserID, member.Role, member.JoinedAt)
	return err
}

func (r *ProjectRepository) GetMember(ctx context.Context, projectID int64, userID uuid.UUID) (*models.ProjectMember, error) {
	query := `SELECT project_id, user_id, role, joined_at
	 FROM project_members WHERE project_id = $1 AND user_id = $2`
	member := &models.ProjectMember{}
	err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(
		&member.ProjectID, &member.UserID, &member.Role, &member.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *ProjectRepository) IsMember(ctx context.Context, projectID int64, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`
	err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(&exists)
	return exists, err
}

func (r *ProjectRepository) ListMembers(ctx context.Context, projectID int64) ([]*models.ProjectMember, error) {
	query := `SELECT m.project_id, m.user_id, u.email, u.first_name, u.last_name, m.role, m.joined_at
	 FROM project_members m
	 JOIN users u ON u.id = m.user_id
	 WHERE m.project_id = $1
	 ORDER BY m.joined_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		member := &models.ProjectMember{}
		if err := rows.Scan(
			&member.ProjectID, &member.UserID, &member.Email, &member.FirstName,
			&member.LastName, &member.Role, &member.JoinedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// RemoveMember reports sql.ErrNoRows when the membership does not exist.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID int64, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, projectID, userID)
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
