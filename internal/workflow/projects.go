package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
)

// ErrAlreadyMember is not a validation failure; the HTTP layer maps it to 409.
var ErrAlreadyMember = errors.New("user is already a member of this project")

// CreateProject inserts the project and enrolls the actor as its Owner member
// in one transaction.
func (s *Service) CreateProject(ctx context.Context, actor uuid.UUID, name string, statuses []models.TaskStatus) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("project name is required")
	}

	project := &models.Project{
		Name:            name,
		OwnerID:         actor,
		CreatedAt:       time.Now().UTC(),
		EnabledStatuses: models.NormalizeStatuses(models.JoinStatuses(statuses)),
	}

	err := s.withTx(ctx, func(q db.Querier) error {
		projects := db.NewProjectRepository(q)
		if err := projects.Create(ctx, project); err != nil {
			return err
		}
		return projects.AddMember(ctx, &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    actor,
			Role:      models.RoleOwner,
			JoinedAt:  project.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject answers ErrNotFound for both absent projects and projects the
// actor is not a member of.
func (s *Service) GetProject(ctx context.Context, actor uuid.UUID, projectID int64) (*models.Project, error) {
	projects := db.NewProjectRepository(s.db)
	ok, err := projects.IsMember(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	project, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, actor uuid.UUID) ([]*models.Project, error) {
	return db.NewProjectRepository(s.db).ListByUserID(ctx, actor)
}

// UpdateProject is owner-only and never changes the owner.
func (s *Service) UpdateProject(ctx context.Context, actor uuid.UUID, projectID int64, name string, isArchived bool, statuses []models.TaskStatus) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("project name is required")
	}

	project, err := s.requireOwner(ctx, s.db, actor, projectID)
	if err != nil {
		return nil, err
	}

	project.Name = name
	project.IsArchived = isArchived
	if statuses != nil {
		project.EnabledStatuses = models.NormalizeStatuses(models.JoinStatuses(statuses))
	}
	if err := db.NewProjectRepository(s.db).Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) ListMembers(ctx context.Context, actor uuid.UUID, projectID int64) ([]*models.ProjectMember, error) {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return nil, err
	}
	return db.NewProjectRepository(s.db).ListMembers(ctx, projectID)
}

// AddMember enrolls an existing user, looked up by email, as a plain Member.
// Owner-only.
func (s *Service) AddMember(ctx context.Context, actor uuid.UUID, projectID int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validationf("email is required")
	}

	if _, err := s.requireOwner(ctx, s.db, actor, projectID); err != nil {
		return err
	}

	user, err := db.NewUserRepository(s.db).GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	projects := db.NewProjectRepository(s.db)
	exists, err := projects.IsMember(ctx, projectID, user.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyMember
	}

	return projects.AddMember(ctx, &models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      models.RoleMember,
		JoinedAt:  time.Now().UTC(),
	})
}

// RemoveMember rejects removing the Owner regardless of who asks.
func (s *Service) RemoveMember(ctx context.Context, actor uuid.UUID, projectID int64, userID uuid.UUID) error {
	if _, err := s.requireOwner(ctx, s.db, actor, projectID); err != nil {
		return err
	}

	projects := db.NewProjectRepository(s.db)
	member, err := projects.GetMember(ctx, projectID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}
	return notFoundIfNoRows(projects.RemoveMember(ctx, projectID, userID))
}
