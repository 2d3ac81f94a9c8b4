package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
)

// Service composes the planner rules over the repository layer. Multi-step
// operations run inside a transaction; single-row updates go through the
// version compare-and-swap the repositories expose, with one retry before a
// conflict is surfaced.
type Service struct {
	db *sql.DB
}

func NewService(conn *sql.DB) *Service {
	return &Service{db: conn}
}

func (s *Service) withTx(ctx context.Context, fn func(q db.Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// requireMember fails with ErrForbidden; used on mutations where the project's
// existence is already known to the actor.
func (s *Service) requireMember(ctx context.Context, q db.Querier, actor uuid.UUID, projectID int64) error {
	ok, err := db.NewProjectRepository(q).IsMember(ctx, projectID, actor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// requireOwner loads the project and checks the actor owns it. An absent
// project reads as ErrNotFound, a non-owner actor as ErrForbidden.
func (s *Service) requireOwner(ctx context.Context, q db.Querier, actor uuid.UUID, projectID int64) (*models.Project, error) {
	project, err := db.NewProjectRepository(q).GetByID(ctx, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor {
		return nil, ErrForbidden
	}
	return project, nil
}

func notFoundIfNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
