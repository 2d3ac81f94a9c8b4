package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/db"
	"github.com/klimenko/work-planner/internal/models"
)

// errConflictRetry aborts the current transaction after a failed CAS so the
// whole read-modify-write sequence can run again.
var errConflictRetry = errors.New("version conflict, retry")

type SprintInput struct {
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	IsActive   bool
	IsArchived bool
}

func validateSprintInput(in SprintInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("sprint name is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return validationf("end date must not be before start date")
	}
	return nil
}

func (s *Service) ListSprints(ctx context.Context, actor uuid.UUID, projectID int64, includeArchived bool) ([]*models.Sprint, error) {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return nil, err
	}
	return db.NewSprintRepository(s.db).ListByProject(ctx, projectID, includeArchived)
}

// CreateSprint appends the sprint to the project's display order. A sprint
// created active deactivates every sibling first; new sprints are never
// archived.
func (s *Service) CreateSprint(ctx context.Context, actor uuid.UUID, projectID int64, in SprintInput) (*models.Sprint, error) {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return nil, err
	}
	if err := validateSprintInput(in); err != nil {
		return nil, err
	}

	sprint := &models.Sprint{
		ProjectID:  projectID,
		Name:       strings.TrimSpace(in.Name),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		IsActive:   in.IsActive,
		IsArchived: false,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.withTx(ctx, func(q db.Querier) error {
		sprints := db.NewSprintRepository(q)
		maxOrder, err := sprints.MaxOrder(ctx, projectID)
		if err != nil {
			return err
		}
		sprint.Order = maxOrder + 1

		if sprint.IsActive {
			if err := sprints.DeactivateSiblings(ctx, projectID, 0); err != nil {
				return err
			}
		}
		return sprints.Create(ctx, sprint)
	})
	if err != nil {
		return nil, err
	}
	return sprint, nil
}

// UpdateSprint applies name/date edits and the activation/archival flags.
// Archival wins over activation; deactivation has no side effect on siblings.
func (s *Service) UpdateSprint(ctx context.Context, actor uuid.UUID, projectID, sprintID int64, in SprintInput) error {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return err
	}
	if err := validateSprintInput(in); err != nil {
		return err
	}

	return s.retryOnConflict(ctx, func(q db.Querier) error {
		sprints := db.NewSprintRepository(q)
		sprint, err := sprints.GetByID(ctx, projectID, sprintID)
		if err != nil {
			return notFoundIfNoRows(err)
		}

		sprint.Name = strings.TrimSpace(in.Name)
		sprint.StartDate = in.StartDate
		sprint.EndDate = in.EndDate
		sprint.IsArchived = in.IsArchived

		switch {
		case sprint.IsArchived:
			sprint.IsActive = false
		case in.IsActive:
			if err := sprints.DeactivateSiblings(ctx, projectID, sprint.ID); err != nil {
				return err
			}
			sprint.IsActive = true
		default:
			sprint.IsActive = false
		}

		return casSprint(ctx, sprints, sprint)
	})
}

// ActivateSprint makes the sprint the project's single active one. Archived
// sprints cannot be activated.
func (s *Service) ActivateSprint(ctx context.Context, actor uuid.UUID, projectID, sprintID int64) error {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return err
	}

	return s.retryOnConflict(ctx, func(q db.Querier) error {
		sprints := db.NewSprintRepository(q)
		sprint, err := sprints.GetByID(ctx, projectID, sprintID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if sprint.IsArchived {
			return ErrArchivedSprint
		}

		if err := sprints.DeactivateSiblings(ctx, projectID, sprint.ID); err != nil {
			return err
		}
		sprint.IsActive = true
		return casSprint(ctx, sprints, sprint)
	})
}

// ArchiveSprint unconditionally archives and deactivates. Archiving an
// already-archived sprint is a no-op that succeeds; there is no un-archive.
func (s *Service) ArchiveSprint(ctx context.Context, actor uuid.UUID, projectID, sprintID int64) error {
	if err := s.requireMember(ctx, s.db, actor, projectID); err != nil {
		return err
	}

	return s.retryOnConflict(ctx, func(q db.Querier) error {
		sprints := db.NewSprintRepository(q)
		sprint, err := sprints.GetByID(ctx, projectID, sprintID)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		sprint.IsArchived = true
		sprint.IsActive = false
		return casSprint(ctx, sprints, sprint)
	})
}

// retryOnConflict runs the read-modify-write sequence in a transaction and
// repeats it exactly once after a version conflict.
func (s *Service) retryOnConflict(ctx context.Context, fn func(q db.Querier) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		err := s.withTx(ctx, fn)
		if errors.Is(err, errConflictRetry) {
			continue
		}
		return err
	}
	return ErrConcurrencyConflict
}

func casSprint(ctx context.Context, sprints *db.SprintRepository, sprint *models.Sprint) error {
	ok, err := sprints.UpdateCAS(ctx, sprint)
	if err != nil {
		return err
	}
	if !ok {
		return errConflictRetry
	}
	return nil
}
