package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectRole string

const (
	RoleOwner  ProjectRole = "Owner"
	RoleMember ProjectRole = "Member"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Project struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	OwnerID         uuid.UUID    `json:"owner_id"`
	CreatedAt       time.Time    `json:"created_at"`
	IsArchived      bool         `json:"is_archived"`
	EnabledStatuses []TaskStatus `json:"enabled_statuses"`
}

type ProjectMember struct {
	ProjectID int64       `json:"project_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      ProjectRole `json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`
}

type Sprint struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	IsActive   bool      `json:"is_active"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	Order      int       `json:"order"`
	Version    int64     `json:"-"`
}

type TaskItem struct {
	ID          int64      `json:"id"`
	ProjectID   *int64     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	SprintID    *int64     `json:"sprint_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	Order       int        `json:"order"`
	Version     int64      `json:"-"`
}

type WorkEntry struct {
	ID          int64      `json:"id"`
	TaskItemID  int64      `json:"task_item_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Duration is the logged time span, zero while the entry is still running.
func (we WorkEntry) Duration() time.Duration {
	if we.EndTime == nil {
		return 0
	}
	return we.EndTime.Sub(we.StartTime)
}
