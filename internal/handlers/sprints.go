package handlers

import (
	"net/http"
	"time"

	"github.com/klimenko/work-planner/internal/workflow"
)

type sprintInput struct {
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	IsActive   bool      `json:"is_active"`
	IsArchived bool      `json:"is_archived"`
}

func (in sprintInput) toWorkflow() workflow.SprintInput {
	return workflow.SprintInput{
		Name:       in.Name,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		IsActive:   in.IsActive,
		IsArchived: in.IsArchived,
	}
}

func (h *Handler) ListSprints(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	ctx, cancel := requestCtx(r)
	defer cancel()

	sprints, err := h.Service.ListSprints(ctx, actor, projectID, includeArchived)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, sprints)
}

func (h *Handler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid project id", http.StatusBadRequest)
		return
	}

	var input sprintInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	sprint, err := h.Service.CreateSprint(ctx, actor, projectID, input.toWorkflow())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, sprint)
}

func (h *Handler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	sprintID, ok := pathID(r, "sprintId")
	if !ok {
		sendError(w, "Invalid sprint id", http.StatusBadRequest)
		return
	}

	var input sprintInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.UpdateSprint(ctx, actor, projectID, sprintID, input.toWorkflow()); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateSprint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	sprintID, ok := pathID(r, "sprintId")
	if !ok {
		sendError(w, "Invalid sprint id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.ActivateSprint(ctx, actor, projectID, sprintID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ArchiveSprint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	sprintID, ok := pathID(r, "sprintId")
	if !ok {
		sendError(w, "Invalid sprint id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.ArchiveSprint(ctx, actor, projectID, sprintID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
