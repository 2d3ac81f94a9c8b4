package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/models"
)

type projectInput struct {
	Name            string   `json:"name"`
	IsArchived      bool     `json:"is_archived"`
	EnabledStatuses []string `json:"enabled_statuses"`
}

func parseStatusList(w http.ResponseWriter, raw []string) ([]models.TaskStatus, bool) {
	if raw == nil {
		return nil, true
	}
	statuses := make([]models.TaskStatus, 0, len(raw))
	for _, name := range raw {
		status, ok := models.ParseStatus(name)
		if !ok {
			sendError(w, "Unknown status: "+name, http.StatusBadRequest)
			return nil, false
		}
		statuses = append(statuses, status)
	}
	return statuses, true
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	projects, err := h.Service.ListProjects(ctx, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input projectInput
	if !decodeJSON(w, r, &input) {
		return
	}
	statuses, ok := parseStatusList(w, input.EnabledStatuses)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	project, err := h.Service.CreateProject(ctx, actor, input.Name, statuses)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/projects/"+itoa(project.ID))
	sendJSON(w, http.StatusCreated, project)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := requestCtx(r)
	defer cancel()

	project, err := h.Service.GetProject(ctx, actor, projectID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
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

	var input projectInput
	if !decodeJSON(w, r, &input) {
		return
	}
	statuses, ok := parseStatusList(w, input.EnabledStatuses)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if _, err := h.Service.UpdateProject(ctx, actor, projectID, input.Name, input.IsArchived, statuses); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := requestCtx(r)
	defer cancel()

	members, err := h.Service.ListMembers(ctx, actor, projectID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, members)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.AddMember(ctx, actor, projectID, input.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
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
	memberID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		sendError(w, "Invalid member id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.RemoveMember(ctx, actor, projectID, memberID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
