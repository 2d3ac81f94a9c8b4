package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/klimenko/work-planner/internal/models"
	"github.com/klimenko/work-planner/internal/workflow"
)

type taskInput struct {
	ProjectID   int64   `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	AssigneeID  *string `json:"assignee_id"`
	SprintID    *int64  `json:"sprint_id"`
	Order       int     `json:"order"`
}

func (in taskInput) toWorkflow(w http.ResponseWriter) (workflow.TaskInput, bool) {
	status := models.StatusBacklog
	if in.Status != "" {
		parsed, ok := models.ParseStatus(in.Status)
		if !ok {
			sendError(w, "Unknown status: "+in.Status, http.StatusBadRequest)
			return workflow.TaskInput{}, false
		}
		status = parsed
	}

	var assignee *uuid.UUID
	if in.AssigneeID != nil && *in.AssigneeID != "" {
		id, err := uuid.Parse(*in.AssigneeID)
		if err != nil {
			sendError(w, "assignee_id must be a valid uuid", http.StatusBadRequest)
			return workflow.TaskInput{}, false
		}
		assignee = &id
	}

	return workflow.TaskInput{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		AssigneeID:  assignee,
		SprintID:    in.SprintID,
		Order:       in.Order,
	}, true
}

func queryID(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	tasks, err := h.Service.ListTasks(ctx, actor, queryID(r, "projectId"), queryID(r, "sprintId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input taskInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.ProjectID <= 0 {
		sendError(w, "project_id is required", http.StatusBadRequest)
		return
	}
	wfInput, ok := input.toWorkflow(w)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	task, err := h.Service.CreateTask(ctx, actor, wfInput)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if task.ProjectID != nil {
		h.WSHub.BroadcastTaskUpdate(*task.ProjectID, "task_created", task)
	}
	w.Header().Set("Location", "/api/tasks/"+itoa(task.ID))
	sendJSON(w, http.StatusCreated, task)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	task, err := h.Service.GetTask(ctx, actor, taskID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	var input taskInput
	if !decodeJSON(w, r, &input) {
		return
	}
	wfInput, ok := input.toWorkflow(w)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	task, err := h.Service.UpdateTask(ctx, actor, taskID, wfInput)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if task.ProjectID != nil {
		h.WSHub.BroadcastTaskUpdate(*task.ProjectID, "task_updated", task)
	}
	sendJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.DeleteTask(ctx, actor, taskID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveTask serves drag-and-drop between backlog, sprints and status columns.
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	var input struct {
		SprintID *int64 `json:"sprintId"`
		Status   string `json:"status"`
		NewOrder int    `json:"newOrder"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	status, ok := models.ParseStatus(input.Status)
	if !ok {
		sendError(w, "Unknown status: "+input.Status, http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	task, err := h.Service.MoveTask(ctx, actor, taskID, input.SprintID, status, input.NewOrder)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if task.ProjectID != nil {
		h.WSHub.BroadcastTaskUpdate(*task.ProjectID, "task_moved", task)
	}
	w.WriteHeader(http.StatusNoContent)
}
