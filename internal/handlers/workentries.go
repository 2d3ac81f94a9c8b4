package handlers

import (
	"net/http"
	"time"

	"github.com/klimenko/work-planner/internal/workflow"
)

type workEntryInput struct {
	TaskItemID  int64      `json:"task_item_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description"`
}

func (in workEntryInput) toWorkflow() workflow.WorkEntryInput {
	return workflow.WorkEntryInput{
		TaskItemID:  in.TaskItemID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: in.Description,
	}
}

func (h *Handler) ListWorkEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	entries, err := h.Service.ListWorkEntries(ctx, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entries)
}

func (h *Handler) CreateWorkEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input workEntryInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.TaskItemID <= 0 {
		sendError(w, "task_item_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	entry, err := h.Service.CreateWorkEntry(ctx, actor, input.toWorkflow())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/workentries/"+itoa(entry.ID))
	sendJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetWorkEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	entryID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid work entry id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	entry, err := h.Service.GetWorkEntry(ctx, actor, entryID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

func (h *Handler) ListWorkEntriesByTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		sendError(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	entries, err := h.Service.ListWorkEntriesByTask(ctx, actor, taskID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entries)
}

func (h *Handler) UpdateWorkEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	entryID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid work entry id", http.StatusBadRequest)
		return
	}

	var input workEntryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	entry, err := h.Service.UpdateWorkEntry(ctx, actor, entryID, input.toWorkflow())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteWorkEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	entryID, ok := pathID(r, "id")
	if !ok {
		sendError(w, "Invalid work entry id", http.StatusBadRequest)
		return
	}

	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.Service.DeleteWorkEntry(ctx, actor, entryID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
