package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/smartduck/ducktodo/internal/dto"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
)

// TaskHandler serves task, child task, attachment and graph endpoints.
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type childTaskRequest struct {
	Name       string             `json:"name" binding:"required"`
	AssigneeID string             `json:"assignee_id"`
	Status     *models.TaskStatus `json:"status"`
	DueDate    *string            `json:"due_date"`
}

func (r childTaskRequest) input(dates *dateFields) services.ChildTaskInput {
	return services.ChildTaskInput{
		Name:       r.Name,
		AssigneeID: r.AssigneeID,
		Status:     r.Status,
		DueDate:    dates.parse("due_date", r.DueDate),
	}
}

// ListTasks returns the tasks the current user takes part in
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListMyTasks(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// CreateTask creates a new task in a task group
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		TaskGroupID string             `json:"task_group_id" binding:"required"`
		Name        string             `json:"name" binding:"required"`
		Description string             `json:"description"`
		Status      *models.TaskStatus `json:"status"`
		Priority    *models.Priority   `json:"priority"`
		StartDate   *string            `json:"start_date"`
		DueDate     *string            `json:"due_date"`
		HelperIDs   []string           `json:"helper_ids"`
		Children    []childTaskRequest `json:"children"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	var dates dateFields
	input := services.CreateTaskInput{
		ActorID:     userID,
		TaskGroupID: req.TaskGroupID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   dates.parse("start_date", req.StartDate),
		DueDate:     dates.parse("due_date", req.DueDate),
		HelperIDs:   req.HelperIDs,
	}
	for _, child := range req.Children {
		input.Children = append(input.Children, child.input(&dates))
	}
	if !dates.ok(c) {
		return
	}

	detail, err := h.tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*detail))
}

// GetTask returns a task with its children, assistants, files and nodes
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	detail, err := h.tasks.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*detail))
}

// UpdateTask updates a task; only provided fields change
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Status      *models.TaskStatus `json:"status"`
		Priority    *models.Priority   `json:"priority"`
		StartDate   *string            `json:"start_date"`
		DueDate     *string            `json:"due_date"`
		FinishDate  *string            `json:"finish_date"`
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	var dates dateFields
	input := services.UpdateTaskInput{
		ActorID:     userID,
		TaskID:      c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   dates.parse("start_date", req.StartDate),
		DueDate:     dates.parse("due_date", req.DueDate),
		FinishDate:  dates.parse("finish_date", req.FinishDate),
	}
	if !dates.ok(c) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task and everything hanging off it
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// ListAudits returns the audit trail of a task, newest first
func (h *TaskHandler) ListAudits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	records, err := h.tasks.ListAudits(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": dto.ToAuditDTOs(records),
	})
}

// AddChildTask appends a child task
func (h *TaskHandler) AddChildTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req childTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	var dates dateFields
	child := req.input(&dates)
	if !dates.ok(c) {
		return
	}

	created, err := h.tasks.AddChildTask(c.Request.Context(), services.AddChildTaskInput{
		ActorID:        userID,
		TaskID:         c.Param("id"),
		ChildTaskInput: child,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToChildTaskDTO(*created))
}

// ReorderChildTasks rewrites the order of a task's child tasks
func (h *TaskHandler) ReorderChildTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type ReorderRequest struct {
		ChildTaskIDs []string `json:"child_task_ids" binding:"required"`
	}

	var req ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	children, err := h.tasks.ReorderChildTasks(c.Request.Context(), userID, c.Param("id"), req.ChildTaskIDs)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"children": dto.ToChildTaskDTOs(children),
	})
}

// UpdateChildTask updates a child task; an empty assignee_id unassigns it
func (h *TaskHandler) UpdateChildTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateChildTaskRequest struct {
		Name       *string            `json:"name"`
		AssigneeID *string            `json:"assignee_id"`
		Status     *models.TaskStatus `json:"status"`
		DueDate    *string            `json:"due_date"`
		FinishDate *string            `json:"finish_date"`
	}

	var req UpdateChildTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	var dates dateFields
	input := services.UpdateChildTaskInput{
		ActorID:     userID,
		ChildTaskID: c.Param("id"),
		Name:        req.Name,
		AssigneeID:  req.AssigneeID,
		Status:      req.Status,
		DueDate:     dates.parse("due_date", req.DueDate),
		FinishDate:  dates.parse("finish_date", req.FinishDate),
	}
	if !dates.ok(c) {
		return
	}

	child, err := h.tasks.UpdateChildTask(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChildTaskDTO(*child))
}

// DeleteChildTask deletes a child task and its graph nodes
func (h *TaskHandler) DeleteChildTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if _, err := h.tasks.DeleteChildTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Child task deleted successfully",
	})
}

// AddAssistant adds the user named by :user_id to the task
func (h *TaskHandler) AddAssistant(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	assistant, err := h.tasks.AddAssistant(c.Request.Context(), userID, c.Param("id"), c.Param("user_id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssistantDTO(*assistant))
}

// RemoveAssistant removes the user named by :user_id from the task
func (h *TaskHandler) RemoveAssistant(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if _, err := h.tasks.RemoveAssistant(c.Request.Context(), userID, c.Param("id"), c.Param("user_id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Assistant removed successfully",
	})
}

// AddFile records an attachment on the task
func (h *TaskHandler) AddFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type AddFileRequest struct {
		FileName  string `json:"file_name" binding:"required"`
		ObjectRef string `json:"object_ref"`
		FileType  string `json:"file_type"`
		FileSize  int64  `json:"file_size"`
		Remark    string `json:"remark"`
	}

	var req AddFileRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := h.tasks.AddFile(c.Request.Context(), services.AddFileInput{
		ActorID:   userID,
		TaskID:    c.Param("id"),
		FileName:  req.FileName,
		ObjectRef: req.ObjectRef,
		FileType:  req.FileType,
		FileSize:  req.FileSize,
		Remark:    req.Remark,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFileDTO(*file))
}

// RemoveFile deletes an attachment and its stored object
func (h *TaskHandler) RemoveFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if _, err := h.tasks.RemoveFile(c.Request.Context(), userID, c.Param("id"), c.Param("file_id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File removed successfully",
	})
}

// AddNode creates a graph node anchored to one entity
func (h *TaskHandler) AddNode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type AddNodeRequest struct {
		TeamID      string         `json:"team_id"`
		TaskGroupID string         `json:"task_group_id"`
		TaskID      string         `json:"task_id"`
		ChildTaskID string         `json:"child_task_id"`
		Name        string         `json:"name" binding:"required"`
		Type        string         `json:"type"`
		Description string         `json:"description"`
		ExtraData   datatypes.JSON `json:"extra_data"`
	}

	var req AddNodeRequest
	if !bindJSON(c, &req) {
		return
	}

	node, err := h.tasks.AddNode(c.Request.Context(), services.AddNodeInput{
		ActorID: userID,
		Anchor: services.NodeAnchor{
			TeamID:      req.TeamID,
			TaskGroupID: req.TaskGroupID,
			TaskID:      req.TaskID,
			ChildTaskID: req.ChildTaskID,
		},
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		ExtraData:   req.ExtraData,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToNodeDTO(*node))
}

// AddEdge links two graph nodes
func (h *TaskHandler) AddEdge(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type AddEdgeRequest struct {
		SourceID    string `json:"source_id" binding:"required"`
		TargetID    string `json:"target_id" binding:"required"`
		Type        string `json:"type"`
		Description string `json:"description"`
	}

	var req AddEdgeRequest
	if !bindJSON(c, &req) {
		return
	}

	edge, err := h.tasks.AddEdge(c.Request.Context(), services.AddEdgeInput{
		ActorID:     userID,
		SourceID:    req.SourceID,
		TargetID:    req.TargetID,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEdgeDTO(*edge.Edge))
}
