package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/auth"
	"github.com/taskmaster-hq/bugtracker/internal/database"
	"github.com/taskmaster-hq/bugtracker/internal/models"
	"github.com/taskmaster-hq/bugtracker/internal/service"
	"github.com/taskmaster-hq/bugtracker/internal/storage"
	pkgauth "github.com/taskmaster-hq/bugtracker/pkg/auth"
)

type Handler struct {
	db      *database.Database
	tasks   *service.TaskService
	users   *service.UserService
	jwt     *pkgauth.JWTManager
	storage *storage.FileStorage
}

func NewHandler(db *database.Database, tasks *service.TaskService, users *service.UserService,
	jwt *pkgauth.JWTManager, storage *storage.FileStorage) *Handler {
	return &Handler{
		db:      db,
		tasks:   tasks,
		users:   users,
		jwt:     jwt,
		storage: storage,
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var ve *database.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, database.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns a pointer to the caller's id, nil when absent.
func currentUserID(c *gin.Context) *uint {
	if id := auth.CurrentUserID(c); id != 0 {
		return &id
	}
	return nil
}

// ==================== Projects ====================

func (h *Handler) CreateProject(c *gin.Context) {
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.CreateProject(&project); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.db.GetProject(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.db.ListProjects()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project.ID = id
	if err := h.db.UpdateProject(&project); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteProject(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// ==================== Tasks ====================

func (h *Handler) CreateTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if task.ReporterID == nil {
		task.ReporterID = currentUserID(c)
	}
	if task.StatusID == 0 {
		task.StatusID = 1
	}
	if task.Priority == 0 {
		task.Priority = models.PriorityHigh
	}
	if task.Severity == 0 {
		task.Severity = models.SeverityMinor
	}
	if task.IssueType == "" {
		task.IssueType = models.IssueTypeTask
	}

	if err := h.tasks.CreateTask(&task); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	task, err := h.db.GetTask(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task.ID = id
	changes, err := h.tasks.UpdateTask(&task)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task, "changes": changes})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteTask(id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *Handler) ChangeTaskStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		StatusID uint `json:"status_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.ChangeStatus(id, req.StatusID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

func (h *Handler) AssignTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		AssigneeID uint `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.AssignTask(id, req.AssigneeID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task assigned"})
}

func (h *Handler) BulkChangeStatus(c *gin.Context) {
	var req struct {
		TaskIDs  []uint `json:"task_ids" binding:"required"`
		StatusID uint   `json:"status_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.BulkChangeStatus(req.TaskIDs, req.StatusID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Statuses updated", "count": len(req.TaskIDs)})
}

func (h *Handler) BulkAssign(c *gin.Context) {
	var req struct {
		TaskIDs    []uint `json:"task_ids" binding:"required"`
		AssigneeID uint   `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.BulkAssign(req.TaskIDs, req.AssigneeID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tasks assigned", "count": len(req.TaskIDs)})
}

// ==================== Comments ====================

func (h *Handler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.tasks.AddComment(id, req.Content, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) ListComments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.db.GetTaskComments(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// ==================== Status history ====================

func (h *Handler) GetStatusHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	history, err := h.db.GetTaskStatusHistory(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// ==================== Labels ====================

func (h *Handler) SetTaskLabels(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Labels []string `json:"labels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.SetTaskLabels(id, req.Labels); err != nil {
		writeError(c, err)
		return
	}

	labels, err := h.db.GetTaskLabels(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, labels)
}

func (h *Handler) ListLabels(c *gin.Context) {
	labels, err := h.db.ListLabels()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, labels)
}

func (h *Handler) CreateLabel(c *gin.Context) {
	var label models.Label
	if err := c.ShouldBindJSON(&label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	label.IsSystem = false
	if err := h.db.CreateLabel(&label); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, label)
}

// ==================== Reference data ====================

func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.db.ListStatuses()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, statuses)
}

func (h *Handler) ListModules(c *gin.Context) {
	modules, err := h.db.ListModules()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

func (h *Handler) ListVersions(c *gin.Context) {
	versions, err := h.db.ListVersions()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, versions)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.db.ListUsers()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// parseTimeQuery reads an RFC 3339 query parameter, nil when absent.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
