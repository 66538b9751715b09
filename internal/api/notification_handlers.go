package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/auth"
)

// ListNotifications returns the caller's notifications, optionally only
// unread ones (?unread=true).
func (h *Handler) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.db.GetUserNotifications(auth.CurrentUserID(c), unreadOnly)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.MarkNotificationRead(id, auth.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// ==================== Watchers ====================

func (h *Handler) WatchTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.AddWatcher(id, auth.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Watching task"})
}

func (h *Handler) UnwatchTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.RemoveWatcher(id, auth.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stopped watching task"})
}

func (h *Handler) ListWatchers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	watchers, err := h.db.GetTaskWatchers(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, watchers)
}

// ==================== Dependencies ====================

func (h *Handler) AddDependency(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		DependsOnID uint `json:"depends_on_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.AddDependency(id, req.DependsOnID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Dependency added"})
}

func (h *Handler) ListDependencies(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	deps, err := h.db.GetTaskDependencies(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, deps)
}

func (h *Handler) DeleteDependency(c *gin.Context) {
	depID, ok := idParam(c, "depId")
	if !ok {
		return
	}

	if err := h.db.DeleteTaskDependency(depID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Dependency removed"})
}
