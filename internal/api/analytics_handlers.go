package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/service"
)

// DashboardMetrics returns the unfiltered dashboard snapshot computed by
// the store with grouped counts.
func (h *Handler) DashboardMetrics(c *gin.Context) {
	metrics, err := h.db.DashboardMetrics(orZeroValue(currentUserID(c)))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// FilteredMetrics recomputes the snapshot over the subset matching the
// query parameters, plus the priority histogram for the same subset.
func (h *Handler) FilteredMetrics(c *gin.Context) {
	filter, err := searchFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.db.SearchTasks(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	metrics := service.AggregateMetrics(tasks, orZeroValue(currentUserID(c)))

	c.JSON(http.StatusOK, gin.H{
		"metrics":               metrics,
		"priority_distribution": service.PriorityDistribution(tasks),
	})
}
