package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/models"
	"github.com/taskmaster-hq/bugtracker/internal/service"
)

// SearchTasks runs the store-side filter. Every recognized query
// parameter adds one predicate; absent parameters add none.
func (h *Handler) SearchTasks(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func searchFilterFromQuery(c *gin.Context) (models.SearchFilter, error) {
	var filter models.SearchFilter

	filter.Query = c.Query("q")

	for name, target := range map[string]**uint{
		"project_id":  &filter.ProjectID,
		"status_id":   &filter.StatusID,
		"assignee_id": &filter.AssigneeID,
		"reporter_id": &filter.ReporterID,
		"module_id":   &filter.ModuleID,
	} {
		if value := c.Query(name); value != "" {
			parsed, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return filter, err
			}
			id := uint(parsed)
			*target = &id
		}
	}

	if value := c.Query("issue_type"); value != "" {
		issueType := models.IssueType(value)
		filter.IssueType = &issueType
	}
	if value := c.Query("priority"); value != "" {
		priority, err := strconv.Atoi(value)
		if err != nil {
			return filter, err
		}
		filter.Priority = &priority
	}
	if value := c.Query("severity"); value != "" {
		severity, err := strconv.Atoi(value)
		if err != nil {
			return filter, err
		}
		filter.Severity = &severity
	}
	if value := c.Query("labels"); value != "" {
		filter.Labels = strings.Split(value, ",")
	}

	var err error
	if filter.CreatedAfter, err = parseTimeQuery(c, "created_after"); err != nil {
		return filter, err
	}
	if filter.CreatedBefore, err = parseTimeQuery(c, "created_before"); err != nil {
		return filter, err
	}
	if filter.UpdatedAfter, err = parseTimeQuery(c, "updated_after"); err != nil {
		return filter, err
	}
	if filter.UpdatedBefore, err = parseTimeQuery(c, "updated_before"); err != nil {
		return filter, err
	}

	return filter, nil
}

// QuickFilterTasks resolves one of the predefined selections named in
// the path, e.g. /tasks/quick/my_issues. A module selection uses the
// "module" name with a module query parameter.
func (h *Handler) QuickFilterTasks(c *gin.Context) {
	var qf service.QuickFilter

	switch name := c.Param("name"); name {
	case "my_issues":
		qf = service.MyIssues{UserID: orZeroValue(currentUserID(c))}
	case "all_bugs":
		qf = service.AllBugs{}
	case "critical_issues":
		qf = service.CriticalIssues{}
	case "open_issues":
		qf = service.OpenIssues{}
	case "recent_activity":
		days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		qf = service.RecentActivity{Days: days, Limit: limit}
	case "module":
		module := c.Query("module")
		if module == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing module parameter"})
			return
		}
		qf = service.ByModuleName{Name: module}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown quick filter"})
		return
	}

	tasks, err := h.tasks.TasksByQuickFilter(qf)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// listViewRequest carries the in-memory narrowing applied on top of a
// store-side search: multi-select sets, free text and a sort column.
type listViewRequest struct {
	Statuses   []string           `json:"statuses"`
	Priorities []int              `json:"priorities"`
	IssueTypes []models.IssueType `json:"issue_types"`
	Projects   []string           `json:"projects"`
	Text       string             `json:"text"`
	SortBy     string             `json:"sort_by"`
	Descending bool               `json:"descending"`
}

// ListView loads tasks via the store filter built from query parameters,
// then applies the body's multi-select sets and sort in memory. The
// response carries the metrics recomputed over the narrowed set.
func (h *Handler) ListView(c *gin.Context) {
	storeFilter, err := searchFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req listViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.db.SearchTasks(storeFilter)
	if err != nil {
		writeError(c, err)
		return
	}

	lf := service.NewListFilter()
	for _, s := range req.Statuses {
		lf.Statuses[s] = true
	}
	for _, p := range req.Priorities {
		lf.Priorities[p] = true
	}
	for _, t := range req.IssueTypes {
		lf.IssueTypes[t] = true
	}
	for _, p := range req.Projects {
		lf.Projects[p] = true
	}
	lf.Text = req.Text

	tasks = lf.Apply(tasks)
	if req.SortBy != "" {
		service.SortTasks(tasks, req.SortBy, req.Descending)
	}

	metrics := service.AggregateMetrics(tasks, orZeroValue(currentUserID(c)))

	c.JSON(http.StatusOK, gin.H{
		"tasks":   tasks,
		"count":   len(tasks),
		"metrics": metrics,
	})
}

func orZeroValue(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
