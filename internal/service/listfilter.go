package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// ListFilter narrows an already loaded task collection for the list view.
// Each dimension is a multi-select set: an empty set places no constraint,
// a non-empty set matches tasks whose value is any of its members.
// Dimensions combine with AND. Complements the store-side SearchFilter,
// which builds SQL instead.
type ListFilter struct {
	Statuses   map[string]bool
	Priorities map[int]bool
	IssueTypes map[models.IssueType]bool
	Projects   map[string]bool

	// Text matches case-insensitively against title, description and the
	// task id rendered as a string.
	Text string
}

// NewListFilter returns a filter with no constraints.
func NewListFilter() *ListFilter {
	return &ListFilter{
		Statuses:   make(map[string]bool),
		Priorities: make(map[int]bool),
		IssueTypes: make(map[models.IssueType]bool),
		Projects:   make(map[string]bool),
	}
}

// IsEmpty reports whether the filter would pass every task through.
func (f *ListFilter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Priorities) == 0 &&
		len(f.IssueTypes) == 0 && len(f.Projects) == 0 && f.Text == ""
}

// Matches reports whether a single task passes every set dimension.
func (f *ListFilter) Matches(t *models.Task) bool {
	if len(f.Statuses) > 0 && !f.Statuses[t.StatusName] {
		return false
	}
	if len(f.Priorities) > 0 && !f.Priorities[t.Priority] {
		return false
	}
	if len(f.IssueTypes) > 0 && !f.IssueTypes[t.IssueType] {
		return false
	}
	if len(f.Projects) > 0 && !f.Projects[t.ProjectName] {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strconv.FormatUint(uint64(t.ID), 10), needle) {
			return false
		}
	}
	return true
}

// Apply returns the subset of tasks passing the filter, preserving order.
func (f *ListFilter) Apply(tasks []models.Task) []models.Task {
	if f.IsEmpty() {
		return tasks
	}
	filtered := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if f.Matches(&tasks[i]) {
			filtered = append(filtered, tasks[i])
		}
	}
	return filtered
}

// SortTasks sorts in place by the named column. Missing values (nil
// assignee, empty names) sort as the minimum for the column's type.
// Unknown columns leave the order unchanged.
func SortTasks(tasks []models.Task, column string, descending bool) {
	var less func(a, b *models.Task) bool

	switch column {
	case "id":
		less = func(a, b *models.Task) bool { return a.ID < b.ID }
	case "title":
		less = func(a, b *models.Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case "type":
		less = func(a, b *models.Task) bool { return a.IssueType < b.IssueType }
	case "priority":
		less = func(a, b *models.Task) bool { return a.Priority < b.Priority }
	case "severity":
		less = func(a, b *models.Task) bool { return a.Severity < b.Severity }
	case "status":
		less = func(a, b *models.Task) bool { return a.StatusName < b.StatusName }
	case "project":
		less = func(a, b *models.Task) bool { return a.ProjectName < b.ProjectName }
	case "module":
		less = func(a, b *models.Task) bool { return a.ModuleName < b.ModuleName }
	case "assignee":
		less = func(a, b *models.Task) bool { return a.AssigneeName < b.AssigneeName }
	case "created":
		less = func(a, b *models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated":
		less = func(a, b *models.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if descending {
			return less(&tasks[j], &tasks[i])
		}
		return less(&tasks[i], &tasks[j])
	})
}
