package service

import (
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// AggregateMetrics derives a dashboard snapshot from the given task
// collection in a single pass. The collection may be all tasks or any
// filtered subset; the result is a pure function of the input.
// currentUserID scopes MyAssigned; zero means no current user.
func AggregateMetrics(tasks []models.Task, currentUserID uint) models.DashboardMetrics {
	metrics := models.NewDashboardMetrics()
	metrics.TotalBugs = len(tasks)

	for i := range tasks {
		t := &tasks[i]

		open := models.IsOpenStatus(t.StatusName)
		if open {
			metrics.OpenBugs++
		} else {
			metrics.ClosedBugs++
		}

		if t.IsBug() && t.IsCritical() {
			metrics.CriticalBugs++
		}

		// MyAssigned counts only still-open work.
		if open && currentUserID != 0 && t.AssigneeID != nil && *t.AssigneeID == currentUserID {
			metrics.MyAssigned++
		}

		module := t.ModuleName
		if module == "" {
			module = models.UnassignedModule
		}
		metrics.ByModule[module]++

		if t.StatusName != "" {
			metrics.ByStatus[t.StatusName]++
		}
	}

	return metrics
}

// PriorityDistribution returns the fixed five-bucket priority histogram
// for the given tasks. All buckets are present even when zero.
func PriorityDistribution(tasks []models.Task) map[string]int {
	histogram := map[string]int{
		"Critical": 0,
		"High":     0,
		"Medium":   0,
		"Low":      0,
		"Trivial":  0,
	}

	for i := range tasks {
		name := models.PriorityName(tasks[i].Priority)
		if _, ok := histogram[name]; ok {
			histogram[name]++
		}
	}

	return histogram
}
