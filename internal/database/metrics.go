package database

import (
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// DashboardMetrics computes the unfiltered dashboard snapshot with grouped
// counts at the store. userID scopes the my-assigned count; zero means no
// current user.
func (db *Database) DashboardMetrics(userID uint) (models.DashboardMetrics, error) {
	metrics := models.NewDashboardMetrics()

	var statusCounts []struct {
		Name  string
		Count int
	}
	if err := db.Table("tasks").
		Select("ts.name AS name, COUNT(*) AS count").
		Joins("JOIN task_statuses ts ON tasks.status_id = ts.id").
		Group("ts.name").
		Scan(&statusCounts).Error; err != nil {
		return metrics, err
	}

	for _, sc := range statusCounts {
		metrics.ByStatus[sc.Name] = sc.Count
		metrics.TotalBugs += sc.Count
		if models.IsOpenStatus(sc.Name) {
			metrics.OpenBugs += sc.Count
		} else {
			metrics.ClosedBugs += sc.Count
		}
	}

	var moduleCounts []struct {
		Name  *string
		Count int
	}
	if err := db.Table("tasks").
		Select("m.display_name AS name, COUNT(*) AS count").
		Joins("LEFT JOIN modules m ON tasks.module_id = m.id").
		Group("m.display_name").
		Scan(&moduleCounts).Error; err != nil {
		return metrics, err
	}

	for _, mc := range moduleCounts {
		name := models.UnassignedModule
		if mc.Name != nil && *mc.Name != "" {
			name = *mc.Name
		}
		metrics.ByModule[name] += mc.Count
	}

	var criticalBugs int64
	if err := db.Model(&models.Task{}).
		Where("issue_type = ? AND priority = ?", models.IssueTypeBug, models.PriorityCritical).
		Count(&criticalBugs).Error; err != nil {
		return metrics, err
	}
	metrics.CriticalBugs = int(criticalBugs)

	if userID != 0 {
		var myAssigned int64
		if err := db.Table("tasks").
			Joins("JOIN task_statuses ts ON tasks.status_id = ts.id").
			Where("tasks.assignee_id = ? AND ts.name IN (?)", userID, models.OpenStatusNames()).
			Count(&myAssigned).Error; err != nil {
			return metrics, err
		}
		metrics.MyAssigned = int(myAssigned)
	}

	return metrics, nil
}
