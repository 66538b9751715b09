package database

import (
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// SearchTasks returns the tasks matching every set predicate of the
// filter, newest activity first. Results carry the joined display fields
// and per-task comment and attachment counts; labels are loaded in a
// second pass. Tasks whose status or project row is missing are excluded
// by the inner joins.
func (db *Database) SearchTasks(f models.SearchFilter) ([]models.Task, error) {
	query := db.Table("tasks").
		Select(`tasks.*,
			p.name AS project_name,
			ts.name AS status_name,
			r.full_name AS reporter_name,
			a.full_name AS assignee_name,
			m.display_name AS module_name,
			av.name AS affected_version_name,
			fv.name AS fix_version_name,
			(SELECT COUNT(*) FROM comments c WHERE c.task_id = tasks.id) AS comments_count,
			(SELECT COUNT(*) FROM attachments at WHERE at.task_id = tasks.id) AS attachments_count`).
		Joins("JOIN projects p ON tasks.project_id = p.id").
		Joins("JOIN task_statuses ts ON tasks.status_id = ts.id").
		Joins("LEFT JOIN users r ON tasks.reporter_id = r.id").
		Joins("LEFT JOIN users a ON tasks.assignee_id = a.id").
		Joins("LEFT JOIN modules m ON tasks.module_id = m.id").
		Joins("LEFT JOIN versions av ON tasks.affected_version_id = av.id").
		Joins("LEFT JOIN versions fv ON tasks.fix_version_id = fv.id")

	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ?", pattern, pattern)
	}
	if f.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *f.ProjectID)
	}
	if f.IssueType != nil {
		query = query.Where("tasks.issue_type = ?", *f.IssueType)
	}
	if f.StatusID != nil {
		query = query.Where("tasks.status_id = ?", *f.StatusID)
	}
	if f.Priority != nil {
		query = query.Where("tasks.priority = ?", *f.Priority)
	}
	if f.Severity != nil {
		query = query.Where("tasks.severity = ?", *f.Severity)
	}
	if f.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *f.AssigneeID)
	}
	if f.ReporterID != nil {
		query = query.Where("tasks.reporter_id = ?", *f.ReporterID)
	}
	if f.ModuleID != nil {
		query = query.Where("tasks.module_id = ?", *f.ModuleID)
	}
	if len(f.Labels) > 0 {
		query = query.Where(`tasks.id IN (
			SELECT tl.task_id FROM task_labels tl
			JOIN labels l ON tl.label_id = l.id
			WHERE l.name IN (?))`, f.Labels)
	}
	if f.CreatedAfter != nil {
		query = query.Where("tasks.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		query = query.Where("tasks.created_at <= ?", *f.CreatedBefore)
	}
	if f.UpdatedAfter != nil {
		query = query.Where("tasks.updated_at >= ?", *f.UpdatedAfter)
	}
	if f.UpdatedBefore != nil {
		query = query.Where("tasks.updated_at <= ?", *f.UpdatedBefore)
	}

	var tasks []models.Task
	if err := query.Order("tasks.updated_at DESC, tasks.id DESC").Scan(&tasks).Error; err != nil {
		return nil, err
	}

	// Second pass: one label query per task. Fine at this system's scale.
	for i := range tasks {
		labels, err := db.GetTaskLabels(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Labels = labels
	}

	return tasks, nil
}
