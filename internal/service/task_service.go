package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster-hq/bugtracker/internal/database"
	"github.com/taskmaster-hq/bugtracker/internal/models"
	"github.com/taskmaster-hq/bugtracker/internal/notify"
)

// TaskService carries the business rules around task operations:
// validation, change tracking and notification fan-out. Persistence is
// delegated to the injected gateway.
type TaskService struct {
	db   *database.Database
	sink notify.Sink
}

func NewTaskService(db *database.Database, sink notify.Sink) *TaskService {
	return &TaskService{db: db, sink: sink}
}

// validateTask enforces the field-level rules shared by create and update.
func validateTask(task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return database.NewValidationError("title", "title is required")
	}
	if len(task.Title) > 255 {
		return database.NewValidationError("title", "title must be 255 characters or less")
	}
	if task.Priority < models.PriorityCritical || task.Priority > models.PriorityTrivial {
		return database.NewValidationError("priority", "priority must be between 1 and 5")
	}
	if task.Severity < models.SeverityBlocker || task.Severity > models.SeverityTrivial {
		return database.NewValidationError("severity", "severity must be between 1 and 4")
	}
	if task.ProjectID == 0 {
		return database.NewValidationError("project_id", "project is required")
	}
	if task.StatusID == 0 {
		return database.NewValidationError("status_id", "status is required")
	}
	return nil
}

// CreateTask validates and stores a new task, then notifies the assignee
// if one was set at creation time.
func (s *TaskService) CreateTask(task *models.Task) error {
	if err := validateTask(task); err != nil {
		return err
	}

	if err := s.db.CreateTask(task); err != nil {
		return err
	}

	if task.AssigneeID != nil {
		s.createNotification(&models.Notification{
			UserID:            *task.AssigneeID,
			TaskID:            task.ID,
			Type:              "assignment",
			Title:             "New task assigned",
			Message:           fmt.Sprintf("You have been assigned a new %s: %s", strings.ToLower(string(task.IssueType)), task.Title),
			TriggeredByUserID: task.ReporterID,
		})
	}

	return nil
}

// UpdateTask validates and persists the task, returning a human-readable
// list of what changed against the stored version.
func (s *TaskService) UpdateTask(task *models.Task) ([]string, error) {
	if task.ID == 0 {
		return nil, database.NewValidationError("id", "task id is required for updates")
	}

	original, err := s.db.GetTask(task.ID)
	if err != nil {
		return nil, err
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.db.UpdateTask(task); err != nil {
		return nil, err
	}

	return s.describeChanges(original, task), nil
}

// describeChanges renders the tracked field differences between the
// stored and updated task.
func (s *TaskService) describeChanges(original, updated *models.Task) []string {
	var changes []string

	if original.Title != updated.Title {
		changes = append(changes, fmt.Sprintf("Title changed from %q to %q", original.Title, updated.Title))
	}
	if original.Priority != updated.Priority {
		changes = append(changes, fmt.Sprintf("Priority changed from %s to %s",
			models.PriorityName(original.Priority), models.PriorityName(updated.Priority)))
	}
	if !uintPtrEqual(original.AssigneeID, updated.AssigneeID) {
		changes = append(changes, fmt.Sprintf("Assignee changed from %s to %s",
			s.userName(original.AssigneeID), s.userName(updated.AssigneeID)))
	}
	if original.StatusID != updated.StatusID {
		changes = append(changes, fmt.Sprintf("Status changed from %s to %s",
			s.statusName(original.StatusID), s.statusName(updated.StatusID)))
	}

	return changes
}

func (s *TaskService) userName(id *uint) string {
	if id == nil {
		return "Unassigned"
	}
	user, err := s.db.GetUser(*id)
	if err != nil {
		return fmt.Sprintf("user #%d", *id)
	}
	return user.DisplayName()
}

func (s *TaskService) statusName(id uint) string {
	status, err := s.db.GetStatus(id)
	if err != nil {
		return fmt.Sprintf("status #%d", id)
	}
	return status.Name
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ChangeStatus moves a task to a new status, recording history and
// notifying the assignee and reporter (skipping whoever made the change).
func (s *TaskService) ChangeStatus(taskID, newStatusID uint, changedBy *uint) error {
	if err := s.db.UpdateTaskStatus(taskID, newStatusID, changedBy); err != nil {
		return err
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return err
	}

	statusName := s.statusName(newStatusID)
	message := fmt.Sprintf("Task '%s' status changed to %s", task.Title, statusName)

	if task.AssigneeID != nil && !sameUser(task.AssigneeID, changedBy) {
		s.createNotification(&models.Notification{
			UserID:            *task.AssigneeID,
			TaskID:            taskID,
			Type:              "status_change",
			Title:             "Task status updated",
			Message:           message,
			TriggeredByUserID: changedBy,
		})
	}
	if task.ReporterID != nil && !sameUser(task.ReporterID, changedBy) && !uintPtrEqual(task.ReporterID, task.AssigneeID) {
		s.createNotification(&models.Notification{
			UserID:            *task.ReporterID,
			TaskID:            taskID,
			Type:              "status_change",
			Title:             "Task status updated",
			Message:           message,
			TriggeredByUserID: changedBy,
		})
	}

	return nil
}

// AssignTask moves a task to a new assignee, notifying the new assignee
// and, on reassignment, the previous one.
func (s *TaskService) AssignTask(taskID, assigneeID uint, assignedBy *uint) error {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return err
	}

	oldAssigneeID := task.AssigneeID
	task.AssigneeID = &assigneeID

	if err := s.db.UpdateTask(task); err != nil {
		return err
	}

	s.createNotification(&models.Notification{
		UserID:            assigneeID,
		TaskID:            taskID,
		Type:              "assignment",
		Title:             "Task assigned to you",
		Message:           fmt.Sprintf("Task '%s' has been assigned to you", task.Title),
		TriggeredByUserID: assignedBy,
	})

	if oldAssigneeID != nil && *oldAssigneeID != assigneeID {
		s.createNotification(&models.Notification{
			UserID:            *oldAssigneeID,
			TaskID:            taskID,
			Type:              "assignment",
			Title:             "Task reassigned",
			Message:           fmt.Sprintf("Task '%s' has been reassigned", task.Title),
			TriggeredByUserID: assignedBy,
		})
	}

	return nil
}

// AddComment stores a comment and notifies the task's assignee and
// reporter, excluding the author.
func (s *TaskService) AddComment(taskID uint, content string, authorID *uint) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, database.NewValidationError("content", "comment content is required")
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:   taskID,
		Content:  content,
		AuthorID: authorID,
	}
	if err := s.db.AddComment(comment); err != nil {
		return nil, err
	}

	recipients := make(map[uint]bool)
	if task.AssigneeID != nil && !sameUser(task.AssigneeID, authorID) {
		recipients[*task.AssigneeID] = true
	}
	if task.ReporterID != nil && !sameUser(task.ReporterID, authorID) {
		recipients[*task.ReporterID] = true
	}
	watchers, err := s.db.GetTaskWatchers(taskID)
	if err == nil {
		for _, w := range watchers {
			if authorID == nil || w.UserID != *authorID {
				recipients[w.UserID] = true
			}
		}
	}

	for userID := range recipients {
		s.createNotification(&models.Notification{
			UserID:            userID,
			TaskID:            taskID,
			Type:              "comment",
			Title:             "New comment added",
			Message:           fmt.Sprintf("New comment added to task '%s'", task.Title),
			TriggeredByUserID: authorID,
		})
	}

	return comment, nil
}

// BulkChangeStatus applies a status change to each task in turn and
// stops at the first failure.
func (s *TaskService) BulkChangeStatus(taskIDs []uint, newStatusID uint, changedBy *uint) error {
	for _, id := range taskIDs {
		if err := s.ChangeStatus(id, newStatusID, changedBy); err != nil {
			return fmt.Errorf("changing status of task %d: %w", id, err)
		}
	}
	return nil
}

// BulkAssign assigns each task in turn and stops at the first failure.
func (s *TaskService) BulkAssign(taskIDs []uint, assigneeID uint, assignedBy *uint) error {
	for _, id := range taskIDs {
		if err := s.AssignTask(id, assigneeID, assignedBy); err != nil {
			return fmt.Errorf("assigning task %d: %w", id, err)
		}
	}
	return nil
}

// TasksByQuickFilter resolves a predefined selection against the store.
func (s *TaskService) TasksByQuickFilter(qf QuickFilter) ([]models.Task, error) {
	switch f := qf.(type) {
	case MyIssues:
		userID := f.UserID
		tasks, err := s.db.SearchTasks(models.SearchFilter{AssigneeID: &userID})
		if err != nil {
			return nil, err
		}
		return keepOpen(tasks), nil

	case AllBugs:
		issueType := models.IssueTypeBug
		return s.db.SearchTasks(models.SearchFilter{IssueType: &issueType})

	case CriticalIssues:
		issueType := models.IssueTypeBug
		priority := models.PriorityCritical
		return s.db.SearchTasks(models.SearchFilter{IssueType: &issueType, Priority: &priority})

	case ByModuleName:
		module, err := s.db.GetModuleByName(f.Name)
		if errors.Is(err, database.ErrNotFound) {
			return []models.Task{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.db.SearchTasks(models.SearchFilter{ModuleID: &module.ID})

	case OpenIssues:
		tasks, err := s.db.SearchTasks(models.SearchFilter{})
		if err != nil {
			return nil, err
		}
		return keepOpen(tasks), nil

	case RecentActivity:
		days, limit := f.Days, f.Limit
		if days <= 0 {
			days = 7
		}
		if limit <= 0 {
			limit = 20
		}
		since := time.Now().AddDate(0, 0, -days)
		tasks, err := s.db.SearchTasks(models.SearchFilter{UpdatedAfter: &since})
		if err != nil {
			return nil, err
		}
		if len(tasks) > limit {
			tasks = tasks[:limit]
		}
		return tasks, nil

	default:
		return nil, fmt.Errorf("unknown quick filter %T", qf)
	}
}

// AddDependency records that taskID is blocked by dependsOnID.
func (s *TaskService) AddDependency(taskID, dependsOnID uint, createdBy *uint) error {
	if _, err := s.db.GetTask(taskID); err != nil {
		return err
	}
	if _, err := s.db.GetTask(dependsOnID); err != nil {
		return err
	}
	return s.db.CreateTaskDependency(&models.TaskDependency{
		TaskID:      taskID,
		DependsOnID: dependsOnID,
		CreatedBy:   createdBy,
	})
}

func keepOpen(tasks []models.Task) []models.Task {
	open := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if models.IsOpenStatus(tasks[i].StatusName) {
			open = append(open, tasks[i])
		}
	}
	return open
}

func sameUser(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// createNotification persists the notification and hands it to the sink.
// Delivery problems are logged by the sink and never fail the operation.
func (s *TaskService) createNotification(n *models.Notification) {
	if err := s.db.CreateNotification(n); err != nil {
		return
	}
	s.sink.Notify(n)
}
