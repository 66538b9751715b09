package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskmaster-hq/bugtracker/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database is the persistence gateway. One instance is constructed by the
// entry point and injected into every consumer; there is no package-level
// connection.
type Database struct {
	*gorm.DB
}

// New opens (or creates) the SQLite database under dataDir, migrates the
// schema and seeds the fixed reference data. Safe to call against an
// existing database: migration and seeding are both idempotent.
func New(dataDir string) (*Database, error) {
	dbPath := filepath.Join(dataDir, "db", "bugtracker.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Module{},
		&models.Version{},
		&models.Label{},
		&models.TaskStatus{},
		&models.Task{},
		&models.Comment{},
		&models.StatusHistory{},
		&models.Attachment{},
		&models.Watcher{},
		&models.Notification{},
		&models.TaskDependency{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	d := &Database{DB: db}
	if err := d.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return d, nil
}

// seed inserts the fixed reference rows with insert-or-ignore semantics.
// Running it again against a populated database is a no-op.
func (db *Database) seed() error {
	ignore := clause.OnConflict{DoNothing: true}

	statuses := []models.TaskStatus{
		{ID: 1, Name: "To Do", Color: "#6B7280", SortOrder: 1},
		{ID: 2, Name: "In Progress", Color: "#3B82F6", SortOrder: 2},
		{ID: 3, Name: "Review", Color: "#F59E0B", SortOrder: 3},
		{ID: 4, Name: "Blocked", Color: "#EF4444", SortOrder: 4},
		{ID: 5, Name: "Done", Color: "#10B981", SortOrder: 5},
		{ID: 6, Name: "Triaged", Color: "#9CA3AF", SortOrder: 6},
		{ID: 7, Name: "Code Review", Color: "#8B5CF6", SortOrder: 7},
		{ID: 8, Name: "Testing", Color: "#06B6D4", SortOrder: 8},
		{ID: 9, Name: "Verification", Color: "#10B981", SortOrder: 9},
		{ID: 10, Name: "Reopened", Color: "#F59E0B", SortOrder: 10},
	}
	if err := db.Clauses(ignore).Create(&statuses).Error; err != nil {
		return fmt.Errorf("seeding statuses: %w", err)
	}

	project := models.Project{
		Name:        "Money Mentor AI",
		Description: "Main Money Mentor AI application project",
	}
	if err := db.Clauses(ignore).Create(&project).Error; err != nil {
		return fmt.Errorf("seeding default project: %w", err)
	}

	modules := []models.Module{
		{Name: "CORE", DisplayName: "Core System", Description: "Core system functionality"},
		{Name: "TRADING", DisplayName: "Trading Module", Description: "Trading engine and order execution"},
		{Name: "BROKER", DisplayName: "Broker Integration", Description: "Broker integrations"},
		{Name: "STRATEGY", DisplayName: "Strategy Engine", Description: "Trading strategies"},
		{Name: "RISK", DisplayName: "Risk Management", Description: "Risk management"},
		{Name: "PORTFOLIO", DisplayName: "Portfolio Management", Description: "Portfolio management"},
		{Name: "ANALYSIS", DisplayName: "Technical Analysis", Description: "Technical analysis and indicators"},
		{Name: "DATA", DisplayName: "Data Management", Description: "Market data handling"},
		{Name: "UI", DisplayName: "User Interface", Description: "User interface"},
		{Name: "DB", DisplayName: "Database", Description: "Database operations"},
		{Name: "API", DisplayName: "API Integrations", Description: "External API integrations"},
		{Name: "REPORTING", DisplayName: "Reports & Visualization", Description: "Reports and visualizations"},
		{Name: "SECURITY", DisplayName: "Security", Description: "Security features"},
		{Name: "PERFORMANCE", DisplayName: "Performance", Description: "Performance optimization"},
		{Name: "TESTING", DisplayName: "Testing Framework", Description: "Test infrastructure"},
	}
	if err := db.Clauses(ignore).Create(&modules).Error; err != nil {
		return fmt.Errorf("seeding modules: %w", err)
	}

	labels := []models.Label{
		{Name: "performance-critical", Color: "#FF4444", Description: "Critical for performance", IsSystem: true},
		{Name: "customer-reported", Color: "#4444FF", Description: "Reported by a customer", IsSystem: true},
		{Name: "regression", Color: "#FF8800", Description: "Worked before, broken now", IsSystem: true},
		{Name: "hotfix-candidate", Color: "#FF0000", Description: "Candidate for a hotfix release", IsSystem: true},
		{Name: "breaking-change", Color: "#8800FF", Description: "Breaks compatibility", IsSystem: true},
		{Name: "easy-fix", Color: "#88FF00", Description: "Easy fix for new contributors", IsSystem: true},
	}
	if err := db.Clauses(ignore).Create(&labels).Error; err != nil {
		return fmt.Errorf("seeding labels: %w", err)
	}

	versions := []models.Version{
		{Name: "v1.0.0", Description: "First production release", Status: models.VersionStatusReleased},
		{Name: "v1.1.0", Description: "Fixes and improvements", Status: models.VersionStatusPlanned},
		{Name: "v2.0.0", Description: "Major feature update", Status: models.VersionStatusPlanned},
	}
	if err := db.Clauses(ignore).Create(&versions).Error; err != nil {
		return fmt.Errorf("seeding versions: %w", err)
	}

	return nil
}

// ==================== Projects ====================

func (db *Database) CreateProject(project *models.Project) error {
	return translateError(db.Create(project).Error)
}

func (db *Database) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &project, nil
}

func (db *Database) GetProjectByName(name string) (*models.Project, error) {
	var project models.Project
	if err := db.Where("name = ?", name).First(&project).Error; err != nil {
		return nil, translateError(err)
	}
	return &project, nil
}

func (db *Database) ListProjects() ([]models.Project, error) {
	var projects []models.Project
	err := db.Order("name").Find(&projects).Error
	return projects, err
}

func (db *Database) UpdateProject(project *models.Project) error {
	return translateError(db.Save(project).Error)
}

// DeleteProject removes a project and everything hanging off its tasks.
// All deletions happen in one transaction, in dependency order.
func (db *Database) DeleteProject(id uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

	if err := tx.Exec(`
		DELETE FROM task_dependencies
		WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)
		OR depends_on_id IN (SELECT id FROM tasks WHERE project_id = ?)
	`, id, id).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, m := range []interface{}{
		&models.Comment{},
		&models.Attachment{},
		&models.StatusHistory{},
		&models.Watcher{},
		&models.Notification{},
	} {
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(m).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Exec("DELETE FROM task_labels WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)", id).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	result := tx.Delete(&models.Project{}, id)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit().Error
}

// ==================== Tasks ====================

// CreateTask inserts the task and records its initial status in history.
func (db *Database) CreateTask(task *models.Task) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(task).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	history := models.StatusHistory{
		TaskID:      task.ID,
		NewStatusID: task.StatusID,
		ChangedBy:   task.ReporterID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (db *Database) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("Labels").First(&task, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// UpdateTask persists the task's current field values. If the status
// changed, a history row is appended in the same transaction.
func (db *Database) UpdateTask(task *models.Task) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var current models.Task
	if err := tx.First(&current, task.ID).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	// Callers often pass a struct built from request fields; the creation
	// timestamp always comes from the stored row.
	task.CreatedAt = current.CreatedAt

	if err := tx.Save(task).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	if current.StatusID != task.StatusID {
		old := current.StatusID
		history := models.StatusHistory{
			TaskID:      task.ID,
			OldStatusID: &old,
			NewStatusID: task.StatusID,
		}
		if err := tx.Create(&history).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// UpdateTaskStatus moves a task to a new status and appends the history
// row recording who made the change.
func (db *Database) UpdateTaskStatus(taskID, newStatusID uint, changedBy *uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var task models.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	var status models.TaskStatus
	if err := tx.First(&status, newStatusID).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	oldStatusID := task.StatusID
	if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status_id":  newStatusID,
			"updated_at": time.Now(),
		}).Error; err != nil {
		tx.Rollback()
		return err
	}

	history := models.StatusHistory{
		TaskID:      taskID,
		OldStatusID: &oldStatusID,
		NewStatusID: newStatusID,
		ChangedBy:   changedBy,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// DeleteTask removes a task and all dependent rows in one transaction.
func (db *Database) DeleteTask(id uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("task_id = ? OR depends_on_id = ?", id, id).
		Delete(&models.TaskDependency{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, m := range []interface{}{
		&models.Comment{},
		&models.Attachment{},
		&models.StatusHistory{},
		&models.Watcher{},
		&models.Notification{},
	} {
		if err := tx.Where("task_id = ?", id).Delete(m).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Exec("DELETE FROM task_labels WHERE task_id = ?", id).Error; err != nil {
		tx.Rollback()
		return err
	}

	result := tx.Delete(&models.Task{}, id)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit().Error
}

// ==================== Comments ====================

func (db *Database) AddComment(comment *models.Comment) error {
	return translateError(db.Create(comment).Error)
}

func (db *Database) GetTaskComments(taskID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Table("comments").
		Select("comments.*, u.full_name AS author_name").
		Joins("LEFT JOIN users u ON comments.author_id = u.id").
		Where("comments.task_id = ?", taskID).
		Order("comments.created_at ASC").
		Scan(&comments).Error
	return comments, err
}

// ==================== Status history ====================

func (db *Database) GetTaskStatusHistory(taskID uint) ([]models.StatusHistory, error) {
	var history []models.StatusHistory
	err := db.Where("task_id = ?", taskID).Order("changed_at ASC, id ASC").Find(&history).Error
	return history, err
}

// ==================== Statuses ====================

func (db *Database) ListStatuses() ([]models.TaskStatus, error) {
	var statuses []models.TaskStatus
	err := db.Order("sort_order").Find(&statuses).Error
	return statuses, err
}

func (db *Database) GetStatus(id uint) (*models.TaskStatus, error) {
	var status models.TaskStatus
	if err := db.First(&status, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &status, nil
}

func (db *Database) GetStatusByName(name string) (*models.TaskStatus, error) {
	var status models.TaskStatus
	if err := db.Where("name = ?", name).First(&status).Error; err != nil {
		return nil, translateError(err)
	}
	return &status, nil
}

// ==================== Modules ====================

func (db *Database) ListModules() ([]models.Module, error) {
	var modules []models.Module
	err := db.Table("modules").
		Select("modules.*, u.full_name AS component_lead_name").
		Joins("LEFT JOIN users u ON modules.component_lead_id = u.id").
		Where("modules.is_active = ?", true).
		Order("modules.name").
		Scan(&modules).Error
	return modules, err
}

func (db *Database) GetModule(id uint) (*models.Module, error) {
	var module models.Module
	if err := db.First(&module, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &module, nil
}

func (db *Database) GetModuleByName(name string) (*models.Module, error) {
	var module models.Module
	if err := db.Where("name = ?", name).First(&module).Error; err != nil {
		return nil, translateError(err)
	}
	return &module, nil
}

// ==================== Versions ====================

func (db *Database) ListVersions() ([]models.Version, error) {
	var versions []models.Version
	err := db.Order("created_at DESC").Find(&versions).Error
	return versions, err
}

func (db *Database) GetVersion(id uint) (*models.Version, error) {
	var version models.Version
	if err := db.First(&version, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &version, nil
}

// ==================== Labels ====================

func (db *Database) CreateLabel(label *models.Label) error {
	return translateError(db.Create(label).Error)
}

func (db *Database) ListLabels() ([]models.Label, error) {
	var labels []models.Label
	err := db.Order("name").Find(&labels).Error
	return labels, err
}

func (db *Database) GetLabelByName(name string) (*models.Label, error) {
	var label models.Label
	if err := db.Where("name = ?", name).First(&label).Error; err != nil {
		return nil, translateError(err)
	}
	return &label, nil
}

// SetTaskLabels replaces a task's label set with the named labels.
// Unknown label names are created as non-system labels.
func (db *Database) SetTaskLabels(taskID uint, labelNames []string) error {
	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		return translateError(err)
	}

	if err := db.Model(&task).Association("Labels").Clear(); err != nil {
		return err
	}

	for _, name := range labelNames {
		if name == "" {
			continue
		}
		label, err := db.GetLabelByName(name)
		if errors.Is(err, ErrNotFound) {
			label = &models.Label{Name: name, Color: "#6B7280"}
			if err := db.CreateLabel(label); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if err := db.Model(&task).Association("Labels").Append(label); err != nil {
			return err
		}
	}

	return nil
}

func (db *Database) GetTaskLabels(taskID uint) ([]models.Label, error) {
	var task models.Task
	task.ID = taskID
	var labels []models.Label
	err := db.Model(&task).Association("Labels").Find(&labels)
	return labels, err
}

// ==================== Users ====================

func (db *Database) CreateUser(user *models.User) error {
	return translateError(db.Create(user).Error)
}

func (db *Database) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (db *Database) ListUsers() ([]models.User, error) {
	var users []models.User
	err := db.Where("is_active = ?", true).Order("username").Find(&users).Error
	return users, err
}

func (db *Database) UpdateUser(user *models.User) error {
	return translateError(db.Save(user).Error)
}

// ==================== Watchers ====================

func (db *Database) AddWatcher(taskID, userID uint) error {
	watcher := models.Watcher{TaskID: taskID, UserID: userID}
	return translateError(db.Create(&watcher).Error)
}

func (db *Database) RemoveWatcher(taskID, userID uint) error {
	result := db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.Watcher{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Database) GetTaskWatchers(taskID uint) ([]models.Watcher, error) {
	var watchers []models.Watcher
	err := db.Table("watchers").
		Select("watchers.*, u.full_name AS user_name").
		Joins("LEFT JOIN users u ON watchers.user_id = u.id").
		Where("watchers.task_id = ?", taskID).
		Order("watchers.added_at ASC").
		Scan(&watchers).Error
	return watchers, err
}

// ==================== Notifications ====================

func (db *Database) CreateNotification(n *models.Notification) error {
	return translateError(db.Create(n).Error)
}

func (db *Database) GetUserNotifications(userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (db *Database) MarkNotificationRead(id, userID uint) error {
	now := time.Now()
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Task dependencies ====================

func (db *Database) CreateTaskDependency(dep *models.TaskDependency) error {
	if dep.TaskID == dep.DependsOnID {
		return NewValidationError("depends_on_id", "task cannot depend on itself")
	}

	var count int64
	if err := db.Model(&models.TaskDependency{}).
		Where("task_id = ? AND depends_on_id = ?", dep.TaskID, dep.DependsOnID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyExists
	}

	return translateError(db.Create(dep).Error)
}

func (db *Database) GetTaskDependencies(taskID uint) ([]models.TaskDependency, error) {
	var deps []models.TaskDependency
	err := db.Where("task_id = ?", taskID).Find(&deps).Error
	return deps, err
}

func (db *Database) DeleteTaskDependency(id uint) error {
	result := db.Delete(&models.TaskDependency{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Attachments ====================

func (db *Database) AddAttachment(attachment *models.Attachment) error {
	return translateError(db.Create(attachment).Error)
}

func (db *Database) GetAttachment(id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := db.First(&attachment, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &attachment, nil
}

func (db *Database) GetTaskAttachments(taskID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := db.Table("attachments").
		Select("attachments.*, u.full_name AS uploaded_by_name").
		Joins("LEFT JOIN users u ON attachments.uploaded_by = u.id").
		Where("attachments.task_id = ?", taskID).
		Order("attachments.uploaded_at ASC").
		Scan(&attachments).Error
	return attachments, err
}

func (db *Database) DeleteAttachment(id uint) error {
	result := db.Delete(&models.Attachment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
