package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(t.TempDir())
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *Database, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@test.local",
		FullName: "Test " + username,
		Role:     models.UserRoleDeveloper,
		IsActive: true,
	}
	require.NoError(t, db.CreateUser(user))
	return user
}

func createTestTask(t *testing.T, db *Database, title string) *models.Task {
	t.Helper()
	task := &models.Task{
		ProjectID: 1,
		Title:     title,
		StatusID:  1,
		Priority:  models.PriorityMedium,
		Severity:  models.SeverityMinor,
		IssueType: models.IssueTypeBug,
	}
	require.NoError(t, db.CreateTask(task))
	return task
}

func TestSeedIdempotent(t *testing.T) {
	dir := t.TempDir()

	db, err := New(dir)
	require.NoError(t, err)

	// Second init against the same database must not fail or duplicate.
	db2, err := New(dir)
	require.NoError(t, err)

	for _, db := range []*Database{db, db2} {
		var statusCount int64
		require.NoError(t, db.Model(&models.TaskStatus{}).Count(&statusCount).Error)
		assert.Equal(t, int64(10), statusCount)

		var moduleCount int64
		require.NoError(t, db.Model(&models.Module{}).Count(&moduleCount).Error)
		assert.Equal(t, int64(15), moduleCount)

		var labelCount int64
		require.NoError(t, db.Model(&models.Label{}).Count(&labelCount).Error)
		assert.Equal(t, int64(6), labelCount)

		var versionCount int64
		require.NoError(t, db.Model(&models.Version{}).Count(&versionCount).Error)
		assert.Equal(t, int64(3), versionCount)

		var projectCount int64
		require.NoError(t, db.Model(&models.Project{}).Count(&projectCount).Error)
		assert.Equal(t, int64(1), projectCount)
	}
}

func TestSeedContents(t *testing.T) {
	db := setupTestDB(t)

	project, err := db.GetProjectByName("Money Mentor AI")
	require.NoError(t, err)
	assert.Equal(t, uint(1), project.ID)

	statuses, err := db.ListStatuses()
	require.NoError(t, err)
	require.Len(t, statuses, 10)
	assert.Equal(t, "To Do", statuses[0].Name)
	assert.Equal(t, "Reopened", statuses[9].Name)

	trading, err := db.GetModuleByName("TRADING")
	require.NoError(t, err)
	assert.Equal(t, "Trading Module", trading.DisplayName)

	label, err := db.GetLabelByName("regression")
	require.NoError(t, err)
	assert.True(t, label.IsSystem)
}

func TestCreateTaskWritesHistory(t *testing.T) {
	db := setupTestDB(t)

	task := createTestTask(t, db, "History on insert")

	history, err := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatusID)
	assert.Equal(t, uint(1), history[0].NewStatusID)
}

func TestUpdateTaskStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "mover")
	task := createTestTask(t, db, "Status walk")

	require.NoError(t, db.UpdateTaskStatus(task.ID, 2, &user.ID))
	require.NoError(t, db.UpdateTaskStatus(task.ID, 5, &user.ID))

	updated, err := db.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), updated.StatusID)

	history, err := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Insert row, then 1->2, then 2->5.
	assert.Equal(t, uint(1), *history[1].OldStatusID)
	assert.Equal(t, uint(2), history[1].NewStatusID)
	assert.Equal(t, uint(2), *history[2].OldStatusID)
	assert.Equal(t, uint(5), history[2].NewStatusID)
	assert.Equal(t, user.ID, *history[2].ChangedBy)
}

func TestUpdateTaskStatusUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, "Bad status")

	err := db.UpdateTaskStatus(task.ID, 999, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	// No history row beyond the insert one.
	history, err2 := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err2)
	assert.Len(t, history, 1)
}

func TestDeleteTaskCascades(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "watcher")
	task := createTestTask(t, db, "Doomed")
	other := createTestTask(t, db, "Blocker")

	require.NoError(t, db.AddComment(&models.Comment{TaskID: task.ID, Content: "note"}))
	require.NoError(t, db.AddWatcher(task.ID, user.ID))
	require.NoError(t, db.SetTaskLabels(task.ID, []string{"regression"}))
	require.NoError(t, db.CreateTaskDependency(&models.TaskDependency{TaskID: task.ID, DependsOnID: other.ID}))
	require.NoError(t, db.AddAttachment(&models.Attachment{
		TaskID: task.ID, Filename: "f.png", OriginalFilename: "shot.png",
		FilePath: "task_1/f.png", FileSize: 10, UploadedBy: user.ID,
	}))

	require.NoError(t, db.DeleteTask(task.ID))

	_, err := db.GetTask(task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := db.GetTaskComments(task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	watchers, err := db.GetTaskWatchers(task.ID)
	require.NoError(t, err)
	assert.Empty(t, watchers)

	history, err := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	deps, err := db.GetTaskDependencies(task.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)

	attachments, err := db.GetTaskAttachments(task.ID)
	require.NoError(t, err)
	assert.Empty(t, attachments)

	// The other task survives.
	_, err = db.GetTask(other.ID)
	assert.NoError(t, err)
}

func TestDeleteProjectCascades(t *testing.T) {
	db := setupTestDB(t)

	project := &models.Project{Name: "Side Project"}
	require.NoError(t, db.CreateProject(project))

	task := &models.Task{ProjectID: project.ID, Title: "In side project", StatusID: 1, Priority: 2, Severity: 3}
	require.NoError(t, db.CreateTask(task))
	require.NoError(t, db.AddComment(&models.Comment{TaskID: task.ID, Content: "bye"}))

	require.NoError(t, db.DeleteProject(project.ID))

	_, err := db.GetProject(project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetTask(task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUniquenessConflicts(t *testing.T) {
	db := setupTestDB(t)

	t.Run("duplicate project name", func(t *testing.T) {
		err := db.CreateProject(&models.Project{Name: "Money Mentor AI"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		createTestUser(t, db, "unique.one")
		err := db.CreateUser(&models.User{
			Username: "unique.one",
			Email:    "other@test.local",
			FullName: "Someone Else",
			Role:     models.UserRoleViewer,
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("duplicate watcher", func(t *testing.T) {
		user := createTestUser(t, db, "double.watch")
		task := createTestTask(t, db, "Watched twice")
		require.NoError(t, db.AddWatcher(task.ID, user.ID))
		err := db.AddWatcher(task.ID, user.ID)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestTaskDependencyRules(t *testing.T) {
	db := setupTestDB(t)
	a := createTestTask(t, db, "A")
	b := createTestTask(t, db, "B")

	t.Run("self dependency rejected", func(t *testing.T) {
		err := db.CreateTaskDependency(&models.TaskDependency{TaskID: a.ID, DependsOnID: a.ID})
		assert.True(t, IsValidationError(err))
	})

	t.Run("duplicate dependency rejected", func(t *testing.T) {
		require.NoError(t, db.CreateTaskDependency(&models.TaskDependency{TaskID: a.ID, DependsOnID: b.ID}))
		err := db.CreateTaskDependency(&models.TaskDependency{TaskID: a.ID, DependsOnID: b.ID})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "notified")
	task := createTestTask(t, db, "Noisy")

	n := &models.Notification{
		UserID: user.ID, TaskID: task.ID,
		Type: "comment", Title: "New comment added", Message: "m",
	}
	require.NoError(t, db.CreateNotification(n))

	unread, err := db.GetUserNotifications(user.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, db.MarkNotificationRead(n.ID, user.ID))

	unread, err = db.GetUserNotifications(user.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := db.GetUserNotifications(user.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsRead)
	assert.NotNil(t, all[0].ReadAt)

	t.Run("foreign notification not markable", func(t *testing.T) {
		other := createTestUser(t, db, "other")
		err := db.MarkNotificationRead(n.ID, other.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetTaskNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetTask(12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTaskLabelsReplacesSet(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, "Labelled")

	require.NoError(t, db.SetTaskLabels(task.ID, []string{"regression", "easy-fix"}))
	labels, err := db.GetTaskLabels(task.ID)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	require.NoError(t, db.SetTaskLabels(task.ID, []string{"hotfix-candidate"}))
	labels, err = db.GetTaskLabels(task.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "hotfix-candidate", labels[0].Name)

	t.Run("unknown label is created", func(t *testing.T) {
		require.NoError(t, db.SetTaskLabels(task.ID, []string{"brand-new"}))
		label, err := db.GetLabelByName("brand-new")
		require.NoError(t, err)
		assert.False(t, label.IsSystem)
	})
}

func TestUpdateTaskAppendsHistoryOnStatusChange(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, "Edited")

	task.StatusID = 3
	task.Title = "Edited twice"
	require.NoError(t, db.UpdateTask(task))

	history, err := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint(3), history[1].NewStatusID)

	// A non-status update adds nothing.
	task.Title = "Edited thrice"
	require.NoError(t, db.UpdateTask(task))
	history, err = db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateTaskPreservesCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, "Keeps its birthday")

	stored, err := db.GetTask(task.ID)
	require.NoError(t, err)
	createdAt := stored.CreatedAt
	require.False(t, createdAt.IsZero())

	// Handlers rebuild the task from the request body, so the update
	// arrives with a zero creation timestamp.
	update := models.Task{
		ID:        task.ID,
		ProjectID: task.ProjectID,
		Title:     "Renamed",
		StatusID:  task.StatusID,
		Priority:  task.Priority,
		Severity:  task.Severity,
		IssueType: task.IssueType,
	}
	require.NoError(t, db.UpdateTask(&update))

	reloaded, err := db.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
	assert.WithinDuration(t, createdAt, reloaded.CreatedAt, time.Second)
}

func TestStatusHistoryTimestamps(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, "Timed")

	before := time.Now().Add(-time.Minute)
	history, err := db.GetTaskStatusHistory(task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].ChangedAt.After(before))
}
