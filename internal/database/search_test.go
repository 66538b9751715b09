package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// seedSearchFixture creates a small, varied task set against the seeded
// reference data and returns the two users involved.
func seedSearchFixture(t *testing.T, db *Database) (dev, tester *models.User) {
	t.Helper()
	dev = createTestUser(t, db, "dev")
	tester = createTestUser(t, db, "tester")

	trading, err := db.GetModuleByName("TRADING")
	require.NoError(t, err)
	core, err := db.GetModuleByName("CORE")
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixtures := []models.Task{
		{ProjectID: 1, Title: "Order router drops fills", Description: "fills lost under load",
			StatusID: 2, Priority: models.PriorityCritical, Severity: models.SeverityBlocker,
			IssueType: models.IssueTypeBug, ModuleID: &trading.ID, AssigneeID: &dev.ID,
			ReporterID: &tester.ID, UpdatedAt: base.Add(3 * time.Hour)},
		{ProjectID: 1, Title: "Add dark theme", Description: "requested by several users",
			StatusID: 1, Priority: models.PriorityLow, Severity: models.SeverityTrivial,
			IssueType: models.IssueTypeFeature, ModuleID: &core.ID,
			ReporterID: &dev.ID, UpdatedAt: base.Add(2 * time.Hour)},
		{ProjectID: 1, Title: "Fix chart flicker", Description: "flicker on zoom",
			StatusID: 5, Priority: models.PriorityMedium, Severity: models.SeverityMinor,
			IssueType: models.IssueTypeBug, ModuleID: &trading.ID, AssigneeID: &tester.ID,
			UpdatedAt: base.Add(time.Hour)},
	}
	for i := range fixtures {
		require.NoError(t, db.CreateTask(&fixtures[i]))
	}
	return dev, tester
}

func TestSearchTasksEmptyFilterReturnsAll(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	tasks, err := db.SearchTasks(models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestSearchTasksOrdering(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	tasks, err := db.SearchTasks(models.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	for i := 1; i < len(tasks); i++ {
		assert.False(t, tasks[i].UpdatedAt.After(tasks[i-1].UpdatedAt),
			"tasks must be ordered by updated_at descending")
	}
	assert.Equal(t, "Order router drops fills", tasks[0].Title)
}

func TestSearchTasksConjunction(t *testing.T) {
	db := setupTestDB(t)
	dev, _ := seedSearchFixture(t, db)

	trading, err := db.GetModuleByName("TRADING")
	require.NoError(t, err)

	issueType := models.IssueTypeBug

	t.Run("single predicate", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{IssueType: &issueType})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("two predicates AND", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{
			IssueType: &issueType,
			ModuleID:  &trading.ID,
		})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)

		tasks, err = db.SearchTasks(models.SearchFilter{
			IssueType:  &issueType,
			AssigneeID: &dev.ID,
		})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Order router drops fills", tasks[0].Title)
	})

	t.Run("conjunction narrows to empty", func(t *testing.T) {
		priority := models.PriorityLow
		tasks, err := db.SearchTasks(models.SearchFilter{
			IssueType: &issueType,
			Priority:  &priority,
		})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestSearchTasksQueryMatchesTitleOrDescription(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	t.Run("title substring", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{Query: "dark theme"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Add dark theme", tasks[0].Title)
	})

	t.Run("description substring", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{Query: "under load"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
	})

	t.Run("case insensitive", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{Query: "ORDER ROUTER"})
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})

	t.Run("no match", func(t *testing.T) {
		tasks, err := db.SearchTasks(models.SearchFilter{Query: "nonexistent"})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestSearchTasksEnrichment(t *testing.T) {
	db := setupTestDB(t)
	dev, _ := seedSearchFixture(t, db)

	tasks, err := db.SearchTasks(models.SearchFilter{AssigneeID: &dev.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "Money Mentor AI", task.ProjectName)
	assert.Equal(t, "In Progress", task.StatusName)
	assert.Equal(t, "Trading Module", task.ModuleName)
	assert.Equal(t, "Test dev", task.AssigneeName)
	assert.Equal(t, "Test tester", task.ReporterName)
	assert.Zero(t, task.CommentsCount)

	require.NoError(t, db.AddComment(&models.Comment{TaskID: task.ID, Content: "first"}))
	require.NoError(t, db.AddComment(&models.Comment{TaskID: task.ID, Content: "second"}))

	tasks, err = db.SearchTasks(models.SearchFilter{AssigneeID: &dev.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].CommentsCount)
}

func TestSearchTasksLabelFilter(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	tasks, err := db.SearchTasks(models.SearchFilter{})
	require.NoError(t, err)
	require.NoError(t, db.SetTaskLabels(tasks[0].ID, []string{"regression"}))

	filtered, err := db.SearchTasks(models.SearchFilter{Labels: []string{"regression"}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, tasks[0].ID, filtered[0].ID)
	require.Len(t, filtered[0].Labels, 1)
	assert.Equal(t, "regression", filtered[0].Labels[0].Name)
}

func TestSearchTasksUnknownStatusExcluded(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	// Force a status id with no task_statuses row; the inner join must
	// drop the task silently.
	require.NoError(t, db.Exec("UPDATE tasks SET status_id = 999 WHERE title = ?", "Add dark theme").Error)

	tasks, err := db.SearchTasks(models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSearchTasksDateRange(t *testing.T) {
	db := setupTestDB(t)
	seedSearchFixture(t, db)

	cutoff := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	tasks, err := db.SearchTasks(models.SearchFilter{UpdatedAfter: &cutoff})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	tasks, err = db.SearchTasks(models.SearchFilter{UpdatedBefore: &cutoff})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestDashboardMetricsGroupedCounts(t *testing.T) {
	db := setupTestDB(t)
	dev, tester := seedSearchFixture(t, db)

	metrics, err := db.DashboardMetrics(dev.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.TotalBugs)
	assert.Equal(t, 2, metrics.OpenBugs)
	assert.Equal(t, 1, metrics.ClosedBugs)
	assert.Equal(t, metrics.TotalBugs, metrics.OpenBugs+metrics.ClosedBugs)
	assert.Equal(t, 1, metrics.CriticalBugs)
	assert.Equal(t, 1, metrics.MyAssigned)
	assert.Equal(t, 2, metrics.ByModule["Trading Module"])
	assert.Equal(t, 1, metrics.ByModule["Core System"])
	assert.Equal(t, 1, metrics.ByStatus["In Progress"])
	assert.Equal(t, 1, metrics.ByStatus["Done"])

	sum := 0
	for _, n := range metrics.ByModule {
		sum += n
	}
	assert.Equal(t, metrics.TotalBugs, sum)

	// The tester's only assigned task is Done, so nothing counts.
	testerMetrics, err := db.DashboardMetrics(tester.ID)
	require.NoError(t, err)
	assert.Zero(t, testerMetrics.MyAssigned)
}
