package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

func listFixture() []models.Task {
	return []models.Task{
		{ID: 101, Title: "Crash on startup", Description: "segfault in init",
			IssueType: models.IssueTypeBug, Priority: models.PriorityCritical,
			StatusName: "To Do", ProjectName: "Money Mentor AI"},
		{ID: 102, Title: "Add dark theme", Description: "",
			IssueType: models.IssueTypeFeature, Priority: models.PriorityLow,
			StatusName: "In Progress", ProjectName: "Money Mentor AI"},
		{ID: 103, Title: "Slow queries", Description: "dashboard takes 3s",
			IssueType: models.IssueTypePerformance, Priority: models.PriorityHigh,
			StatusName: "Done", ProjectName: "Internal Tools"},
	}
}

func TestListFilterEmptyPassesEverything(t *testing.T) {
	f := NewListFilter()
	assert.True(t, f.IsEmpty())

	tasks := listFixture()
	assert.Len(t, f.Apply(tasks), len(tasks))
}

func TestListFilterOrWithinDimension(t *testing.T) {
	f := NewListFilter()
	f.Statuses["To Do"] = true
	f.Statuses["Done"] = true

	filtered := f.Apply(listFixture())
	assert.Len(t, filtered, 2)
	assert.Equal(t, uint(101), filtered[0].ID)
	assert.Equal(t, uint(103), filtered[1].ID)
}

func TestListFilterAndAcrossDimensions(t *testing.T) {
	f := NewListFilter()
	f.Statuses["To Do"] = true
	f.Statuses["In Progress"] = true
	f.IssueTypes[models.IssueTypeBug] = true

	filtered := f.Apply(listFixture())
	assert.Len(t, filtered, 1)
	assert.Equal(t, uint(101), filtered[0].ID)
}

func TestListFilterPriorityAndProject(t *testing.T) {
	f := NewListFilter()
	f.Priorities[models.PriorityHigh] = true
	f.Projects["Internal Tools"] = true

	filtered := f.Apply(listFixture())
	assert.Len(t, filtered, 1)
	assert.Equal(t, uint(103), filtered[0].ID)
}

func TestListFilterText(t *testing.T) {
	t.Run("title match is case insensitive", func(t *testing.T) {
		f := NewListFilter()
		f.Text = "DARK"
		filtered := f.Apply(listFixture())
		assert.Len(t, filtered, 1)
		assert.Equal(t, uint(102), filtered[0].ID)
	})

	t.Run("description match", func(t *testing.T) {
		f := NewListFilter()
		f.Text = "takes 3s"
		assert.Len(t, f.Apply(listFixture()), 1)
	})

	t.Run("id rendered as string", func(t *testing.T) {
		f := NewListFilter()
		f.Text = "103"
		filtered := f.Apply(listFixture())
		assert.Len(t, filtered, 1)
		assert.Equal(t, uint(103), filtered[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		f := NewListFilter()
		f.Text = "unrelated"
		assert.Empty(t, f.Apply(listFixture()))
	})
}

func TestListFilterPreservesOrder(t *testing.T) {
	f := NewListFilter()
	f.Projects["Money Mentor AI"] = true

	filtered := f.Apply(listFixture())
	assert.Len(t, filtered, 2)
	assert.True(t, filtered[0].ID < filtered[1].ID)
}

func TestSortTasks(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: 3, Title: "bravo", Priority: models.PriorityLow, AssigneeName: "Zoe",
			UpdatedAt: base.Add(time.Hour)},
		{ID: 1, Title: "Alpha", Priority: models.PriorityCritical, AssigneeName: "",
			UpdatedAt: base.Add(3 * time.Hour)},
		{ID: 2, Title: "charlie", Priority: models.PriorityMedium, AssigneeName: "Amy",
			UpdatedAt: base.Add(2 * time.Hour)},
	}

	t.Run("by id", func(t *testing.T) {
		SortTasks(tasks, "id", false)
		assert.Equal(t, uint(1), tasks[0].ID)
		assert.Equal(t, uint(3), tasks[2].ID)
	})

	t.Run("by title case insensitive", func(t *testing.T) {
		SortTasks(tasks, "title", false)
		assert.Equal(t, "Alpha", tasks[0].Title)
		assert.Equal(t, "charlie", tasks[2].Title)
	})

	t.Run("by priority descending", func(t *testing.T) {
		// Descending on the numeric value puts the largest (least
		// urgent) value first: Low(4), Medium(3), Critical(1).
		SortTasks(tasks, "priority", true)
		assert.Equal(t, models.PriorityLow, tasks[0].Priority)
		assert.Equal(t, models.PriorityMedium, tasks[1].Priority)
		assert.Equal(t, models.PriorityCritical, tasks[2].Priority)
	})

	t.Run("missing assignee sorts first", func(t *testing.T) {
		SortTasks(tasks, "assignee", false)
		assert.Equal(t, "", tasks[0].AssigneeName)
		assert.Equal(t, "Zoe", tasks[2].AssigneeName)
	})

	t.Run("by updated descending", func(t *testing.T) {
		SortTasks(tasks, "updated", true)
		assert.Equal(t, uint(1), tasks[0].ID)
		assert.Equal(t, uint(3), tasks[2].ID)
	})

	t.Run("unknown column keeps order", func(t *testing.T) {
		SortTasks(tasks, "id", false)
		SortTasks(tasks, "nonsense", false)
		assert.Equal(t, uint(1), tasks[0].ID)
		assert.Equal(t, uint(2), tasks[1].ID)
		assert.Equal(t, uint(3), tasks[2].ID)
	})
}
