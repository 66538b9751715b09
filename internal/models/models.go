package models

import (
	"fmt"
	"time"
)

type IssueType string

const (
	IssueTypeBug           IssueType = "BUG"
	IssueTypeFeature       IssueType = "FEATURE"
	IssueTypeEnhancement   IssueType = "ENHANCEMENT"
	IssueTypeTask          IssueType = "TASK"
	IssueTypeDocumentation IssueType = "DOCUMENTATION"
	IssueTypePerformance   IssueType = "PERFORMANCE"
	IssueTypeSecurity      IssueType = "SECURITY"
	IssueTypeRefactor      IssueType = "REFACTOR"
)

// Priority is the scheduling urgency scale: 1=Critical .. 5=Trivial.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
	PriorityTrivial  = 5
)

// Severity is the technical impact scale: 1=Blocker .. 4=Trivial.
// Independent of Priority.
const (
	SeverityBlocker = 1
	SeverityMajor   = 2
	SeverityMinor   = 3
	SeverityTrivial = 4
)

type Resolution string

const (
	ResolutionFixed           Resolution = "FIXED"
	ResolutionWontFix         Resolution = "WONT_FIX"
	ResolutionDuplicate       Resolution = "DUPLICATE"
	ResolutionInvalid         Resolution = "INVALID"
	ResolutionWorksAsDesigned Resolution = "WORKS_AS_DESIGNED"
	ResolutionCannotReproduce Resolution = "CANNOT_REPRODUCE"
)

type VersionStatus string

const (
	VersionStatusPlanned    VersionStatus = "PLANNED"
	VersionStatusInProgress VersionStatus = "IN_PROGRESS"
	VersionStatusReleased   VersionStatus = "RELEASED"
)

// OpenStatuses is the single source of truth for which status names count
// as open. Every status name not in this set counts as closed.
var OpenStatuses = map[string]bool{
	"To Do":       true,
	"In Progress": true,
	"Review":      true,
	"Blocked":     true,
	"Triaged":     true,
	"Code Review": true,
	"Testing":     true,
	"Reopened":    true,
}

func IsOpenStatus(name string) bool {
	return OpenStatuses[name]
}

// OpenStatusNames returns the open-status names for SQL IN clauses.
func OpenStatusNames() []string {
	names := make([]string, 0, len(OpenStatuses))
	for name := range OpenStatuses {
		names = append(names, name)
	}
	return names
}

// UnassignedModule is the by-module metrics bucket for tasks without a module.
const UnassignedModule = "Unassigned"

type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"unique;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

type Module struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"unique;not null"`
	DisplayName     string    `json:"display_name" gorm:"not null"`
	Description     string    `json:"description"`
	ComponentLeadID *uint     `json:"component_lead_id"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`

	ComponentLeadName string `json:"component_lead_name,omitempty" gorm:"->;-:migration"`
}

type Version struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"unique;not null"`
	Description string        `json:"description"`
	ReleaseDate *time.Time    `json:"release_date"`
	Status      VersionStatus `json:"status" gorm:"default:'PLANNED'"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Label struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"unique;not null"`
	Color       string    `json:"color" gorm:"not null"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskStatus is the fixed status vocabulary. The ten rows are seeded with
// explicit ids and never created at runtime.
type TaskStatus struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

func (TaskStatus) TableName() string { return "task_statuses" }

type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProjectID   uint      `json:"project_id" gorm:"not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	StatusID    uint      `json:"status_id" gorm:"not null;default:1"`
	Priority    int       `json:"priority" gorm:"default:2"`
	IssueType   IssueType `json:"issue_type" gorm:"default:'TASK'"`
	Severity    int       `json:"severity" gorm:"default:3"`

	ReporterID        *uint `json:"reporter_id"`
	AssigneeID        *uint `json:"assignee_id"`
	ModuleID          *uint `json:"module_id"`
	AffectedVersionID *uint `json:"affected_version_id"`
	FixVersionID      *uint `json:"fix_version_id"`

	Environment      string `json:"environment"`
	StepsToReproduce string `json:"steps_to_reproduce"`
	ExpectedResult   string `json:"expected_result"`
	ActualResult     string `json:"actual_result"`
	StackTrace       string `json:"stack_trace"`

	Resolution      Resolution `json:"resolution"`
	ResolutionNotes string     `json:"resolution_notes"`
	DuplicateOf     *uint      `json:"duplicate_of"`

	EstimatedHours *float64 `json:"estimated_hours"`
	TimeSpent      *float64 `json:"time_spent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined display fields, populated only by the search query. Never
	// persisted.
	ProjectName         string `json:"project_name,omitempty" gorm:"->;-:migration"`
	StatusName          string `json:"status_name,omitempty" gorm:"->;-:migration"`
	ReporterName        string `json:"reporter_name,omitempty" gorm:"->;-:migration"`
	AssigneeName        string `json:"assignee_name,omitempty" gorm:"->;-:migration"`
	ModuleName          string `json:"module_name,omitempty" gorm:"->;-:migration"`
	AffectedVersionName string `json:"affected_version_name,omitempty" gorm:"->;-:migration"`
	FixVersionName      string `json:"fix_version_name,omitempty" gorm:"->;-:migration"`
	CommentsCount       int    `json:"comments_count" gorm:"->;-:migration"`
	AttachmentsCount    int    `json:"attachments_count" gorm:"->;-:migration"`

	// Loaded as a second pass after the search query.
	Labels []Label `json:"labels,omitempty" gorm:"many2many:task_labels;"`
}

// IssueTypeDisplay returns the human-readable name for the issue type.
func (t *Task) IssueTypeDisplay() string {
	switch t.IssueType {
	case IssueTypeBug:
		return "Bug"
	case IssueTypeFeature:
		return "Feature Request"
	case IssueTypeEnhancement:
		return "Enhancement"
	case IssueTypeTask:
		return "Task"
	case IssueTypeDocumentation:
		return "Documentation"
	case IssueTypePerformance:
		return "Performance"
	case IssueTypeSecurity:
		return "Security"
	case IssueTypeRefactor:
		return "Refactoring"
	default:
		return string(t.IssueType)
	}
}

// PriorityName maps a priority value to its histogram bucket name.
func PriorityName(priority int) string {
	switch priority {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	case PriorityTrivial:
		return "Trivial"
	default:
		return fmt.Sprintf("Priority %d", priority)
	}
}

func (t *Task) PriorityDisplay() string {
	switch t.Priority {
	case PriorityCritical:
		return "Critical (P0)"
	case PriorityHigh:
		return "High (P1)"
	case PriorityMedium:
		return "Medium (P2)"
	case PriorityLow:
		return "Low (P3)"
	case PriorityTrivial:
		return "Trivial (P4)"
	default:
		return fmt.Sprintf("Priority %d", t.Priority)
	}
}

func (t *Task) SeverityDisplay() string {
	switch t.Severity {
	case SeverityBlocker:
		return "Blocker"
	case SeverityMajor:
		return "Major"
	case SeverityMinor:
		return "Minor"
	case SeverityTrivial:
		return "Trivial"
	default:
		return fmt.Sprintf("Severity %d", t.Severity)
	}
}

func (t *Task) IsBug() bool      { return t.IssueType == IssueTypeBug }
func (t *Task) IsCritical() bool { return t.Priority == PriorityCritical }
func (t *Task) IsBlocker() bool  { return t.Severity == SeverityBlocker }

// AgeDays returns the number of whole days since the task was created.
func (t *Task) AgeDays() int {
	if t.CreatedAt.IsZero() {
		return 0
	}
	return int(time.Since(t.CreatedAt).Hours() / 24)
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	AuthorID  *uint     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	AuthorName string `json:"author_name,omitempty" gorm:"->;-:migration"`
}

type StatusHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TaskID      uint      `json:"task_id" gorm:"not null"`
	OldStatusID *uint     `json:"old_status_id"`
	NewStatusID uint      `json:"new_status_id" gorm:"not null"`
	ChangedAt   time.Time `json:"changed_at" gorm:"autoCreateTime"`
	ChangedBy   *uint     `json:"changed_by"`
}

func (StatusHistory) TableName() string { return "status_history" }

type Attachment struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TaskID           uint      `json:"task_id" gorm:"not null"`
	Filename         string    `json:"filename" gorm:"not null"`
	OriginalFilename string    `json:"original_filename" gorm:"not null"`
	FilePath         string    `json:"file_path" gorm:"not null"`
	FileSize         int64     `json:"file_size" gorm:"not null"`
	ContentType      string    `json:"content_type"`
	UploadedBy       uint      `json:"uploaded_by" gorm:"not null"`
	UploadedAt       time.Time `json:"uploaded_at" gorm:"autoCreateTime"`

	UploadedByName string `json:"uploaded_by_name,omitempty" gorm:"->;-:migration"`
}

// FileSizeHuman renders the size in a human readable unit.
func (a *Attachment) FileSizeHuman() string {
	size := float64(a.FileSize)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			if unit == "B" {
				return fmt.Sprintf("%d %s", int64(size), unit)
			}
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

type Watcher struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	TaskID  uint      `json:"task_id" gorm:"not null;uniqueIndex:idx_watchers_task_user"`
	UserID  uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_watchers_task_user"`
	AddedAt time.Time `json:"added_at" gorm:"autoCreateTime"`

	UserName string `json:"user_name,omitempty" gorm:"->;-:migration"`
}

type Notification struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null"`
	TaskID            uint       `json:"task_id" gorm:"not null"`
	Type              string     `json:"type" gorm:"not null"`
	Title             string     `json:"title" gorm:"not null"`
	Message           string     `json:"message" gorm:"not null"`
	IsRead            bool       `json:"is_read" gorm:"default:false"`
	ReadAt            *time.Time `json:"read_at"`
	CreatedAt         time.Time  `json:"created_at"`
	ActionURL         string     `json:"action_url"`
	TriggeredByUserID *uint      `json:"triggered_by_user_id"`
}

type TaskDependency struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TaskID         uint      `json:"task_id" gorm:"not null"`
	DependsOnID    uint      `json:"depends_on_id" gorm:"not null"`
	DependencyType string    `json:"dependency_type" gorm:"default:'blocks'"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      *uint     `json:"created_by"`
}
