package models

import "time"

// SearchFilter is an immutable description of one task query. Every set
// field adds one predicate; predicates are combined with AND. The zero
// value matches all tasks.
type SearchFilter struct {
	// Query matches as a substring of title or description. Matching is
	// case-insensitive for ASCII (SQLite LIKE semantics).
	Query string

	ProjectID  *uint
	IssueType  *IssueType
	StatusID   *uint
	Priority   *int
	Severity   *int
	AssigneeID *uint
	ReporterID *uint
	ModuleID   *uint

	// Labels matches tasks carrying at least one of the named labels.
	Labels []string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
}

// IsEmpty reports whether the filter carries no predicates at all.
func (f SearchFilter) IsEmpty() bool {
	return f.Query == "" &&
		f.ProjectID == nil && f.IssueType == nil && f.StatusID == nil &&
		f.Priority == nil && f.Severity == nil &&
		f.AssigneeID == nil && f.ReporterID == nil && f.ModuleID == nil &&
		len(f.Labels) == 0 &&
		f.CreatedAfter == nil && f.CreatedBefore == nil &&
		f.UpdatedAfter == nil && f.UpdatedBefore == nil
}

// DashboardMetrics is the aggregate snapshot shown on the dashboard.
// TotalBugs = OpenBugs + ClosedBugs always holds.
type DashboardMetrics struct {
	TotalBugs    int            `json:"total_bugs"`
	OpenBugs     int            `json:"open_bugs"`
	ClosedBugs   int            `json:"closed_bugs"`
	CriticalBugs int            `json:"critical_bugs"`
	MyAssigned   int            `json:"my_assigned"`
	ByModule     map[string]int `json:"by_module"`
	ByStatus     map[string]int `json:"by_status"`
}

// NewDashboardMetrics returns a zeroed snapshot with allocated maps.
func NewDashboardMetrics() DashboardMetrics {
	return DashboardMetrics{
		ByModule: make(map[string]int),
		ByStatus: make(map[string]int),
	}
}
