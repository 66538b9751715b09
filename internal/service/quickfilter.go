package service

// QuickFilter is one of the predefined one-click task selections. The
// variants form a closed set; TasksByQuickFilter dispatches over them
// with an exhaustive type switch, so adding a variant without handling
// it is a compile-time visible change, not a silent fallthrough.
type QuickFilter interface {
	quickFilter()
}

// MyIssues selects open tasks assigned to the given user.
type MyIssues struct {
	UserID uint
}

// AllBugs selects every task with the BUG issue type.
type AllBugs struct{}

// CriticalIssues selects bugs with critical priority.
type CriticalIssues struct{}

// ByModuleName selects tasks in the named module (e.g. "TRADING").
type ByModuleName struct {
	Name string
}

// OpenIssues selects tasks whose status is in the open set.
type OpenIssues struct{}

// RecentActivity selects tasks updated within the last Days days,
// capped at Limit results. Zero values fall back to 7 days and 20 tasks.
type RecentActivity struct {
	Days  int
	Limit int
}

func (MyIssues) quickFilter()       {}
func (AllBugs) quickFilter()        {}
func (CriticalIssues) quickFilter() {}
func (ByModuleName) quickFilter()   {}
func (OpenIssues) quickFilter()     {}
func (RecentActivity) quickFilter() {}
