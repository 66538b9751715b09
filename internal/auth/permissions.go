package auth

import (
	"strings"

	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// Role permission predicates. These are advisory checks for callers to
// consult before attempting an operation; the gateway itself does not
// enforce them.

// CanEditTask reports whether the user may edit the given task.
// Admins edit anything; developers and testers edit tasks they are
// assigned to or reported; reporters edit only their own unassigned
// reports.
func CanEditTask(user *models.User, task *models.Task) bool {
	switch user.Role {
	case models.UserRoleAdmin:
		return true
	case models.UserRoleDeveloper, models.UserRoleTester:
		return isAssignee(user, task) || isReporter(user, task)
	case models.UserRoleReporter:
		return isReporter(user, task) && task.AssigneeID == nil
	}
	return false
}

// CanDeleteTask reports whether the user may delete the task. Only
// admins may delete.
func CanDeleteTask(user *models.User, task *models.Task) bool {
	return user.Role == models.UserRoleAdmin
}

// CanAssignTasks reports whether the user may assign tasks to others.
func CanAssignTasks(user *models.User) bool {
	return user.Role == models.UserRoleAdmin || user.Role == models.UserRoleDeveloper
}

// CanChangeTaskStatus reports whether the user may move the task to the
// named status. Developers may push any task into testing; testers may
// push any task back into development or through verification.
func CanChangeTaskStatus(user *models.User, task *models.Task, newStatus string) bool {
	switch user.Role {
	case models.UserRoleAdmin:
		return true
	case models.UserRoleDeveloper:
		if isAssignee(user, task) {
			return true
		}
		return strings.Contains(newStatus, "Testing")
	case models.UserRoleTester:
		if isAssignee(user, task) {
			return true
		}
		for _, allowed := range []string{"In Progress", "Verification", "Done"} {
			if strings.Contains(newStatus, allowed) {
				return true
			}
		}
	}
	return false
}

func isAssignee(user *models.User, task *models.Task) bool {
	return task.AssigneeID != nil && *task.AssigneeID == user.ID
}

func isReporter(user *models.User, task *models.Task) bool {
	return task.ReporterID != nil && *task.ReporterID == user.ID
}
