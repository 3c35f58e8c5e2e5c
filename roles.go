package auth

import "github.com/google/uuid"

// Role is the user's coarse-grained classification. Closed set, one role per
// user.
type Role string

const (
	// RoleAdmin matches every permission without a table lookup
	RoleAdmin Role = "admin"
	// RoleManager runs projects and approves time logs
	RoleManager Role = "manager"
	// RoleDeveloper works tasks assigned to them
	RoleDeveloper Role = "developer"
	// RoleQA verifies and reports on tasks
	RoleQA Role = "qa"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleQA:
		return true
	default:
		return false
	}
}

// AllRoles returns all predefined roles
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleManager,
		RoleDeveloper,
		RoleQA,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// Permission is a namespaced capability string, e.g. "projects.create".
type Permission string

const (
	PermProjectsView   Permission = "projects.view"
	PermProjectsCreate Permission = "projects.create"
	PermProjectsEdit   Permission = "projects.edit"
	PermProjectsDelete Permission = "projects.delete"

	PermTasksView   Permission = "tasks.view"
	PermTasksCreate Permission = "tasks.create"
	PermTasksEdit   Permission = "tasks.edit"
	PermTasksDelete Permission = "tasks.delete"
	PermTasksAssign Permission = "tasks.assign"

	PermCommentsCreate Permission = "comments.create"
	PermCommentsEdit   Permission = "comments.edit"
	PermCommentsDelete Permission = "comments.delete"

	PermTimeLogsCreate  Permission = "timelogs.create"
	PermTimeLogsView    Permission = "timelogs.view"
	PermTimeLogsApprove Permission = "timelogs.approve"

	PermReportsView Permission = "reports.view"

	PermUsersView   Permission = "users.view"
	PermUsersManage Permission = "users.manage"
)

// RolePermissionTable maps each role to its permission set. Every role has
// an entry, possibly empty; admin never consults the table.
type RolePermissionTable map[Role][]Permission

// DefaultRolePermissions is the static policy for the dashboard. Admin is a
// wildcard, so its entry stays empty on purpose.
var DefaultRolePermissions = RolePermissionTable{
	RoleAdmin: {},
	RoleManager: {
		PermProjectsView, PermProjectsCreate, PermProjectsEdit, PermProjectsDelete,
		PermTasksView, PermTasksCreate, PermTasksEdit, PermTasksDelete, PermTasksAssign,
		PermCommentsCreate, PermCommentsEdit, PermCommentsDelete,
		PermTimeLogsCreate, PermTimeLogsView, PermTimeLogsApprove,
		PermReportsView,
		PermUsersView,
	},
	RoleDeveloper: {
		PermProjectsView,
		PermTasksView, PermTasksCreate, PermTasksEdit,
		PermCommentsCreate, PermCommentsEdit,
		PermTimeLogsCreate, PermTimeLogsView,
	},
	RoleQA: {
		PermProjectsView,
		PermTasksView, PermTasksEdit,
		PermCommentsCreate, PermCommentsEdit,
		PermTimeLogsCreate, PermTimeLogsView,
		PermReportsView,
	},
}

// HasPermission checks a permission against the table. Admin short-circuits
// true for any permission, known or not. A nil user is always denied.
func (t RolePermissionTable) HasPermission(user *User, permission Permission) bool {
	if user == nil {
		return false
	}

	if user.Role == RoleAdmin {
		return true
	}

	for _, p := range t[user.Role] {
		if p == permission {
			return true
		}
	}

	return false
}

// HasPermission checks permission against the default table
func HasPermission(user *User, permission Permission) bool {
	return DefaultRolePermissions.HasPermission(user, permission)
}

// HasRole checks if the user holds exactly the given role
func HasRole(user *User, role Role) bool {
	if user == nil {
		return false
	}
	return user.Role == role
}

// HasAnyRole checks if the user's role is one of the given roles
func HasAnyRole(user *User, roles ...Role) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// HasAllRoles checks if the user's role covers every given role. With a
// single role per user this only passes when the list collapses to that one
// role (or is empty).
func HasAllRoles(user *User, roles ...Role) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role != role {
			return false
		}
	}
	return true
}

// CanEditTask allows the task's creator, its assignee, and managers/admins
func CanEditTask(user *User, creatorID, assigneeID uuid.UUID) bool {
	if user == nil {
		return false
	}
	if user.ID == creatorID || user.ID == assigneeID {
		return true
	}
	return HasAnyRole(user, RoleAdmin, RoleManager)
}

// CanDeleteTask allows the task's creator and managers/admins
func CanDeleteTask(user *User, creatorID uuid.UUID) bool {
	if user == nil {
		return false
	}
	if user.ID == creatorID {
		return true
	}
	return HasAnyRole(user, RoleAdmin, RoleManager)
}

// CanApproveTimeLog allows managers and admins to approve a time log they do
// not own. Self-approval is denied here rather than at call sites so there is
// a single source of truth.
func CanApproveTimeLog(user *User, ownerID uuid.UUID) bool {
	if user == nil {
		return false
	}
	if user.ID == ownerID {
		return false
	}
	return HasAnyRole(user, RoleAdmin, RoleManager)
}
