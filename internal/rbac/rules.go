package rbac

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PermExamView       = "exam:view"
	PermAttemptSubmit  = "attempt:submit"
	PermAttemptViewOwn = "attempt:view-own"
	PermAttemptViewAll = "attempt:view-all"
	PermExamManage     = "exam:manage"
	PermEventsRead     = "events:read"
)

// Default policy.
var RolePermissions = Policy{
	RoleUser: {
		PermExamView,
		PermAttemptSubmit,
		PermAttemptViewOwn,
	},
	RoleAdmin: {
		"*", // everything
	},
}
