package nav

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole takes the role name as returned by the role endpoint. No format
// validation is done: unknown names are kept and simply grant nothing.
func ParseRole(raw string) Role {
	return Role(strings.TrimSpace(raw))
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type ResolutionState int

const (
	// ResolutionIdle means there is no token to resolve a role for.
	ResolutionIdle ResolutionState = iota
	ResolutionPending
	ResolutionResolved
	ResolutionFailed
)

func (s ResolutionState) String() string {
	switch s {
	case ResolutionPending:
		return "pending"
	case ResolutionResolved:
		return "resolved"
	case ResolutionFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RoleResolution is the state of the role lookup for one session token.
type RoleResolution struct {
	Token string
	State ResolutionState
	Role  Role
	Err   error
}

func PendingResolution(token string) RoleResolution {
	return RoleResolution{Token: token, State: ResolutionPending}
}

func ResolvedResolution(token string, role Role) RoleResolution {
	return RoleResolution{Token: token, State: ResolutionResolved, Role: role}
}

func FailedResolution(token string, err error) RoleResolution {
	return RoleResolution{Token: token, State: ResolutionFailed, Err: err}
}

// Effective returns the role to render with. Anything but a resolved lookup
// falls back to the least privileged role.
func (r RoleResolution) Effective() Role {
	if r.State == ResolutionResolved {
		return r.Role
	}

	return RoleUser
}

// FailurePolicy tells the panel what to do once a role lookup failed.
type FailurePolicy string

const (
	// FailOpen silently renders with the least privileged role.
	FailOpen FailurePolicy = "open"
	// FailWithNotice renders with the least privileged role and flags the
	// failure in the view so a notice can be shown.
	FailWithNotice FailurePolicy = "banner"
)
