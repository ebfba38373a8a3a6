package rbac

import "strings"

// Policy maps a role to the permission patterns it holds. A pattern is an
// exact permission, "*", or a prefix ending in "*" such as "attempt:*".
type Policy map[string][]string

type Checker struct {
	policy Policy
}

// NewChecker returns a Checker over p, or over RolePermissions when p is nil.
func NewChecker(p Policy) *Checker {
	if p == nil {
		p = RolePermissions
	}
	return &Checker{policy: p}
}

// Has reports whether role holds perm. Unknown roles hold nothing.
func (c *Checker) Has(role, perm string) bool {
	for _, pattern := range c.policy[role] {
		if grants(pattern, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// All reports whether role holds every perm. An empty list grants nothing.
func (c *Checker) All(role string, perms ...string) bool {
	if len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return true
}

func grants(pattern, perm string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(perm, prefix)
	}
	return pattern == perm
}
