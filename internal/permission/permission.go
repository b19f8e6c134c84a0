// Package permission resolves which roles may author posts and who may
// modify an existing post.
//
// Ownership is matched on the author name captured when the post was
// created. There is no durable author id, so a rename or a second account
// sharing a display name inherits edit rights. Callers must pass an
// already-authenticated (name, role) pair; nothing here re-verifies identity.
package permission

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role int

const (
	RoleUnknown Role = iota
	RoleJunior
	RoleSenior
	RoleStaff
	RoleCoordinator
)

var roleNames = map[Role]string{
	RoleJunior:      "junior",
	RoleSenior:      "senior",
	RoleStaff:       "staff",
	RoleCoordinator: "coordinator",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole maps a claimed role string onto the enumeration. Input is trimmed
// and lowercased before matching.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == normalized {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// Actor is the claimed identity behind a mutation request.
type Actor struct {
	Name string
	Role Role
}

// Resolver decides post authoring and modification rights.
type Resolver interface {
	CanPost(role Role) bool
	CanModify(actor Actor, authorName string) bool
}

// NameResolver is the name-based Resolver.
type NameResolver struct{}

func (NameResolver) CanPost(role Role) bool {
	switch role {
	case RoleSenior, RoleStaff, RoleCoordinator:
		return true
	default:
		return false
	}
}

func (NameResolver) CanModify(actor Actor, authorName string) bool {
	if actor.Role == RoleCoordinator {
		return true
	}
	return actor.Name != "" && actor.Name == authorName
}
