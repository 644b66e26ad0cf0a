package roster

import (
	"fmt"
	"strings"
)

// Role is a member's role in the directory. The set is closed.
type Role string

const (
	// NoRole means "no role filter" when used in a Query or State.
	NoRole Role = ""

	RoleAdmin   Role = "Admin"
	RoleAgent   Role = "Agent"
	RoleCreator Role = "Creator"
)

// Roles lists the closed role set in display order.
var Roles = []Role{RoleAdmin, RoleAgent, RoleCreator}

// Valid reports whether r is one of the closed role set.
// NoRole is not a valid member role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCreator:
		return true
	}
	return false
}

// ParseRole matches s exactly (case-sensitive) against the role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return NoRole, fmt.Errorf("invalid role %q: valid roles are %s", s, roleList())
	}
	return r, nil
}

func roleList() string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// Member is one directory entry. Members are value objects supplied by a
// record source; the engine never mutates them.
type Member struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   Role    `json:"role"`
	Avatar *string `json:"avatar"`
}

// IDs returns the identifiers of members in order.
func IDs(members []Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
