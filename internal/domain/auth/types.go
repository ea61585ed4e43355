package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Role represents an application's authorization role as issued by the backend.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCoordon   Role = "COORDON"
	RoleEncadreur Role = "ENCADREUR"
	RoleEtudiant  Role = "ETUDIANT"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCoordon, RoleEncadreur, RoleEtudiant}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordon, RoleEncadreur, RoleEtudiant:
		return true
	default:
		return false
	}
}

// ParseRole normalises user input such as "admin" into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// LandingPath returns the dashboard a role lands on after login.
func LandingPath(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleCoordon:
		return "/coordon"
	case RoleEncadreur:
		return "/encadreur"
	case RoleEtudiant:
		return "/etudiant"
	default:
		return "/"
	}
}

// Promotion is a cohort such as L0, B1 or M1.
type Promotion struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Annee int    `json:"annee,omitempty"`
}

// UnmarshalJSON accepts either a nested promotion object or a bare primary key.
func (p *Promotion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var id int
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = Promotion{ID: id}
		return nil
	}
	type plain Promotion
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Promotion(v)
	return nil
}

// Identity is the authenticated user as returned by the backend "me" endpoint.
type Identity struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      Role       `json:"role"`
	Promotion *Promotion `json:"promotion,omitempty"`
	Telephone string     `json:"telephone,omitempty"`
	Bio       string     `json:"bio,omitempty"`
}

// FullName joins first and last name, falling back to the email.
func (i Identity) FullName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// SessionState is a snapshot of who is logged in.
// While Loading is true no access-control decision may be taken.
type SessionState struct {
	Identity *Identity
	Loading  bool
	Error    string
}

// Authenticated reports whether the snapshot carries an identity.
func (s SessionState) Authenticated() bool { return s.Identity != nil }
