package model

import (
	"regexp"
	"strings"

	"github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
)

// MemberKind selects one of the member collections under /academique/.
type MemberKind string

const (
	MemberEncadreurs MemberKind = "encadreurs"
	MemberEtudiants  MemberKind = "etudiants"
	MemberCoordons   MemberKind = "coordons"
)

// Valid reports whether the kind is supported.
func (k MemberKind) Valid() bool {
	switch k {
	case MemberEncadreurs, MemberEtudiants, MemberCoordons:
		return true
	default:
		return false
	}
}

// Role returns the account role held by members of this kind.
func (k MemberKind) Role() auth.Role {
	switch k {
	case MemberEncadreurs:
		return auth.RoleEncadreur
	case MemberEtudiants:
		return auth.RoleEtudiant
	case MemberCoordons:
		return auth.RoleCoordon
	default:
		return ""
	}
}

// ParseMemberKind accepts plural or singular forms ("etudiant", "Encadreurs").
func ParseMemberKind(s string) (MemberKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(s, "s") {
		s += "s"
	}
	k := MemberKind(s)
	return k, k.Valid()
}

// Member is an encadreur, étudiant or coordinateur account.
type Member struct {
	ID        int             `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Telephone string          `json:"telephone,omitempty"`
	Role      auth.Role       `json:"role,omitempty"`
	Promotion *auth.Promotion `json:"promotion,omitempty"`
	Photo     string          `json:"photo,omitempty"`
}

// CreateMemberInput is the payload for creating a member account.
type CreateMemberInput struct {
	FirstName string `json:"first_name"         validate:"required,max=50"`
	LastName  string `json:"last_name"          validate:"required,max=50"`
	Email     string `json:"email"              validate:"required,email"`
	Telephone string `json:"telephone"          validate:"max=15"`
	Promotion *int   `json:"promotion"          validate:"omitempty,gt=0"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DefaultUsername derives a username from a first name: whitespace runs become
// underscores and the result is lower-cased. An empty name yields "user".
func DefaultUsername(firstName string) string {
	if firstName == "" {
		return "user"
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(firstName, "_"))
}

// Normalize fills the username when it was left empty.
func (in *CreateMemberInput) Normalize() {
	if in.Username == "" {
		in.Username = DefaultUsername(in.FirstName)
	}
}

// UpdateMemberInput is the PATCH payload for a member account.
type UpdateMemberInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email"`
	Telephone string `json:"telephone"  validate:"max=15"`
	Promotion *int   `json:"promotion"  validate:"omitempty,gt=0"`
}

// FromMember seeds an update payload from an existing record.
func FromMember(m Member) UpdateMemberInput {
	in := UpdateMemberInput{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Telephone: m.Telephone,
	}
	if m.Promotion != nil && m.Promotion.ID != 0 {
		id := m.Promotion.ID
		in.Promotion = &id
	}
	return in
}
