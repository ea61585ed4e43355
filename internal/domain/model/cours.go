package model

import "time"

// Cours is a course as listed by /academique/cours/.
type Cours struct {
	ID           int        `json:"id"`
	Titre        string     `json:"titre"`
	Description  string     `json:"description"`
	Encadreurs   []Ref      `json:"encadreurs"`
	Promotions   []Ref      `json:"promotions"`
	DateCreation *time.Time `json:"date_creation,omitempty"`
}

// CoursInput is the payload accepted on create (POST) and update (PUT).
type CoursInput struct {
	Titre       string `json:"titre"       validate:"required,max=100"`
	Description string `json:"description" validate:"max=300"`
	Encadreurs  []int  `json:"encadreurs"  validate:"dive,gt=0"`
	Promotions  []int  `json:"promotions"  validate:"dive,gt=0"`
}

// Normalize makes nil relation lists explicit so the backend receives [].
func (in *CoursInput) Normalize() {
	if in.Encadreurs == nil {
		in.Encadreurs = []int{}
	}
	if in.Promotions == nil {
		in.Promotions = []int{}
	}
}
