package model

import "time"

// Horaire is a scheduled session of a course for a promotion.
type Horaire struct {
	ID          int        `json:"id"`
	Titre       string     `json:"titre"`
	Description string     `json:"description,omitempty"`
	Cours       *int       `json:"cours"`
	DateDebut   time.Time  `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin,omitempty"`
	Lieu        string     `json:"lieu,omitempty"`
	Promotion   *int       `json:"promotion"`
}

// HoraireInput is the create/update payload for a schedule entry.
type HoraireInput struct {
	Titre       string     `json:"titre"       validate:"required,max=200"`
	Description string     `json:"description"`
	Cours       *int       `json:"cours"       validate:"omitempty,gt=0"`
	DateDebut   time.Time  `json:"date_debut"  validate:"required"`
	DateFin     *time.Time `json:"date_fin"`
	Lieu        string     `json:"lieu"        validate:"max=200"`
	Promotion   *int       `json:"promotion"   validate:"omitempty,gt=0"`
}

// Input seeds an update payload from an existing entry.
func (h Horaire) Input() HoraireInput {
	return HoraireInput{
		Titre:       h.Titre,
		Description: h.Description,
		Cours:       h.Cours,
		DateDebut:   h.DateDebut,
		DateFin:     h.DateFin,
		Lieu:        h.Lieu,
		Promotion:   h.Promotion,
	}
}
