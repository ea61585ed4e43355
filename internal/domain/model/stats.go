package model

// Overview holds the headline counters of the admin dashboard.
type Overview struct {
	Coordons   int `json:"coordons"`
	Encadreurs int `json:"encadreurs"`
	Etudiants  int `json:"etudiants"`
	Cours      int `json:"cours"`
}

// TrendPoint is one month of the enrollment trend.
type TrendPoint struct {
	Month     string `json:"month"`
	Etudiants int    `json:"etudiants"`
	Cours     int    `json:"cours"`
}

// EnrollmentTrend is the monthly evolution of students and courses.
type EnrollmentTrend struct {
	Etudiants []TrendPoint `json:"etudiants"`
	Cours     []TrendPoint `json:"cours"`
}

// ContactInfo is a coordinator or supervisor as listed by the stats endpoints.
type ContactInfo struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Telephone string `json:"telephone"`
	Photo     string `json:"photo,omitempty"`
}

// HoraireInfo is a flattened schedule row from /academique/stats/horaires/.
type HoraireInfo struct {
	ID            int    `json:"id"`
	Titre         string `json:"titre"`
	DateDebut     string `json:"date_debut"`
	DateFin       string `json:"date_fin"`
	Lieu          string `json:"lieu"`
	CoursTitre    string `json:"cours__titre,omitempty"`
	PromotionName string `json:"promotion__name,omitempty"`
}

// Dashboard aggregates every statistics endpoint for one promotion filter.
type Dashboard struct {
	Overview   Overview        `json:"overview"`
	Trend      EnrollmentTrend `json:"trend"`
	Coordons   []ContactInfo   `json:"coordons"`
	Encadreurs []ContactInfo   `json:"encadreurs"`
	Horaires   []HoraireInfo   `json:"horaires"`
}
