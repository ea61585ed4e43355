package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func exportedSite() fstest.MapFS {
	return fstest.MapFS{
		"index.html":             {Data: []byte("<h1>accueil</h1>")},
		"auth/login.html":        {Data: []byte("<h1>connexion</h1>")},
		"admin/index.html":       {Data: []byte("<h1>admin</h1>")},
		"_next/static/app.js":    {Data: []byte("console.log(1)")},
		"coordon/cours.html":     {Data: []byte("<h1>cours</h1>")},
		"etudiant/profil/a.json": {Data: []byte("{}")},
	}
}

func TestSPAHandler(t *testing.T) {
	h := SPAHandler(exportedSite())

	tests := []struct {
		path string
		want string
	}{
		{"/", "accueil"},
		{"/auth/login", "connexion"},
		{"/admin", "admin"},
		{"/admin/", "admin"},
		{"/coordon/cours", "cours"},
		{"/_next/static/app.js", "console.log"},
		{"/etudiant/inconnu", "accueil"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestSPAHandler_NoIndex(t *testing.T) {
	h := SPAHandler(fstest.MapFS{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
