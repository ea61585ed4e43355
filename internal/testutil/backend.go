package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
)

const (
	// RefreshCookieName is the refresh token cookie set by FakeBackend.
	RefreshCookieName = "refresh_token"

	fakeSigningKey = "ecole-testutil-signing-key"
)

// FakeUser is an account known to FakeBackend.
type FakeUser struct {
	Password string
	Identity domainauth.Identity
}

// FakeBackend is an in-memory stand-in for the REST API, served under /api.
// It issues signed JWT cookies on login, honours the refresh cookie and keeps
// academic collections as JSON objects.
type FakeBackend struct {
	Server *httptest.Server

	cookieName string

	mu              sync.Mutex
	users           map[string]FakeUser
	access          map[string]int
	refresh         map[string]int
	failRefresh     bool
	failLogout      bool
	refreshBodyOnly bool
	refreshGate     chan struct{}
	calls           map[string]int
	collections     map[string]map[int]map[string]any
	nextID          int
	stats           map[string]any
	lastQuery       map[string]string
}

// NewFakeBackend starts a FakeBackend; it is closed when the test ends.
// An empty cookieName means "access_token".
func NewFakeBackend(t testing.TB, cookieName string, users ...FakeUser) *FakeBackend {
	t.Helper()

	if cookieName == "" {
		cookieName = "access_token"
	}
	b := &FakeBackend{
		cookieName:  cookieName,
		users:       map[string]FakeUser{},
		access:      map[string]int{},
		refresh:     map[string]int{},
		calls:       map[string]int{},
		collections: map[string]map[int]map[string]any{},
		nextID:      100,
		stats:       map[string]any{},
		lastQuery:   map[string]string{},
	}
	for _, u := range users {
		b.users[u.Identity.Email] = u
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login-cookie/{$}", b.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh-cookie/{$}", b.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout-cookie/{$}", b.handleLogout)
	mux.HandleFunc("GET /api/auth/users/me/{$}", b.authenticated(b.handleMe))
	mux.HandleFunc("GET /api/academique/stats/{name}/{$}", b.authenticated(b.handleStats))
	mux.HandleFunc("GET /api/academique/{collection}/{$}", b.authenticated(b.handleList))
	mux.HandleFunc("POST /api/academique/{collection}/{$}", b.authenticated(b.adminOnly(b.handleCreate)))
	mux.HandleFunc("GET /api/academique/{collection}/{id}/{$}", b.authenticated(b.handleGet))
	mux.HandleFunc("PUT /api/academique/{collection}/{id}/{$}", b.authenticated(b.adminOnly(b.handleUpdate)))
	mux.HandleFunc("PATCH /api/academique/{collection}/{id}/{$}", b.authenticated(b.adminOnly(b.handleUpdate)))
	mux.HandleFunc("DELETE /api/academique/{collection}/{id}/{$}", b.authenticated(b.adminOnly(b.handleDelete)))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL is the API root to configure clients with.
func (b *FakeBackend) BaseURL() string { return b.Server.URL + "/api" }

// Calls returns how many requests reached the named endpoint
// ("login", "refresh", "logout", "me", or a collection name).
func (b *FakeBackend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

// ExpireAccess invalidates every access token issued so far; refresh tokens stay valid.
func (b *FakeBackend) ExpireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = map[string]int{}
}

// SetFailRefresh makes the refresh endpoint answer 401.
func (b *FakeBackend) SetFailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// SetFailLogout makes the logout endpoint answer 500.
func (b *FakeBackend) SetFailLogout(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failLogout = fail
}

// SetRefreshBodyOnly makes the refresh endpoint return the new access token
// in the body without a Set-Cookie header.
func (b *FakeBackend) SetRefreshBodyOnly(bodyOnly bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshBodyOnly = bodyOnly
}

// GateRefresh holds refresh requests until the returned release func is called.
func (b *FakeBackend) GateRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.refreshGate = nil
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Seed stores items in a collection, assigning ids to items without one.
func (b *FakeBackend) Seed(collection string, items ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		b.storeLocked(collection, item)
	}
}

// SetStats fixes the payload returned by /academique/stats/{name}/.
func (b *FakeBackend) SetStats(name string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats[name] = payload
}

// LastQuery returns the raw query string of the last request to the named endpoint.
func (b *FakeBackend) LastQuery(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery[name]
}

func (b *FakeBackend) count(name string, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
	b.lastQuery[name] = r.URL.RawQuery
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.count("login", r)

	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email et mot de passe requis"})
		return
	}

	b.mu.Lock()
	u, ok := b.users[in.Email]
	b.mu.Unlock()
	if !ok || u.Password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Identifiants invalides"})
		return
	}

	access := b.issue(u.Identity.ID, "access", b.access)
	refresh := b.issue(u.Identity.ID, "refresh", b.refresh)
	http.SetCookie(w, &http.Cookie{Name: b.cookieName, Value: access, Path: "/", HttpOnly: true, MaxAge: 15 * 60})
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: refresh, Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 3600})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Connexion réussie",
		"access":  access,
		"user":    map[string]any{"id": u.Identity.ID, "email": u.Identity.Email},
	})
}

func (b *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.count("refresh", r)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	ck, err := r.Cookie(RefreshCookieName)
	if err != nil || ck.Value == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Pas de refresh token"})
		return
	}

	b.mu.Lock()
	userID, ok := b.refresh[ck.Value]
	fail := b.failRefresh
	bodyOnly := b.refreshBodyOnly
	b.mu.Unlock()
	if !ok || fail {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Refresh token invalide ou expiré"})
		return
	}

	access := b.issue(userID, "access", b.access)
	if !bodyOnly {
		http.SetCookie(w, &http.Cookie{Name: b.cookieName, Value: access, Path: "/", HttpOnly: true, MaxAge: 15 * 60})
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (b *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.count("logout", r)

	b.mu.Lock()
	fail := b.failLogout
	if !fail {
		if ck, err := r.Cookie(b.cookieName); err == nil {
			delete(b.access, ck.Value)
		}
		if ck, err := r.Cookie(RefreshCookieName); err == nil {
			delete(b.refresh, ck.Value)
		}
	}
	b.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Erreur interne"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: b.cookieName, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

func (b *FakeBackend) issue(userID int, kind string, into map[string]int) string {
	claims := jwt.MapClaims{
		"user_id":    strconv.Itoa(userID),
		"token_type": kind,
		"jti":        uuid.NewString(),
		"exp":        time.Now().Add(15 * time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(fakeSigningKey))
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	into[signed] = userID
	b.mu.Unlock()
	return signed
}

type ctxIdentity func(w http.ResponseWriter, r *http.Request, id domainauth.Identity)

func (b *FakeBackend) authenticated(next ctxIdentity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(b.cookieName)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Informations d'authentification non fournies."})
			return
		}

		b.mu.Lock()
		userID, ok := b.access[ck.Value]
		var id domainauth.Identity
		found := false
		if ok {
			for _, u := range b.users {
				if u.Identity.ID == userID {
					id, found = u.Identity, true
					break
				}
			}
		}
		b.mu.Unlock()

		if !found {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Le jeton est invalide ou expiré"})
			return
		}
		next(w, r, id)
	}
}

func (b *FakeBackend) adminOnly(next ctxIdentity) ctxIdentity {
	return func(w http.ResponseWriter, r *http.Request, id domainauth.Identity) {
		if id.Role != domainauth.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Accès non autorisé."})
			return
		}
		next(w, r, id)
	}
}

func (b *FakeBackend) handleMe(w http.ResponseWriter, r *http.Request, id domainauth.Identity) {
	b.count("me", r)

	// The "me" serializer renders the promotion as its primary key.
	out := map[string]any{
		"id":         id.ID,
		"email":      id.Email,
		"first_name": id.FirstName,
		"last_name":  id.LastName,
		"role":       id.Role,
		"promotion":  nil,
	}
	if id.Promotion != nil {
		out["promotion"] = id.Promotion.ID
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleStats(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("name")
	b.count("stats/"+name, r)

	b.mu.Lock()
	payload, ok := b.stats[name]
	if !ok && name == "overview" {
		payload = map[string]int{
			"coordons":   len(b.collections["coordons"]),
			"encadreurs": len(b.collections["encadreurs"]),
			"etudiants":  len(b.collections["etudiants"]),
			"cours":      len(b.collections["cours"]),
		}
		ok = true
	}
	b.mu.Unlock()

	if !ok {
		if name == "enrollment-trend" {
			payload = map[string]any{"etudiants": []any{}, "cours": []any{}}
		} else {
			payload = []any{}
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (b *FakeBackend) handleList(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("collection")
	b.count(name, r)

	b.mu.Lock()
	coll := b.collections[name]
	ids := make([]int, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, coll[id])
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleCreate(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("collection")
	b.count(name, r)

	var item map[string]any
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON invalide"})
		return
	}
	delete(item, "id")
	delete(item, "password")

	b.mu.Lock()
	stored := b.storeLocked(name, item)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, stored)
}

func (b *FakeBackend) handleGet(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("collection")
	b.count(name, r)

	item, ok := b.lookup(name, r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Pas trouvé."})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (b *FakeBackend) handleUpdate(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("collection")
	b.count(name, r)

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON invalide"})
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Pas trouvé."})
		return
	}

	b.mu.Lock()
	current, ok := b.collections[name][id]
	item := map[string]any{"id": id}
	if ok {
		if r.Method == http.MethodPatch {
			for k, v := range current {
				item[k] = v
			}
		}
		for k, v := range patch {
			if k != "id" {
				item[k] = v
			}
		}
		if role, isMember := memberRoles[name]; isMember {
			item["role"] = role
		}
		b.collections[name][id] = item
	}
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Pas trouvé."})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (b *FakeBackend) handleDelete(w http.ResponseWriter, r *http.Request, _ domainauth.Identity) {
	name := r.PathValue("collection")
	b.count(name, r)

	id, err := strconv.Atoi(r.PathValue("id"))
	b.mu.Lock()
	_, ok := b.collections[name][id]
	if ok {
		delete(b.collections[name], id)
	}
	b.mu.Unlock()

	if err != nil || !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Pas trouvé."})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) lookup(collection, rawID string) (map[string]any, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.collections[collection][id]
	return item, ok
}

func (b *FakeBackend) storeLocked(collection string, item map[string]any) map[string]any {
	coll, ok := b.collections[collection]
	if !ok {
		coll = map[int]map[string]any{}
		b.collections[collection] = coll
	}

	id := 0
	switch v := item["id"].(type) {
	case int:
		id = v
	case float64:
		id = int(v)
	}
	if id == 0 {
		b.nextID++
		id = b.nextID
	}

	stored := make(map[string]any, len(item)+1)
	for k, v := range item {
		stored[k] = v
	}
	stored["id"] = id
	if role, ok := memberRoles[collection]; ok {
		stored["role"] = role
	}
	coll[id] = stored
	return stored
}

var memberRoles = map[string]domainauth.Role{
	"encadreurs": domainauth.RoleEncadreur,
	"etudiants":  domainauth.RoleEtudiant,
	"coordons":   domainauth.RoleCoordon,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
