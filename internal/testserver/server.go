// Package testserver is an in-process fake of the Amestris backend built on
// chi and httptest. It implements the auth, resource and realtime endpoints
// closely enough to exercise the client end to end, and exposes knobs to
// provoke expired tokens, partial refresh responses, slow handlers and dropped
// event streams.
package testserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

const (
	issuer  = "amestris-testserver"
	signKey = "testserver-sign-key"
)

// Seeded accounts.
const (
	SupervisorEmail    = "roy@amestris.gov"
	SupervisorPassword = "roy123"
	AlchemistEmail     = "ed@amestris.gov"
	AlchemistPassword  = "ed1234"
)

type account struct {
	user     models.User
	password string
}

type session struct {
	userID  int64
	refresh string
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	accounts map[string]*account // by email
	nextUser int64

	sessions map[string]*session // by jti
	revoked  map[string]bool     // access tokens rejected despite a valid signature
	issued   []string

	alchemists     []models.Alchemist
	materials      []models.Material
	missions       []models.Mission
	transmutations []models.Transmutation
	audits         []models.Audit
	nextID         int64

	accessTTL      time.Duration
	legacyTokens   bool
	partialRefresh bool
	failRefresh    bool
	delays         map[string]time.Duration

	refreshCalls int
	logouts      []string
	requests     []RecordedRequest

	streams      map[int]*stream
	nextStream   int
	streamOpens  int
	eventSeq     int
	lastEventIDs []string
	retryMillis  int
	pingInterval time.Duration
}

// RecordedRequest is a request seen by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// New starts a seeded fake backend. Close it when done.
func New() *Server {
	s := &Server{
		accounts:    make(map[string]*account),
		sessions:    make(map[string]*session),
		revoked:     make(map[string]bool),
		delays:      make(map[string]time.Duration),
		streams:     make(map[int]*stream),
		accessTTL:   15 * time.Minute,
		retryMillis: 50,
	}
	s.seed()
	s.Server = httptest.NewServer(s.routes())
	return s
}

// Close ends open event streams and shuts the server down.
func (s *Server) Close() {
	s.DropStreams()
	s.Server.CloseClientConnections()
	s.Server.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.delay)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)
		r.Post("/auth/refresh", s.refresh)
		r.Post("/auth/logout", s.logout)
		r.Get("/realtime/sse", s.realtime)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/auth/me", s.me)

			r.Get("/materials", s.listMaterials)
			r.Get("/missions", s.listMissions)
			r.Get("/missions/{id}", s.getMission)
			r.Get("/transmutations", s.listTransmutations)
			r.Post("/transmutations", s.createTransmutation)
			r.Put("/transmutations/{id}", s.updateTransmutation)
			r.Delete("/transmutations/{id}", s.deleteTransmutation)
			r.Get("/audits", s.listAudits)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(models.RoleSupervisor))

				r.Get("/alchemists", s.listAlchemists)
				r.Post("/alchemists", s.createAlchemist)
				r.Get("/alchemists/{id}", s.getAlchemist)
				r.Put("/alchemists/{id}", s.updateAlchemist)
				r.Delete("/alchemists/{id}", s.deleteAlchemist)

				r.Post("/materials", s.createMaterial)
				r.Put("/materials/{id}", s.updateMaterial)
				r.Delete("/materials/{id}", s.deleteMaterial)

				r.Post("/missions", s.createMission)
				r.Put("/missions/{id}", s.updateMission)
				r.Delete("/missions/{id}", s.deleteMission)
			})
		})
	})

	return r
}

func (s *Server) seed() {
	s.addAccount("Roy Mustang", SupervisorEmail, SupervisorPassword, models.RoleSupervisor)
	s.addAccount("Edward Elric", AlchemistEmail, AlchemistPassword, models.RoleAlchemist)

	s.alchemists = []models.Alchemist{
		{ID: s.newID(), Name: "Roy Mustang", Rank: "Colonel", Specialty: "Flame"},
		{ID: s.newID(), Name: "Edward Elric", Rank: "Major", Specialty: "Metal"},
	}
	s.materials = []models.Material{
		{ID: s.newID(), Name: "Iron", Quantity: 120, Unit: "kg"},
		{ID: s.newID(), Name: "Red Stone", Quantity: 1, Unit: "unit"},
	}
	s.missions = []models.Mission{
		{ID: s.newID(), Title: "Investigate Lior", Status: models.MissionPending},
	}
}

func (s *Server) addAccount(name, email, password string, role models.Role) models.User {
	s.nextUser++
	user := models.User{ID: s.nextUser, Name: name, Email: email, Role: role}
	s.accounts[strings.ToLower(email)] = &account{user: user, password: password}
	return user
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

// issueTokens creates a new login session for user. Callers hold s.mu.
func (s *Server) issueTokens(userID int64) (models.TokenSet, int64, error) {
	jti := uuid.NewString()
	access, err := utils.GenerateJWTToken(issuer, userID, jti, s.accessTTL, signKey)
	if err != nil {
		return models.TokenSet{}, 0, err
	}

	refresh := uuid.NewString()
	s.sessions[jti] = &session{userID: userID, refresh: refresh}
	s.issued = append(s.issued, access)

	return models.TokenSet{Access: access, Refresh: refresh, SessionID: jti}, time.Now().Add(s.accessTTL).Unix(), nil
}

// userFor validates an access token and returns its user. Callers hold s.mu.
func (s *Server) userFor(token string) (models.User, bool) {
	if token == "" || s.revoked[token] {
		return models.User{}, false
	}

	userID, err := utils.ValidateAndParseJWTToken(token, signKey, issuer)
	if err != nil {
		return models.User{}, false
	}

	for _, acc := range s.accounts {
		if acc.user.ID == userID {
			return acc.user, true
		}
	}
	return models.User{}, false
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
// Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.issued {
		s.revoked[token] = true
	}
}

// SetAccessTTL sets the lifetime of access tokens issued from now on. A
// negative ttl issues already expired tokens.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// SetLegacyTokens makes login and registration answer with a bare "token"
// instead of the access/refresh/jti triplet.
func (s *Server) SetLegacyTokens(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacyTokens = on
}

// SetPartialRefresh makes the refresh endpoint omit "jti".
func (s *Server) SetPartialRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialRefresh = on
}

// SetFailRefresh makes the refresh endpoint answer 401.
func (s *Server) SetFailRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = on
}

// SetDelay delays every request to path by d.
func (s *Server) SetDelay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// RefreshCalls returns how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Logouts returns the session ids revoked through the logout endpoint.
func (s *Server) Logouts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logouts...)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo returns the requests seen for path.
func (s *Server) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Login issues a session for an existing account without going through HTTP.
func (s *Server) Login(email string) (models.TokenSet, models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[strings.ToLower(email)]
	if acc == nil {
		return models.TokenSet{}, models.User{}
	}
	set, _, _ := s.issueTokens(acc.user.ID)
	return set, acc.user
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		d := s.delays[r.URL.Path]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
