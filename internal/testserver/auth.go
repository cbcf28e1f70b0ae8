package testserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "json inválido", nil)
		return false
	}
	return true
}

func (s *Server) authResponse(w http.ResponseWriter, status int, user models.User) {
	s.mu.Lock()
	set, exp, err := s.issueTokens(user.ID)
	legacy := s.legacyTokens
	s.mu.Unlock()

	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "no se pudo generar tokens", nil)
		return
	}

	resp := models.AuthResponse{Token: set.Access, User: user}
	if !legacy {
		resp.Access, resp.Refresh, resp.SessionID, resp.Exp = set.Access, set.Refresh, set.SessionID, exp
	}
	utils.WriteJSON(w, resp, status)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	if !decode(w, r, &in) {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "requerido"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "requerido"
	}
	if len(in.Password) < 6 {
		fields["password"] = "mínimo 6 caracteres"
	}
	role := models.RoleAlchemist
	if in.Role != "" {
		parsed, ok := models.ParseRole(string(in.Role))
		if !ok {
			fields["role"] = "inválido"
		}
		role = parsed
	}
	if len(fields) > 0 {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", fields)
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		s.mu.Unlock()
		utils.WriteError(w, http.StatusConflict, "email ya registrado", nil)
		return
	}
	user := s.addAccount(in.Name, in.Email, in.Password, role)
	s.mu.Unlock()

	s.authResponse(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if !decode(w, r, &in) {
		return
	}

	if in.Email == "" || in.Password == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "validación", map[string]string{"email": "requerido", "password": "requerido"})
		return
	}

	s.mu.Lock()
	acc := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()

	if acc == nil || acc.password != in.Password {
		utils.WriteError(w, http.StatusUnauthorized, "credenciales inválidas", nil)
		return
	}

	s.authResponse(w, http.StatusOK, acc.user)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshCalls++

	sess := s.sessions[in.SessionID]
	if s.failRefresh || sess == nil || sess.refresh != in.Refresh {
		utils.WriteError(w, http.StatusUnauthorized, "refresh inválido", nil)
		return
	}

	// rotate: the old session is gone
	delete(s.sessions, in.SessionID)
	set, exp, err := s.issueTokens(sess.userID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "no se pudo generar tokens", nil)
		return
	}

	resp := models.RefreshResponse{Access: set.Access, Refresh: set.Refresh, SessionID: set.SessionID, Exp: exp}
	if s.partialRefresh {
		resp.SessionID = ""
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var in models.LogoutRequest
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	delete(s.sessions, in.SessionID)
	s.logouts = append(s.logouts, in.SessionID)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, s.currentUser(r), http.StatusOK)
}

func (s *Server) currentUser(r *http.Request) models.User {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return models.User{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == userID {
			return acc.user
		}
	}
	return models.User{}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := utils.ParseBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "token requerido", nil)
			return
		}

		s.mu.Lock()
		user, ok := s.userFor(token)
		s.mu.Unlock()
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, "token inválido", nil)
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDCtxKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.currentUser(r).HasRole(roles...) {
				utils.WriteError(w, http.StatusForbidden, "prohibido", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
