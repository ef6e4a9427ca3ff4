// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// AdminServer is the operator HTTP API: inspect the game and remove players.
type AdminServer struct {
	Router       *Router
	PasswordHash string
	Logger       *logrus.Logger
}

type loginRequest struct {
	Password string `json:"password"`
}

type kickRequest struct {
	UUID string `json:"uuid"`
}

// LoginHandler checks the operator password and issues a session token, returned both in
// the body and as the auth cookie.
func (a *AdminServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.PasswordHash == "" {
		http.Error(w, "admin login is disabled", http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid login payload", http.StatusBadRequest)
		return
	}
	ok, err := auth.VerifyPassword(req.Password, a.PasswordHash)
	if err != nil {
		a.Logger.WithError(err).Error("admin password hash is unusable")
		http.Error(w, "admin login is misconfigured", http.StatusInternalServerError)
		return
	}
	if !ok {
		a.Logger.WithField("remote", r.RemoteAddr).Warn("failed admin login")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.CreateJWT(auth.AdminSubject)
	if err != nil {
		http.Error(w, "could not create token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/admin",
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// StateHandler returns the operator snapshot of the game.
func (a *AdminServer) StateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, a.Router.Game.Snapshot())
}

// KickHandler removes a player as if they had sent leave themselves.
func (a *AdminServer) KickHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req kickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid kick payload", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(req.UUID)
	if err != nil {
		http.Error(w, "invalid uuid", http.StatusBadRequest)
		return
	}

	err = a.Router.Apply(func(g *game.UnoGame) ([]game.GameEvent, error) {
		return g.Leave(id)
	})
	if errors.Is(err, game.ErrPlayerNotFound) {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Logger.WithError(err).Error("kick failed")
		http.Error(w, "kick failed", http.StatusInternalServerError)
		return
	}
	a.Logger.WithField("player", id).Info("player kicked by operator")
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusDone})
}

// RequireAdmin rejects requests without a valid operator token.
func (a *AdminServer) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		sub, err := auth.AuthenticateJWT(token)
		if err != nil || sub != auth.AdminSubject {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// Register mounts the admin endpoints on mux.
func (a *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/login", a.LoginHandler)
	mux.HandleFunc("/admin/state", a.RequireAdmin(a.StateHandler))
	mux.HandleFunc("/admin/kick", a.RequireAdmin(a.KickHandler))
}
