package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/session"
)

type SessionManager interface {
	Issue(ctx context.Context) (session.Session, error)
	Lookup(ctx context.Context, id string) (session.Session, error)
}

type SessionHandler struct {
	sessions SessionManager
}

func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Issue(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}
