package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/notification"
)

type Mailer interface {
	Send(ctx context.Context, kind notification.Kind, p notification.Payload) notification.Result
}

type EmailHandler struct {
	mailer Mailer
}

func NewEmailHandler(mailer Mailer) *EmailHandler {
	return &EmailHandler{mailer: mailer}
}

type sendEmailRequest struct {
	Type string                `json:"type"`
	Data *notification.Payload `json:"data"`
}

// SendEmail handles POST /api/send-email. Invalid input is rejected before
// anything reaches the mail transport.
func (h *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Data == nil || strings.TrimSpace(req.Data.Email) == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing required email data"})
		return
	}
	kind, ok := notification.ParseKind(req.Type)
	if !ok {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid email type"})
		return
	}

	result := h.mailer.Send(r.Context(), kind, *req.Data)
	if !result.Success {
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: result.Error})
		return
	}
	respondJSON(w, http.StatusOK, result)
}
