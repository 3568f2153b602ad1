// AngelaMos | 2026
// handler.go

package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/", h.List)
		r.Post("/{notificationID}/read", h.MarkRead)
	})
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"`
	Read      bool      `json:"read"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	notifications, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := ListResponse{
		Notifications: make([]NotificationResponse, 0, len(notifications)),
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:        n.ID,
			Message:   n.Message,
			Priority:  n.Priority,
			Read:      n.Read,
			SentAt:    n.SentAt,
			ExpiresAt: n.ExpiresAt,
		})
	}

	core.OK(w, resp)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	notificationID, err := strconv.ParseInt(
		chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		core.BadRequest(w, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, notificationID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "notification")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot modify another user's notification")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
