// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the user surface. Activation is public: it is the
// link from the verification email.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/activate/{code}", h.Activate)

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/me", h.GetProfile)
		r.Patch("/me", h.UpdateProfile)
		r.Delete("/me", h.DeleteAccount)
		r.Get("/search", h.Search)

		r.Post("/me/postings", h.CreatePosting)
		r.Get("/me/postings", h.ListPostings)
		r.Delete("/me/postings/{postingID}", h.DeletePosting)
	})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.VerifyEmail(r.Context(), code); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "activation code")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]string{"status": "activated"})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, toProfileResponse(u))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, toProfileResponse(u))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	users, err := h.service.SearchMusicians(
		r.Context(),
		q.Get("name"),
		q.Get("location"),
		q.Get("talent"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := SearchResponse{Musicians: make([]MusicianResponse, 0, len(users))}
	for _, u := range users {
		resp.Musicians = append(resp.Musicians, MusicianResponse{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Location:  u.Location,
		})
	}

	core.OK(w, resp)
}

func (h *Handler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.CreatePosting(r.Context(), userID, req.Talent)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, PostingResponse{ID: p.ID, Talent: p.Talent})
}

func (h *Handler) ListPostings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	postings, err := h.service.ListPostings(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		resp = append(resp, PostingResponse{ID: p.ID, Talent: p.Talent})
	}

	core.OK(w, resp)
}

func (h *Handler) DeletePosting(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	postingID, err := strconv.ParseInt(chi.URLParam(r, "postingID"), 10, 64)
	if err != nil {
		core.BadRequest(w, "invalid posting ID")
		return
	}

	if err := h.service.DeletePosting(r.Context(), userID, postingID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "user")
		return
	}
	core.InternalServerError(w, err)
}
