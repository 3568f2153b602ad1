// AngelaMos | 2026
// handler.go

package band

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

// RegisterRoutes mounts the band surface. Invite verification uses optional
// auth: open invites must be checkable by people without an account yet.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/bands", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/{bandID}/invites/{code}", h.VerifyInvite)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", h.Create)
			r.Get("/search", h.Search)
			r.Get("/{bandID}", h.Get)
			r.Delete("/{bandID}", h.Delete)

			r.Post("/{bandID}/invites", h.SendInvite)
			r.Post("/invites/{code}/accept", h.AcceptInvite)
			r.Post("/invites/{code}/decline", h.DeclineInvite)

			r.Post("/{bandID}/postings", h.CreatePosting)
			r.Get("/{bandID}/postings", h.ListPostings)
			r.Delete("/{bandID}/postings/{postingID}", h.DeletePosting)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req CreateBandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	b, err := h.service.CreateBand(r.Context(), userID, req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toBandResponse(b))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetBand(r.Context(), bandID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, toBandResponse(b))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bands, err := h.service.SearchBands(
		r.Context(),
		q.Get("name"),
		q.Get("location"),
		q.Get("talent"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := SearchResponse{Bands: make([]BandResponse, 0, len(bands))}
	for i := range bands {
		resp.Bands = append(resp.Bands, toBandResponse(&bands[i]))
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBand(r.Context(), userID, bandID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SendInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	var req SendInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	inv, err := h.service.SendInvite(r.Context(), userID, bandID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, InviteResponse{
		BandID:    inv.BandID,
		UserID:    inv.UserID,
		Code:      inv.Code,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) VerifyInvite(w http.ResponseWriter, r *http.Request) {
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	// Zero when the request carries no valid token.
	userID := middleware.GetUserID(r.Context())

	inv, err := h.service.VerifyBandCode(
		r.Context(), bandID, chi.URLParam(r, "code"), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, InviteResponse{
		BandID:    inv.BandID,
		UserID:    inv.UserID,
		Code:      inv.Code,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	code := chi.URLParam(r, "code")
	if err := h.service.AcceptInvite(r.Context(), userID, code); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	code := chi.URLParam(r, "code")
	if err := h.service.DeclineInvite(r.Context(), userID, code); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bandID, ok := h.bandID(w, r)
	if !ok {
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

	p, err := h.service.CreatePosting(r.Context(), userID, bandID, req.Talent)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, PostingResponse{ID: p.ID, BandID: p.BandID, Talent: p.Talent})
}

func (h *Handler) ListPostings(w http.ResponseWriter, r *http.Request) {
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	postings, err := h.service.ListPostings(r.Context(), bandID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		resp = append(resp, PostingResponse{
			ID:     p.ID,
			BandID: p.BandID,
			Talent: p.Talent,
		})
	}

	core.OK(w, resp)
}

func (h *Handler) DeletePosting(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bandID, ok := h.bandID(w, r)
	if !ok {
		return
	}

	postingID, err := strconv.ParseInt(chi.URLParam(r, "postingID"), 10, 64)
	if err != nil {
		core.BadRequest(w, "invalid posting ID")
		return
	}

	if err := h.service.DeletePosting(
		r.Context(), userID, bandID, postingID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) bandID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	bandID, err := strconv.ParseInt(chi.URLParam(r, "bandID"), 10, 64)
	if err != nil || bandID <= 0 {
		core.BadRequest(w, "invalid band ID")
		return 0, false
	}
	return bandID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAMember):
		core.JSONError(w, core.ForbiddenError("not a member of this band"))
	case errors.Is(err, ErrNotAnAdmin):
		core.JSONError(w, core.ForbiddenError("not an admin of this band"))
	case errors.Is(err, ErrInvalidInvite):
		core.JSONError(w, core.ForbiddenError("invite does not exist for this user"))
	case errors.Is(err, ErrAlreadyMember):
		core.JSONError(w, core.ConflictError("already a member of this band"))
	case errors.Is(err, core.ErrExpired):
		core.JSONError(w, core.ExpiredError("invite has expired"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "resource")
	default:
		core.InternalServerError(w, err)
	}
}
