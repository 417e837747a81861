package membership

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/transport"
	"github.com/frahmantamala/school-administration/pkg/logger"
)

type ServiceAPI interface {
	Invite(actor *auth.User, departmentID, targetID int64) (*Membership, error)
	Accept(actor *auth.User, departmentID int64) (*Membership, error)
	Kick(actor *auth.User, departmentID, targetID int64) error
	Enroll(actor *auth.User, courseID int64) (*Enrollment, error)
	Unenroll(actor *auth.User, targetID, courseID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	departmentID, okID := h.pathID(w, r, "invalid department ID")
	if !okID {
		return
	}

	var dto InviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.UserID == 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.Invite(actor, departmentID, dto.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	departmentID, okID := h.pathID(w, r, "invalid department ID")
	if !okID {
		return
	}

	m, err := h.Service.Accept(actor, departmentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Kick(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	departmentID, okID := h.pathID(w, r, "invalid department ID")
	if !okID {
		return
	}

	var dto InviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.UserID == 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Kick(actor, departmentID, dto.UserID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	courseID, okID := h.pathID(w, r, "invalid course ID")
	if !okID {
		return
	}

	e, err := h.Service.Enroll(actor, courseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	courseID, okID := h.pathID(w, r, "invalid course ID")
	if !okID {
		return
	}

	if err := h.Service.Unenroll(actor, actor.ID, courseID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, msg string) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return id, true
}
