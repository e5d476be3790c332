package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"account-console/internal/account/domain"
	"account-console/internal/account/repository"
	"account-console/internal/httpjson"
)

// Handler serves the account list.
type Handler struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewHandler returns a new account handler. A nil logger disables logging.
func NewHandler(repo repository.Repository, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{repo: repo, log: log}
}

// Register mounts the account routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/accounts", h.List).Methods(http.MethodGet)
}

// List returns all accounts ordered by id. An empty store yields [].
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error("list accounts", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*domain.Account{}
	}
	httpjson.Write(w, http.StatusOK, list)
}
