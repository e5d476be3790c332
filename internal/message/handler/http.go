package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"account-console/internal/httpjson"
	"account-console/internal/message/domain"
	"account-console/internal/message/repository"
)

// Handler serves the message list and accepts replies.
type Handler struct {
	repo repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

// NewHandler returns a new message handler. A nil logger disables logging.
func NewHandler(repo repository.Repository, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{repo: repo, log: log, now: time.Now}
}

// Register mounts the message routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/messages", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", h.Create).Methods(http.MethodPost)
}

// List returns all messages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error("list messages", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*domain.Message{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

type createRequest struct {
	AccountID    int64  `json:"account_id"`
	ListingTitle string `json:"listing_title"`
	Text         string `json:"text"`
}

// Create stores a reply sent by the company. Sender and timestamp are set server side.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID <= 0 {
		httpjson.Error(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if strings.TrimSpace(req.ListingTitle) == "" || strings.TrimSpace(req.Text) == "" {
		httpjson.Error(w, http.StatusBadRequest, "listing_title and text are required")
		return
	}

	m := &domain.Message{
		AccountID:    req.AccountID,
		ListingTitle: req.ListingTitle,
		Sender:       domain.SenderCompany,
		Text:         req.Text,
		Timestamp:    domain.FormatTimestamp(h.now()),
	}
	if err := h.repo.Create(r.Context(), m); err != nil {
		h.log.Error("create message", zap.Int64("account_id", m.AccountID), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusCreated, m)
}
