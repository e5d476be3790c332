package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"account-console/internal/httpjson"
	"account-console/internal/loginjob/domain"
	"account-console/internal/loginjob/service"
)

// Service is the subset of the login job service used by the handler.
type Service interface {
	Start(ctx context.Context, req service.StartRequest) (*service.StartResult, error)
	Latest(ctx context.Context, accountID int64) (*domain.Job, error)
}

// Handler serves POST /api/login and GET /api/login-jobs/{account_id}.
type Handler struct {
	svc Service
	log *zap.Logger
}

// NewHandler returns a new login job handler. A nil logger disables logging.
func NewHandler(svc Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts the login routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/login", h.Start).Methods(http.MethodPost)
	r.HandleFunc("/api/login-jobs/{account_id}", h.Status).Methods(http.MethodGet)
}

// accountIDParam accepts a JSON number or a numeric string.
type accountIDParam struct {
	set   bool
	value int64
}

func (p *accountIDParam) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := parseAccountID(s)
	if err != nil {
		return err
	}
	p.set, p.value = true, v
	return nil
}

type startRequest struct {
	AccountID  accountIDParam `json:"account_id"`
	Proxy      string         `json:"proxy"`
	IOSProfile string         `json:"ios_profile"`
	Label      string         `json:"label"`
}

type startResponse struct {
	Status    string `json:"status"`
	AccountID int64  `json:"account_id"`
	JobID     string `json:"job_id"`
	LoginURL  string `json:"login_url"`
}

// JobView is the JSON form of a job.
type JobView struct {
	JobID      string     `json:"job_id"`
	AccountID  int64      `json:"account_id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Error      *string    `json:"error"`
}

// Start starts a login job for an existing or a new account.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	sreq := service.StartRequest{Proxy: req.Proxy, IOSProfile: req.IOSProfile, Label: req.Label}
	if req.AccountID.set {
		id := req.AccountID.value
		sreq.AccountID = &id
	}

	res, err := h.svc.Start(r.Context(), sreq)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, startResponse{
		Status:    "started",
		AccountID: res.Account.ID,
		JobID:     res.Job.ID,
		LoginURL:  res.LoginURL,
	})
}

// Status returns the newest job of the account.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(mux.Vars(r)["account_id"])
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := h.svc.Latest(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toView(job))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrJobNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLoginActive):
		httpjson.Error(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("login request failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toView(j *domain.Job) JobView {
	v := JobView{
		JobID:      j.ID,
		AccountID:  j.AccountID,
		Status:     j.Status,
		StartedAt:  j.StartedAt.UTC(),
		FinishedAt: j.FinishedAt,
	}
	if j.Error != "" {
		e := j.Error
		v.Error = &e
	}
	return v
}

func parseAccountID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid account_id %q", s)
	}
	return v, nil
}
