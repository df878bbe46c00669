package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civic/internal/billing/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

type Service interface {
	Issue(ctx context.Context, req *models.IssueRequest) (*models.Bill, error)
	List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Bill], error)
	Get(ctx context.Context, billID id.BillID) (*models.Bill, error)
	Quote(ctx context.Context, billID id.BillID) (*models.Quote, error)
	Pay(ctx context.Context, billID id.BillID, req *models.PayRequest) (*models.Payment, error)
	Cancel(ctx context.Context, billID id.BillID, reason string) (*models.Bill, error)
	ListPayments(ctx context.Context) ([]*models.Payment, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/bills", h.HandleList)
	r.Get("/bills/{id}", h.HandleGet)
	r.Get("/bills/{id}/quote", h.HandleQuote)
	r.Post("/bills/{id}/pay", h.HandlePay)
	r.Get("/payments", h.HandleListPayments)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Post("/bills", h.HandleIssue)
		r.Post("/bills/{id}/cancel", h.HandleCancel)
		r.Get("/billing/stats", h.HandleStats)
	})
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req models.IssueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.Issue(r.Context(), &req)
	if err != nil {
		h.fail(r, "issue bill failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		return models.Filter{}, err
	}
	filter := models.Filter{Page: page}
	q := r.URL.Query()
	if raw := q.Get("citizen_id"); raw != "" {
		if filter.CitizenID, err = id.ParseUserID(raw); err != nil {
			return models.Filter{}, err
		}
	}
	if raw := q.Get("status"); raw != "" {
		if filter.Status, err = models.ParseStatus(raw); err != nil {
			return models.Filter{}, err
		}
	}
	if raw := q.Get("overdue"); raw != "" {
		if filter.Overdue, err = strconv.ParseBool(raw); err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeBadRequest, "overdue must be true or false")
		}
	}
	return filter, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(r, "list bills failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	billID, err := id.ParseBillID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), billID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	billID, err := id.ParseBillID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q, err := h.service.Quote(r.Context(), billID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	billID, err := id.ParseBillID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.PayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	payment, err := h.service.Pay(r.Context(), billID, &req)
	if err != nil {
		h.fail(r, "payment failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	billID, err := id.ParseBillID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req cancelRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	b, err := h.service.Cancel(r.Context(), billID, req.Reason)
	if err != nil {
		h.fail(r, "cancel bill failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		h.fail(r, "list payments failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": payments})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(r, "billing stats failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) fail(r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
