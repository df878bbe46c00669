package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
)

const maxAuditLimit = 500

// AuditReader is the read side of the audit publisher.
type AuditReader interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditHandler serves the audit trail to administrators.
type AuditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

func NewAuditHandler(reader AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Get("/admin/audit", h.HandleList)
	})
}

// HandleList returns events for ?user_id= or the most recent ?limit= events.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []audit.Event
		err   error
	)
	if raw := q.Get("user_id"); raw != "" {
		userID, perr := id.ParseUserID(raw)
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		items, err = h.reader.List(r.Context(), userID)
	} else {
		limit := 100
		if raw := q.Get("limit"); raw != "" {
			n, perr := strconv.Atoi(raw)
			if perr != nil || n <= 0 || n > maxAuditLimit {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
				return
			}
			limit = n
		}
		items, err = h.reader.Recent(r.Context(), limit)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list audit events failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if items == nil {
		items = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
