package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civic/internal/budget/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

// Service defines the participatory budgeting operations the handler exposes.
type Service interface {
	CreateCycle(ctx context.Context, req *models.CycleRequest) (*models.Cycle, error)
	GetCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error)
	ListCycles(ctx context.Context) ([]*models.Cycle, error)
	AdvanceCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error)
	Close(ctx context.Context, cycleID id.CycleID) (*models.Cycle, *models.Simulation, error)
	SubmitProposal(ctx context.Context, cycleID id.CycleID, req *models.ProposalRequest) (*models.Proposal, error)
	ReviewProposal(ctx context.Context, proposalID id.ProposalID, req *models.ReviewRequest) (*models.Proposal, error)
	GetProposal(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	ListProposals(ctx context.Context, cycleID id.CycleID) ([]*models.Proposal, error)
	Vote(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	Unvote(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	MyVotes(ctx context.Context, cycleID id.CycleID) ([]models.Vote, error)
	Simulate(ctx context.Context, cycleID id.CycleID) (*models.Simulation, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/budget/cycles", h.HandleListCycles)
	r.Get("/budget/cycles/{id}", h.HandleGetCycle)
	r.Get("/budget/cycles/{id}/proposals", h.HandleListProposals)
	r.Get("/budget/cycles/{id}/my-votes", h.HandleMyVotes)
	r.Get("/budget/cycles/{id}/simulation", h.HandleSimulate)
	r.Get("/budget/proposals/{id}", h.HandleGetProposal)

	r.Group(func(r chi.Router) {
		// Participation is for residents only.
		r.Use(authmw.RequireExactRole(id.RoleCitizen, h.logger))
		r.Post("/budget/cycles/{id}/proposals", h.HandleSubmitProposal)
		r.Post("/budget/proposals/{id}/vote", h.HandleVote)
		r.Delete("/budget/proposals/{id}/vote", h.HandleUnvote)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Post("/budget/cycles", h.HandleCreateCycle)
		r.Post("/budget/cycles/{id}/advance", h.HandleAdvance)
		r.Post("/budget/cycles/{id}/close", h.HandleClose)
		r.Post("/budget/proposals/{id}/review", h.HandleReview)
	})
}

func cycleID(r *http.Request) (id.CycleID, error) {
	return id.ParseCycleID(chi.URLParam(r, "id"))
}

func proposalID(r *http.Request) (id.ProposalID, error) {
	return id.ParseProposalID(chi.URLParam(r, "id"))
}

func (h *Handler) HandleCreateCycle(w http.ResponseWriter, r *http.Request) {
	var req models.CycleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.CreateCycle(r.Context(), &req)
	if err != nil {
		h.fail(r, "create cycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.service.ListCycles(r.Context())
	if err != nil {
		h.fail(r, "list cycles failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": cycles})
}

func (h *Handler) HandleGetCycle(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.GetCycle(r.Context(), cid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.AdvanceCycle(r.Context(), cid)
	if err != nil {
		h.fail(r, "advance cycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type closeResponse struct {
	Cycle  *models.Cycle      `json:"cycle"`
	Result *models.Simulation `json:"result"`
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, sim, err := h.service.Close(r.Context(), cid)
	if err != nil {
		h.fail(r, "close cycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, closeResponse{Cycle: c, Result: sim})
}

func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposals, err := h.service.ListProposals(r.Context(), cid)
	if err != nil {
		h.fail(r, "list proposals failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": proposals})
}

func (h *Handler) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ProposalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.SubmitProposal(r.Context(), cid, &req)
	if err != nil {
		h.fail(r, "submit proposal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetProposal(r.Context(), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.ReviewProposal(r.Context(), pid, &req)
	if err != nil {
		h.fail(r, "review proposal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	h.ballot(w, r, h.service.Vote)
}

func (h *Handler) HandleUnvote(w http.ResponseWriter, r *http.Request) {
	h.ballot(w, r, h.service.Unvote)
}

func (h *Handler) ballot(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.ProposalID) (*models.Proposal, error)) {
	pid, err := proposalID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := apply(r.Context(), pid)
	if err != nil {
		h.fail(r, "ballot change failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleMyVotes(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	votes, err := h.service.MyVotes(r.Context(), cid)
	if err != nil {
		h.fail(r, "list votes failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": votes})
}

func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	cid, err := cycleID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sim, err := h.service.Simulate(r.Context(), cid)
	if err != nil {
		h.fail(r, "simulate cycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sim)
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
