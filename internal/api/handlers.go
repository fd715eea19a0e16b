package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/verisci/internal/claim"
	"github.com/ppiankov/verisci/internal/ledger"
	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/store"
)

// Service is the evaluation surface the handlers need
type Service interface {
	Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error)
	Lookup(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error)
	LedgerEntry(ctx context.Context, id model.ClaimID) (*ledger.Entry, error)
}

// Handlers serves the claim endpoints
type Handlers struct {
	svc         Service
	inflight    singleflight.Group
	evalTimeout time.Duration
	version     string
	logger      *slog.Logger
}

// NewHandlers creates handlers over svc
func NewHandlers(svc Service, evalTimeout time.Duration, version string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if evalTimeout <= 0 {
		evalTimeout = 2 * time.Minute
	}
	return &Handlers{
		svc:         svc,
		evalTimeout: evalTimeout,
		version:     version,
		logger:      logger,
	}
}

// RegisterRoutes mounts the claim endpoints on a /v1 group
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.POST("/claims", h.HandleEvaluate)
	v1.GET("/claims/:id", h.HandleGet)
	v1.GET("/claims/:id/ledger", h.HandleLedger)
}

// HandleEvaluate evaluates a claim.
//
// Concurrent requests for the same claim identifier share one evaluation.
// The evaluation is detached from the request so a client disconnect does
// not degrade the verdict the other waiters receive.
//
//	200 OK: EvaluateResponse
//	400 Bad Request: missing or empty claim
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	id, err := claim.Identify(req.Claim)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_CLAIM",
		})
		return
	}

	v, err, shared := h.inflight.Do(string(id), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.evalTimeout)
		defer cancel()
		return h.svc.Evaluate(ctx, req.Claim)
	})
	if err != nil {
		var invalid *claim.InvalidClaimError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CLAIM"})
			return
		}
		h.logger.Error("evaluation failed", slog.String("claim_id", id.Short()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "evaluation failed", Code: "EVALUATION_FAILED"})
		return
	}

	result := v.(*model.EvaluationResult).Clone()
	c.JSON(http.StatusOK, EvaluateResponse{
		ClaimID: id,
		Result:  result,
		Shared:  shared,
	})
}

// HandleGet returns a stored verdict.
//
//	200 OK: EvaluateResponse
//	400 Bad Request: malformed identifier
//	404 Not Found: no verdict stored
func (h *Handlers) HandleGet(c *gin.Context) {
	id := model.ClaimID(c.Param("id"))
	if err := id.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CLAIM_ID"})
		return
	}

	result, err := h.svc.Lookup(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no verdict stored for claim", Code: "NOT_FOUND"})
			return
		}
		h.logger.Error("lookup failed", slog.String("claim_id", id.Short()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup failed", Code: "STORE_ERROR"})
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{ClaimID: id, Result: result})
}

// HandleLedger returns what the ledger holds for a claim.
//
//	200 OK: LedgerResponse
//	400 Bad Request: malformed identifier
//	404 Not Found: nothing submitted (always the case with the log-only port)
func (h *Handlers) HandleLedger(c *gin.Context) {
	id := model.ClaimID(c.Param("id"))
	if err := id.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CLAIM_ID"})
		return
	}

	entry, err := h.svc.LedgerEntry(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no ledger entry for claim", Code: "NOT_FOUND"})
			return
		}
		h.logger.Error("ledger fetch failed", slog.String("claim_id", id.Short()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "ledger fetch failed", Code: "LEDGER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, LedgerResponse{ClaimID: id, Entry: entry})
}

// HandleHealth reports liveness
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}
