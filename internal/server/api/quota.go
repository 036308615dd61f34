package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/biz"
)

type QuotaHandlersParams struct {
	fx.In

	QuotaService *biz.QuotaService
	Policy       *authz.Policy
}

func NewQuotaHandlers(params QuotaHandlersParams) *QuotaHandlers {
	return &QuotaHandlers{
		QuotaService: params.QuotaService,
		Policy:       params.Policy,
	}
}

type QuotaHandlers struct {
	QuotaService *biz.QuotaService
	Policy       *authz.Policy
}

func (h *QuotaHandlers) accountID(c *gin.Context) (string, bool) {
	accountID, ok := authz.CurrentAccountID(c.Request.Context())
	if !ok {
		JSONError(c, http.StatusForbidden, errors.New("access denied"))
		return "", false
	}

	return accountID, true
}

// GetBalance returns the current-period balance for one unit.
func (h *QuotaHandlers) GetBalance(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	unit := c.Query("unit")
	if unit == "" {
		JSONError(c, http.StatusBadRequest, errors.New("unit is required"))
		return
	}

	balance, err := h.QuotaService.Balance(c.Request.Context(), accountID, unit)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

type CheckQuotaRequest struct {
	Unit   string `json:"unit"   binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// CheckQuota reports whether a deduction would succeed, without mutating
// anything. The answer is advisory; Deduct re-checks atomically.
func (h *QuotaHandlers) CheckQuota(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	var req CheckQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	result, err := h.QuotaService.Check(c.Request.Context(), accountID, req.Unit, req.Amount)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type DeductQuotaRequest struct {
	Unit   string `json:"unit"   binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// DeductQuota consumes quota, spilling into overflow when the included
// pool runs out. All-or-nothing; a 429 means nothing was consumed.
func (h *QuotaHandlers) DeductQuota(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	var req DeductQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	ctx := c.Request.Context()

	if err := h.QuotaService.Deduct(ctx, accountID, req.Unit, req.Amount); err != nil {
		JSONDomainError(c, err)
		return
	}

	balance, err := h.QuotaService.Balance(ctx, accountID, req.Unit)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

type ResetQuotaRequest struct {
	QuotaID     string    `json:"quotaId"     binding:"required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd"   binding:"required"`
}

// ResetQuota starts a new quota period, applying rollover when enabled.
// Account admin only.
func (h *QuotaHandlers) ResetQuota(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := h.Policy.RequireAccountAdmin(ctx)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	var req ResetQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if !req.PeriodEnd.After(req.PeriodStart) {
		JSONError(c, http.StatusBadRequest, errors.New("period end must be after period start"))
		return
	}

	if err := h.QuotaService.Reset(ctx, accountID, req.QuotaID, req.PeriodStart, req.PeriodEnd); err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
