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

type PlanHandlersParams struct {
	fx.In

	PlanService *biz.PlanService
	Policy      *authz.Policy
}

func NewPlanHandlers(params PlanHandlersParams) *PlanHandlers {
	return &PlanHandlers{
		PlanService: params.PlanService,
		Policy:      params.Policy,
	}
}

type PlanHandlers struct {
	PlanService *biz.PlanService
	Policy      *authz.Policy
}

// GetActivePlan returns the account's active plan with its effective
// allocations (overrides applied).
func (h *PlanHandlers) GetActivePlan(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := h.Policy.RequireAccountAdmin(ctx)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	plan, err := h.PlanService.ActivePlan(ctx, accountID)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	allocations, err := h.PlanService.EffectiveAllocations(ctx, plan.ID)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":        plan,
		"allocations": allocations,
	})
}

type DistributeRequest struct {
	Total         int64    `json:"total"         binding:"required,gt=0"`
	OverflowLimit int64    `json:"overflowLimit" binding:"gte=0"`
	ScopeIDs      []string `json:"scopeIds"      binding:"required,min=1"`
}

// DistributeEqually splits a credit total evenly across scopes on the
// active plan. Remainder credits go to the first scopes, so the sum is
// always exact.
func (h *PlanHandlers) DistributeEqually(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := h.Policy.RequireAccountAdmin(ctx)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	plan, err := h.PlanService.ActivePlan(ctx, accountID)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	allocations, err := h.PlanService.DistributeEqually(ctx, plan, req.Total, req.OverflowLimit, req.ScopeIDs)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocations": allocations})
}

type RenewCycleRequest struct {
	AccountID          string    `json:"accountId"`
	PeriodStart        time.Time `json:"periodStart"        binding:"required"`
	PeriodEnd          time.Time `json:"periodEnd"          binding:"required"`
	InjectRolloverPool bool      `json:"injectRolloverPool"`
	CopyOverrides      bool      `json:"copyOverrides"`
}

// RenewCycle closes the current billing cycle and opens the next one.
// Account admins renew their own account; renewing another account
// requires super admin.
func (h *PlanHandlers) RenewCycle(c *gin.Context) {
	ctx := c.Request.Context()

	var req RenewCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if !req.PeriodEnd.After(req.PeriodStart) {
		JSONError(c, http.StatusBadRequest, errors.New("period end must be after period start"))
		return
	}

	accountID, adminErr := h.Policy.RequireAccountAdmin(ctx)

	target := req.AccountID
	if target == "" {
		if adminErr != nil {
			JSONDomainError(c, adminErr)
			return
		}

		target = accountID
	}

	if adminErr != nil || target != accountID {
		if err := h.Policy.RequireSuperAdmin(ctx); err != nil {
			JSONDomainError(c, err)
			return
		}
	}

	result, err := h.PlanService.RenewCycle(ctx, target, req.PeriodStart, req.PeriodEnd, biz.RenewOptions{
		InjectRolloverPool: req.InjectRolloverPool,
		CopyOverrides:      req.CopyOverrides,
	})
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"closedPlan": result.ClosedPlan,
		"newPlan":    result.NewPlan,
		"summary":    result.Summary,
	})
}
