package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/biz"
)

type AccessHandlersParams struct {
	fx.In

	AccessService *biz.AccessService
	Policy        *authz.Policy
}

func NewAccessHandlers(params AccessHandlersParams) *AccessHandlers {
	return &AccessHandlers{
		AccessService: params.AccessService,
		Policy:        params.Policy,
	}
}

type AccessHandlers struct {
	AccessService *biz.AccessService
	Policy        *authz.Policy
}

// GetEffectiveAccess computes the merged access for a user. Callers read
// their own access; reading another user's access requires account admin.
func (h *AccessHandlers) GetEffectiveAccess(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := authz.CurrentAccountID(ctx)
	if !ok {
		JSONError(c, http.StatusForbidden, errors.New("access denied"))
		return
	}

	actor := authz.MustGetActor(ctx)

	userID := c.Query("user_id")
	if userID == "" {
		userID = actor.Subject
	}

	if userID != actor.Subject {
		if _, err := h.Policy.RequireAccountAdmin(ctx); err != nil {
			JSONDomainError(c, err)
			return
		}
	}

	access, err := h.AccessService.Compute(ctx, accountID, userID)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, access)
}
