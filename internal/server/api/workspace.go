package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tenonhq/tenon/internal/server/db"
	"github.com/tenonhq/tenon/internal/tenancy"
)

type WorkspaceHandlersParams struct {
	fx.In

	Workspaces *tenancy.Repository[db.Workspace]
}

func NewWorkspaceHandlers(params WorkspaceHandlersParams) *WorkspaceHandlers {
	return &WorkspaceHandlers{Workspaces: params.Workspaces}
}

type WorkspaceHandlers struct {
	Workspaces *tenancy.Repository[db.Workspace]
}

// ListWorkspaces lists the caller's workspaces. Scoping happens inside the
// repository; a tenant caller only ever sees their own rows.
func (h *WorkspaceHandlers) ListWorkspaces(c *gin.Context) {
	workspaces, err := h.Workspaces.List(c.Request.Context(), nil)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetWorkspace fetches one workspace by id, or 404 when it is outside the
// caller's scope.
func (h *WorkspaceHandlers) GetWorkspace(c *gin.Context) {
	workspace, err := h.Workspaces.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, workspace)
}

type WorkspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateWorkspace creates a workspace stamped with the caller's account.
func (h *WorkspaceHandlers) CreateWorkspace(c *gin.Context) {
	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	workspace := &db.Workspace{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.Workspaces.Create(c.Request.Context(), workspace); err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workspace)
}

// UpdateWorkspace updates a workspace. The scoped read establishes the row
// is visible to the caller before the id-keyed write.
func (h *WorkspaceHandlers) UpdateWorkspace(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if _, err := h.Workspaces.MustGetByID(ctx, id); err != nil {
		JSONDomainError(c, err)
		return
	}

	err := h.Workspaces.UpdateByID(ctx, id, map[string]any{
		"name":        req.Name,
		"description": req.Description,
	})
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	workspace, err := h.Workspaces.GetByID(ctx, id)
	if err != nil {
		JSONDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, workspace)
}

// DeleteWorkspace deletes a workspace after a scoped visibility check.
func (h *WorkspaceHandlers) DeleteWorkspace(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.Workspaces.MustGetByID(ctx, id); err != nil {
		JSONDomainError(c, err)
		return
	}

	if err := h.Workspaces.DeleteByID(ctx, id); err != nil {
		JSONDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
