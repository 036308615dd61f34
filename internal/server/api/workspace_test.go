package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/db"
	"github.com/tenonhq/tenon/internal/tenancy"
)

func newWorkspaceRouter(client *gorm.DB, actor authz.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handlers := NewWorkspaceHandlers(WorkspaceHandlersParams{
		Workspaces: tenancy.NewRepository[db.Workspace](client, tenancy.KindWorkspace),
	})

	router := gin.New()
	router.Use(withTestActor(actor))
	router.GET("/workspaces", handlers.ListWorkspaces)
	router.POST("/workspaces", handlers.CreateWorkspace)
	router.GET("/workspaces/:id", handlers.GetWorkspace)
	router.PUT("/workspaces/:id", handlers.UpdateWorkspace)
	router.DELETE("/workspaces/:id", handlers.DeleteWorkspace)

	return router
}

func seedWorkspace(t *testing.T, client *gorm.DB, accountID, name string) *db.Workspace {
	t.Helper()

	workspace := &db.Workspace{Name: name}
	workspace.AccountID = accountID
	require.NoError(t, client.Create(workspace).Error)

	return workspace
}

func TestWorkspaceHandlers_CreateStampsAccount(t *testing.T) {
	client := newTestDB(t)
	router := newWorkspaceRouter(client, tenantActor("acc-1", false))

	body, _ := json.Marshal(WorkspaceRequest{Name: "main", Description: "primary"})
	req := httptest.NewRequest(http.MethodPost, "/workspaces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created db.Workspace
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "acc-1", created.AccountID)
	require.NotEmpty(t, created.ID)
}

func TestWorkspaceHandlers_ListIsScoped(t *testing.T) {
	client := newTestDB(t)

	seedWorkspace(t, client, "acc-1", "mine")
	seedWorkspace(t, client, "acc-2", "theirs")

	router := newWorkspaceRouter(client, tenantActor("acc-1", false))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workspaces", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Workspaces []db.Workspace `json:"workspaces"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Workspaces, 1)
	require.Equal(t, "mine", resp.Workspaces[0].Name)
}

func TestWorkspaceHandlers_ForeignRowIs404(t *testing.T) {
	client := newTestDB(t)

	foreign := seedWorkspace(t, client, "acc-2", "theirs")

	router := newWorkspaceRouter(client, tenantActor("acc-1", false))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workspaces/"+foreign.ID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	// Same for delete: the visibility check fires before the write.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/workspaces/"+foreign.ID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, client.Model(&db.Workspace{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestWorkspaceHandlers_Update(t *testing.T) {
	client := newTestDB(t)

	workspace := seedWorkspace(t, client, "acc-1", "before")

	router := newWorkspaceRouter(client, tenantActor("acc-1", false))

	body, _ := json.Marshal(WorkspaceRequest{Name: "after", Description: "renamed"})
	req := httptest.NewRequest(http.MethodPut, "/workspaces/"+workspace.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated db.Workspace
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "after", updated.Name)
	require.Equal(t, "renamed", updated.Description)
}
