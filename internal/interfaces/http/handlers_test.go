package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/workflow"
	"github.com/garyjia/po-workflow/internal/domain/authz"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/po-workflow/migrations"
	"github.com/garyjia/po-workflow/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "http.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), migrations.FS))

	txDB := sqlite.NewDB(db.DB, logger)
	store := repository.NewMachineStore(
		repository.NewStateRepository(txDB, logger),
		repository.NewHistoryRepository(txDB, logger),
		txDB,
		logger,
	)

	manager := workflow.NewManager(store, authz.New(authz.DefaultConfig()), logger)
	require.NoError(t, manager.Register(workflow.PurchaseOrderDefinition(), nil))
	require.NoError(t, manager.Register(workflow.ExecutionDefinition(), nil))

	return NewServer(DefaultServerConfig(), manager, logger.Sugar()).Router()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, router *gin.Engine, method, path, role string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(RoleHeader, role)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func createPO(t *testing.T, router *gin.Engine) WorkflowResponse {
	t.Helper()
	code, env := do(t, router, http.MethodPost, "/api/v1/workflows", "", CreateWorkflowRequest{Type: workflow.TypePurchaseOrder})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var wf WorkflowResponse
	require.NoError(t, json.Unmarshal(env.Data, &wf))
	return wf
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestCreateAndGetWorkflow(t *testing.T) {
	router := newTestRouter(t)

	wf := createPO(t, router)
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, "Created", wf.State)
	assert.Equal(t, []string{"Cancel", "Submit"}, wf.PermittedTriggers)

	code, env := do(t, router, http.MethodGet, "/api/v1/workflows/"+wf.ID+"?type=purchase_order", "", nil)
	require.Equal(t, http.StatusOK, code)

	var got WorkflowResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, wf.ID, got.ID)
	assert.Equal(t, "Created", got.State)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []string{"Cancel", "Submit"}, got.PermittedTriggers)
}

func TestCreateWorkflow_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	code, _ := do(t, router, http.MethodPost, "/api/v1/workflows", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := do(t, router, http.MethodPost, "/api/v1/workflows", "", CreateWorkflowRequest{Type: "supplier_onboarding"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "unknown workflow type")
}

func TestGetWorkflow_NotFound(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/api/v1/workflows/unknown", "", nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestFireTrigger_StatusCodes(t *testing.T) {
	router := newTestRouter(t)
	wf := createPO(t, router)
	path := "/api/v1/workflows/" + wf.ID + "/fire"

	tests := []struct {
		name     string
		role     string
		body     FireRequest
		wantCode int
	}{
		{"missing role", "", FireRequest{Type: workflow.TypePurchaseOrder, Trigger: "Submit"}, http.StatusUnauthorized},
		{"undefined transition", "Administrator", FireRequest{Type: workflow.TypePurchaseOrder, Trigger: "Approve"}, http.StatusConflict},
		{"unauthorized role", "Receiver", FireRequest{Type: workflow.TypePurchaseOrder, Trigger: "Submit"}, http.StatusForbidden},
		{"unknown workflow type", "Requester", FireRequest{Type: "nope", Trigger: "Submit"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, router, http.MethodPost, path, tt.role, tt.body)
			assert.Equal(t, tt.wantCode, code, env.Error)
			assert.False(t, env.Success)
		})
	}

	code, _ := do(t, router, http.MethodPost, "/api/v1/workflows/missing/fire", "Administrator",
		FireRequest{Type: workflow.TypePurchaseOrder, Trigger: "Submit"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFireTrigger_LifecycleAndHistory(t *testing.T) {
	router := newTestRouter(t)
	wf := createPO(t, router)
	path := "/api/v1/workflows/" + wf.ID + "/fire"

	steps := []struct {
		role    string
		trigger string
		want    string
	}{
		{"Requester", "Submit", "PendingApproval"},
		{"Approver", "Approve", "Approved"},
		{"Purchaser", "PlaceOrder", "Ordered"},
		{"Receiver", "ReceiveGoods", "Received"},
		{"Purchaser", "Close", "Completed"},
	}

	for i, step := range steps {
		code, env := do(t, router, http.MethodPost, path, step.role, FireRequest{
			Type:       workflow.TypePurchaseOrder,
			Trigger:    step.trigger,
			EntityType: authz.EntityPurchaseOrder,
		})
		require.Equal(t, http.StatusOK, code, "step %d: %s", i, env.Error)

		var resp FireResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, step.want, resp.Workflow.State)
		assert.Equal(t, int64(i+1), resp.Transition.Sequence)
		assert.Equal(t, step.trigger, resp.Transition.Trigger)
	}

	code, env := do(t, router, http.MethodGet, "/api/v1/workflows/"+wf.ID+"/history", "", nil)
	require.Equal(t, http.StatusOK, code)

	var history []TransitionResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, len(steps))
	assert.Equal(t, "Created", history[0].From)
	assert.Equal(t, "Completed", history[len(history)-1].To)

	code, env = do(t, router, http.MethodGet, "/api/v1/workflows/"+wf.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var got WorkflowResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Terminal)
	assert.NotNil(t, got.LastTransition)
}

func TestGetHistory_NotFound(t *testing.T) {
	router := newTestRouter(t)

	code, _ := do(t, router, http.MethodGet, "/api/v1/workflows/unknown/history", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
