package app

import (
	"bytes"
	"compliance_training_backend/internal/config"
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/repository/testutil"
	"compliance_training_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	Errors  []util.FieldError `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

type loginData struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Mode: gin.TestMode},
		Storage: config.StorageConfig{
			ConnectTimeout:    time.Second,
			ProbeTimeout:      time.Second,
			ReconnectInterval: time.Hour,
		},
		JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpireTime: time.Hour},
		Assignment: config.AssignmentConfig{
			AdminIDs:          []string{"969631", "969632", "969634"},
			RestrictedID:      "969633",
			RestrictedModules: []string{"phishing", "harassment"},
			StandardModules: []string{
				"phishing", "password", "data", "incident", "internet",
				"role", "malware", "safety", "harassment",
			},
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, db *gorm.DB) *App {
	t.Helper()
	a := &App{Config: cfg}
	require.NoError(t, a.build(db))
	return a
}

func do(t *testing.T, a *App, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func login(t *testing.T, a *App, employeeID, email string) loginData {
	t.Helper()
	code, env := do(t, a, http.MethodPost, "/api/auth/login", gin.H{
		"fullName":   "Jane Doe",
		"email":      email,
		"employeeId": employeeID,
		"department": "Finance",
	}, "")
	require.Equal(t, http.StatusOK, code, env.Message)

	var data loginData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestTrainingFlow(t *testing.T) {
	a := newTestApp(t, testConfig(), testutil.DB(t))

	data := login(t, a, "969633", "timothy@example.com")
	assert.NotEmpty(t, data.Token)
	require.Len(t, data.User.AssignedModules, 2)

	code, env := do(t, a, http.MethodPut, "/api/users/969633/certificate", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindPreconditionFailed, env.Kind)

	for _, id := range []string{"phishing", "harassment"} {
		code, _ = do(t, a, http.MethodPut, "/api/users/969633/module/"+id+"/complete",
			gin.H{"score": 4, "totalQuestions": 5}, "")
		require.Equal(t, http.StatusOK, code)
	}

	code, env = do(t, a, http.MethodGet, "/api/users/969633/progress", nil, "")
	require.Equal(t, http.StatusOK, code)
	var progress model.Progress
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, 2, progress.CompletedModules)
	assert.Equal(t, 100, progress.ProgressPercentage)
	assert.Equal(t, 80, progress.OverallPercentage)
	assert.True(t, progress.TrainingCompleted)

	code, env = do(t, a, http.MethodPut, "/api/users/969633/certificate", nil, "")
	require.Equal(t, http.StatusOK, code)
	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.True(t, user.CertificateGenerated)
}

func TestLoginValidationErrors(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	code, env := do(t, a, http.MethodPost, "/api/auth/login", gin.H{
		"fullName":   "",
		"email":      "bad",
		"employeeId": "1",
		"department": "Finance",
	}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindValidationFailed, env.Kind)
	assert.NotEmpty(t, env.Errors)
}

func TestCompleteModuleErrors(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)
	login(t, a, "969633", "timothy@example.com")

	code, env := do(t, a, http.MethodPut, "/api/users/969633/module/phishing/complete", gin.H{"score": 1}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindValidationFailed, env.Kind)

	code, env = do(t, a, http.MethodPut, "/api/users/969633/module/password/complete",
		gin.H{"score": 1, "totalQuestions": 5}, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, util.KindNotAssigned, env.Kind)

	code, env = do(t, a, http.MethodPut, "/api/users/nobody/module/phishing/complete",
		gin.H{"score": 1, "totalQuestions": 5}, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.KindNotFound, env.Kind)
}

func TestModuleRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	code, env := do(t, a, http.MethodGet, "/api/modules/12345", nil, "")
	require.Equal(t, http.StatusOK, code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 9)
	assert.Equal(t, "phishing", views[0]["id"])

	code, env = do(t, a, http.MethodGet, "/api/modules/969633/password", nil, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, util.KindNotAssigned, env.Kind)

	code, _ = do(t, a, http.MethodGet, "/api/modules/969633/phishing", nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthReportsBackend(t *testing.T) {
	volatile := newTestApp(t, testConfig(), nil)
	_, env := do(t, volatile, http.MethodGet, "/health", nil, "")
	assert.Contains(t, string(env.Data), `"backend":"volatile"`)

	durable := newTestApp(t, testConfig(), testutil.DB(t))
	_, env = do(t, durable, http.MethodGet, "/api/health", nil, "")
	assert.Contains(t, string(env.Data), `"backend":"durable"`)
}

func TestRequireToken(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RequireToken = true
	a := newTestApp(t, cfg, nil)

	own := login(t, a, "12345", "jane@example.com")
	other := login(t, a, "555", "other@example.com")
	admin := login(t, a, "969631", "admin@example.com")

	code, _ := do(t, a, http.MethodGet, "/api/users/12345/progress", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, a, http.MethodGet, "/api/users/12345/progress", nil, other.Token)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, a, http.MethodGet, "/api/users/12345/progress", nil, own.Token)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, a, http.MethodGet, "/api/auth/user/12345", nil, admin.Token)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminEmailResults(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	user := login(t, a, "12345", "jane@example.com")
	admin := login(t, a, "969631", "admin@example.com")

	code, _ := do(t, a, http.MethodPost, "/api/users/12345/email-results",
		gin.H{"emailSent": true, "recipient": "hr@example.com"}, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, a, http.MethodGet, "/api/admin/email-results", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, a, http.MethodGet, "/api/admin/email-results", nil, user.Token)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, a, http.MethodGet, "/api/admin/email-results", nil, admin.Token)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestConfigReloadSwapsAssignmentRules(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	newCfg := testConfig()
	newCfg.Assignment.RestrictedID = "42"
	a.reloadConfig(newCfg)

	data := login(t, a, "42", "answer@example.com")
	assert.Len(t, data.User.AssignedModules, 2)

	// 规则无效时保留旧规则
	bad := testConfig()
	bad.Assignment.StandardModules = []string{"does-not-exist"}
	a.reloadConfig(bad)

	data = login(t, a, "43", "other@example.com")
	assert.Len(t, data.User.AssignedModules, 9)
}
