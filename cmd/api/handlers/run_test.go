package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myuon/flowit-sub001/cmd/api/service"
	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
)

type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func testEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &echoValidator{validate: validator.New()}
	return e
}

func testRunHandler() *RunHandler {
	log := logger.New("error", "json")
	registry := node.NewRegistry(log)
	nodes.RegisterAll(registry, nodes.Deps{Evaluator: condition.NewEvaluator()})
	exec := executor.New(registry, log)
	return NewRunHandler(service.NewRunService(registry, exec, log))
}

func doJSON(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

const validWorkflow = `{
	"dslVersion": "v1",
	"meta": {"name": "greeting"},
	"nodes": [
		{
			"id": "tpl",
			"type": "template",
			"params": {"template": {"type": "static", "value": "Hello, workflow!"}}
		},
		{"id": "out", "type": "output", "label": "greeting"}
	],
	"edges": [
		{"id": "e1", "source": "tpl", "target": "out", "sourceHandle": "result", "targetHandle": "value"}
	]
}`

func TestValidate_Accepts(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	rec := doJSON(t, e, h.Validate, http.MethodPost, "/api/v1/validate",
		`{"workflow": `+validWorkflow+`}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.ValidateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)
}

func TestValidate_ReportsErrors(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	workflow := `{
		"dslVersion": "v2",
		"meta": {"name": "bad"},
		"nodes": [{"id": "a", "type": "no-such-type"}],
		"edges": [{"id": "e1", "source": "a", "target": "missing"}]
	}`
	rec := doJSON(t, e, h.Validate, http.MethodPost, "/api/v1/validate",
		`{"workflow": `+workflow+`}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.ValidateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Len(t, resp.Errors, 3)
}

func TestValidate_RequiresWorkflow(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	rec := doJSON(t, e, h.Validate, http.MethodPost, "/api/v1/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute_Success(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	body := `{"workflow": ` + validWorkflow + `}`
	rec := doJSON(t, e, h.Execute, http.MethodPost, "/api/v1/execute", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ExecutionID string         `json:"executionId"`
		Status      string         `json:"status"`
		Outputs     map[string]any `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.ExecutionID)

	greeting, ok := resp.Outputs["greeting"].(map[string]any)
	require.True(t, ok, "expected output under the node label, got %v", resp.Outputs)
	assert.Equal(t, "Hello, workflow!", greeting["value"])
}

func TestExecute_ValidationFailure(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	body := `{"workflow": {"dslVersion": "v1", "meta": {"name": ""}, "nodes": [], "edges": []}}`
	rec := doJSON(t, e, h.Execute, http.MethodPost, "/api/v1/execute", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp service.ValidateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
}

func TestExecute_RunFailure(t *testing.T) {
	e := testEcho()
	h := testRunHandler()

	// A secret parameter with no submitted secret fails the node.
	workflow := `{
		"dslVersion": "v1",
		"meta": {"name": "needs-secret"},
		"nodes": [
			{
				"id": "tpl",
				"type": "template",
				"params": {"template": {"type": "secret", "ref": "TEMPLATE"}}
			}
		],
		"edges": []
	}`
	rec := doJSON(t, e, h.Execute, http.MethodPost, "/api/v1/execute",
		`{"workflow": `+workflow+`}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "TEMPLATE")
}
