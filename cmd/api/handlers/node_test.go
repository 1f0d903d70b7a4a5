package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
)

func testNodeHandler() *NodeHandler {
	log := logger.New("error", "json")
	registry := node.NewRegistry(log)
	nodes.RegisterAll(registry, nodes.Deps{Evaluator: condition.NewEvaluator()})
	return NewNodeHandler(registry)
}

func catalogRequest(t *testing.T, h *NodeHandler, query string) []node.CatalogEntry {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.ListNodes(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Nodes []node.CatalogEntry `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Nodes
}

func TestListNodes_All(t *testing.T) {
	h := testNodeHandler()

	entries := catalogRequest(t, h, "")
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	// http-request is absent: no HTTP client was provided.
	assert.ElementsMatch(t,
		[]string{"if-condition", "switch", "template", "expression", "log", "output"},
		ids)
}

func TestListNodes_FilterCategory(t *testing.T) {
	h := testNodeHandler()

	entries := catalogRequest(t, h, "?category=io")
	for _, e := range entries {
		assert.Equal(t, "io", e.Category)
	}
	assert.NotEmpty(t, entries)
}

func TestListNodes_FilterQuery(t *testing.T) {
	h := testNodeHandler()

	entries := catalogRequest(t, h, "?q=condition")
	require.Len(t, entries, 1)
	assert.Equal(t, "if-condition", entries[0].ID)
}

func TestGetNode(t *testing.T) {
	h := testNodeHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("template")

	require.NoError(t, h.GetNode(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var def node.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
	assert.Equal(t, "template", def.ID)
	assert.Contains(t, def.Params, "template")
}

func TestGetNode_Unknown(t *testing.T) {
	h := testNodeHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	require.NoError(t, h.GetNode(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
