package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/common/node"
)

// NodeHandler serves the node catalog for the editor
type NodeHandler struct {
	registry *node.Registry
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(registry *node.Registry) *NodeHandler {
	return &NodeHandler{registry: registry}
}

// ListNodes returns catalog entries, optionally filtered by category, tag
// or a free-text query over id, display name and description.
// GET /api/v1/nodes?category=&tag=&q=
func (h *NodeHandler) ListNodes(c echo.Context) error {
	category := c.QueryParam("category")
	tag := c.QueryParam("tag")
	query := strings.ToLower(c.QueryParam("q"))

	entries := h.registry.Catalog()
	filtered := make([]node.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		if category != "" && entry.Category != category {
			continue
		}
		if tag != "" && !hasTag(entry.Tags, tag) {
			continue
		}
		if query != "" && !matchesQuery(entry, query) {
			continue
		}
		filtered = append(filtered, entry)
	}

	return c.JSON(http.StatusOK, map[string]any{"nodes": filtered})
}

// GetNode returns one full definition, schemas included
// GET /api/v1/nodes/:id
func (h *NodeHandler) GetNode(c echo.Context) error {
	def := h.registry.Get(c.Param("id"))
	if def == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown node type"})
	}
	return c.JSON(http.StatusOK, def)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func matchesQuery(entry node.CatalogEntry, query string) bool {
	return strings.Contains(strings.ToLower(entry.ID), query) ||
		strings.Contains(strings.ToLower(entry.DisplayName), query) ||
		strings.Contains(strings.ToLower(entry.Description), query)
}
