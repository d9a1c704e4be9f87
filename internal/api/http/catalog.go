package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
)

// Catalog returns the structured catalog description
func (h *Handlers) Catalog(c *gin.Context) {
	data, err := h.catalog.Describe().JSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// CatalogPrompt returns the system prompt generators are given
func (h *Handlers) CatalogPrompt(c *gin.Context) {
	c.String(http.StatusOK, generator.SystemPrompt(h.catalog))
}

// CatalogSchema returns the JSON Schema of a whole element, or of one
// component's props when ?type= is set
func (h *Handlers) CatalogSchema(c *gin.Context) {
	typeName := c.Query("type")
	if typeName == "" {
		c.JSON(http.StatusOK, h.catalog.ElementSchema())
		return
	}

	schema, err := h.catalog.JSONSchema(typeName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schema)
}
