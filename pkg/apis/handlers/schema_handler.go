package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pStore/pkg/apis/store/v1alpha1"
	"github.com/sukryu/pStore/pkg/controllers"
	"github.com/sukryu/pStore/pkg/errors"
)

type SchemaHandler struct {
	controller controllers.SchemaController
}

func NewSchemaHandler(controller controllers.SchemaController) *SchemaHandler {
	return &SchemaHandler{controller: controller}
}

func (h *SchemaHandler) CreateSchema(c *gin.Context) {
	var ts v1alpha1.TableSchema
	if err := c.ShouldBindJSON(&ts); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	result, err := h.controller.CreateSchema(c.Request.Context(), &ts)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *SchemaHandler) GetSchema(c *gin.Context) {
	result, err := h.controller.GetSchema(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	result, err := h.controller.ListSchemas(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
