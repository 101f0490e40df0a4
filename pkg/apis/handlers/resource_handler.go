package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/pkg/controllers"
	"github.com/sukryu/pStore/pkg/errors"
)

type ResourceHandler struct {
	controller controllers.ResourceController
}

func NewResourceHandler(controller controllers.ResourceController) *ResourceHandler {
	return &ResourceHandler{controller: controller}
}

func (h *ResourceHandler) ListResources(c *gin.Context) {
	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	result, err := h.controller.List(c.Request.Context(), c.Param("table"), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": result})
}

func (h *ResourceHandler) GetResource(c *gin.Context) {
	result, err := h.controller.Get(c.Request.Context(), c.Param("table"), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var res entity.Resource
	if err := c.ShouldBindJSON(&res); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	result, err := h.controller.Create(c.Request.Context(), c.Param("table"), res)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	var res entity.Resource
	if err := c.ShouldBindJSON(&res); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	result, err := h.controller.Update(c.Request.Context(), c.Param("table"), c.Param("id"), res)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	if err := h.controller.Delete(c.Request.Context(), c.Param("table"), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReplaceChildren swaps out the complete child-row set of a parent row.
func (h *ResourceHandler) ReplaceChildren(c *gin.Context) {
	var items []entity.Resource
	if err := c.ShouldBindJSON(&items); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	result, err := h.controller.Replace(c.Request.Context(),
		c.Param("child"), c.Param("table"), c.Param("id"), items)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": result})
}
