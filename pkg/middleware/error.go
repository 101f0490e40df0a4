package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pStore/pkg/errors"
)

// ErrorMiddleware translates the store's error taxonomy to HTTP
// responses so handlers stay free of per-entity error logic.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log.Printf("Error: %v", err)

		switch e := err.(type) {
		case *errors.ValidationError:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    http.StatusBadRequest,
					"message": "validation failed",
					"errors":  e.Fields,
				},
			})
		case *errors.NotFoundError:
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    http.StatusNotFound,
					"message": e.Message,
				},
			})
		case *errors.DuplicateError:
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    http.StatusConflict,
					"message": e.Error(),
					"id":      e.ID,
				},
			})
		case *errors.ConfigError:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    http.StatusInternalServerError,
					"message": e.Message,
				},
			})
		case *errors.StatusError:
			response := gin.H{
				"code":    e.Code,
				"message": e.Message,
			}
			if e.Reason != "" {
				response["reason"] = e.Reason
			}
			if e.RetryAfter > 0 {
				response["retryAfter"] = e.RetryAfter
			}
			c.JSON(e.Code, gin.H{"error": response})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    http.StatusInternalServerError,
					"message": "Internal server error",
				},
			})
		}
	}
}
