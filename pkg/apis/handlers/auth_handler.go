package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/sukryu/pStore/pkg/errors"
	"github.com/sukryu/pStore/pkg/utils/jwt"
)

// AuthHandler issues API tokens for the configured admin account.
type AuthHandler struct {
	jwtManager   *jwt.JWTManager
	adminUser    string
	passwordHash string
}

func NewAuthHandler(jwtManager *jwt.JWTManager, adminUser, passwordHash string) *AuthHandler {
	return &AuthHandler{
		jwtManager:   jwtManager,
		adminUser:    adminUser,
		passwordHash: passwordHash,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	if req.Username != h.adminUser {
		c.Error(errors.ErrInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		c.Error(errors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, []string{"admin"})
	if err != nil {
		c.Error(errors.ErrInternal.WithReason("failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token})
}
