package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskboard-backend/internal/http/response"
	"github.com/yungbote/taskboard-backend/internal/services"
)

var errMissingActor = errors.New("authentication required")

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, token)
}
