package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/domain/user"
	"github.com/yungbote/taskboard-backend/internal/http/response"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func userView(u *user.User) UserResponse { return UserView(u, 0) }

func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Email     string  `json:"email" binding:"required,email,max=255"`
		Username  string  `json:"username" binding:"required,notblank,max=50"`
		FullName  string  `json:"full_name" binding:"required,notblank,max=100"`
		Password  string  `json:"password" binding:"required,min=8,max=72"`
		Bio       *string `json:"bio" binding:"omitempty,max=500"`
		AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Create(c.Request.Context(), services.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FullName:  req.FullName,
		Password:  req.Password,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, 1)
	response.RespondCreated(c, UserView(u, 1))
}

// GetMe returns the authenticated caller.
func (h *UserHandler) GetMe(c *gin.Context) {
	id := ctxutil.ActorID(c.Request.Context())
	if id == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingActor)
		return
	}
	h.get(c, id.String())
}

func (h *UserHandler) Get(c *gin.Context) { h.get(c, c.Param("id")) }

func (h *UserHandler) get(c *gin.Context, id string) {
	u, version, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, version)
	response.RespondOK(c, UserView(u, version))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req struct {
		Email     *string `json:"email" binding:"omitempty,email,max=255"`
		Username  *string `json:"username" binding:"omitempty,notblank,max=50"`
		FullName  *string `json:"full_name" binding:"omitempty,notblank,max=100"`
		Password  *string `json:"password" binding:"omitempty,min=8,max=72"`
		Bio       *string `json:"bio" binding:"omitempty,max=500"`
		AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
		IsActive  *bool   `json:"is_active"`
		Version   int     `json:"version" binding:"omitempty,min=1"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	u, newVersion, err := h.users.Update(c.Request.Context(), c.Param("id"), services.UpdateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FullName:  req.FullName,
		Password:  req.Password,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
		IsActive:  req.IsActive,
		Version:   version,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, newVersion)
	response.RespondOK(c, UserView(u, newVersion))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (h *UserHandler) List(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	active, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	res, err := h.users.List(c.Request.Context(), services.UserListInput{IsActive: active, Page: page})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, mapPage(res, userView))
}

func (h *UserHandler) Productivity(c *gin.Context) {
	days, ok := intQuery(c, "days", 30)
	if !ok {
		return
	}
	res, err := h.users.Productivity(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *UserHandler) Workload(c *gin.Context) {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return
	}
	res, err := h.users.Workload(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *UserHandler) Suggestions(c *gin.Context) {
	res, err := h.users.Suggestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": res})
}

func (h *UserHandler) Timeline(c *gin.Context) {
	days, ok := intQuery(c, "days", 30)
	if !ok {
		return
	}
	res, err := h.users.Timeline(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"days": days, "activities": res})
}
