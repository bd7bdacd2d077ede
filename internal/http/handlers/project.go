package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskboard-backend/internal/domain/project"
	"github.com/yungbote/taskboard-backend/internal/http/response"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
	reports  services.ReportService
}

func NewProjectHandler(projects services.ProjectService, reports services.ReportService) *ProjectHandler {
	return &ProjectHandler{projects: projects, reports: reports}
}

func projectView(p *project.Project) ProjectResponse { return ProjectView(p, 0) }

func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,notblank,max=100"`
		Description string `json:"description" binding:"required,max=2000"`
		OwnerID     string `json:"owner_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projects.Create(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, 1)
	response.RespondCreated(c, ProjectView(p, 1))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, version, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, version)
	response.RespondOK(c, ProjectView(p, version))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req struct {
		Name        *string `json:"name" binding:"omitempty,notblank,max=100"`
		Description *string `json:"description" binding:"omitempty,max=2000"`
		Status      *string `json:"status" binding:"omitempty,project_status"`
		Version     int     `json:"version" binding:"omitempty,min=1"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	p, newVersion, err := h.projects.Update(c.Request.Context(), c.Param("id"), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Version:     version,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, newVersion)
	response.RespondOK(c, ProjectView(p, newVersion))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (h *ProjectHandler) List(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	res, err := h.projects.List(c.Request.Context(), services.ProjectListInput{
		OwnerID:  c.Query("owner_id"),
		MemberID: c.Query("member_id"),
		Status:   c.Query("status"),
		Page:     page,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, mapPage(res, projectView))
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projects.AddMember(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, projectView(p))
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	p, err := h.projects.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, projectView(p))
}

func (h *ProjectHandler) TransferOwnership(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, version, err := h.projects.TransferOwnership(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	setETag(c, version)
	response.RespondOK(c, ProjectView(p, version))
}

func (h *ProjectHandler) Health(c *gin.Context) {
	res, err := h.projects.Health(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProjectHandler) Velocity(c *gin.Context) {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return
	}
	res, err := h.projects.Velocity(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProjectHandler) Burndown(c *gin.Context) {
	days, ok := intQuery(c, "days", 30)
	if !ok {
		return
	}
	res, err := h.projects.Burndown(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project_id": c.Param("id"), "days": days, "points": res})
}

func (h *ProjectHandler) CompletionCheck(c *gin.Context) {
	res, err := h.projects.CompletionCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProjectHandler) Suggestions(c *gin.Context) {
	res, err := h.projects.Suggestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": res})
}

func (h *ProjectHandler) Bottlenecks(c *gin.Context) {
	res, err := h.projects.Bottlenecks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bottlenecks": res})
}

func (h *ProjectHandler) TeamSummary(c *gin.Context) {
	res, err := h.projects.TeamSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProjectHandler) Workload(c *gin.Context) {
	res, err := h.projects.Workload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project_id": c.Param("id"), "members": res})
}

func (h *ProjectHandler) Overview(c *gin.Context) {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return
	}
	res, err := h.reports.ProjectOverview(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}
