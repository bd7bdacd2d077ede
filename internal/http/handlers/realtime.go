package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/http/response"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/realtime"
	"github.com/yungbote/taskboard-backend/internal/services"
)

// RealtimeHandler serves server-sent event streams of domain changes.
type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.Hub
	projects services.ProjectService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, projects services.ProjectService) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, projects: projects}
}

// ProjectStream streams task and project events for one project.
func (h *RealtimeHandler) ProjectStream(c *gin.Context) {
	p, _, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	h.stream(c, ctxutil.ActorID(c.Request.Context()), realtime.ProjectChannel(p.ID().String()))
}

// UserStream streams events about the caller's own account and memberships.
func (h *RealtimeHandler) UserStream(c *gin.Context) {
	id := ctxutil.ActorID(c.Request.Context())
	if id == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingActor)
		return
	}
	h.stream(c, id, realtime.UserChannel(id.String()))
}

func (h *RealtimeHandler) stream(c *gin.Context, userID uuid.UUID, channel string) {
	client := h.hub.NewClient(userID)
	h.hub.Subscribe(client, channel)
	defer h.hub.Close(client)
	h.log.Debug("realtime stream open", "client_id", client.ID, "channel", channel)
	h.hub.Serve(c.Writer, c.Request, client)
}
