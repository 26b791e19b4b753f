package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"mediabatch/config"
	"mediabatch/task"
)

type Handler struct {
	runner   *task.Runner
	store    *SessionStore
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewHandler(runner *task.Runner, store *SessionStore, cfg *config.Config) *Handler {
	return &Handler{
		runner: runner,
		store:  store,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			// Local tool, any origin may subscribe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handleCreateBatch validates the request and starts the run on its own
// goroutine so the caller is never blocked.
func (h *Handler) handleCreateBatch(c *gin.Context) {
	var req task.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.store.Create()
	log.Info().Str("session", s.ID).Str("task", req.TaskID).Msg("batch submitted")
	go h.runner.Run(context.Background(), req, s)

	c.JSON(http.StatusAccepted, gin.H{"sessionId": s.ID})
}

func (h *Handler) handleListBatches(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h *Handler) handleGetBatch(c *gin.Context) {
	s, found := h.store.Get(c.Param("sessionId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// handleEvents upgrades to a websocket, replays the session's buffered
// events, and streams the rest live.
func (h *Handler) handleEvents(c *gin.Context) {
	s, found := h.store.Get(c.Param("sessionId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.Subscribe(conn)
}

func (h *Handler) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, task.Catalog())
}
