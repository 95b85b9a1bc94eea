package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "error"
		h.log.Error().Err(err).Msg("database ping failed")
	}

	storageStatus := "ok"
	if err := h.store.EnsureBucket(ctx); err != nil {
		storageStatus = "error"
		h.log.Error().Err(err).Msg("object store check failed")
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Database:    dbStatus,
		Storage:     storageStatus,
		Environment: h.cfg.Environment,
	})
}
