package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type castActionRequest struct {
	UntrustedData struct {
		FrameURL    string `json:"frame_url"`
		ButtonIndex int    `json:"button_index"`
		CastID      struct {
			Fid  int64  `json:"fid"`
			Hash string `json:"hash"`
		} `json:"cast_id"`
	} `json:"untrustedData"`
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

// CastAction answers a Farcaster cast action with a frame URL that
// opens the mini app in upload context for the originating cast.
func (h HandlerSet) CastAction(c *gin.Context) {
	var req castActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	frameURL := fmt.Sprintf(
		"%s/upload?session=%s&cast_id=%s",
		h.cfg.FrameBaseURL, uuid.NewString(), req.UntrustedData.CastID.Hash,
	)

	c.JSON(http.StatusOK, gin.H{
		"type":     "frame",
		"frameUrl": frameURL,
	})
}
