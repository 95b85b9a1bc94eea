package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"farmap/api/internal/storage"
)

// SocialPreview returns the composed share image for an attachment,
// generating and caching it on first request.
func (h HandlerSet) SocialPreview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid attachment id")
		return
	}

	url, attachment, err := h.previews.GetOrGenerate(c.Request.Context(), id)
	if err != nil {
		// The source photo going missing means the attachment is no
		// longer servable, not that the caller sent a bad file ref.
		if errors.Is(err, storage.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment_not_found"})
			return
		}
		h.respondError(c, err)
		return
	}

	creator, err := h.users.GetByID(c.Request.Context(), attachment.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"attachment": toAttachmentResponse(attachment),
		"creator":    toUserResponse(creator),
	})
}
