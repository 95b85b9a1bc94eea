package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmap/api/internal/farcaster"
	"farmap/api/internal/middleware"
	"farmap/api/internal/models"
)

type userResponse struct {
	UserID       int64   `json:"userId"`
	Fid          int64   `json:"fid"`
	DisplayName  *string `json:"displayName"`
	DisplayImage *string `json:"displayImage"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		UserID:       user.ID,
		Fid:          user.Fid,
		DisplayName:  user.DisplayName,
		DisplayImage: user.DisplayImage,
	}
}

func (h HandlerSet) Nonce(c *gin.Context) {
	nonce, err := h.authService.BeginVerification(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

type siwfRequest struct {
	Nonce     string `json:"nonce" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Domain    string `json:"domain"`
}

func (h HandlerSet) SignInWithFarcaster(c *gin.Context) {
	var req siwfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	domain := req.Domain
	if domain == "" {
		domain = h.cfg.Farcaster.Domain
	}

	fid, err := h.authService.Verify(c.Request.Context(), farcaster.Credential{
		Nonce:     req.Nonce,
		Message:   req.Message,
		Signature: req.Signature,
		Domain:    domain,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.GetOrCreateByFid(c.Request.Context(), fid)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.authService.CreateSession(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.authService.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h HandlerSet) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// SignOut revokes the calling session only; other devices stay
// signed in.
func (h HandlerSet) SignOut(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), token); err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", h.cfg.Auth.CookieDomain, true, true)
}
