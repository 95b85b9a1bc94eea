package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"farmap/api/internal/background"
	"farmap/api/internal/config"
	"farmap/api/internal/farcaster"
	"farmap/api/internal/middleware"
	"farmap/api/internal/preview"
	"farmap/api/internal/repository"
	"farmap/api/internal/service"
	"farmap/api/internal/storage"
)

// ObjectBroker is the storage surface the API layer needs: the photo
// broker operations plus the health probe.
type ObjectBroker interface {
	service.FileStore
	EnsureBucket(ctx context.Context) error
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *sql.DB
	store       ObjectBroker
	authService *service.AuthService
	users       *service.UserService
	attachments *service.AttachmentService
	previews    *service.PreviewService
}

func NewHandlerSet(
	log zerolog.Logger,
	db *sql.DB,
	store ObjectBroker,
	verifier farcaster.Verifier,
	hub service.ProfileSource,
	maps preview.MapFetcher,
	runner background.Runner,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	nonceRepo := repository.NewNonceRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	auth := service.NewAuthService(nonceRepo, sessionRepo, verifier, cfg.Auth.SessionTTL, cfg.Auth.NonceTTL, log)
	users := service.NewUserService(userRepo, hub, runner, log)
	attachments := service.NewAttachmentService(attachmentRepo, store, runner, log)
	previews := service.NewPreviewService(attachmentRepo, store, maps, runner, cfg.Preview, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		store:       store,
		authService: auth,
		users:       users,
		attachments: attachments,
		previews:    previews,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.GET("/nonce", h.Nonce)
	auth.POST("/siwf", h.SignInWithFarcaster)

	authed := auth.Group("")
	authed.Use(middleware.Auth(h.authService))
	authed.GET("/me", h.Me)
	authed.POST("/signout", h.SignOut)

	attachments := router.Group("/attachments")
	attachments.GET("/all", h.AllAttachments)
	attachments.GET("/ids", h.AttachmentsByIDs)
	attachments.GET("/query", h.QueryAttachments)
	attachments.GET("/social-preview/:id", h.SocialPreview)
	attachments.GET("/:id", h.AttachmentByID)

	protected := router.Group("/attachments")
	protected.Use(middleware.Auth(h.authService))
	protected.POST("/file", h.RequestUpload)
	protected.POST("", h.AttachPhoto)
	protected.GET("/me", h.MyAttachments)
	protected.DELETE("/:id", h.DeleteAttachment)

	router.POST("/cast-action", h.CastAction)
}

// respondError is the single place component failures become wire
// statuses. Components never carry HTTP semantics themselves.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment_not_found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, storage.ErrFileNotFound):
		// The missing file is an input reference here, not a resource.
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_not_found"})
	case errors.Is(err, repository.ErrInvalidOrExpiredNonce):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_or_expired_nonce"})
	case errors.Is(err, farcaster.ErrVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
	case errors.Is(err, service.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
