package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"farmap/api/internal/middleware"
	"farmap/api/internal/models"
	"farmap/api/internal/repository"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type positionPayload struct {
	Lat  *float64 `json:"lat" binding:"required"`
	Long *float64 `json:"long" binding:"required"`
}

type attachmentResponse struct {
	ID         int64           `json:"id"`
	Position   models.Position `json:"position"`
	FileURL    string          `json:"fileUrl"`
	FileType   string          `json:"fileType"`
	PreviewURL *string         `json:"previewUrl,omitempty"`
	CreatorID  int64           `json:"creatorId"`
}

type attachmentPageResponse struct {
	Attachments []attachmentResponse `json:"attachments"`
	NextCursor  *string              `json:"nextCursor,omitempty"`
	TotalCount  int                  `json:"totalCount"`
}

func toAttachmentResponse(attachment models.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:         attachment.ID,
		Position:   attachment.Position(),
		FileURL:    attachment.FileURL,
		FileType:   attachment.FileType,
		PreviewURL: attachment.PreviewURL,
		CreatorID:  attachment.UserID,
	}
}

func toAttachmentPage(page repository.AttachmentPage) attachmentPageResponse {
	resp := attachmentPageResponse{
		Attachments: make([]attachmentResponse, 0, len(page.Attachments)),
		TotalCount:  page.TotalCount,
	}
	for _, attachment := range page.Attachments {
		resp.Attachments = append(resp.Attachments, toAttachmentResponse(attachment))
	}
	if page.NextCursor != nil {
		cursor := strconv.FormatInt(*page.NextCursor, 10)
		resp.NextCursor = &cursor
	}
	return resp
}

type uploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

func (h HandlerSet) RequestUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	handle, err := h.attachments.RequestUpload(c.Request.Context(), req.Filename, req.ContentType, req.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signedUrl": handle.SignedURL,
		"fileId":    handle.FileID,
	})
}

type attachRequest struct {
	Position positionPayload `json:"position" binding:"required"`
	FileID   string          `json:"fileId" binding:"required"`
	FileType string          `json:"fileType" binding:"required"`
}

func (h HandlerSet) AttachPhoto(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}

	var req attachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	position := models.Position{Lat: *req.Position.Lat, Long: *req.Position.Long}
	if !validPosition(position) {
		badRequest(c, "position out of range")
		return
	}

	id, err := h.attachments.Create(c.Request.Context(), userID, position, req.FileID, req.FileType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h HandlerSet) AttachmentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid attachment id")
		return
	}

	attachment, err := h.attachments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	creator, err := h.users.GetByID(c.Request.Context(), attachment.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attachment": toAttachmentResponse(attachment),
		"creator":    toUserResponse(creator),
	})
}

func (h HandlerSet) AttachmentsByIDs(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		badRequest(c, "ids required")
		return
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			badRequest(c, "invalid attachment id: "+part)
			return
		}
		ids = append(ids, id)
	}

	attachments, err := h.attachments.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAttachmentPage(repository.AttachmentPage{
		Attachments: attachments,
		TotalCount:  len(attachments),
	}))
}

func (h HandlerSet) MyAttachments(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	filter.UserID = &userID

	page, err := h.attachments.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAttachmentPage(page))
}

func (h HandlerSet) QueryAttachments(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	if raw := c.Query("userId"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid userId")
			return
		}
		filter.UserID = &userID
	}

	page, err := h.attachments.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAttachmentPage(page))
}

func (h HandlerSet) DeleteAttachment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid attachment id")
		return
	}

	if err := h.attachments.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) AllAttachments(c *gin.Context) {
	items, err := h.attachments.ListWithCreators(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	type entry struct {
		Attachment attachmentResponse `json:"attachment"`
		Creator    userResponse       `json:"creator"`
	}

	resp := make([]entry, 0, len(items))
	for _, item := range items {
		resp = append(resp, entry{
			Attachment: toAttachmentResponse(item.Attachment),
			Creator:    toUserResponse(item.Creator),
		})
	}

	c.JSON(http.StatusOK, gin.H{"attachments": resp, "totalCount": len(resp)})
}

// parseFilter decodes the shared paging and bounding-box params.
// Validation is all-or-nothing: a single bad param fails the request
// with no partial filter applied. Reports false after writing the 400.
func (h HandlerSet) parseFilter(c *gin.Context) (repository.AttachmentFilter, bool) {
	filter := repository.AttachmentFilter{Limit: defaultPageLimit}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			badRequest(c, "limit must be between 1 and 100")
			return repository.AttachmentFilter{}, false
		}
		filter.Limit = limit
	}

	if raw := c.Query("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid cursor")
			return repository.AttachmentFilter{}, false
		}
		filter.Cursor = &cursor
	}

	bboxParams := []string{c.Query("minLat"), c.Query("maxLat"), c.Query("minLong"), c.Query("maxLong")}
	present := 0
	for _, p := range bboxParams {
		if p != "" {
			present++
		}
	}
	if present > 0 {
		if present < len(bboxParams) {
			badRequest(c, "bounding box requires minLat, maxLat, minLong and maxLong")
			return repository.AttachmentFilter{}, false
		}

		values := make([]float64, len(bboxParams))
		for i, p := range bboxParams {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				badRequest(c, "invalid bounding box value: "+p)
				return repository.AttachmentFilter{}, false
			}
			values[i] = v
		}

		bbox := repository.BoundingBox{
			MinLat:  values[0],
			MaxLat:  values[1],
			MinLong: values[2],
			MaxLong: values[3],
		}
		if bbox.MinLat > bbox.MaxLat || bbox.MinLong > bbox.MaxLong ||
			!validPosition(models.Position{Lat: bbox.MinLat, Long: bbox.MinLong}) ||
			!validPosition(models.Position{Lat: bbox.MaxLat, Long: bbox.MaxLong}) {
			badRequest(c, "invalid bounding box")
			return repository.AttachmentFilter{}, false
		}
		filter.BBox = &bbox
	}

	return filter, true
}

func validPosition(position models.Position) bool {
	return position.Lat >= -90 && position.Lat <= 90 &&
		position.Long >= -180 && position.Long <= 180
}
