package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/internal/utils"
)

// UploadHandler handles standalone image uploads.
type UploadHandler struct {
	media *service.MediaService
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(media *service.MediaService) *UploadHandler {
	return &UploadHandler{media: media}
}

// UploadImage stores the file sent as "image".
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		utils.RespondError(c, utils.ValidationError("No image provided"))
		return
	}
	uploads, err := readUploads([]*multipart.FileHeader{fh}, h.media)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	url, err := h.media.Upload(c.Request.Context(), uploads[0])
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Image uploaded successfully", gin.H{"url": url})
}

// UploadImages stores every file sent as "images".
func (h *UploadHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		utils.RespondError(c, utils.ValidationError("No images provided"))
		return
	}
	uploads, err := readUploads(form.File["images"], h.media)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	urls, err := h.media.UploadMany(c.Request.Context(), uploads)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Images uploaded successfully", gin.H{"urls": urls})
}
