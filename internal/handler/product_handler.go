package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/internal/utils"
)

// ProductHandler handles catalog endpoints.
type ProductHandler struct {
	catalog *service.CatalogService
	media   *service.MediaService
}

// NewProductHandler constructs a ProductHandler. media may be nil when
// uploads are not configured.
func NewProductHandler(catalog *service.CatalogService, media *service.MediaService) *ProductHandler {
	return &ProductHandler{catalog: catalog, media: media}
}

// ListProducts returns products matching the query parameters.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.List(c, list.Items, len(list.Items), list.Filters, nil)
}

// SearchProducts runs the free-text product search.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	items, q, err := h.catalog.Search(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var query *string
	if q != "" {
		query = &q
	}
	utils.List(c, items, len(items), nil, query)
}

// GetCollection returns a curated collection.
func (h *ProductHandler) GetCollection(c *gin.Context) {
	items, err := h.catalog.Collection(c.Request.Context(), c.Param("name"), c.Query("limit"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.List(c, items, len(items), nil, nil)
}

// GetBySlug returns a product by slug.
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := h.catalog.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", p)
}

// GetByVariant returns the product owning a variant together with the variant.
func (h *ProductHandler) GetByVariant(c *gin.Context) {
	v, err := h.catalog.ByVariant(c.Request.Context(), c.Param("variantId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", v)
}

// GetProduct resolves a product by id, product_id or slug.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", p)
}

// CreateProduct creates a product from JSON or a multipart form with images.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if isMultipart(c) {
		if err := h.bindProductForm(c, &in); err != nil {
			utils.RespondError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct applies a partial update.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var patch service.ProductPatch
	if isMultipart(c) {
		if err := h.bindPatchForm(c, &patch); err != nil {
			utils.RespondError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}

	p, err := h.catalog.Update(c.Request.Context(), c.Param("identifier"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct removes a product.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("identifier")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) bindProductForm(c *gin.Context, in *service.ProductInput) error {
	in.ProductID = c.PostForm("product_id")
	in.ProductName = c.PostForm("product_name")
	in.Category = c.PostForm("category")
	in.Gender = c.PostForm("gender")
	in.Slug = c.PostForm("slug")
	in.Colour = c.PostForm("colour")
	in.Collection = c.PostForm("collection")
	in.NewArrival = formBool(c.PostForm("newArrival"))
	in.BestSeller = formBool(c.PostForm("bestSeller"))

	if raw, ok := c.GetPostForm("variants"); ok {
		in.Variants = []service.VariantInput{}
		if err := json.Unmarshal([]byte(raw), &in.Variants); err != nil {
			return utils.ValidationError("variants must be a JSON array")
		}
	}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Metadata); err != nil {
			return utils.ValidationError("metadata must be a JSON object")
		}
	}

	urls, err := h.uploadFormImages(c)
	if err != nil {
		return err
	}
	in.Images = append(c.PostFormArray("images"), urls...)
	return nil
}

func (h *ProductHandler) bindPatchForm(c *gin.Context, p *service.ProductPatch) error {
	strFields := map[string]**string{
		"product_name": &p.ProductName,
		"category":     &p.Category,
		"colour":       &p.Colour,
		"gender":       &p.Gender,
		"slug":         &p.Slug,
		"product_id":   &p.ProductID,
		"collection":   &p.Collection,
	}
	for key, dst := range strFields {
		if v, ok := c.GetPostForm(key); ok {
			v := v
			*dst = &v
		}
	}
	for key, dst := range map[string]**bool{"newArrival": &p.NewArrival, "bestSeller": &p.BestSeller} {
		if v, ok := c.GetPostForm(key); ok {
			b := formBool(v)
			*dst = &b
		}
	}
	if raw, ok := c.GetPostForm("variants"); ok {
		variants := []service.VariantInput{}
		if err := json.Unmarshal([]byte(raw), &variants); err != nil {
			return utils.ValidationError("variants must be a JSON array")
		}
		p.Variants = &variants
	}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Metadata); err != nil {
			return utils.ValidationError("metadata must be a JSON object")
		}
	}
	p.ReplaceImages = formBool(c.PostForm("replaceImages"))

	urls, err := h.uploadFormImages(c)
	if err != nil {
		return err
	}
	p.Images = append(c.PostFormArray("images"), urls...)
	return nil
}

// uploadFormImages stores every file sent under "images".
func (h *ProductHandler) uploadFormImages(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil || len(form.File["images"]) == 0 {
		return nil, nil
	}
	uploads, err := readUploads(form.File["images"], h.media)
	if err != nil {
		return nil, err
	}
	return h.media.UploadMany(c.Request.Context(), uploads)
}

func readUploads(headers []*multipart.FileHeader, media *service.MediaService) ([]service.Upload, error) {
	if media == nil {
		return nil, utils.UpstreamError("Image uploads are not configured", nil)
	}
	if len(headers) > service.MaxImagesPerRequest {
		return nil, utils.ValidationError("At most %d images per request", service.MaxImagesPerRequest)
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, utils.ValidationError("Could not read %s", fh.Filename)
		}
		data, err := service.ReadUpload(f, media.MaxBytes())
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data})
	}
	return uploads, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func formBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}
