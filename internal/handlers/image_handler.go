// internal/handlers/image_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/config"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/repository"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type ImageHandler struct {
	repo          repository.ImageRepository
	campaignRepo  interfaces.CampaignRepository
	cache         *cache.Cache
	s3Client      *s3.Client
	bucket        string
	publicBaseURL string
	validator     *validator.Validate
}

func NewImageHandler(repo repository.ImageRepository, campaignRepo interfaces.CampaignRepository, s3Config *config.S3Config, c *cache.Cache) *ImageHandler {
	return &ImageHandler{
		repo:          repo,
		campaignRepo:  campaignRepo,
		cache:         c,
		s3Client:      s3Config.Client,
		bucket:        s3Config.Bucket,
		publicBaseURL: s3Config.PublicBaseURL,
		validator:     validator.New(),
	}
}

func generateUUID() string {
	return uuid.New().String()
}

// probeDimensions reads the image header for width and height, then rewinds
// the file so the upload sees it from the start.
func probeDimensions(file multipart.File) (width, height int) {
	cfg, _, err := image.DecodeConfig(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return 0, 0
	}
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// UploadImages handles POST /api/v1/campaigns/{id}/images. It accepts one or
// more files under the "files" field and appends them to the campaign's
// carousel in upload order.
func (h *ImageHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}

	if _, err := h.campaignRepo.GetByID(r.Context(), campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		log.Println("upload images campaign fetch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to validate campaign")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", "No files uploaded")
		return
	}

	nextOrder, err := h.repo.NextOrder(r.Context(), campaignID)
	if err != nil {
		log.Println("upload images next order:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to compute image order")
		return
	}

	var uploaded []*models.CampaignImage
	uploader := manager.NewUploader(h.s3Client)

	for _, fileHeader := range files {
		contentType := fileHeader.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] {
			log.Printf("skipping %s: unsupported content type %s", fileHeader.Filename, contentType)
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Printf("open %s: %v", fileHeader.Filename, err)
			continue
		}

		width, height := probeDimensions(file)

		img := &models.CampaignImage{
			ID:               generateUUID(),
			CampaignID:       campaignID,
			OriginalFilename: fileHeader.Filename,
			Order:            nextOrder,
			Active:           true,
			SizeBytes:        fileHeader.Size,
			MimeType:         contentType,
			Width:            width,
			Height:           height,
			CreatedAt:        time.Now().UTC(),
			UpdatedAt:        time.Now().UTC(),
		}
		img.Filename = img.ID + filepath.Ext(fileHeader.Filename)

		key := filepath.Join("campaigns", campaignID, img.Filename)
		_, err = uploader.Upload(r.Context(), &s3.PutObjectInput{
			Bucket:      aws.String(h.bucket),
			Key:         aws.String(key),
			Body:        file,
			ContentType: aws.String(contentType),
		})
		file.Close()
		if err != nil {
			log.Printf("upload %s to S3: %v", fileHeader.Filename, err)
			continue
		}

		img.URL = strings.TrimRight(h.publicBaseURL, "/") + "/" + key

		if err := h.repo.Create(r.Context(), img); err != nil {
			log.Printf("save image %s: %v", fileHeader.Filename, err)
			continue
		}

		uploaded = append(uploaded, img)
		nextOrder++
	}

	if len(uploaded) == 0 {
		writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to upload any files")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSON(w, http.StatusCreated, uploaded)
}

// ListImages handles GET /api/v1/campaigns/{id}/images
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	images, err := h.repo.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		log.Println("list images:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_images_failed", "Failed to list images")
		return
	}
	if images == nil {
		images = []*models.CampaignImage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": images,
		"total": len(images),
	})
}

// UpdateImage handles PUT /api/v1/images/{id}
func (h *ImageHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "id")

	var req models.UpdateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	img, err := h.repo.GetByID(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Image not found")
			return
		}
		log.Println("update image fetch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_image_failed", "Failed to fetch image")
		return
	}

	if req.Title != nil {
		img.Title = *req.Title
	}
	if req.Description != nil {
		img.Description = *req.Description
	}
	if req.DisplayTime != nil {
		img.DisplayTime = req.DisplayTime
	}
	if req.Active != nil {
		img.Active = *req.Active
	}

	img.UpdatedAt = time.Now().UTC()
	if err := h.repo.Update(r.Context(), img); err != nil {
		log.Println("update image:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_image_failed", "Failed to update image")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSON(w, http.StatusOK, img)
}

// ReorderImages handles PUT /api/v1/campaigns/{id}/images/order
func (h *ImageHandler) ReorderImages(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var req models.ReorderImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.repo.Reorder(r.Context(), campaignID, req.Order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_order", "Order references an unknown image")
			return
		}
		log.Println("reorder images:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reorder_failed", "Failed to reorder images")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	images, err := h.repo.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		writeJSONMessage(w, http.StatusOK, "Images reordered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": images, "total": len(images)})
}

// DeleteImage handles DELETE /api/v1/images/{id}
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "id")

	if err := h.repo.SoftDelete(r.Context(), imageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Image not found")
			return
		}
		log.Println("delete image:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "delete_image_failed", "Failed to delete image")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSONMessage(w, http.StatusOK, "Image deleted")
}
