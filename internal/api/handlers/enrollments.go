package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/learning"
	"github.com/klarwerk/zielbord/internal/storage"
	"github.com/klarwerk/zielbord/pkg/crypto"
	"gorm.io/gorm"
)

// maxCertificateSize caps certificate uploads at 10 MB.
const maxCertificateSize = 10 << 20

var allowedCertificateTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
}

type EnrollmentHandler struct {
	db        *gorm.DB
	learning  *learning.Service
	store     storage.ObjectStore
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

func NewEnrollmentHandler(db *gorm.DB, learningService *learning.Service, store storage.ObjectStore, encryptor *crypto.Encryptor, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:        db,
		learning:  learningService,
		store:     store,
		encryptor: encryptor,
		logger:    logger,
	}
}

// EnrollmentResponse is an enrollment with its computed progress.
type EnrollmentResponse struct {
	models.Enrollment
	Progress int `json:"progress"`
}

// List handles GET /api/v1/enrollments, optionally filtered by ?status=
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	query := h.db.WithContext(r.Context()).
		Preload("Course").
		Preload("Certificate").
		Where("user_id = ?", userID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("started_at DESC").Find(&enrollments).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	resp := make([]EnrollmentResponse, len(enrollments))
	for i := range enrollments {
		progress, err := h.learning.Progress(r.Context(), &enrollments[i])
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
		resp[i] = EnrollmentResponse{Enrollment: enrollments[i], Progress: progress}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"enrollments": resp})
}

// UploadCertificate handles POST /api/v1/enrollments/{id}/certificate.
// The file is encrypted before it leaves the process.
func (h *EnrollmentHandler) UploadCertificate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	enrollment, ok := h.loadOwnedEnrollment(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCertificateSize)
	if err := r.ParseMultipartForm(maxCertificateSize); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: dto.MsgFileTooLarge})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}
	defer file.Close()

	if header.Size > maxCertificateSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: dto.MsgFileTooLarge})
		return
	}

	contentType, ext, ok := certificateType(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgUnsupportedFile})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	encrypted, err := h.encryptor.Encrypt(data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	key := storage.CertificateKey(enrollment.OrganizationID, enrollment.ID, ext)
	if err := h.store.Put(r.Context(), key, encrypted, "application/octet-stream"); err != nil {
		h.logger.Error("certificate upload failed", "enrollment_id", enrollment.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	cert := models.Certificate{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.UserID,
		FileName:     filepath.Base(header.Filename),
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		StorageKey:   key,
	}

	// Re-uploads replace the previous certificate; the old object is
	// removed best-effort after the row swap.
	var previous models.Certificate
	prevErr := h.db.WithContext(r.Context()).
		Where("enrollment_id = ?", enrollment.ID).
		First(&previous).Error
	switch {
	case prevErr == nil:
		if err := h.db.WithContext(r.Context()).Model(&previous).Updates(map[string]interface{}{
			"file_name":    cert.FileName,
			"content_type": cert.ContentType,
			"size_bytes":   cert.SizeBytes,
			"storage_key":  cert.StorageKey,
		}).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
		if err := h.store.Delete(r.Context(), previous.StorageKey); err != nil {
			h.logger.Warn("stale certificate object not removed", "key", previous.StorageKey, "error", err)
		}
		cert.ID = previous.ID
	case errors.Is(prevErr, gorm.ErrRecordNotFound):
		if err := h.db.WithContext(r.Context()).Create(&cert).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
			return
		}
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusCreated, cert)
}

// DownloadCertificate handles GET /api/v1/enrollments/{id}/certificate
func (h *EnrollmentHandler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	enrollment, ok := h.loadOwnedEnrollment(w, r)
	if !ok {
		return
	}

	var cert models.Certificate
	if err := h.db.WithContext(r.Context()).
		Where("enrollment_id = ?", enrollment.ID).
		First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	encrypted, err := h.store.Get(r.Context(), cert.StorageKey)
	if err != nil {
		h.logger.Error("certificate fetch failed", "key", cert.StorageKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	data, err := h.encryptor.Decrypt(encrypted)
	if err != nil {
		h.logger.Error("certificate decrypt failed", "key", cert.StorageKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	w.Header().Set("Content-Type", cert.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *EnrollmentHandler) loadOwnedEnrollment(w http.ResponseWriter, r *http.Request) (*models.Enrollment, bool) {
	userID := middleware.GetUserID(r.Context())
	enrollmentID, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	var enrollment models.Enrollment
	if err := h.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", enrollmentID, userID).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return nil, false
	}
	return &enrollment, true
}

// certificateType validates the upload's declared type, falling back to
// the file extension when the part carries no Content-Type.
func certificateType(filename, declared string) (contentType, ext string, ok bool) {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if e, found := allowedCertificateTypes[declared]; found {
		return declared, e, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf", ".pdf", true
	case ".png":
		return "image/png", ".png", true
	case ".jpg", ".jpeg":
		return "image/jpeg", ".jpg", true
	case ".webp":
		return "image/webp", ".webp", true
	}
	return "", "", false
}
