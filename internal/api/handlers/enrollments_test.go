package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/learning"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/klarwerk/zielbord/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnrollmentTestRouter(t *testing.T) (*chi.Mux, *testutil.TestContext, *testutil.MemObjectStore) {
	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	store := testutil.NewMemObjectStore()
	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	learningService := learning.NewService(tc.DB, testutil.DiscardLogger())
	handler := handlers.NewEnrollmentHandler(tc.DB, learningService, store, encryptor, testutil.DiscardLogger())

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))
	r.Route("/api/v1/enrollments", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/{id}/certificate", handler.UploadCertificate)
		r.Get("/{id}/certificate", handler.DownloadCertificate)
	})

	return r, tc, store
}

func multipartUpload(t *testing.T, path, filename, contentType string, payload []byte, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestEnrollmentHandler_CertificateRoundTrip(t *testing.T) {
	router, tc, store := setupEnrollmentTestRouter(t)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, 1)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)

	payload := []byte("%PDF-1.4 fake certificate content")
	req := multipartUpload(t,
		"/api/v1/enrollments/"+enrollment.ID.String()+"/certificate",
		"zertifikat.pdf", "application/pdf", payload, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var cert models.Certificate
	testutil.ParseJSONResponse(t, rr, &cert)
	assert.Equal(t, "zertifikat.pdf", cert.FileName)
	assert.Equal(t, "application/pdf", cert.ContentType)
	assert.Equal(t, int64(len(payload)), cert.SizeBytes)
	assert.Equal(t, 1, store.Len())

	// The stored object is encrypted, not the raw upload.
	var stored models.Certificate
	require.NoError(t, tc.DB.Where("enrollment_id = ?", enrollment.ID).First(&stored).Error)
	raw, err := store.Get(req.Context(), stored.StorageKey)
	require.NoError(t, err)
	assert.NotEqual(t, payload, raw)

	// Download decrypts back to the original bytes.
	dlReq := testutil.AuthenticatedRequest(t, "GET",
		"/api/v1/enrollments/"+enrollment.ID.String()+"/certificate", nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, dlReq)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, payload, rr.Body.Bytes())
}

func TestEnrollmentHandler_CertificateReplacement(t *testing.T) {
	router, tc, store := setupEnrollmentTestRouter(t)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, 1)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)

	for _, name := range []string{"erste.pdf", "zweite.pdf"} {
		req := multipartUpload(t,
			"/api/v1/enrollments/"+enrollment.ID.String()+"/certificate",
			name, "application/pdf", []byte(name), tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	// Only one row and one object remain.
	var count int64
	require.NoError(t, tc.DB.Model(&models.Certificate{}).
		Where("enrollment_id = ?", enrollment.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, store.Len())

	var cert models.Certificate
	require.NoError(t, tc.DB.Where("enrollment_id = ?", enrollment.ID).First(&cert).Error)
	assert.Equal(t, "zweite.pdf", cert.FileName)
}

func TestEnrollmentHandler_CertificateUnsupportedType(t *testing.T) {
	router, tc, _ := setupEnrollmentTestRouter(t)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, 1)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)

	req := multipartUpload(t,
		"/api/v1/enrollments/"+enrollment.ID.String()+"/certificate",
		"script.exe", "application/octet-stream", []byte("MZ"), tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, dto.MsgUnsupportedFile, resp.Error)
}

func TestEnrollmentHandler_ListWithProgress(t *testing.T) {
	router, tc, _ := setupEnrollmentTestRouter(t)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, 2)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)

	learningService := learning.NewService(tc.DB, testutil.DiscardLogger())
	_, err := learningService.ToggleModuleCompletion(context.Background(), enrollment, course.Modules[0].ID)
	require.NoError(t, err)

	listReq := testutil.AuthenticatedRequest(t, "GET", "/api/v1/enrollments/", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, listReq)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Enrollments []handlers.EnrollmentResponse `json:"enrollments"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	require.Len(t, resp.Enrollments, 1)
	assert.Equal(t, 50, resp.Enrollments[0].Progress)

	// Status filter hides in_progress enrollments when asking for completed.
	listReq = testutil.AuthenticatedRequest(t, "GET", "/api/v1/enrollments/?status=completed", nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, listReq)
	require.Equal(t, http.StatusOK, rr.Code)
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Empty(t, resp.Enrollments)
}
