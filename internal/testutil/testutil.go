package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.OKR{},
		&models.KeyResult{},
		&models.CheckIn{},
		&models.Course{},
		&models.CourseModule{},
		&models.Enrollment{},
		&models.ModuleCompletion{},
		&models.Certificate{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// TestContext bundles the database and a ready-to-use authenticated user.
type TestContext struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	User       *models.User
	Token      string

	t *testing.T
}

// NewTestContext sets up a database, organization, user and token.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	db := SetupTestDB(t)
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org)
	jwtService := CreateTestJWTService()
	token := GenerateTestToken(t, jwtService, user)

	return &TestContext{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		User:       user,
		Token:      token,
		t:          t,
	}
}

func (tc *TestContext) Cleanup() {
	CleanupTestDB(tc.t, tc.DB)
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Organization",
		Slug: "test-org-" + uuid.New().String()[:8],
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates an active employee in the given organization
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:   hash,
		Name:           "Test User",
		OrganizationID: org.ID,
		Role:           models.RoleEmployee,
		Status:         models.UserStatusActive,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestUserWithRole creates a user with a specific role
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, org *models.Organization, role string) *models.User {
	t.Helper()

	user := CreateTestUser(t, db, org)
	if err := db.Model(user).Update("role", role).Error; err != nil {
		t.Fatalf("failed to set role: %v", err)
	}
	user.Role = role
	return user
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// CreateTestOKR creates an active OKR for the user
func CreateTestOKR(t *testing.T, db *gorm.DB, user *models.User, quarter string) *models.OKR {
	t.Helper()

	okr := &models.OKR{
		Base: models.Base{
			ID: uuid.New(),
		},
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Title:          "Test Objective " + uuid.New().String()[:8],
		Quarter:        quarter,
		Status:         models.OKRStatusOnTrack,
		IsActive:       true,
	}

	if err := db.Create(okr).Error; err != nil {
		t.Fatalf("failed to create test OKR: %v", err)
	}

	return okr
}

// CreateTestCourse creates a course with the given number of modules
func CreateTestCourse(t *testing.T, db *gorm.DB, orgID uuid.UUID, moduleCount int) *models.Course {
	t.Helper()

	course := &models.Course{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Title:          "Test Course " + uuid.New().String()[:8],
		IsActive:       true,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to create test course: %v", err)
	}

	for i := 0; i < moduleCount; i++ {
		module := models.CourseModule{
			Base: models.Base{
				ID: uuid.New(),
			},
			CourseID:   course.ID,
			Title:      fmt.Sprintf("Module %d", i+1),
			OrderIndex: i,
		}
		if err := db.Create(&module).Error; err != nil {
			t.Fatalf("failed to create test module: %v", err)
		}
		course.Modules = append(course.Modules, module)
	}

	return course
}

// CreateTestEnrollment enrolls the user in the course
func CreateTestEnrollment(t *testing.T, db *gorm.DB, user *models.User, course *models.Course) *models.Enrollment {
	t.Helper()

	enrollment := &models.Enrollment{
		Base: models.Base{
			ID: uuid.New(),
		},
		UserID:         user.ID,
		CourseID:       course.ID,
		OrganizationID: user.OrganizationID,
		Status:         models.EnrollmentStatusInProgress,
		StartedAt:      time.Now(),
	}
	if err := db.Create(enrollment).Error; err != nil {
		t.Fatalf("failed to create test enrollment: %v", err)
	}

	return enrollment
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// MemObjectStore is an in-memory ObjectStore for certificate tests.
type MemObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemObjectStore() *MemObjectStore {
	return &MemObjectStore{objects: make(map[string][]byte)}
}

func (m *MemObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len reports how many objects the store holds.
func (m *MemObjectStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
