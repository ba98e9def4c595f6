package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user is suspended")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Department string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// EnsureProfile returns the profile for the given identity, lazily
// creating the default organization and a new employee profile on first
// use. The org lookup and the profile insert are intentionally separate
// statements; the unique slug constraint keeps the first-use race benign.
func (s *Service) EnsureProfile(ctx context.Context, email, name string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("email = ?", email).
		First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org, err := s.ensureDefaultOrg(ctx)
	if err != nil {
		return nil, err
	}

	user = models.User{
		Email:          email,
		Name:           name,
		OrganizationID: org.ID,
		Role:           models.RoleEmployee,
		Status:         models.UserStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	user.Organization = org
	return &user, nil
}

// ensureDefaultOrg is an idempotent lookup-or-insert keyed by the fixed
// organization slug.
func (s *Service) ensureDefaultOrg(ctx context.Context) (*models.Organization, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).
		Where("slug = ?", models.DefaultOrgSlug).
		First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = models.Organization{
		Name: "Klarwerk",
		Slug: models.DefaultOrgSlug,
	}
	if err := s.db.WithContext(ctx).Create(&org).Error; err != nil {
		// Lost the insert race: another request created the org first.
		var existing models.Organization
		if lookupErr := s.db.WithContext(ctx).
			Where("slug = ?", models.DefaultOrgSlug).
			First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &org, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.EnsureProfile(ctx, input.Email, input.Name)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"password_hash": hash}
	if input.Department != "" {
		updates["department"] = input.Department
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("email = ?", input.Email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Status == models.UserStatusSuspended {
		return nil, ErrUserSuspended
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: &user}, nil
}

// LoginIdentity issues a session for an externally authenticated
// identity (SSO). Runs the profile resolver, so first logins create the
// profile on the fly.
func (s *Service) LoginIdentity(ctx context.Context, email, name string) (*AuthResponse, error) {
	user, err := s.EnsureProfile(ctx, email, name)
	if err != nil {
		return nil, err
	}

	if user.Status == models.UserStatusSuspended {
		return nil, ErrUserSuspended
	}

	token, err := s.jwt.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
