package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/pkg/jwtutil"
	"inventory-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest accepted admin password.
const MinPasswordLength = 8

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	Admin *model.Admin `json:"admin"`
}

// AdminService manages admin accounts and issues their tokens.
type AdminService struct {
	repo   *repository.Repository[model.Admin]
	signer *jwtutil.Signer
	cost   int
	log    *zap.Logger
}

func NewAdminService(db *gorm.DB, signer *jwtutil.Signer, log *zap.Logger) *AdminService {
	return &AdminService{
		repo:   repository.New[model.Admin](db),
		signer: signer,
		cost:   bcrypt.DefaultCost,
		log:    log.Named("admins"),
	}
}

// Create stores a new admin with a bcrypt hashed password.
func (s *AdminService) Create(ctx context.Context, email, password string) (*model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.Admin{Email: email, Password: string(hash)}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.log.Info("Admin created", zap.Uint("admin_id", admin.ID), zap.String("email", email))
	prometheus.RecordEntityOperation("admin", "create")
	return admin, nil
}

// Seed creates the bootstrap admin unless an admin with that email exists.
// It is a no-op when email is empty.
func (s *AdminService) Seed(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	exists, err := s.repo.Exists(ctx, repository.Where("email = ?", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.Create(ctx, email, password)
	return err
}

// List returns one page of admins.
func (s *AdminService) List(ctx context.Context, page, limit int) (repository.Page[model.Admin], error) {
	return s.repo.Paginate(ctx, repository.Query{Order: "id asc"}, page, limit)
}

// Delete removes an admin. Admins referenced by audit entries cannot be
// removed and yield ErrReferenceViolation.
func (s *AdminService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Admin deleted", zap.Uint("admin_id", id))
	prometheus.RecordEntityOperation("admin", "delete")
	return nil
}

// Exists reports whether the admin account is still present.
func (s *AdminService) Exists(ctx context.Context, id uint) (bool, error) {
	return s.repo.Exists(ctx, repository.Where("id = ?", id))
}

// Login verifies the credentials and returns a signed token.
func (s *AdminService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	admin, err := s.repo.First(ctx, repository.Where("email = ?", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthAttempt("unknown_email")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		prometheus.RecordAuthAttempt("invalid_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.signer.GenerateToken(admin.Email, admin.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	prometheus.RecordAuthAttempt("success")
	return LoginResult{Token: token, Admin: admin}, nil
}
