// Package service implements the business logic of the Ansible Platform.
// Services sit between the HTTP handlers and the database, own the encryption
// of stored secrets, and talk to external systems (Kubernetes clusters and the
// ansible-playbook binary).
package service

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CloudSihmar/ansible-platform/internal/auth"
	"github.com/CloudSihmar/ansible-platform/internal/config"
	"github.com/CloudSihmar/ansible-platform/internal/crypto"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

// ErrSetupComplete is returned when setup is attempted a second time
var ErrSetupComplete = errors.New("setup already complete")

// UserService handles user and setup operations
type UserService struct {
	db  *database.Database
	cfg *config.Config
}

// NewUserService creates a new user service
func NewUserService(db *database.Database, cfg *config.Config) *UserService {
	return &UserService{
		db:  db,
		cfg: cfg,
	}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// CreateUser creates a new user
func (s *UserService) CreateUser(req *CreateUserRequest) (*models.User, error) {
	if !auth.ValidRole(req.Role) {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}

	// Validate password strength
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("weak password: %w", err)
	}

	if _, err := s.db.GetUserByUsername(req.Username); err == nil {
		return nil, fmt.Errorf("username already registered")
	}
	if _, err := s.db.GetUserByEmail(req.Email); err == nil {
		return nil, fmt.Errorf("email already registered")
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// AuthenticateUser authenticates a user and returns a JWT token. Successful
// logins record a last-login timestamp.
func (s *UserService) AuthenticateUser(username, password string) (string, *models.User, error) {
	user, err := s.db.GetUserByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, fmt.Errorf("invalid credentials")
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := auth.GenerateToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.Expiration,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.TouchLastLogin(user.ID, now); err != nil {
		return "", nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = sql.NullTime{Time: now, Valid: true}

	return token, user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(id string) (*models.User, error) {
	return s.db.GetUser(id)
}

// ListUsers retrieves all active users
func (s *UserService) ListUsers() ([]*models.User, error) {
	return s.db.ListActiveUsers()
}

// UpdateUserRequest carries optional user updates; nil fields are unchanged
type UpdateUserRequest struct {
	Email    *string
	Password *string
	Role     *string
	IsActive *bool
}

// UpdateUser applies partial updates to a user
func (s *UserService) UpdateUser(id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.db.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if existing, err := s.db.GetUserByEmail(*req.Email); err == nil && existing.ID != id {
			return nil, fmt.Errorf("email already registered")
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		if err := auth.ValidatePasswordStrength(*req.Password); err != nil {
			return nil, fmt.Errorf("weak password: %w", err)
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		if !auth.ValidRole(*req.Role) {
			return nil, fmt.Errorf("invalid role: %s", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeactivateUser performs a soft delete by marking the user inactive
func (s *UserService) DeactivateUser(id string) error {
	user, err := s.db.GetUser(id)
	if err != nil {
		return err
	}

	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()
	if err := s.db.UpdateUser(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// SetupRequest represents initial setup request
type SetupRequest struct {
	Username string
	Email    string
	Password string
}

// SetupResponse contains setup response data
type SetupResponse struct {
	User      *models.User
	MasterKey string
	Token     string
}

// PerformInitialSetup performs first-time setup: generates the master key and
// JWT secret, stores them, and creates the first admin user.
func (s *UserService) PerformInitialSetup(req *SetupRequest) (*SetupResponse, error) {
	// Check if setup is already complete
	isComplete, err := s.db.IsSetupComplete()
	if err != nil {
		return nil, fmt.Errorf("failed to check setup status: %w", err)
	}
	if isComplete {
		return nil, ErrSetupComplete
	}

	// Generate master key
	masterKey, err := crypto.GenerateMasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	masterKeyHex := hex.EncodeToString(masterKey)
	if err := s.db.SetSystemConfig("master_key", masterKeyHex); err != nil {
		return nil, fmt.Errorf("failed to store master key: %w", err)
	}

	// Generate JWT secret if not set
	if s.cfg.JWT.Secret == "" {
		jwtSecret, err := crypto.GenerateMasterKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		s.cfg.JWT.Secret = hex.EncodeToString(jwtSecret)
		if err := s.db.SetSystemConfig("jwt_secret", s.cfg.JWT.Secret); err != nil {
			return nil, fmt.Errorf("failed to store JWT secret: %w", err)
		}
	}

	// Create admin user
	user, err := s.CreateUser(&CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	// Generate token
	token, err := auth.GenerateToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.Expiration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &SetupResponse{
		User:      user,
		MasterKey: masterKeyHex,
		Token:     token,
	}, nil
}

// IsSetupComplete checks if initial setup has been completed
func (s *UserService) IsSetupComplete() (bool, error) {
	return s.db.IsSetupComplete()
}

// GetMasterKey retrieves the master key from the database
func (s *UserService) GetMasterKey() ([]byte, error) {
	masterKeyHex, err := s.db.GetSystemConfig("master_key")
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}

	return masterKey, nil
}

// LoadJWTSecret loads JWT secret from database if it exists
func (s *UserService) LoadJWTSecret() error {
	secret, err := s.db.GetSystemConfig("jwt_secret")
	if err != nil {
		if err == sql.ErrNoRows {
			return nil // Not an error if not found
		}
		return fmt.Errorf("failed to get JWT secret: %w", err)
	}

	s.cfg.JWT.Secret = secret
	return nil
}
