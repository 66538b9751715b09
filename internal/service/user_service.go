package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/taskmaster-hq/bugtracker/internal/database"
	"github.com/taskmaster-hq/bugtracker/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so a caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountLocked is returned while the failed-attempt lockout holds.
	ErrAccountLocked = errors.New("account temporarily locked due to failed login attempts")

	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account is disabled")
)

type failedLogins struct {
	count       int
	lastAttempt time.Time
}

// UserService handles accounts: registration, authentication with a
// failed-attempt lockout, and role changes.
type UserService struct {
	db *database.Database

	mu       sync.Mutex
	failures map[string]*failedLogins
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{
		db:       db,
		failures: make(map[string]*failedLogins),
	}
}

func validUserRole(role models.UserRole) bool {
	switch role {
	case models.UserRoleAdmin, models.UserRoleDeveloper, models.UserRoleTester,
		models.UserRoleReporter, models.UserRoleViewer:
		return true
	}
	return false
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return database.NewValidationError("password", "password must be at least 6 characters long")
	}
	switch strings.ToLower(password) {
	case "password", "123456", "admin", "user":
		return database.NewValidationError("password", "password is too common")
	}
	return nil
}

// Register creates a new account. Username and email must be unique;
// the store's constraints back up the pre-checks.
func (s *UserService) Register(username, email, fullName, password string, role models.UserRole) (*models.User, error) {
	if len(username) < 3 {
		return nil, database.NewValidationError("username", "username must be at least 3 characters long")
	}
	if !strings.Contains(email, "@") {
		return nil, database.NewValidationError("email", "valid email address is required")
	}
	if len(fullName) < 2 {
		return nil, database.NewValidationError("full_name", "full name must be at least 2 characters long")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.UserRoleReporter
	}
	if !validUserRole(role) {
		return nil, database.NewValidationError("role", "invalid role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and stamps last_login on success.
// After five consecutive failures the account locks for fifteen minutes.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if s.isLocked(username) {
		return nil, ErrAccountLocked
	}

	user, err := s.db.GetUserByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		s.recordFailure(username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(username)
		return nil, ErrInvalidCredentials
	}

	s.clearFailures(username)

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.UpdateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeRole sets a user's role. When changedBy is given, the changer
// must be an administrator.
func (s *UserService) ChangeRole(userID uint, newRole models.UserRole, changedBy *uint) error {
	if !validUserRole(newRole) {
		return database.NewValidationError("role", "invalid role %q", newRole)
	}

	if changedBy != nil {
		changer, err := s.db.GetUser(*changedBy)
		if err != nil {
			return err
		}
		if changer.Role != models.UserRoleAdmin {
			return errors.New("only administrators can change user roles")
		}
	}

	user, err := s.db.GetUser(userID)
	if err != nil {
		return err
	}

	user.Role = newRole
	return s.db.UpdateUser(user)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return database.NewValidationError("old_password", "current password is incorrect")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	return s.db.UpdateUser(user)
}

// Deactivate soft-deletes the account; existing references stay intact.
func (s *UserService) Deactivate(userID uint) error {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return err
	}
	user.IsActive = false
	return s.db.UpdateUser(user)
}

func (s *UserService) Reactivate(userID uint) error {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return err
	}
	user.IsActive = true
	return s.db.UpdateUser(user)
}

func (s *UserService) isLocked(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.failures[username]
	if !ok || f.count < maxFailedAttempts {
		return false
	}
	if time.Since(f.lastAttempt) >= lockoutDuration {
		delete(s.failures, username)
		return false
	}
	return true
}

func (s *UserService) recordFailure(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.failures[username]
	if !ok {
		f = &failedLogins{}
		s.failures[username] = f
	}
	f.count++
	f.lastAttempt = time.Now()
}

func (s *UserService) clearFailures(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, username)
}
