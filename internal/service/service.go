package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mdhub/note-service/internal/config"
	"github.com/mdhub/note-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrDeleteTokenMismatch is returned when an account deletion is attempted
// with a token that does not match the stored one
var ErrDeleteTokenMismatch = errors.New("delete token mismatch")

// ErrInvalidCredentials is returned when a login fails
var ErrInvalidCredentials = errors.New("invalid credentials")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Store is the persistence surface the service depends on
type Store interface {
	CreateUser(user *models.User) error
	FindUserByID(id int64) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	SetDeleteToken(userID int64, token string, setAt time.Time) error
	DeleteUser(id int64) error
	FindNotesByOwner(ownerID int64) ([]*models.Note, error)
	StaleDeleteTokenUsers(cutoff time.Time) ([]int64, error)
}

// Mailer delivers account-related mail
type Mailer interface {
	SendDeleteConfirmation(to, username, link string) error
}

// Service handles business logic
type Service struct {
	store  Store
	mailer Mailer
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(store Store, mailer Mailer, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, mailer: mailer, log: log, config: cfg}
}

// Register creates a new user with hashed password and an initial delete token
func (s *Service) Register(username, email, password string) (*models.User, error) {
	verr := &ValidationError{}
	if username == "" {
		verr.add("username", "must not be empty")
	}
	if !emailPattern.MatchString(email) {
		verr.add("email", "must be a valid email address")
	}
	if len(password) < 8 {
		verr.add("password", "must be at least 8 characters")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:         username,
		Email:            email,
		PasswordHash:     string(hashedPassword),
		DeleteToken:      uuid.NewString(),
		DeleteTokenSetAt: time.Now(),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(id int64) (*models.User, error) {
	return s.store.FindUserByID(id)
}

// VerifyPassword checks a plaintext password against the stored credential
func (s *Service) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// SaveAccount validates the edited user and persists it. A *ValidationError
// is returned when the edits are rejected; the user keeps the attempted
// values in memory so the form can be re-rendered for correction.
func (s *Service) SaveAccount(user *models.User) error {
	verr := &ValidationError{}
	if !emailPattern.MatchString(user.Email) {
		verr.add("email", "must be a valid email address")
	}
	if user.Username == "" {
		verr.add("username", "must not be empty")
	}
	if user.NewPassword != "" {
		if len(user.NewPassword) < 8 {
			verr.add("new_password", "must be at least 8 characters")
		} else if user.NewPassword != user.PasswordConfirmation {
			verr.add("password_confirmation", "does not match the new password")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	if user.NewPassword != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
		user.NewPassword = ""
		user.PasswordConfirmation = ""
	}

	if err := s.store.UpdateUser(user); err != nil {
		return err
	}

	s.log.Infof("Account updated: %s", user.Email)
	return nil
}

// DeleteAccount destroys the user if the supplied token matches the stored
// one-time delete token exactly
func (s *Service) DeleteAccount(user *models.User, token string) error {
	if token == "" || token != user.DeleteToken {
		return ErrDeleteTokenMismatch
	}
	if err := s.store.DeleteUser(user.ID); err != nil {
		return err
	}
	s.log.Infof("Account deleted: %s", user.Email)
	return nil
}

// RequestDeleteToken issues a fresh delete token and mails the confirmation
// link to the user's address
func (s *Service) RequestDeleteToken(user *models.User) error {
	token := uuid.NewString()
	if err := s.store.SetDeleteToken(user.ID, token, time.Now()); err != nil {
		return err
	}
	link := s.config.ServerURL + "/settings/account/delete/" + token
	if err := s.mailer.SendDeleteConfirmation(user.Email, user.Name(), link); err != nil {
		return fmt.Errorf("failed to send delete confirmation: %w", err)
	}
	s.log.Infof("Delete token issued for user %d", user.ID)
	return nil
}

// NotesForExport loads all notes owned by the user
func (s *Service) NotesForExport(user *models.User) ([]*models.Note, error) {
	return s.store.FindNotesByOwner(user.ID)
}

// RotateStaleDeleteTokens replaces every delete token older than the
// configured TTL so leaked confirmation links go stale
func (s *Service) RotateStaleDeleteTokens() error {
	cutoff := time.Now().Add(-time.Duration(s.config.DeleteTokenTTL) * time.Hour)
	ids, err := s.store.StaleDeleteTokenUsers(cutoff)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.store.SetDeleteToken(id, uuid.NewString(), time.Now()); err != nil {
			s.log.Errorf("failed to rotate delete token for user %d: %v", id, err)
			continue
		}
	}
	if len(ids) > 0 {
		s.log.Infof("Rotated %d stale delete tokens", len(ids))
	}
	return nil
}
