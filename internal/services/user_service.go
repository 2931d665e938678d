package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/storage"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// storedUser keeps the hash, which models.User never serialises.
type storedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserService is the local email/password provider used when Firebase is
// not configured.
type UserService struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string // email -> userID mapping
	persist *storage.JSONFile[[]storedUser]
}

func NewUserService() *UserService {
	return &UserService{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

// NewFileUserService keeps accounts in dataDir/users.json.
func NewFileUserService(dataDir string) (*UserService, error) {
	file, err := storage.OpenJSONFile[[]storedUser](dataDir, "users.json")
	if err != nil {
		return nil, fmt.Errorf("user store: %w", err)
	}
	saved, _, err := file.Read()
	if err != nil {
		return nil, fmt.Errorf("user store: load: %w", err)
	}

	s := NewUserService()
	s.persist = file
	for _, u := range saved {
		s.users[u.ID] = &models.User{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			DisplayName:  u.DisplayName,
			CreatedAt:    u.CreatedAt,
		}
		s.byEmail[u.Email] = u.ID
	}
	return s, nil
}

func (s *UserService) Register(req *models.SignupRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		CreatedAt:    time.Now().UTC(),
	}

	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID

	if err := s.save(); err != nil {
		delete(s.users, user.ID)
		delete(s.byEmail, user.Email)
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(req *models.LoginRequest) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !exists {
		return nil, ErrUserNotFound
	}

	user := s.users[userID]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

func (s *UserService) GetByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// save must be called with s.mu held.
func (s *UserService) save() error {
	if s.persist == nil {
		return nil
	}
	out := make([]storedUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, storedUser{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			DisplayName:  u.DisplayName,
			CreatedAt:    u.CreatedAt,
		})
	}
	if err := s.persist.Write(out); err != nil {
		return fmt.Errorf("user store: save: %w", err)
	}
	return nil
}
