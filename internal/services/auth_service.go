package services

import (
	"errors"
	"fmt"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// --- AuthService Interface ---
type AuthService interface {
	Login(creds models.Credentials) (string, *models.User, error)
	GetUserByID(userID int64) (*models.User, error)
}

type authService struct {
	authRepo repositories.AuthRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository) AuthService {
	return &authService{authRepo: ar}
}

// Login verifies the credentials and returns a signed access token.
func (s *authService) Login(creds models.Credentials) (string, *models.User, error) {
	user, err := s.authRepo.GetUserByUsername(creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to fetch user for login: %w", err)
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, user, nil
}

func (s *authService) GetUserByID(userID int64) (*models.User, error) {
	user, err := s.authRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}
