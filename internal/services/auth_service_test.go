package services

import (
	"testing"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	users map[string]*models.User
}

func (f *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAuthRepo) GetUserByID(userID int64) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func authServiceWithUser(t *testing.T, password string, active bool) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeAuthRepo{users: map[string]*models.User{
		"admin": {ID: 1, Username: "admin", PasswordHash: string(hash), Role: "Admin", IsActive: active},
	}}
	return NewAuthService(repo)
}

func TestLogin_Success(t *testing.T) {
	svc := authServiceWithUser(t, "s3cret", true)

	token, user, err := svc.Login(models.Credentials{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "admin", user.Username)

	claims, err := utils.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "Admin", claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := authServiceWithUser(t, "s3cret", true)

	_, _, err := svc.Login(models.Credentials{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := authServiceWithUser(t, "s3cret", true)

	_, _, err := svc.Login(models.Credentials{Username: "ghost", Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc := authServiceWithUser(t, "s3cret", false)

	_, _, err := svc.Login(models.Credentials{Username: "admin", Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
