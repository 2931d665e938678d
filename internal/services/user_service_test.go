package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvbuilder/backend/internal/models"
)

func TestUserService_RegisterLogin(t *testing.T) {
	s := NewUserService()

	u, err := s.Register(&models.SignupRequest{Email: "Ada@Example.com", Password: "secret1", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = s.Register(&models.SignupRequest{Email: "ada@example.com", Password: "other12", DisplayName: "A"})
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := s.Login(&models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login(&models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = s.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileUserService_Reload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileUserService(dir)
	require.NoError(t, err)
	u, err := s.Register(&models.SignupRequest{Email: "ada@example.com", Password: "secret1", DisplayName: "Ada"})
	require.NoError(t, err)

	again, err := NewFileUserService(dir)
	require.NoError(t, err)
	got, err := again.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)

	_, err = again.Login(&models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	assert.NoError(t, err)
}
