package service

import (
	"testing"

	"GroupHub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterHashesPassword(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db)

	require.NoError(t, svc.Register("alice", "super-secret-pw", "alice@example.com"))

	var user model.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.NotEqual(t, "super-secret-pw", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("super-secret-pw")))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db)

	require.NoError(t, svc.Register("bob", "super-secret-pw", "bob@example.com"))
	err := svc.Register("bob", "another-pw", "bob2@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRequiresFields(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db)

	assert.Error(t, svc.Register("", "pw", "a@b.c"))
	assert.Error(t, svc.Register("u", "", "a@b.c"))
	assert.Error(t, svc.Register("u", "pw", ""))
}
