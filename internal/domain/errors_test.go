package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict("Email is already registered"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "register: Email is already registered", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnexpected, KindOf(nil))
}

func TestPublicOmitsHash(t *testing.T) {
	u := User{ID: "u1", Email: "a@x.com", PasswordHash: "$2a$..."}
	assert.Equal(t, PublicUser{ID: "u1", Email: "a@x.com"}, u.Public())
}
