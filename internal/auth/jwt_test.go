package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()
	tok, err := svc.Generate(id, "ada@example.com", "Ada Lovelace", "instructor")
	require.NoError(t, err)

	claims, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, "instructor", claims.Role)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	tok, err := NewJWTService("other", 1).Generate(uuid.New(), "x@example.com", "X", "admin")
	require.NoError(t, err)

	_, err = NewJWTService("secret", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredAndAnonymous(t *testing.T) {
	svc := NewJWTService("secret", 1)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.Generate(uuid.New(), "old@example.com", "Old", "admin")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anon, err := svc.Generate(uuid.Nil, "anon@example.com", "", "admin")
	require.NoError(t, err)
	_, err = svc.Validate(anon)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_Actor(t *testing.T) {
	id := uuid.New()
	c := &Claims{UserID: id, Email: "grace@example.com"}
	assert.Equal(t, models.Actor{ID: id, Name: "grace@example.com"}, c.Actor())

	c.Name = "Grace Hopper"
	assert.Equal(t, "Grace Hopper", c.Actor().Name)
}
