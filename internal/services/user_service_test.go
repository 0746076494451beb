package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rzaleman/taskman-be/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	s, db := newTestUserService(t)
	ctx := context.Background()

	user, token, err := s.Signup(ctx, "  Regis ", "Regis@Example.com", "MyPass777!")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Regis", user.Name)
	assert.Equal(t, "regis@example.com", user.Email)
	assert.Equal(t, 0, user.Age)
	assert.NotEqual(t, "MyPass777!", user.PasswordHash)
	require.NotEmpty(t, token)

	// The issued token is in the stored list.
	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM tokens WHERE user_id = ? AND token = ?", user.ID, token).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSignupValidation(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		field    string
	}{
		{"missing name", "", "a@example.com", "MyPass777!", "name"},
		{"bad email", "Regis", "not-an-email", "MyPass777!", "email"},
		{"short password", "Regis", "a@example.com", "abc", "password"},
		{"password contains password", "Regis", "a@example.com", "password123", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Signup(ctx, tt.userName, tt.email, tt.password)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var fields apperr.FieldErrors
			require.ErrorAs(t, err, &fields)
			found := false
			for _, fe := range fields {
				if fe.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a %q field error, got %v", tt.field, fields)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	_, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	_, _, err = s.Signup(ctx, "Other", "REGIS@example.com", "OtherPass1!")
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	created, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	user, token, err := s.Login(ctx, "regis@example.com", "MyPass777!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestLoginGenericError(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	_, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	// Unknown email and wrong password must be indistinguishable.
	_, _, errUnknown := s.Login(ctx, "nobody@example.com", "MyPass777!")
	_, _, errWrongPass := s.Login(ctx, "regis@example.com", "wrongPass1")

	require.ErrorIs(t, errUnknown, apperr.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPass, apperr.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestLogoutRemovesOnlyCurrentToken(t *testing.T) {
	s, db := newTestUserService(t)
	ctx := context.Background()

	user, first, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)
	_, second, err := s.Login(ctx, "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, user.ID, first))

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM tokens WHERE user_id = ?", user.ID).Scan(&count))
	assert.Equal(t, 1, count)

	_, err = s.GetUserBySession(ctx, user.ID, first)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = s.GetUserBySession(ctx, user.ID, second)
	assert.NoError(t, err)
}

func TestLogoutAll(t *testing.T) {
	s, db := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)
	_, _, err = s.Login(ctx, "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	require.NoError(t, s.LogoutAll(ctx, user.ID))

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM tokens WHERE user_id = ?", user.ID).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestGetUserBySessionRejectsForeignToken(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	alice, aliceToken, err := s.Signup(ctx, "Alice", "alice@example.com", "MyPass777!")
	require.NoError(t, err)
	bob, _, err := s.Signup(ctx, "Bob", "bob@example.com", "MyPass777!")
	require.NoError(t, err)

	// Alice's token does not authenticate Bob.
	_, err = s.GetUserBySession(ctx, bob.ID, aliceToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = s.GetUserBySession(ctx, alice.ID, aliceToken)
	assert.NoError(t, err)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpdateUser(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	updated, err := s.UpdateUser(ctx, user.ID, UserUpdate{
		Name: strPtr("New Name"),
		Age:  intPtr(34),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 34, updated.Age)
	assert.Equal(t, "regis@example.com", updated.Email)
}

func TestUpdateUserPasswordRehash(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	_, err = s.UpdateUser(ctx, user.ID, UserUpdate{Password: strPtr("NewPass999!")})
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "regis@example.com", "MyPass777!")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, _, err = s.Login(ctx, "regis@example.com", "NewPass999!")
	assert.NoError(t, err)
}

func TestUpdateUserValidation(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	_, err = s.UpdateUser(ctx, user.ID, UserUpdate{Age: intPtr(-3)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.UpdateUser(ctx, user.ID, UserUpdate{Email: strPtr("broken")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteUserCascades(t *testing.T) {
	s, db := newTestUserService(t)
	tasks := NewTaskService(db)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, user.ID, "First task", false)
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, user.ID, "Second task", true)
	require.NoError(t, err)

	deleted, err := s.DeleteUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)

	for _, table := range []string{"users", "tasks", "tokens"} {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 0, count, "table %s not empty after cascade", table)
	}
}

func TestAvatarLifecycle(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)

	// Absent avatar is not-found, not an error state.
	_, err = s.GetAvatar(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	avatar := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, s.SetAvatar(ctx, user.ID, avatar))

	got, err := s.GetAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, avatar, got)

	require.NoError(t, s.DeleteAvatar(ctx, user.ID))
	_, err = s.GetAvatar(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserSerializationHidesSecrets(t *testing.T) {
	s, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.Signup(ctx, "Regis", "regis@example.com", "MyPass777!")
	require.NoError(t, err)
	user.Avatar = []byte{1, 2, 3}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "passwordHash")
	assert.NotContains(t, out, "tokens")
	assert.NotContains(t, out, "avatar")
	assert.Contains(t, out, "email")
}
