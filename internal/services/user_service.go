package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rzaleman/taskman-be/internal/apperr"
	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/models"
	"github.com/rzaleman/taskman-be/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// UserUpdate carries the optional fields of a profile update. A nil field
// means "leave unchanged".
type UserUpdate struct {
	Name     *string
	Email    *string
	Age      *int
	Password *string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, name, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Logout(ctx context.Context, userID, token string) error
	LogoutAll(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserBySession(ctx context.Context, userID, token string) (models.User, error)
	UpdateUser(ctx context.Context, userID string, update UserUpdate) (models.User, error)
	DeleteUser(ctx context.Context, userID string) (models.User, error)
	SetAvatar(ctx context.Context, userID string, avatar []byte) error
	GetAvatar(ctx context.Context, userID string) ([]byte, error)
	DeleteAvatar(ctx context.Context, userID string) error
}

// UserService provides business logic for account management.
type UserService struct {
	db *sql.DB
	tm *auth.TokenManager
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, tm *auth.TokenManager) *UserService {
	return &UserService{db: db, tm: tm}
}

const userColumns = "id, name, email, age, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// validateNewUser runs every field validator and collects the failures.
func validateNewUser(name, email string, age int, password string) apperr.FieldErrors {
	var errs apperr.FieldErrors
	if err := validation.Name(name); err != nil {
		errs = append(errs, apperr.FieldError{Field: "name", Msg: err.Error()})
	}
	if err := validation.Email(email); err != nil {
		errs = append(errs, apperr.FieldError{Field: "email", Msg: err.Error()})
	}
	if err := validation.Age(age); err != nil {
		errs = append(errs, apperr.FieldError{Field: "age", Msg: err.Error()})
	}
	if err := validation.Password(password); err != nil {
		errs = append(errs, apperr.FieldError{Field: "password", Msg: err.Error()})
	}
	return errs
}

// Signup validates and persists a new account, then issues its first
// session token.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if errs := validateNewUser(name, email, 0, password); len(errs) > 0 {
		return models.User{}, "", errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, age, password_hash) VALUES (?, ?, ?, ?, ?)",
		id, name, email, 0, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, "", apperr.ErrDuplicateEmail
		}
		return models.User{}, "", err
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, "", err
	}

	token, err := s.issueToken(ctx, id)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a new session token. Unknown email
// and wrong password produce the same generic error.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, "", apperr.ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", apperr.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// issueToken signs a token and appends it to the user's stored token list.
func (s *UserService) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := s.tm.Generate(userID)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO tokens (token, user_id) VALUES (?, ?)", token, userID); err != nil {
		return "", err
	}
	return token, nil
}

// Logout removes exactly the token used for the current session.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE token = ? AND user_id = ?", token, userID)
	return err
}

// LogoutAll clears the user's entire token list.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE user_id = ?", userID)
	return err
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserBySession returns the user only if the presented token is still in
// their stored token list; a signature-valid but revoked token fails here.
func (s *UserService) GetUserBySession(ctx context.Context, userID, token string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? AND EXISTS (SELECT 1 FROM tokens WHERE token = ? AND user_id = users.id)",
		userID, token)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.ErrUnauthorized
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial profile update. Field validators run on every
// save; a supplied password is hashed here, as an explicit step.
func (s *UserService) UpdateUser(ctx context.Context, userID string, update UserUpdate) (models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.Age != nil {
		user.Age = *update.Age
	}

	var errs apperr.FieldErrors
	if err := validation.Name(user.Name); err != nil {
		errs = append(errs, apperr.FieldError{Field: "name", Msg: err.Error()})
	}
	if err := validation.Email(user.Email); err != nil {
		errs = append(errs, apperr.FieldError{Field: "email", Msg: err.Error()})
	}
	if err := validation.Age(user.Age); err != nil {
		errs = append(errs, apperr.FieldError{Field: "age", Msg: err.Error()})
	}
	if update.Password != nil {
		if err := validation.Password(*update.Password); err != nil {
			errs = append(errs, apperr.FieldError{Field: "password", Msg: err.Error()})
		}
	}
	if len(errs) > 0 {
		return models.User{}, errs
	}

	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = string(hash)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, age = ?, password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		user.Name, user.Email, user.Age, user.PasswordHash, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return s.GetUserByID(ctx, userID)
}

// DeleteUser removes an account and cascades to its tasks and tokens inside
// one transaction, then returns the deleted user.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM tasks WHERE owner = ?",
		"DELETE FROM tokens WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return models.User{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetAvatar stores the already-normalized avatar bytes on the user record.
func (s *UserService) SetAvatar(ctx context.Context, userID string, avatar []byte) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET avatar = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", avatar, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetAvatar returns the stored avatar bytes for any user id.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	var avatar []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT avatar FROM users WHERE id = ?", userID).Scan(&avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if len(avatar) == 0 {
		return nil, apperr.ErrNotFound
	}
	return avatar, nil
}

// DeleteAvatar clears the avatar. An absent avatar is a valid state, so
// deleting one that was never set still succeeds.
func (s *UserService) DeleteAvatar(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET avatar = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?", userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
