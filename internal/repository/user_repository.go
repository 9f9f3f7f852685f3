package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hustlehub/backend/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь не найден.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken возвращается при регистрации на занятый email.
var ErrEmailTaken = errors.New("email already taken")

// ErrSessionNotFound возвращается, когда сессия не найдена.
var ErrSessionNotFound = errors.New("session not found")

// UserRepository отвечает за работу с пользователями и их сессиями.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя. Занятый email или username
// превращается в ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, display_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_verified, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.DisplayName,
	).Scan(&user.ID, &user.IsVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByUsername возвращает пользователя по username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE username = $1`, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by username %w", err)
	}

	return &user, nil
}

// ProfileUpdate описывает изменяемые поля профиля; nil означает "не трогать".
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Location    *string
	AvatarURL   *string
}

// UpdateProfile частично обновляет профиль пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error {
	query := "UPDATE users SET updated_at = NOW()"
	args := []interface{}{id}
	argIndex := 2

	if update.DisplayName != nil {
		query += fmt.Sprintf(", display_name = $%d", argIndex)
		args = append(args, *update.DisplayName)
		argIndex++
	}
	if update.Bio != nil {
		query += fmt.Sprintf(", bio = $%d", argIndex)
		args = append(args, *update.Bio)
		argIndex++
	}
	if update.Location != nil {
		query += fmt.Sprintf(", location = $%d", argIndex)
		args = append(args, *update.Location)
		argIndex++
	}
	if update.AvatarURL != nil {
		query += fmt.Sprintf(", avatar_url = $%d", argIndex)
		args = append(args, *update.AvatarURL)
		argIndex++
	}

	query += " WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("user repository: update profile %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: update profile rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateLastLoginAt фиксирует момент входа.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// SetVerified отмечает пользователя как подтверждённого.
func (r *UserRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: set verified %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: set verified rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CreateSession сохраняет сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSessionByToken возвращает сессию по refresh-токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	if err := r.db.GetContext(ctx, &session,
		`SELECT * FROM sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}

	return &session, nil
}

// ListSessions возвращает активные сессии пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions WHERE user_id = $1 AND expires_at > NOW() ORDER BY created_at DESC
	`, userID); err != nil {
		return nil, fmt.Errorf("user repository: list sessions %w", err)
	}

	return sessions, nil
}

// DeleteSession удаляет сессию по refresh-токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: delete session rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteSessionByID удаляет сессию пользователя по идентификатору.
func (r *UserRepository) DeleteSessionByID(ctx context.Context, userID, sessionID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete session by id %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: delete session by id rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteAllSessionsExcept закрывает все сессии пользователя, кроме текущей.
func (r *UserRepository) DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, keepToken string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND refresh_token <> $2`,
		userID, keepToken); err != nil {
		return fmt.Errorf("user repository: delete sessions %w", err)
	}
	return nil
}
