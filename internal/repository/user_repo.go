package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

type ReminderRecipient struct {
	ID            uuid.UUID
	Email         string
	DisplayName   string
	Streak        int
	LastSentAtRaw string
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts the user together with a zeroed stats row and default
// settings, in one transaction so a user never exists without stats.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	user.Role = "user"
	user.IsActive = true

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, photo_url, provider, role, google_id, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		user.ID, user.Email, user.PasswordHash, user.DisplayName, user.PhotoURL,
		user.Provider, user.Role, user.GoogleID, user.IsVerified,
	).Scan(&user.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO user_study_stats (user_id) VALUES ($1)", user.ID,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO user_settings (user_id) VALUES ($1) ON CONFLICT DO NOTHING", user.ID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const userColumns = `id, email, password_hash, display_name, photo_url, provider, role, google_id, is_verified, is_active, created_at, last_login_at`

func (r *UserRepo) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.PhotoURL,
		&user.Provider, &user.Role, &user.GoogleID, &user.IsVerified, &user.IsActive,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE google_id = $1", googleID))
}

// LinkGoogle attaches a Google identity to an existing email account.
func (r *UserRepo) LinkGoogle(ctx context.Context, userID uuid.UUID, googleID string, photoURL *string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET google_id = $1, photo_url = COALESCE($2, photo_url), is_verified = TRUE WHERE id = $3",
		googleID, photoURL, userID,
	)
	return err
}

func (r *UserRepo) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET is_verified = TRUE WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, provider, ip string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO login_history (user_id, provider, ip) VALUES ($1, $2, $3)",
		userID, provider, ip,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET display_name = $1, email = $2, photo_url = $3 WHERE id = $4",
		user.DisplayName, user.Email, user.PhotoURL, user.ID,
	)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	return err
}

func (r *UserRepo) LoginHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoginHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT login_at, provider, ip FROM login_history
		WHERE user_id = $1 ORDER BY login_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LoginHistoryEntry, 0)
	for rows.Next() {
		var e models.LoginHistoryEntry
		if scanErr := rows.Scan(&e.LoginAt, &e.Provider, &e.IP); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *UserRepo) GetNotificationSetting(ctx context.Context, userID uuid.UUID, key string, defaultValue bool) (bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT CASE
				WHEN LOWER(COALESCE(notifications_json->>$2, '')) IN ('true', 'false')
					THEN (notifications_json->>$2)::boolean
				ELSE NULL
			END
			FROM user_settings
			WHERE user_id = $1
		), $3)
	`, userID, key, defaultValue).Scan(&enabled)
	if err != nil {
		return defaultValue, err
	}

	return enabled, nil
}

func (r *UserRepo) SetNotificationSetting(ctx context.Context, userID uuid.UUID, key string, enabled bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, notifications_json, updated_at)
		VALUES (
			$1,
			jsonb_build_object($2::text, to_jsonb($3::boolean)),
			NOW()
		)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_json = COALESCE(user_settings.notifications_json, '{}'::jsonb) ||
			jsonb_build_object($2::text, to_jsonb($3::boolean)),
			updated_at = NOW()
	`, userID, key, enabled)
	return err
}

func (r *UserRepo) SetNotificationTimestamp(ctx context.Context, userID uuid.UUID, key string, at time.Time) error {
	formatted := at.UTC().Format(time.RFC3339)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, notifications_json, updated_at)
		VALUES (
			$1,
			jsonb_build_object($2::text, to_jsonb($3::text)),
			NOW()
		)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_json = COALESCE(user_settings.notifications_json, '{}'::jsonb) ||
			jsonb_build_object($2::text, to_jsonb($3::text)),
			updated_at = NOW()
	`, userID, key, formatted)
	return err
}

// ListStreakReminderRecipients returns verified users with an active streak
// who have streak reminders enabled, along with when they were last reminded.
func (r *UserRepo) ListStreakReminderRecipients(ctx context.Context, notificationKey, lastSentKey string) ([]ReminderRecipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			u.id,
			u.email,
			u.display_name,
			s.streak,
			COALESCE(us.notifications_json->>$2, '') AS last_sent_at
		FROM users u
		JOIN user_study_stats s ON s.user_id = u.id
		LEFT JOIN user_settings us ON us.user_id = u.id
		WHERE u.is_active = TRUE
		  AND u.is_verified = TRUE
		  AND s.streak > 0
		  AND COALESCE((
			CASE
				WHEN LOWER(COALESCE(us.notifications_json->>$1, '')) IN ('true', 'false')
				THEN (us.notifications_json->>$1)::boolean
				ELSE false
			END
		  ), false) = TRUE
	`, notificationKey, lastSentKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]ReminderRecipient, 0)
	for rows.Next() {
		var recipient ReminderRecipient
		if scanErr := rows.Scan(
			&recipient.ID,
			&recipient.Email,
			&recipient.DisplayName,
			&recipient.Streak,
			&recipient.LastSentAtRaw,
		); scanErr != nil {
			return nil, scanErr
		}
		recipients = append(recipients, recipient)
	}

	return recipients, rows.Err()
}
