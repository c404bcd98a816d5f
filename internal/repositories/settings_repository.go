package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pcb_bistro_backend/internal/models"
)

// SettingsRepository defines the interface for application settings and the
// invoice counters that live in the same key/value table.
type SettingsRepository interface {
	GetSetting(key string) (*models.ApplicationSetting, error)
	GetSettings() ([]models.ApplicationSetting, error)
	UpsertSetting(setting *models.ApplicationSetting) error
	DeleteSetting(key string) error

	// IncrementCounter atomically increments the integer value stored under
	// key (creating it at 1 if absent) and returns the new value.
	IncrementCounter(key string) (int64, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSetting(key string) (*models.ApplicationSetting, error) {
	s := &models.ApplicationSetting{}
	query := `SELECT id, setting_key, setting_value, description, created_at, updated_at
	          FROM application_settings
	          WHERE setting_key = $1`
	err := r.db.QueryRow(query, key).Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting setting '%s': %v", ErrDatabaseError, key, err)
	}
	return s, nil
}

func (r *settingsRepository) GetSettings() ([]models.ApplicationSetting, error) {
	settings := []models.ApplicationSetting{}
	query := `SELECT id, setting_key, setting_value, description, created_at, updated_at
	          FROM application_settings
	          ORDER BY setting_key`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.ApplicationSetting
		if err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingsRepository) UpsertSetting(setting *models.ApplicationSetting) error {
	now := time.Now()
	query := `INSERT INTO application_settings (setting_key, setting_value, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (setting_key)
	          DO UPDATE SET setting_value = EXCLUDED.setting_value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
	          RETURNING id, setting_key, setting_value, description, created_at, updated_at`
	err := r.db.QueryRow(query, setting.SettingKey, setting.SettingValue, setting.Description, now, now).
		Scan(&setting.ID, &setting.SettingKey, &setting.SettingValue, &setting.Description, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upserting setting '%s': %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return nil
}

func (r *settingsRepository) DeleteSetting(key string) error {
	result, err := r.db.Exec(`DELETE FROM application_settings WHERE setting_key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: deleting setting '%s': %v", ErrDatabaseError, key, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting setting '%s': %v", ErrDatabaseError, key, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCounter performs the read-increment-write as one upsert statement
// so two concurrent callers can never observe the same value. This is what
// keeps invoice numbers gap-free under concurrent order placement.
func (r *settingsRepository) IncrementCounter(key string) (int64, error) {
	var newValue string
	query := `INSERT INTO application_settings (setting_key, setting_value, created_at, updated_at)
	          VALUES ($1, '1', NOW(), NOW())
	          ON CONFLICT (setting_key)
	          DO UPDATE SET setting_value = (application_settings.setting_value::bigint + 1)::text, updated_at = NOW()
	          RETURNING setting_value`
	if err := r.db.QueryRow(query, key).Scan(&newValue); err != nil {
		return 0, fmt.Errorf("%w: incrementing counter '%s': %v", ErrDatabaseError, key, err)
	}
	value, err := strconv.ParseInt(newValue, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: counter '%s' holds non-integer value %q: %v", ErrDatabaseError, key, newValue, err)
	}
	return value, nil
}
