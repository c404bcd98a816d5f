package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pcb_bistro_backend/internal/models"

	"github.com/lib/pq"
)

// MenuRepository defines the interface for catalog-related database operations.
// The Find* methods form the catalog lookup used by order pricing.
type MenuRepository interface {
	// MenuItem methods
	CreateMenuItem(executor SQLExecutor, item *models.MenuItem) (int64, error)
	GetMenuItemByID(id int64) (*models.MenuItem, error)
	GetMenuItems(includeUnavailable bool, page, pageSize int) ([]models.MenuItem, int, error)
	UpdateMenuItem(executor SQLExecutor, item *models.MenuItem) error
	SoftDeleteMenuItem(executor SQLExecutor, id int64) error
	SetMenuItemAvailability(executor SQLExecutor, id int64, available bool) error

	// Option methods
	GetSauceOptions(activeOnly bool) ([]models.SauceOption, error)
	GetFriesOptions(activeOnly bool) ([]models.FriesOption, error)
	CreateSauceOption(executor SQLExecutor, sauce *models.SauceOption) (int64, error)
	CreateFriesOption(executor SQLExecutor, fries *models.FriesOption) (int64, error)

	// Catalog lookups used by the pricing engine
	FindMenuItem(id int64) (*models.MenuItem, error)
	FindSauce(slug string) (*models.SauceOption, error)
	FindFriesOption(slug string) (*models.FriesOption, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

// --- MenuItem Methods ---

func (r *menuRepository) CreateMenuItem(executor SQLExecutor, item *models.MenuItem) (int64, error) {
	query := `INSERT INTO menu_items
	            (slug, name, description, price, category, image_url, includes_sides,
	             is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		item.Slug, item.Name, item.Description, item.Price, item.Category, item.ImageURL,
		item.IncludesSides, item.IsAvailable, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: menu item slug '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Slug, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating menu item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *menuRepository) GetMenuItemByID(id int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT id, slug, name, description, price, category, image_url, includes_sides,
	                 is_available, is_deleted, deleted_at, created_at, updated_at
	          FROM menu_items
	          WHERE id = $1 AND is_deleted = FALSE`
	err := r.db.QueryRow(query, id).Scan(
		&item.ID, &item.Slug, &item.Name, &item.Description, &item.Price, &item.Category,
		&item.ImageURL, &item.IncludesSides, &item.IsAvailable, &item.IsDeleted, &item.DeletedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *menuRepository) GetMenuItems(includeUnavailable bool, page, pageSize int) ([]models.MenuItem, int, error) {
	items := []models.MenuItem{}
	totalCount := 0

	query := `SELECT id, slug, name, description, price, category, image_url, includes_sides,
	                 is_available, is_deleted, deleted_at, created_at, updated_at,
	                 COUNT(*) OVER() AS total_count
	          FROM menu_items
	          WHERE is_deleted = FALSE`
	if !includeUnavailable {
		query += ` AND is_available = TRUE`
	}
	query += ` ORDER BY category NULLS LAST, name LIMIT $1 OFFSET $2`

	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MenuItem
		err := rows.Scan(
			&item.ID, &item.Slug, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.ImageURL, &item.IncludesSides, &item.IsAvailable, &item.IsDeleted, &item.DeletedAt,
			&item.CreatedAt, &item.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *menuRepository) UpdateMenuItem(executor SQLExecutor, item *models.MenuItem) error {
	query := `UPDATE menu_items
	          SET slug = $1, name = $2, description = $3, price = $4, category = $5,
	              image_url = $6, includes_sides = $7, is_available = $8, updated_at = $9
	          WHERE id = $10 AND is_deleted = FALSE`
	result, err := executor.Exec(query,
		item.Slug, item.Name, item.Description, item.Price, item.Category,
		item.ImageURL, item.IncludesSides, item.IsAvailable, time.Now(), item.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: menu item slug '%s' already exists", ErrDuplicateKey, item.Slug)
		}
		return fmt.Errorf("%w: updating menu item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for menu item update ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) SoftDeleteMenuItem(executor SQLExecutor, id int64) error {
	query := `UPDATE menu_items
	          SET is_deleted = TRUE, deleted_at = $1, is_available = FALSE, updated_at = $1
	          WHERE id = $2 AND is_deleted = FALSE`
	result, err := executor.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: soft-deleting menu item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for menu item delete ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) SetMenuItemAvailability(executor SQLExecutor, id int64, available bool) error {
	query := `UPDATE menu_items SET is_available = $1, updated_at = $2 WHERE id = $3 AND is_deleted = FALSE`
	result, err := executor.Exec(query, available, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting availability for menu item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for availability update ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Option Methods ---

func (r *menuRepository) GetSauceOptions(activeOnly bool) ([]models.SauceOption, error) {
	sauces := []models.SauceOption{}
	query := `SELECT id, slug, name, price, is_default, is_active, created_at, updated_at
	          FROM sauce_options`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sauce options: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.SauceOption
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.Price, &s.IsDefault, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning sauce option: %v", ErrDatabaseError, err)
		}
		sauces = append(sauces, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sauce option rows: %v", ErrDatabaseError, err)
	}
	return sauces, nil
}

func (r *menuRepository) GetFriesOptions(activeOnly bool) ([]models.FriesOption, error) {
	options := []models.FriesOption{}
	query := `SELECT id, slug, name, price_addon, is_default, is_active, created_at, updated_at
	          FROM fries_options`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price_addon, name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fries options: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.FriesOption
		if err := rows.Scan(&f.ID, &f.Slug, &f.Name, &f.PriceAddon, &f.IsDefault, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning fries option: %v", ErrDatabaseError, err)
		}
		options = append(options, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating fries option rows: %v", ErrDatabaseError, err)
	}
	return options, nil
}

func (r *menuRepository) CreateSauceOption(executor SQLExecutor, sauce *models.SauceOption) (int64, error) {
	query := `INSERT INTO sauce_options (slug, name, price, is_default, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, sauce.Slug, sauce.Name, sauce.Price, sauce.IsDefault, sauce.IsActive, currentTime, currentTime).Scan(&sauce.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: sauce slug '%s' already exists", ErrDuplicateKey, sauce.Slug)
		}
		return 0, fmt.Errorf("%w: creating sauce option: %v", ErrDatabaseError, err)
	}
	return sauce.ID, nil
}

func (r *menuRepository) CreateFriesOption(executor SQLExecutor, fries *models.FriesOption) (int64, error) {
	query := `INSERT INTO fries_options (slug, name, price_addon, is_default, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, fries.Slug, fries.Name, fries.PriceAddon, fries.IsDefault, fries.IsActive, currentTime, currentTime).Scan(&fries.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: fries slug '%s' already exists", ErrDuplicateKey, fries.Slug)
		}
		return 0, fmt.Errorf("%w: creating fries option: %v", ErrDatabaseError, err)
	}
	return fries.ID, nil
}

// --- Catalog Lookups ---

// FindMenuItem resolves an orderable menu item by ID for pricing.
// Unavailable and soft-deleted items are not orderable.
func (r *menuRepository) FindMenuItem(id int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT id, slug, name, price, includes_sides
	          FROM menu_items
	          WHERE id = $1 AND is_deleted = FALSE AND is_available = TRUE`
	err := r.db.QueryRow(query, id).Scan(&item.ID, &item.Slug, &item.Name, &item.Price, &item.IncludesSides)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding menu item %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *menuRepository) FindSauce(slug string) (*models.SauceOption, error) {
	sauce := &models.SauceOption{}
	query := `SELECT id, slug, name, price FROM sauce_options WHERE slug = $1 AND is_active = TRUE`
	err := r.db.QueryRow(query, slug).Scan(&sauce.ID, &sauce.Slug, &sauce.Name, &sauce.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding sauce option '%s': %v", ErrDatabaseError, slug, err)
	}
	return sauce, nil
}

func (r *menuRepository) FindFriesOption(slug string) (*models.FriesOption, error) {
	fries := &models.FriesOption{}
	query := `SELECT id, slug, name, price_addon FROM fries_options WHERE slug = $1 AND is_active = TRUE`
	err := r.db.QueryRow(query, slug).Scan(&fries.ID, &fries.Slug, &fries.Name, &fries.PriceAddon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding fries option '%s': %v", ErrDatabaseError, slug, err)
	}
	return fries, nil
}
