package services

import (
	"errors"
	"fmt"
	"regexp"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var ErrMenuItemExists = errors.New("menu item with this slug already exists")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// --- MenuService Interface ---
type MenuService interface {
	CreateMenuItem(item *models.MenuItem) error
	GetMenuItemByID(id int64) (*models.MenuItem, error)
	GetMenuItems(includeUnavailable bool, page, pageSize int) ([]models.MenuItem, int, error)
	UpdateMenuItem(item *models.MenuItem) error
	DeleteMenuItem(id int64) error
	SetMenuItemAvailability(id int64, available bool) error

	GetSauceOptions(activeOnly bool) ([]models.SauceOption, error)
	GetFriesOptions(activeOnly bool) ([]models.FriesOption, error)
	CreateSauceOption(sauce *models.SauceOption) error
	CreateFriesOption(fries *models.FriesOption) error
}

type menuService struct {
	menuRepo repositories.MenuRepository
	db       repositories.SQLExecutor
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository, db repositories.SQLExecutor) MenuService {
	return &menuService{menuRepo: mr, db: db}
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: invalid slug format %q", ErrValidation, slug)
	}
	return nil
}

func validateName(name string) error {
	if utils.IsEmpty(name) {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

func (s *menuService) CreateMenuItem(item *models.MenuItem) error {
	if err := validateSlug(item.Slug); err != nil {
		return err
	}
	if err := validateName(item.Name); err != nil {
		return err
	}
	if err := validatePrice(item.Price); err != nil {
		return err
	}
	if _, err := s.menuRepo.CreateMenuItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrMenuItemExists, item.Slug)
		}
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	return nil
}

func (s *menuService) GetMenuItemByID(id int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

func (s *menuService) GetMenuItems(includeUnavailable bool, page, pageSize int) ([]models.MenuItem, int, error) {
	items, totalCount, err := s.menuRepo.GetMenuItems(includeUnavailable, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get menu items: %w", err)
	}
	return items, totalCount, nil
}

func (s *menuService) UpdateMenuItem(item *models.MenuItem) error {
	if err := validateSlug(item.Slug); err != nil {
		return err
	}
	if err := validateName(item.Name); err != nil {
		return err
	}
	if err := validatePrice(item.Price); err != nil {
		return err
	}
	if err := s.menuRepo.UpdateMenuItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrMenuItemExists, item.Slug)
		}
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	return nil
}

// DeleteMenuItem soft-deletes: items referenced by historical orders must
// survive for pricing snapshots and invoices to stay meaningful.
func (s *menuService) DeleteMenuItem(id int64) error {
	if err := s.menuRepo.SoftDeleteMenuItem(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return nil
}

func (s *menuService) SetMenuItemAvailability(id int64, available bool) error {
	if err := s.menuRepo.SetMenuItemAvailability(s.db, id, available); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to update menu item availability: %w", err)
	}
	return nil
}

func (s *menuService) GetSauceOptions(activeOnly bool) ([]models.SauceOption, error) {
	sauces, err := s.menuRepo.GetSauceOptions(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get sauce options: %w", err)
	}
	return sauces, nil
}

func (s *menuService) GetFriesOptions(activeOnly bool) ([]models.FriesOption, error) {
	options, err := s.menuRepo.GetFriesOptions(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get fries options: %w", err)
	}
	return options, nil
}

func (s *menuService) CreateSauceOption(sauce *models.SauceOption) error {
	if err := validateSlug(sauce.Slug); err != nil {
		return err
	}
	if _, err := s.menuRepo.CreateSauceOption(s.db, sauce); err != nil {
		return fmt.Errorf("failed to create sauce option: %w", err)
	}
	return nil
}

func (s *menuService) CreateFriesOption(fries *models.FriesOption) error {
	if err := validateSlug(fries.Slug); err != nil {
		return err
	}
	if _, err := s.menuRepo.CreateFriesOption(s.db, fries); err != nil {
		return fmt.Errorf("failed to create fries option: %w", err)
	}
	return nil
}
