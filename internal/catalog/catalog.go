// Package catalog manages the merchant's items, packaging and origin settings
// and serves them to the quote engine.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/shipper"
)

var (
	// ErrValidation wraps entity validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateName indicates another entity already uses the name.
	ErrDuplicateName = errors.New("name already exists")
)

// Repository persists catalog entities. Lookups of unknown ids, and reading
// settings that were never saved, return an error wrapping shipper.ErrNotFound.
type Repository interface {
	Items(ctx context.Context) ([]shipper.Item, error)
	Item(ctx context.Context, id string) (shipper.Item, error)
	PutItem(ctx context.Context, item shipper.Item) error
	DeleteItem(ctx context.Context, id string) error

	Packagings(ctx context.Context) ([]shipper.Packaging, error)
	Packaging(ctx context.Context, id string) (shipper.Packaging, error)
	PutPackaging(ctx context.Context, p shipper.Packaging) error
	DeletePackaging(ctx context.Context, id string) error

	Settings(ctx context.Context) (shipper.OriginSettings, error)
	PutSettings(ctx context.Context, s shipper.OriginSettings) error

	Close() error
}

// Service applies catalog rules on top of a Repository.
type Service struct {
	repo     Repository
	logger   *otelzap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	// serializes read-check-write sequences such as name uniqueness
	mu sync.Mutex
}

// NewService creates a catalog service.
func NewService(repo Repository, logger *otelzap.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &Service{
		repo:     repo,
		logger:   logger,
		validate: v,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ListItems returns every item.
func (s *Service) ListItems(ctx context.Context) ([]shipper.Item, error) {
	return s.repo.Items(ctx)
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id string) (shipper.Item, error) {
	return s.repo.Item(ctx, id)
}

// CreateItem assigns an id and stores a new item with a unique name.
func (s *Service) CreateItem(ctx context.Context, item shipper.Item) (shipper.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := s.check(item); err != nil {
		return shipper.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.Items(ctx)
	if err != nil {
		return shipper.Item{}, err
	}
	for _, e := range existing {
		if e.Name == item.Name {
			return shipper.Item{}, fmt.Errorf("%w: item with name %s already exists", ErrDuplicateName, item.Name)
		}
	}

	item.ID = s.newID()
	if err := s.repo.PutItem(ctx, item); err != nil {
		return shipper.Item{}, err
	}
	s.logger.Ctx(ctx).Info("item created", zap.String("id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// UpdateItem merges patch into the stored item. Blank names, empty
// descriptions and non-positive weights keep the stored value.
func (s *Service) UpdateItem(ctx context.Context, id string, patch shipper.Item) (shipper.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Item(ctx, id)
	if err != nil {
		return shipper.Item{}, err
	}

	name := strings.TrimSpace(patch.Name)
	if name != "" {
		if err := s.ensureUniqueItemName(ctx, id, name); err != nil {
			return shipper.Item{}, err
		}
		current.Name = name
	}
	if patch.Description != "" {
		current.Description = patch.Description
	}
	if patch.UnitWeightGrams > 0 {
		current.UnitWeightGrams = patch.UnitWeightGrams
	}

	if err := s.repo.PutItem(ctx, current); err != nil {
		return shipper.Item{}, err
	}
	return current, nil
}

func (s *Service) ensureUniqueItemName(ctx context.Context, id, name string) error {
	items, err := s.repo.Items(ctx)
	if err != nil {
		return err
	}
	for _, e := range items {
		if e.Name == name && e.ID != id {
			return fmt.Errorf("%w: item with name %s already exists", ErrDuplicateName, name)
		}
	}
	return nil
}

// DeleteItem removes an item. Unknown ids are not an error.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteItem(ctx, id); err != nil && !errors.Is(err, shipper.ErrNotFound) {
		return err
	}
	return nil
}

// ListPackaging returns every packaging option.
func (s *Service) ListPackaging(ctx context.Context) ([]shipper.Packaging, error) {
	return s.repo.Packagings(ctx)
}

// GetPackaging returns one packaging option.
func (s *Service) GetPackaging(ctx context.Context, id string) (shipper.Packaging, error) {
	return s.repo.Packaging(ctx, id)
}

// CreatePackaging stores new packaging. The internal volume defaults to the
// outer box volume.
func (s *Service) CreatePackaging(ctx context.Context, p shipper.Packaging) (shipper.Packaging, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := s.check(p); err != nil {
		return shipper.Packaging{}, err
	}
	p.InternalVolumeCubicCm = p.UsableVolumeCm3()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUniquePackagingName(ctx, "", p.Name); err != nil {
		return shipper.Packaging{}, err
	}

	p.ID = s.newID()
	if err := s.repo.PutPackaging(ctx, p); err != nil {
		return shipper.Packaging{}, err
	}
	s.logger.Ctx(ctx).Info("packaging created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdatePackaging merges patch into the stored packaging. Zero and blank
// fields keep the stored value.
func (s *Service) UpdatePackaging(ctx context.Context, id string, patch shipper.Packaging) (shipper.Packaging, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Packaging(ctx, id)
	if err != nil {
		return shipper.Packaging{}, err
	}

	name := strings.TrimSpace(patch.Name)
	if name != "" {
		if err := s.ensureUniquePackagingName(ctx, id, name); err != nil {
			return shipper.Packaging{}, err
		}
		current.Name = name
	}
	if patch.Description != "" {
		current.Description = patch.Description
	}
	if patch.LengthCm > 0 {
		current.LengthCm = patch.LengthCm
	}
	if patch.HeightCm > 0 {
		current.HeightCm = patch.HeightCm
	}
	if patch.WidthCm > 0 {
		current.WidthCm = patch.WidthCm
	}
	if patch.InternalVolumeCubicCm > 0 {
		current.InternalVolumeCubicCm = patch.InternalVolumeCubicCm
	}
	if patch.PackagingCostAud > 0 {
		current.PackagingCostAud = patch.PackagingCostAud
	}

	if err := s.repo.PutPackaging(ctx, current); err != nil {
		return shipper.Packaging{}, err
	}
	return current, nil
}

func (s *Service) ensureUniquePackagingName(ctx context.Context, id, name string) error {
	all, err := s.repo.Packagings(ctx)
	if err != nil {
		return err
	}
	for _, e := range all {
		if e.Name == name && e.ID != id {
			return fmt.Errorf("%w: packaging with name %s already exists", ErrDuplicateName, name)
		}
	}
	return nil
}

// DeletePackaging removes packaging. Unknown ids are not an error.
func (s *Service) DeletePackaging(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeletePackaging(ctx, id); err != nil && !errors.Is(err, shipper.ErrNotFound) {
		return err
	}
	return nil
}

// GetOrigin returns the stored settings, or an error wrapping
// shipper.ErrNotFound when nothing was saved yet.
func (s *Service) GetOrigin(ctx context.Context) (shipper.OriginSettings, error) {
	return s.repo.Settings(ctx)
}

// SaveOrigin replaces the origin address. An empty theme keeps the stored one.
func (s *Service) SaveOrigin(ctx context.Context, o shipper.OriginSettings) (shipper.OriginSettings, error) {
	o.Postcode = strings.TrimSpace(o.Postcode)
	o.Country = strings.ToUpper(strings.TrimSpace(o.Country))
	o.ThemePreference = normalizeTheme(o.ThemePreference)
	if err := s.check(o); err != nil {
		return shipper.OriginSettings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ThemePreference == "" {
		if current, err := s.repo.Settings(ctx); err == nil {
			o.ThemePreference = current.ThemePreference
		} else if !errors.Is(err, shipper.ErrNotFound) {
			return shipper.OriginSettings{}, err
		}
	}
	o.UpdatedAt = s.now().UTC()

	if err := s.repo.PutSettings(ctx, o); err != nil {
		return shipper.OriginSettings{}, err
	}
	s.logger.Ctx(ctx).Info("origin settings updated", zap.String("postcode", o.Postcode))
	return o, nil
}

// SetTheme stores the UI theme. It may be set before any origin exists.
func (s *Service) SetTheme(ctx context.Context, theme string) (shipper.OriginSettings, error) {
	theme = normalizeTheme(theme)
	if err := s.validate.Var(theme, "omitempty,oneof=dark light sepia"); err != nil {
		return shipper.OriginSettings{}, fmt.Errorf("%w: theme preference must be dark, light, or sepia", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Settings(ctx)
	if err != nil && !errors.Is(err, shipper.ErrNotFound) {
		return shipper.OriginSettings{}, err
	}
	current.ThemePreference = theme
	current.UpdatedAt = s.now().UTC()

	if err := s.repo.PutSettings(ctx, current); err != nil {
		return shipper.OriginSettings{}, err
	}
	return current, nil
}

// Item implements the quote engine's catalog lookup.
func (s *Service) Item(ctx context.Context, id string) (shipper.Item, error) {
	return s.repo.Item(ctx, id)
}

// Packaging implements the quote engine's catalog lookup.
func (s *Service) Packaging(ctx context.Context, id string) (shipper.Packaging, error) {
	return s.repo.Packaging(ctx, id)
}

// Origin returns the configured origin. Settings holding only a theme count
// as not configured.
func (s *Service) Origin(ctx context.Context) (shipper.OriginSettings, error) {
	o, err := s.repo.Settings(ctx)
	if err != nil {
		return shipper.OriginSettings{}, err
	}
	if strings.TrimSpace(o.Postcode) == "" {
		return shipper.OriginSettings{}, fmt.Errorf("origin postcode: %w", shipper.ErrNotFound)
	}
	if o.Country == "" {
		o.Country = shipper.DefaultCountry
	}
	return o, nil
}

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must not be negative"
	case "len":
		return fe.Field() + " must be " + fe.Param() + " characters"
	case "number":
		return fe.Field() + " must be digits"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

func normalizeTheme(theme string) string {
	return strings.ToLower(strings.TrimSpace(theme))
}

// IsValidation reports whether err is a client-side catalog error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateName)
}
