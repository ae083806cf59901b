package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ptcms/internal/orders/flow"
	"ptcms/internal/orders/quote"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
)

const (
	keyCategories = "categories"
	keyBranches   = "branches"
	keyHireTypes  = "hire-types"
	keySetting    = "setting:"
)

// Catalog is the backend's read-only reference API.
type Catalog interface {
	VehicleCategories(ctx context.Context) ([]model.VehicleCategory, error)
	Branches(ctx context.Context) ([]model.Branch, error)
	HireTypes(ctx context.Context) ([]model.HireType, error)
	DriversByBranch(ctx context.Context, branchID int64) ([]model.Driver, error)
	VehiclesByBranch(ctx context.Context, branchID int64) ([]model.Vehicle, error)
	SystemSetting(ctx context.Context, key string) (*model.SystemSetting, error)
}

// Loader serves reference data for the order form. Catalogs and settings go
// through the cache when one is configured; driver and vehicle lists are
// always read live.
type Loader struct {
	catalog Catalog
	cache   Cache
	ttl     time.Duration
	limiter *flow.Limiter
	log     *logger.Logger
}

func NewLoader(catalog Catalog, cache Cache, ttl time.Duration, log *logger.Logger) *Loader {
	return &Loader{
		catalog: catalog,
		cache:   cache,
		ttl:     ttl,
		limiter: flow.NewLimiter(flow.MaxConcurrentCalls),
		log:     log,
	}
}

// Load fetches the three catalogs concurrently. Only active branches are
// returned.
func (l *Loader) Load(ctx context.Context) (*model.ReferenceData, error) {
	var ref model.ReferenceData
	var errCategories, errBranches, errHireTypes error

	l.limiter.Go(
		func() {
			errCategories = cached(ctx, l, keyCategories, &ref.Categories, l.catalog.VehicleCategories)
		},
		func() {
			errBranches = cached(ctx, l, keyBranches, &ref.Branches, l.catalog.Branches)
		},
		func() {
			errHireTypes = cached(ctx, l, keyHireTypes, &ref.HireTypes, l.catalog.HireTypes)
		},
	)

	if err := errors.Join(errCategories, errBranches, errHireTypes); err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	ref.Branches = activeBranches(ref.Branches)
	return &ref, nil
}

// Invalidate drops the cached catalogs so the next Load reads the backend.
func (l *Loader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, keyCategories, keyBranches, keyHireTypes)
}

func (l *Loader) Drivers(ctx context.Context, branchID int64) ([]model.Driver, error) {
	drivers, err := l.catalog.DriversByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("list drivers of branch %d: %w", branchID, err)
	}
	return drivers, nil
}

func (l *Loader) Vehicles(ctx context.Context, branchID int64) ([]model.Vehicle, error) {
	vehicles, err := l.catalog.VehiclesByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles of branch %d: %w", branchID, err)
	}
	return vehicles, nil
}

// SearchDrivers filters a branch's drivers by name or phone.
func (l *Loader) SearchDrivers(ctx context.Context, branchID int64, q string) ([]model.Driver, error) {
	drivers, err := l.Drivers(ctx, branchID)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return drivers, nil
	}
	matched := make([]model.Driver, 0, len(drivers))
	for _, d := range drivers {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(d.Phone, q) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// SearchVehicles filters a branch's vehicles by plate or category name.
func (l *Loader) SearchVehicles(ctx context.Context, branchID int64, q string) ([]model.Vehicle, error) {
	vehicles, err := l.Vehicles(ctx, branchID)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return vehicles, nil
	}
	matched := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if strings.Contains(strings.ToLower(v.LicensePlate), q) || strings.Contains(strings.ToLower(v.CategoryName), q) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// AvgSpeed reads the fleet's average speed setting. Any failure falls back
// to fallback; the setting is optional.
func (l *Loader) AvgSpeed(ctx context.Context, fallback int) int {
	var setting model.SystemSetting
	err := cached(ctx, l, keySetting+quote.AvgSpeedSettingKey, &setting, func(ctx context.Context) (model.SystemSetting, error) {
		s, err := l.catalog.SystemSetting(ctx, quote.AvgSpeedSettingKey)
		if err != nil || s == nil {
			return model.SystemSetting{}, err
		}
		return *s, nil
	})
	if err != nil {
		l.log.Warn("Failed to load average speed setting, using default",
			"setting", quote.AvgSpeedSettingKey,
			"default", fallback,
			"error", err,
		)
		return quote.ParseSpeed("", fallback)
	}
	return quote.ParseSpeed(setting.Value, fallback)
}

// cached reads key from the cache or calls fetch and stores the result.
// Cache failures are logged and never fail the read.
func cached[T any](ctx context.Context, l *Loader, key string, dst *T, fetch func(context.Context) (T, error)) error {
	if l.cache != nil {
		hit, err := l.cache.Get(ctx, key, dst)
		if err != nil {
			l.log.Warn("Reference cache read failed", "key", key, "error", err)
		} else if hit {
			return nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	*dst = v

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, v, l.ttl); err != nil {
			l.log.Warn("Reference cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func activeBranches(branches []model.Branch) []model.Branch {
	active := make([]model.Branch, 0, len(branches))
	for _, b := range branches {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}
