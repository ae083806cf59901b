package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	orderserrors "ptcms/internal/orders/errors"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
	"ptcms/pkg/sanitizer"

	"github.com/shopspring/decimal"
)

// Params are the trip inputs that drive the system price, as typed into the
// edit form.
type Params struct {
	Selections []model.VehicleSelection `json:"vehicles"`
	DistanceKm float64                  `json:"distance"`
	HireTypeID int64                    `json:"hireTypeId"`
	HireType   model.HireTypeCode       `json:"hireType"`
	StartTime  string                   `json:"startTime"`
	EndTime    string                   `json:"endTime"`
}

type PriceService interface {
	CalculatePrice(ctx context.Context, req *model.PriceRequest) (decimal.Decimal, error)
}

// BuildRequest assembles the price query. Incomplete inputs return an error
// matching orderserrors.ErrIncomplete and no request should be sent.
func BuildRequest(p Params, loc *time.Location) (*model.PriceRequest, error) {
	if p.StartTime == "" {
		return nil, orderserrors.ErrMissingStartTime
	}
	start, err := ParseLocal(p.StartTime, loc)
	if err != nil || start.IsZero() {
		return nil, orderserrors.ErrInvalidStartTime
	}

	selections := model.ValidSelections(p.Selections)
	if len(selections) == 0 {
		return nil, orderserrors.ErrMissingSelection
	}

	// An unreadable end time counts as missing.
	end, err := ParseLocal(p.EndTime, loc)
	if err != nil {
		end = time.Time{}
	}
	end = EffectiveEndTime(p.HireType, start, end)
	if end.IsZero() {
		return nil, orderserrors.ErrMissingEndTime
	}

	req := &model.PriceRequest{
		CategoryIDs: make([]int64, 0, len(selections)),
		Quantities:  make([]int, 0, len(selections)),
		DistanceKm:  max(0, p.DistanceKm),
		UseHighway:  false,
		HireTypeID:  p.HireTypeID,
		IsHoliday:   IsHoliday(start),
		IsWeekend:   IsWeekend(start),
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
	}
	for _, s := range selections {
		req.CategoryIDs = append(req.CategoryIDs, s.CategoryID)
		req.Quantities = append(req.Quantities, s.Quantity)
	}
	return req, nil
}

// FinalPrice subtracts the discount, read as digits only, and never goes
// below zero.
func FinalPrice(system decimal.Decimal, discountRaw string) decimal.Decimal {
	discount := sanitizer.ParseDiscount(discountRaw)
	return sanitizer.NonNegative(system.Sub(discount))
}

type Calculator struct {
	prices PriceService
	loc    *time.Location
	log    *logger.Logger
}

func NewCalculator(prices PriceService, loc *time.Location, log *logger.Logger) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{
		prices: prices,
		loc:    loc,
		log:    log,
	}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Calculate returns the system price for p. A failed request is returned to
// the caller as is; it is not retried.
func (c *Calculator) Calculate(ctx context.Context, p Params) (decimal.Decimal, error) {
	req, err := BuildRequest(p, c.loc)
	if err != nil {
		return decimal.Zero, err
	}

	price, err := c.prices.CalculatePrice(ctx, req)
	if err != nil {
		c.log.Warn("Price calculation failed",
			"categories", req.CategoryIDs,
			"hire_type_id", req.HireTypeID,
			"error", err,
		)
		return decimal.Zero, fmt.Errorf("calculate price: %w", err)
	}

	c.log.Debug("Price calculated",
		"categories", req.CategoryIDs,
		"distance_km", req.DistanceKm,
		"is_weekend", req.IsWeekend,
		"is_holiday", req.IsHoliday,
		"price", price.String(),
	)
	return sanitizer.NonNegative(price), nil
}

func IsIncomplete(err error) bool {
	return errors.Is(err, orderserrors.ErrIncomplete)
}

const (
	recalculatedPrefix = "Đã tính lại giá hệ thống: "

	// FailurePrefix precedes the backend's message when a price request fails.
	FailurePrefix = "Không tính được giá tự động: "
)

// FormatVND renders a whole-dong amount with dot thousands separators, as
// in "1.500.000đ".
func FormatVND(d decimal.Decimal) string {
	digits := d.Round(0).Abs().String()
	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString("đ")
	return b.String()
}

func RecalculatedMessage(price decimal.Decimal) string {
	return recalculatedPrefix + FormatVND(price)
}
