package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/quote"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
)

const (
	prefixAvailable = "✓ Khả dụng: "
	prefixShortage  = "⚠ Cảnh báo: "
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, query *model.AvailabilityQuery) (*model.AvailabilityResult, error)
}

type Request struct {
	BranchID   int64                    `json:"branchId"`
	HireType   model.HireTypeCode       `json:"hireType"`
	StartTime  string                   `json:"startTime"`
	EndTime    string                   `json:"endTime"`
	Selections []model.VehicleSelection `json:"vehicles"`

	// Categories resolves display names; unknown ids render as "Loại <id>".
	Categories []model.VehicleCategory `json:"-"`
}

type Line struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Requested    int    `json:"requested"`
	Available    bool   `json:"available"`
	Count        int    `json:"availableCount"`
	Text         string `json:"text"`
}

// Result is a snapshot. It goes stale as soon as any input changes and is
// never refreshed on its own.
type Result struct {
	Available bool   `json:"available"`
	Lines     []Line `json:"lines"`
	Message   string `json:"message"`
}

type Checker struct {
	bookings AvailabilityService
	loc      *time.Location
	log      *logger.Logger
}

func NewChecker(bookings AvailabilityService, loc *time.Location, log *logger.Logger) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{
		bookings: bookings,
		loc:      loc,
		log:      log,
	}
}

// Check queries each selected category in order. Missing inputs are refused
// before any query is sent; a failed query yields ErrCouldNotVerify rather
// than a shortage.
func (c *Checker) Check(ctx context.Context, req Request) (*Result, error) {
	selections := model.ValidSelections(req.Selections)
	if len(selections) == 0 || req.BranchID <= 0 {
		return nil, orderserrors.ErrMissingCategoryOrBranch
	}

	start, end, err := c.window(req)
	if err != nil {
		return nil, err
	}

	result := &Result{Available: true, Lines: make([]Line, 0, len(selections))}
	for _, sel := range selections {
		res, err := c.bookings.CheckAvailability(ctx, &model.AvailabilityQuery{
			BranchID:   req.BranchID,
			CategoryID: sel.CategoryID,
			StartTime:  start,
			EndTime:    end,
			Quantity:   sel.Quantity,
		})
		if err != nil {
			c.log.Warn("Availability check failed",
				"branch_id", req.BranchID,
				"category_id", sel.CategoryID,
				"error", err,
			)
			return nil, fmt.Errorf("%w: %w", orderserrors.ErrCouldNotVerify, err)
		}

		line := newLine(sel, categoryName(req.Categories, sel.CategoryID), res)
		if !line.Available {
			result.Available = false
		}
		result.Lines = append(result.Lines, line)
	}

	result.Message = summarize(result)
	return result, nil
}

func (c *Checker) window(req Request) (time.Time, time.Time, error) {
	start, err := quote.ParseLocal(req.StartTime, c.loc)
	if err != nil || start.IsZero() {
		return time.Time{}, time.Time{}, orderserrors.ErrMissingTimes
	}
	end, err := quote.ParseLocal(req.EndTime, c.loc)
	if err != nil {
		end = time.Time{}
	}
	end = quote.EffectiveEndTime(req.HireType, start, end)
	if end.IsZero() {
		return time.Time{}, time.Time{}, orderserrors.ErrMissingTimes
	}
	return start.UTC(), end.UTC(), nil
}

func newLine(sel model.VehicleSelection, name string, res *model.AvailabilityResult) Line {
	line := Line{
		CategoryID:   sel.CategoryID,
		CategoryName: name,
		Requested:    sel.Quantity,
	}
	if res != nil && res.Available {
		line.Available = true
		line.Count = res.Count
		line.Text = fmt.Sprintf("%s: Còn %d xe", name, res.Count)
	} else {
		line.Text = fmt.Sprintf("%s: Hết xe", name)
	}
	return line
}

func summarize(r *Result) string {
	texts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		texts = append(texts, l.Text)
	}
	prefix := prefixAvailable
	if !r.Available {
		prefix = prefixShortage
	}
	return prefix + strings.Join(texts, ", ")
}

func categoryName(categories []model.VehicleCategory, id int64) string {
	for i := range categories {
		if categories[i].ID == id && categories[i].Name != "" {
			return categories[i].Name
		}
	}
	return fmt.Sprintf("Loại %d", id)
}
