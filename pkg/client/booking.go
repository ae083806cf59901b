package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"ptcms/pkg/model"

	"github.com/shopspring/decimal"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{
		httpClient: httpClient,
	}
}

func bookingPath(id int64) string {
	return "/api/bookings/" + strconv.FormatInt(id, 10)
}

func (c *BookingClient) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, bookingPath(id))
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) Update(ctx context.Context, id int64, update *model.BookingUpdate) (*model.Booking, error) {
	resp, err := c.httpClient.PUT(ctx, bookingPath(id), update)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CalculatePrice asks the backend for the system price of a trip
// configuration. The parameters travel as a query string.
func (c *BookingClient) CalculatePrice(ctx context.Context, req *model.PriceRequest) (decimal.Decimal, error) {
	q := url.Values{}
	for _, id := range req.CategoryIDs {
		q.Add("vehicleCategoryIds", strconv.FormatInt(id, 10))
	}
	for _, qty := range req.Quantities {
		q.Add("quantities", strconv.Itoa(qty))
	}
	q.Set("distance", strconv.FormatFloat(req.DistanceKm, 'f', -1, 64))
	q.Set("useHighway", strconv.FormatBool(req.UseHighway))
	if req.HireTypeID != 0 {
		q.Set("hireTypeId", strconv.FormatInt(req.HireTypeID, 10))
	}
	q.Set("isHoliday", strconv.FormatBool(req.IsHoliday))
	q.Set("isWeekend", strconv.FormatBool(req.IsWeekend))
	if !req.StartTime.IsZero() {
		q.Set("startTime", req.StartTime.UTC().Format(time.RFC3339))
	}
	if !req.EndTime.IsZero() {
		q.Set("endTime", req.EndTime.UTC().Format(time.RFC3339))
	}

	resp, err := c.httpClient.POST(ctx, "/api/bookings/calculate-price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	var price decimal.Decimal
	if err := decodeData(resp, &price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (c *BookingClient) CheckAvailability(ctx context.Context, query *model.AvailabilityQuery) (*model.AvailabilityResult, error) {
	q := url.Values{}
	q.Set("branchId", strconv.FormatInt(query.BranchID, 10))
	q.Set("categoryId", strconv.FormatInt(query.CategoryID, 10))
	q.Set("startTime", query.StartTime.UTC().Format(time.RFC3339))
	q.Set("endTime", query.EndTime.UTC().Format(time.RFC3339))
	q.Set("quantity", strconv.Itoa(query.Quantity))

	resp, err := c.httpClient.GET(ctx, "/api/bookings/check-availability?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var result model.AvailabilityResult
	if err := decodeData(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *BookingClient) Assign(ctx context.Context, bookingID int64, req *model.AssignmentRequest) error {
	resp, err := c.httpClient.POST(ctx, fmt.Sprintf("%s/assign", bookingPath(bookingID)), req)
	if err != nil {
		return err
	}
	return decodeData(resp, nil)
}
