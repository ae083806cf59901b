package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"ptcms/internal/orders/quote"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
	"ptcms/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const (
	MinPhoneDigits = 10
	MaxSelections  = 5
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// First is the message shown when only one can be displayed.
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		if _, seen := fields[err.Field]; !seen {
			fields[err.Field] = err.Message
		}
	}
	return fields
}

// Order is the sanitized form content checked before a save. EndTime is the
// raw input; one-way hires may leave it empty.
type Order struct {
	CustomerName  string                   `json:"customerName" validate:"min=2"`
	CustomerPhone string                   `json:"customerPhone" validate:"phone_digits"`
	CustomerEmail string                   `json:"customerEmail" validate:"omitempty,email"`
	Pickup        string                   `json:"pickup" validate:"min=3"`
	Dropoff       string                   `json:"dropoff" validate:"min=3"`
	HireType      model.HireTypeCode       `json:"hireType"`
	StartTime     string                   `json:"startTime"`
	EndTime       string                   `json:"endTime"`
	PaxCount      int                      `json:"paxCount"`
	Selections    []model.VehicleSelection `json:"vehicles"`

	// Seats of the first selected category, zero when unknown.
	Seats int `json:"-"`
	// PaxVisible is false for roles that do not see the passenger field.
	PaxVisible bool `json:"-"`
}

var fieldMessages = map[string]string{
	"customerName":  "Vui lòng nhập tên khách hàng",
	"customerPhone": "Số điện thoại không hợp lệ (cần ít nhất 10 số)",
	"customerEmail": "Email không hợp lệ",
	"pickup":        "Vui lòng nhập điểm đón",
	"dropoff":       "Vui lòng nhập điểm đến",
}

type OrderValidator struct {
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

func NewOrderValidator(log *logger.Logger, loc *time.Location) *OrderValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("phone_digits", validatePhoneDigits); err != nil {
		log.Fatal("Failed to register 'phone_digits' validator",
			"error", err,
		)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &OrderValidator{
		validate: v,
		loc:      loc,
		now:      time.Now,
		logger:   log,
	}
}

func validatePhoneDigits(fl validator.FieldLevel) bool {
	return sanitizer.CountDigits(fl.Field().String()) >= MinPhoneDigits
}

// Validate reports every failing field, in the order the form shows them.
func (v *OrderValidator) Validate(order *Order) error {
	var errs ValidationErrors

	if err := v.validate.Struct(order); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}

	errs = append(errs, v.validateSchedule(order)...)
	errs = append(errs, v.validatePassengers(order)...)
	errs = append(errs, validateSelections(order.Selections)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Struct runs tag validation only, for request bodies outside the order form.
func (v *OrderValidator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *OrderValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		msg, ok := fieldMessages[err.Field()]
		if !ok {
			msg = genericMessage(err)
		}
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: msg,
		})
	}

	return validationErrors
}

func genericMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Trường này là bắt buộc"
	case "max":
		return fmt.Sprintf("Tối đa %s ký tự", err.Param())
	case "min":
		return fmt.Sprintf("Tối thiểu %s ký tự", err.Param())
	default:
		return "Giá trị không hợp lệ"
	}
}

func (v *OrderValidator) validateSchedule(order *Order) ValidationErrors {
	if strings.TrimSpace(order.StartTime) == "" {
		errs := ValidationErrors{{Field: "startTime", Message: "Vui lòng nhập thời gian đón"}}
		if !order.HireType.SynthesizesEndTime() && strings.TrimSpace(order.EndTime) == "" {
			errs = append(errs, ValidationError{Field: "endTime", Message: "Vui lòng nhập thời gian kết thúc"})
		}
		return errs
	}

	start, err := quote.ParseLocal(order.StartTime, v.loc)
	if err != nil {
		return ValidationErrors{{Field: "startTime", Message: "Thời gian đón không hợp lệ"}}
	}

	end, endErr := quote.ParseLocal(order.EndTime, v.loc)
	if endErr != nil {
		end = time.Time{}
	}
	end = quote.EffectiveEndTime(order.HireType, start, end)

	var errs ValidationErrors
	if end.IsZero() {
		errs = append(errs, ValidationError{Field: "endTime", Message: "Vui lòng nhập thời gian kết thúc"})
	}
	if v.isPast(start, order.HireType) {
		errs = append(errs, ValidationError{Field: "startTime", Message: "Thời gian đón phải lớn hơn thời gian hiện tại"})
	}
	if !end.IsZero() && !end.After(start) {
		errs = append(errs, ValidationError{Field: "endTime", Message: "Thời gian kết thúc phải sau thời gian đón"})
	}
	return errs
}

// isPast compares day-based hires by calendar date so a booking for today is
// still accepted.
func (v *OrderValidator) isPast(start time.Time, hireType model.HireTypeCode) bool {
	now := v.now().In(v.loc)
	if hireType.IsDateOnly() {
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, v.loc)
		return start.Before(today)
	}
	return start.Before(now)
}

func (v *OrderValidator) validatePassengers(order *Order) ValidationErrors {
	if !order.PaxVisible {
		return nil
	}
	if order.PaxCount < 1 {
		return ValidationErrors{{Field: "paxCount", Message: "Số khách phải >= 1"}}
	}
	if order.Seats > 0 && order.PaxCount >= order.Seats {
		return ValidationErrors{{Field: "paxCount", Message: fmt.Sprintf("Số khách phải < %d (số ghế xe)", order.Seats)}}
	}
	return nil
}

func validateSelections(selections []model.VehicleSelection) ValidationErrors {
	if len(selections) > MaxSelections {
		return ValidationErrors{{Field: "vehicles", Message: "Tối đa 5 loại xe"}}
	}

	seen := make(map[int64]bool, len(selections))
	valid := 0
	for _, s := range selections {
		if s.CategoryID <= 0 {
			continue
		}
		valid++
		if s.Quantity < 1 {
			return ValidationErrors{{Field: "vehicles", Message: "Số lượng xe phải >= 1"}}
		}
		if seen[s.CategoryID] {
			return ValidationErrors{{Field: "vehicles", Message: "Loại xe này đã được chọn. Vui lòng chọn loại xe khác hoặc tăng số lượng."}}
		}
		seen[s.CategoryID] = true
	}
	if valid == 0 {
		return ValidationErrors{{Field: "vehicles", Message: "Vui lòng chọn ít nhất 1 loại xe"}}
	}
	return nil
}
