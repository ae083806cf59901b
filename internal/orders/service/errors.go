package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ptcms/internal/orders/assignment"
	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/validator"
	"ptcms/pkg/client"
	apperrors "ptcms/pkg/errors"
)

// refusals are business rules the console shows as they are.
var refusals = []error{
	orderserrors.ErrMissingCategoryOrBranch,
	orderserrors.ErrMissingTimes,
	orderserrors.ErrNoTrips,
	orderserrors.ErrNothingToAssign,
	orderserrors.ErrSelectionLimit,
	orderserrors.ErrSelectionMinimum,
	orderserrors.ErrDuplicateCategory,
}

// mapError turns a domain or backend error into an AppError. prefix is put
// in front of the backend's message when the backend refused the call.
func mapError(err error, prefix string) error {
	if apperrors.IsAppError(err) {
		return err
	}

	var cooldown *assignment.CooldownError
	if errors.As(err, &cooldown) {
		return apperrors.Cooldown(cooldown.Error(), cooldown.Seconds())
	}

	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return apperrors.Validation(invalid.First(), invalid.Details())
	}

	var incomplete *orderserrors.IncompleteError
	if errors.As(err, &incomplete) {
		return apperrors.Validation(incomplete.Message, nil)
	}

	for _, refusal := range refusals {
		if errors.Is(err, refusal) {
			return apperrors.Validation(refusal.Error(), nil)
		}
	}

	if errors.Is(err, orderserrors.ErrCouldNotVerify) {
		return apperrors.Upstream(orderserrors.ErrCouldNotVerify.Error(), err)
	}

	var upstream *client.UpstreamError
	if errors.As(err, &upstream) {
		msg := upstream.Message
		if msg == "" {
			msg = client.DefaultErrorMessage
		}
		return apperrors.Upstream(prefix+msg, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("Backend did not respond in time")
	}
	return apperrors.Wrap(err, apperrors.CodeUnavailable, "Backend is temporarily unavailable", http.StatusServiceUnavailable)
}

func mapLoadError(err error, id int64) error {
	if client.IsUpstreamStatus(err, http.StatusNotFound) {
		return apperrors.NotFoundWithID("Booking", strconv.FormatInt(id, 10))
	}
	return mapError(err, "")
}
