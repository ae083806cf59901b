package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "ptcms/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(ps httprouter.Params, name string) (int64, error) {
	raw := ps.ByName(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return id, nil
}

// ParseOptionalBool reads a query flag that may be absent. Absent yields nil.
func ParseOptionalBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return &v, nil
}

// DecodeBody decodes a JSON request body into target. Unknown fields are
// tolerated since the console sends whole form snapshots.
func DecodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("request body is empty")
		}
		return apperrors.InvalidInput("invalid JSON body")
	}
	return nil
}
