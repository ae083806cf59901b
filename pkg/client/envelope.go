package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is a refusal reported by the backend. Message is the
// server's own text and is meant to be shown to the user unchanged.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func IsUpstreamStatus(err error, status int) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == status
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeData unwraps the backend's {success, message, data} envelope into
// target. Bodies without an envelope are decoded as-is.
func decodeData(resp *Response, target any) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil
	}

	var env envelope
	if body[0] == '{' {
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("could not decode response envelope:\n%s\n%w", resp.ToString(), err)
		}
	}

	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}

	if target == nil {
		return nil
	}

	payload := body
	if env.Success != nil || env.Data != nil {
		payload = env.Data
	}
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("could not decode response data:\n%s\n%w", resp.ToString(), err)
	}
	return nil
}

// decodeList accepts a bare array, a paged {items|content} object, or either
// of those inside the envelope.
func decodeList[T any](resp *Response) ([]T, error) {
	var raw json.RawMessage
	if err := decodeData(resp, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("could not decode list: %w", err)
		}
		return list, nil
	}

	var paged struct {
		Items   []T `json:"items"`
		Content []T `json:"content"`
		Data    []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &paged); err != nil {
		return nil, fmt.Errorf("could not decode paged list: %w", err)
	}
	switch {
	case paged.Items != nil:
		return paged.Items, nil
	case paged.Content != nil:
		return paged.Content, nil
	case paged.Data != nil:
		return paged.Data, nil
	}
	return []T{}, nil
}
