package flow

import (
	"context"
	"fmt"
)

// Context carries a flow run: the caller's request context, the inputs, the
// values steps hand to each other and the final outputs.
type Context struct {
	context.Context
	Input   map[string]any
	Process map[string]any
	Output  map[string]any
}

func NewContext(ctx context.Context, input map[string]any) *Context {
	if input == nil {
		input = make(map[string]any)
	}
	return &Context{
		Context: ctx,
		Input:   input,
		Process: make(map[string]any),
		Output:  make(map[string]any),
	}
}

// Get reads a typed value; a missing or mistyped key is an error.
func Get[T any](values map[string]any, key string) (T, error) {
	var zero T
	raw, ok := values[key]
	if !ok || raw == nil {
		return zero, MissingParamErr(key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("param [%v] has type %T, want %T", key, raw, zero)
	}
	return v, nil
}

func MissingParamErr(paramName string) error {
	return fmt.Errorf("required param [%v] is missing", paramName)
}
