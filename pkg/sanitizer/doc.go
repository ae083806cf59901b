// Package sanitizer normalizes raw order-form input before validation and
// before it is sent to the backend.
//
// All functions are idempotent and never return errors: unusable input
// collapses to an empty string, zero, or the trimmed original value.
//
// Normalization includes:
//   - Strings: collapse inner whitespace, trim leading/trailing spaces
//   - Phone numbers: Vietnamese national format, digits only
//   - Money: digits-only parsing into decimal amounts, clamped at zero
//   - Quantities: clamped to a minimum of one
package sanitizer
