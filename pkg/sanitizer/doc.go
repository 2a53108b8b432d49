// Package sanitizer normalizes user supplied text before it is validated and stored.
//
// All functions are idempotent and never fail: input that cannot be normalized
// comes back as an empty string, which validation then rejects where a value is required.
package sanitizer
