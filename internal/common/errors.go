// Package common defines shared constants and sentinel errors used across
// the client and server layers of Snipstash. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Transport / backend errors.
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")

	// Local password mismatch. Not server-verified; the real secret
	// boundary is the crypto service call.
	ErrAuthorization = errors.New("incorrect password")

	// Encrypt/decrypt produced no result.
	ErrCrypto = errors.New("crypto operation failed")

	// Validation errors (empty required field).
	ErrValidation = errors.New("validation error")

	// Snippet absent locally or remotely.
	ErrNotFound = errors.New("not found")
)
