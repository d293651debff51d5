package core

import "errors"

var (
	// ErrInvalidInput rejects malformed sides, prices, amounts, and unknown
	// assets before any state mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSigningFailed reports an infrastructure fault while signing a
	// withdrawal authorization. The debited amount has already been credited
	// back when this is returned; the caller may retry.
	ErrSigningFailed = errors.New("withdrawal signing failed")
)
