// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"unicode/utf8"

	"github.com/samber/oops"
)

// MaxFieldLength is the maximum length, in characters, of any text column.
const MaxFieldLength = 255

func requireLength(field, value string) error {
	if value == "" {
		return validationError(field, field+" is required")
	}
	return optionalLength(field, value)
}

func optionalLength(field, value string) error {
	if !utf8.ValidString(value) {
		return validationError(field, field+" must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(value); n > MaxFieldLength {
		return oops.Code(CodeValidationFailure).
			With("field", field).
			With("length", n).
			Errorf("%s must be at most %d characters", field, MaxFieldLength)
	}
	return nil
}

func validationError(field, msg string) error {
	return oops.Code(CodeValidationFailure).With("field", field).Errorf("%s", msg)
}
