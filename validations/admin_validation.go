package validations

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	pkgError "github.com/subgate/subgate/pkg/error"
)

// ValidateDescription accepts any non-empty text verbatim.
func ValidateDescription(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if err := validation.Validate(trimmed, validation.Required); err != nil {
		return "", pkgError.ValidationError("description: cannot be blank.")
	}
	return text, nil
}

// ValidatePrice parses the admin input as a positive integer price.
func ValidatePrice(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if err := validation.Validate(trimmed, validation.Required, is.Int); err != nil {
		return 0, pkgError.ValidationError("price: must be a whole number.")
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 {
		return 0, pkgError.ValidationError("price: must be a positive number.")
	}
	return n, nil
}

// ValidateUserID parses the admin input as a Telegram user identifier.
func ValidateUserID(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if err := validation.Validate(trimmed, validation.Required, is.Int); err != nil {
		return 0, pkgError.ValidationError("user id: must be a numeric identifier.")
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n == 0 {
		return 0, pkgError.ValidationError("user id: must be a numeric identifier.")
	}
	return n, nil
}
