// Package validation holds the jellydator/validation rules shared by request DTOs.
package validation

import (
	"net/url"
	"strings"

	validation "github.com/jellydator/validation"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	apperrors "github.com/allisson/vaultemu/internal/errors"
)

// WrapValidationError turns a validation failure into an ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// VaultURI accepts the base URI or alias of a vault: an http(s) URL with a
// host and nothing past the root path. Empty strings pass; combine with
// Required when the value is mandatory.
var VaultURI = validation.NewStringRuleWithError(
	isVaultURI,
	validation.NewError("validation_vault_uri", "must be an http or https URL without path, query or fragment"),
)

func isVaultURI(s string) bool {
	parsed, err := url.Parse(s)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return false
	}
	return (parsed.Path == "" || parsed.Path == "/") && parsed.RawQuery == "" && parsed.Fragment == ""
}

// RecoveryLevel accepts the names of the supported recovery levels.
var RecoveryLevel = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := entityDomain.ParseRecoveryLevel(s)
		return err == nil
	},
	validation.NewError("validation_recovery_level", "must be a supported recovery level"),
)
