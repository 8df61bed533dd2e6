// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	customValidation "github.com/allisson/vaultemu/internal/validation"
)

// CreateVaultRequest contains the parameters for creating a vault.
type CreateVaultRequest struct {
	BaseURI         string   `json:"baseUri"`
	RecoveryLevel   string   `json:"recoveryLevel"`
	RecoverableDays *int     `json:"recoverableDays"`
	Aliases         []string `json:"aliases"`
}

// Validate checks if the create vault request is valid.
func (r *CreateVaultRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BaseURI,
			validation.Required,
			customValidation.NotBlank,
			customValidation.VaultURI,
		),
		validation.Field(&r.RecoveryLevel,
			customValidation.RecoveryLevel,
		),
		validation.Field(&r.RecoverableDays,
			validation.NilOrNotEmpty,
			validation.Min(entityDomain.MinRecoverableDays),
			validation.Max(entityDomain.MaxRecoverableDays),
		),
		validation.Field(&r.Aliases,
			validation.Each(validation.Required, customValidation.VaultURI),
		),
	)
}

// Recovery resolves the requested recovery settings. An empty level means the
// default one and missing days mean the default retention of the level.
func (r *CreateVaultRequest) Recovery() (entityDomain.RecoveryLevel, *int) {
	level := entityDomain.DefaultRecoveryLevel
	if r.RecoveryLevel != "" {
		level = entityDomain.RecoveryLevel(r.RecoveryLevel)
	}
	if r.RecoverableDays != nil {
		return level, r.RecoverableDays
	}
	return level, level.DefaultRecoverableDays()
}

// VaultQuery addresses a vault by its base URI or one of its aliases.
type VaultQuery struct {
	BaseURI string `form:"baseUri"`
}

// Validate checks if the vault query is valid.
func (q *VaultQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.BaseURI,
			validation.Required,
			customValidation.NotBlank,
			customValidation.VaultURI,
		),
	)
}

// UpdateAliasQuery contains the parameters for adding and/or removing a vault alias.
type UpdateAliasQuery struct {
	BaseURI string `form:"baseUri"`
	Add     string `form:"add"`
	Remove  string `form:"remove"`
}

// Validate checks if the alias update query is valid.
func (q *UpdateAliasQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.BaseURI,
			validation.Required,
			customValidation.NotBlank,
			customValidation.VaultURI,
		),
		validation.Field(&q.Add,
			validation.Required.When(q.Remove == "").Error("add or remove is required"),
			customValidation.VaultURI,
		),
		validation.Field(&q.Remove,
			customValidation.VaultURI,
			validation.When(q.Add != "", validation.NotIn(q.Add).Error("must differ from add")),
		),
	)
}

// TimeShiftQuery contains the parameters of a time shift. BaseURI is only
// used by the single vault endpoint.
type TimeShiftQuery struct {
	BaseURI                string `form:"baseUri"`
	Seconds                int    `form:"seconds"`
	RegenerateCertificates bool   `form:"regenerateCertificates"`
}

// Validate checks if the time shift query is valid.
func (q *TimeShiftQuery) Validate(requireBaseURI bool) error {
	return validation.ValidateStruct(q,
		validation.Field(&q.BaseURI,
			validation.Required.When(requireBaseURI),
			customValidation.VaultURI,
		),
		validation.Field(&q.Seconds,
			validation.Required,
			validation.Min(1),
		),
	)
}
