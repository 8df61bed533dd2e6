package dto

import (
	"time"

	vaultDomain "github.com/allisson/vaultemu/internal/vault/domain"
)

// VaultResponse represents a vault in API responses.
type VaultResponse struct {
	BaseURI         string     `json:"baseUri"`
	Aliases         []string   `json:"aliases"`
	RecoveryLevel   string     `json:"recoveryLevel"`
	RecoverableDays *int       `json:"recoverableDays,omitempty"`
	CreatedOn       time.Time  `json:"createdOn"`
	DeletedOn       *time.Time `json:"deletedOn,omitempty"`
}

// MapVaultToResponse converts a domain vault to an API response.
func MapVaultToResponse(vault *vaultDomain.Vault) VaultResponse {
	return VaultResponse{
		BaseURI:         vault.BaseURI(),
		Aliases:         vault.Aliases(),
		RecoveryLevel:   vault.RecoveryLevel().String(),
		RecoverableDays: vault.RecoverableDays(),
		CreatedOn:       vault.CreatedOn(),
		DeletedOn:       vault.DeletedOn(),
	}
}

// ListVaultsResponse represents a paginated list of vaults in API responses.
type ListVaultsResponse struct {
	Data []VaultResponse `json:"data"`
	// NextOffset is the offset of the following page, absent on the last one.
	NextOffset *int `json:"nextOffset,omitempty"`
}

// MapVaultsToListResponse converts a slice of domain vaults to a list response.
func MapVaultsToListResponse(vaults []*vaultDomain.Vault, nextOffset *int) ListVaultsResponse {
	data := make([]VaultResponse, 0, len(vaults))
	for _, vault := range vaults {
		data = append(data, MapVaultToResponse(vault))
	}

	return ListVaultsResponse{
		Data:       data,
		NextOffset: nextOffset,
	}
}

// SuccessResponse acknowledges operations that return no resource.
type SuccessResponse struct {
	Success bool `json:"success"`
}
