// Package http provides HTTP handlers for the vault management API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/vaultemu/internal/httputil"
	customValidation "github.com/allisson/vaultemu/internal/validation"
	"github.com/allisson/vaultemu/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/vaultemu/internal/vault/usecase"
)

// VaultHandler handles HTTP requests for vault management and time shift operations.
type VaultHandler struct {
	directory vaultUseCase.VaultDirectory
	logger    *slog.Logger
}

// NewVaultHandler creates a new vault handler with required dependencies.
func NewVaultHandler(directory vaultUseCase.VaultDirectory, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		directory: directory,
		logger:    logger,
	}
}

// CreateHandler registers a new vault.
// POST /management/vault - Returns 201 Created with the vault.
func (h *VaultHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateVaultRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	level, days := req.Recovery()
	vault, err := h.directory.Create(c.Request.Context(), req.BaseURI, level, days, req.Aliases)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapVaultToResponse(vault))
}

// ListHandler lists active vaults with pagination.
// GET /management/vault?offset=0&limit=25 - Returns 200 OK.
func (h *VaultHandler) ListHandler(c *gin.Context) {
	pagination, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	page, next := httputil.Paginate(h.directory.List(c.Request.Context()), pagination)
	c.JSON(http.StatusOK, dto.MapVaultsToListResponse(page, next))
}

// ListDeletedHandler lists deleted vaults with pagination.
// GET /management/vault/deleted?offset=0&limit=25 - Returns 200 OK.
func (h *VaultHandler) ListDeletedHandler(c *gin.Context) {
	pagination, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	page, next := httputil.Paginate(h.directory.ListDeleted(c.Request.Context()), pagination)
	c.JSON(http.StatusOK, dto.MapVaultsToListResponse(page, next))
}

// DeleteHandler soft-deletes a vault.
// DELETE /management/vault?baseUri= - Returns 200 OK.
func (h *VaultHandler) DeleteHandler(c *gin.Context) {
	query, ok := h.bindVaultQuery(c)
	if !ok {
		return
	}

	if err := h.directory.Delete(c.Request.Context(), query.BaseURI); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// RecoverHandler restores a deleted vault.
// PUT /management/vault/recover?baseUri= - Returns 200 OK with the vault.
func (h *VaultHandler) RecoverHandler(c *gin.Context) {
	query, ok := h.bindVaultQuery(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.directory.Recover(ctx, query.BaseURI); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	vault, err := h.directory.Get(ctx, query.BaseURI)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultToResponse(vault))
}

// PurgeHandler permanently removes a deleted vault.
// DELETE /management/vault/purge?baseUri= - Returns 200 OK.
func (h *VaultHandler) PurgeHandler(c *gin.Context) {
	query, ok := h.bindVaultQuery(c)
	if !ok {
		return
	}

	if err := h.directory.Purge(c.Request.Context(), query.BaseURI); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// UpdateAliasHandler adds and/or removes a vault alias.
// PATCH /management/vault/alias?baseUri=&add=&remove= - Returns 200 OK with the vault.
func (h *VaultHandler) UpdateAliasHandler(c *gin.Context) {
	var query dto.UpdateAliasQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := query.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	vault, err := h.directory.UpdateAlias(c.Request.Context(), query.BaseURI, query.Add, query.Remove)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultToResponse(vault))
}

// TimeShiftAllHandler shifts the clock of every vault.
// PUT /management/vault/time/all?seconds=&regenerateCertificates= - Returns 200 OK.
func (h *VaultHandler) TimeShiftAllHandler(c *gin.Context) {
	query, ok := h.bindTimeShiftQuery(c, false)
	if !ok {
		return
	}

	err := h.directory.TimeShift(c.Request.Context(), query.Seconds, query.RegenerateCertificates)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// TimeShiftVaultHandler shifts the clock of a single vault.
// PUT /management/vault/time?baseUri=&seconds=&regenerateCertificates= - Returns 200 OK.
func (h *VaultHandler) TimeShiftVaultHandler(c *gin.Context) {
	query, ok := h.bindTimeShiftQuery(c, true)
	if !ok {
		return
	}

	err := h.directory.TimeShiftVault(
		c.Request.Context(),
		query.BaseURI,
		query.Seconds,
		query.RegenerateCertificates,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *VaultHandler) bindVaultQuery(c *gin.Context) (dto.VaultQuery, bool) {
	var query dto.VaultQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return query, false
	}

	if err := query.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return query, false
	}

	return query, true
}

func (h *VaultHandler) bindTimeShiftQuery(c *gin.Context, requireBaseURI bool) (dto.TimeShiftQuery, bool) {
	var query dto.TimeShiftQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return query, false
	}

	if err := query.Validate(requireBaseURI); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return query, false
	}

	return query, true
}
