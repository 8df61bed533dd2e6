package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	vaultUseCase "github.com/allisson/vaultemu/internal/vault/usecase"
)

type vaultSummary struct {
	BaseURI         string   `json:"baseUri"`
	Aliases         []string `json:"aliases"`
	RecoveryLevel   string   `json:"recoveryLevel"`
	RecoverableDays *int     `json:"recoverableDays,omitempty"`
}

// RunValidateConfig prints the vaults a server started with the current
// configuration would register. The directory must already hold them, so a
// broken definition fails before anything is printed.
func RunValidateConfig(
	ctx context.Context,
	directory vaultUseCase.VaultDirectory,
	logger *slog.Logger,
	writer io.Writer,
	format OutputFormat,
) error {
	if err := format.validate(); err != nil {
		return err
	}

	vaults := directory.List(ctx)
	summaries := make([]vaultSummary, 0, len(vaults))
	for _, vault := range vaults {
		summaries = append(summaries, vaultSummary{
			BaseURI:         vault.BaseURI(),
			Aliases:         vault.Aliases(),
			RecoveryLevel:   vault.RecoveryLevel().String(),
			RecoverableDays: vault.RecoverableDays(),
		})
	}

	if format == FormatJSON {
		if err := outputValidateJSON(writer, summaries); err != nil {
			return err
		}
	} else {
		outputValidateText(writer, summaries)
	}

	logger.Info("configuration is valid", slog.Int("vaults", len(summaries)))
	return nil
}

// outputValidateText outputs the vaults in human-readable text format.
func outputValidateText(writer io.Writer, summaries []vaultSummary) {
	_, _ = fmt.Fprintf(writer, "Configuration is valid: %d vault(s) would be registered\n", len(summaries))
	for _, s := range summaries {
		retention := "no retention"
		if s.RecoverableDays != nil {
			retention = fmt.Sprintf("%d days", *s.RecoverableDays)
		}
		_, _ = fmt.Fprintf(writer, "  %s (%s, %s)\n", s.BaseURI, s.RecoveryLevel, retention)
		if len(s.Aliases) > 0 {
			_, _ = fmt.Fprintf(writer, "    aliases: %s\n", strings.Join(s.Aliases, ", "))
		}
	}
}

// outputValidateJSON outputs the vaults in JSON format for machine consumption.
func outputValidateJSON(writer io.Writer, summaries []vaultSummary) error {
	result := struct {
		Valid  bool           `json:"valid"`
		Vaults []vaultSummary `json:"vaults"`
	}{Valid: true, Vaults: summaries}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
