package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sangkips/gst-billing/internal/app"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/utils"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a sample catalog and customer list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := a.Migrate(); err != nil {
				return err
			}
			result, err := app.Seed(cmd.Context(), a.Services)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

var quotationsCmd = &cobra.Command{
	Use:   "quotations",
	Short: "Quotation maintenance",
}

var expireQuotationsCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire DRAFT and SENT quotations past their validity date",
	Long: `Moves every DRAFT or SENT quotation whose valid-until date is before
today (in the billing timezone) to EXPIRED. Safe to run repeatedly, e.g.
from cron shortly after midnight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			expired, err := a.Services.Quotations.CheckExpired(cmd.Context())
			if err != nil {
				return err
			}
			log := logger.WithComponent("quotations")
			for _, q := range expired {
				log.Info().Str("quotation_number", q.QuotationNumber).Msg("expired")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d quotation(s) expired\n", len(expired))
			return nil
		})
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Stock ledger maintenance",
}

var verifyStockCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report products whose stock quantity differs from their movement log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			drifted, err := a.Services.Stock.VerifyAll(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), drifted); err != nil {
				return err
			}
			if len(drifted) > 0 {
				return fmt.Errorf("%d product(s) out of sync with the stock ledger", len(drifted))
			}
			return nil
		})
	},
}

var (
	tokenSubject string
	tokenRoles   []string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Operator access tokens",
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an operator access token",
	Example: `  billingctl token issue --subject counter-1 --roles cashier
  billingctl token issue --subject owner --roles admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, r := range tokenRoles {
			if r != utils.RoleAdmin && r != utils.RoleCashier {
				return fmt.Errorf("unknown role %q (want %s or %s)", r, utils.RoleAdmin, utils.RoleCashier)
			}
		}

		manager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)
		token, expiresAt, err := manager.Issue(strings.TrimSpace(tokenSubject), tokenRoles)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"access_token": token,
			"expires_at":   expiresAt,
			"subject":      tokenSubject,
			"roles":        tokenRoles,
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	quotationsCmd.AddCommand(expireQuotationsCmd)
	rootCmd.AddCommand(quotationsCmd)

	stockCmd.AddCommand(verifyStockCmd)
	rootCmd.AddCommand(stockCmd)

	issueTokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Operator the token identifies")
	issueTokenCmd.Flags().StringSliceVar(&tokenRoles, "roles", []string{utils.RoleCashier}, "Roles to grant (admin, cashier)")
	_ = issueTokenCmd.MarkFlagRequired("subject")
	tokenCmd.AddCommand(issueTokenCmd)
	rootCmd.AddCommand(tokenCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
