package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/orchestrator"
	"github.com/khanhnv2901/webaudit/internal/pdf"
	"github.com/khanhnv2901/webaudit/internal/prober"
	"github.com/khanhnv2901/webaudit/internal/psi"
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Run a single website audit and print a colorized summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, _ := cmd.Flags().GetString("pdf")

		cfg := currentEngineConfig()
		normalized, err := model.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}

		var psiClient orchestrator.PSIClient
		if cfg.PSIAPIKey != "" {
			psiClient = psi.New(cfg.PSIAPIKey)
		}

		orc := orchestrator.New(prober.New(), orchestrator.Options{
			OverallBudget: budgetDuration(cfg.BudgetMs),
			PSI:           psiClient,
			Debug:         cfg.Debug,
		})

		ctx, cancel := context.WithTimeout(context.Background(), budgetDuration(cfg.BudgetMs)+2*time.Second)
		defer cancel()

		report := orc.Run(ctx, normalized)
		printReportSummary(report)

		if pdfPath != "" {
			bytesOut, err := pdf.Render(report)
			if err != nil {
				return fmt.Errorf("render pdf: %w", err)
			}
			if err := os.WriteFile(pdfPath, bytesOut, 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			fmt.Printf("%s %s\n", colorInfo("PDF written:"), pdfPath)
		}

		return nil
	},
}

func printReportSummary(report *model.Report) {
	fmt.Printf("%s %s\n", colorInfo("URL:"), report.URL)
	if report.FinalURL != "" && report.FinalURL != report.URL {
		fmt.Printf("%s %s\n", colorInfo("Final URL:"), report.FinalURL)
	}

	if report.Blocked {
		fmt.Printf("%s origin blocked the audit (status %d)\n", colorError("BLOCKED"), report.FetchedStatus)
	} else if report.Timeout {
		fmt.Printf("%s origin did not respond within the budget\n", colorWarn("TIMEOUT"))
	}

	for _, c := range report.Checks {
		status := formatStatusWithColor(string(c.Status))
		fmt.Printf("  %-20s %-8s %s\n", c.ID, status, c.Details)
	}

	if report.Score != nil {
		fmt.Printf("%s %d/100\n", colorInfo("Overall score:"), *report.Score)
	}
	fmt.Printf("%s %dms\n", colorInfo("Timing:"), report.TimingMs)
}

func init() {
	auditCmd.Flags().String("pdf", "", "write a PDF summary of the report to this path")
}
