package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"hyperleaf/adapters/api"
	"hyperleaf/adapters/browser"
	"hyperleaf/adapters/pdf"
	"hyperleaf/app"
	"hyperleaf/domain/core"
	"hyperleaf/domain/report"
	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/i18n"
	"hyperleaf/models"
	"hyperleaf/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "hyperleaf-cli",
		Short: "HyperLeaf CLI for normalizing, rendering and exporting prediction results",
	}

	rootCmd.AddCommand(
		newNormalizeCmd(),
		newRenderCmd(),
		newExportCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readRaw(path string) (result.RawResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return result.RawResult(data), nil
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [raw.json]",
		Short: "Print the canonical form of a raw prediction payload",
		Long: `Normalize a prediction payload of any known schema and print the
canonical result as JSON.

Example: hyperleaf-cli normalize testdata/predict_new.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(args[0])
			if err != nil {
				return err
			}
			res := result.Normalize(raw)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "schema: %s\n", res.Schema)
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var lang string
	var tab string
	var output string

	cmd := &cobra.Command{
		Use:   "render [raw.json]",
		Short: "Render a prediction report as standalone HTML",
		Long: `Render the print document of a prediction. Without --tab all four
sections are rendered; with --tab only that section is.

Example: hyperleaf-cli render testdata/predict_legacy.json --tab spectral --lang hi -o spectral.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(args[0])
			if err != nil {
				return err
			}
			loc, err := localizer(lang)
			if err != nil {
				return err
			}
			printer, err := ui.NewPrintRenderer("")
			if err != nil {
				return err
			}
			res := result.Normalize(raw)
			view := report.BuildPrintView(res, loc)
			if tab != "" {
				t, err := report.ParseTab(tab)
				if err != nil {
					return err
				}
				view = report.BuildView(res, t, loc)
			}
			doc, err := printer.RenderPrint(view)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return os.WriteFile(output, []byte(doc), 0o644)
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Report language (en or hi)")
	cmd.Flags().StringVar(&tab, "tab", "", "Render only this tab (report, classification, regression, spectral)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

// fileSink writes a delivered document into a directory
type fileSink struct {
	dir  string
	path string
}

func (s *fileSink) Deliver(fileName, _ string, body []byte) error {
	if s.path != "" {
		return fmt.Errorf("document already delivered")
	}
	s.path = filepath.Join(s.dir, fileName)
	return os.WriteFile(s.path, body, 0o644)
}

func newExportCmd() *cobra.Command {
	var lang string
	var dir string
	var chromeBin string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "export [raw.json]",
		Short: "Export a prediction report as a PDF snapshot",
		Long: `Render the print layout in headless Chrome, rasterize it and write a
single-page PDF named HyperLeaf_Report_<date>.pdf.

Example: hyperleaf-cli export testdata/predict_new.json -o ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(args[0])
			if err != nil {
				return err
			}
			loc, err := localizer(lang)
			if err != nil {
				return err
			}
			printer, err := ui.NewPrintRenderer("")
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			logger := internal.NewDefaultLogger()
			cfg := browser.DefaultConfig()
			cfg.Bin = chromeBin
			cfg.Timeout = timeout
			rasterizer := browser.NewRasterizer(cfg, logger)
			defer rasterizer.Close()

			exporter := app.NewSnapshotExporter(printer, rasterizer, pdf.NewWriter(), core.SystemClock{}, app.DefaultExportConfig(), logger)
			inst := app.NewReportInstance(result.Normalize(raw), models.Viewer{}, true, time.Now())

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+10*time.Second)
			defer cancel()

			sink := &fileSink{dir: dir}
			if err := exporter.Export(ctx, inst, loc, sink); err != nil {
				return err
			}
			if sink.path == "" {
				return fmt.Errorf("nothing was exported")
			}
			fmt.Fprintln(cmd.OutOrStdout(), sink.path)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Report language (en or hi)")
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "Output directory")
	cmd.Flags().StringVar(&chromeBin, "chrome", os.Getenv("CHROME_BIN"), "Chrome binary (default: auto-detect)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Rasterization timeout")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var baseURL string
	var token string
	var owner int64
	var xlsx string
	var lang string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past predictions from the prediction service",
		Long: `List past predictions visible to the token's account. Admins may narrow
the list with --owner; --xlsx writes the list as a workbook instead.

Example: hyperleaf-cli history --token admin-token --owner 2 --xlsx history.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := localizer(lang)
			if err != nil {
				return err
			}

			cfg := api.DefaultClientConfig()
			cfg.BaseURL = baseURL
			logger := internal.NewDefaultLogger()
			client, err := api.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			user, err := client.Identify(ctx, token)
			if err != nil {
				return err
			}

			hist := app.NewHistoryBrowser(client, models.Viewer{User: *user}, logger)
			defer hist.Close()
			if err := hist.Load(ctx); err != nil {
				return err
			}
			if owner != 0 {
				if err := hist.Rescope(ctx, models.HistoryScope(owner)); err != nil {
					return err
				}
			}

			if xlsx != "" {
				f, err := os.Create(xlsx)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := app.WriteHistoryWorkbook(f, hist.Records(), loc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(hist.Records()), xlsx)
				return nil
			}

			return printHistory(cmd, hist.Records(), loc)
		},
	}

	cmd.Flags().StringVar(&baseURL, "api", envOr("HYPERLEAF_API_URL", "http://localhost:8000"), "Prediction service base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("HYPERLEAF_TOKEN"), "Bearer token")
	cmd.Flags().Int64Var(&owner, "owner", 0, "Only list records of this user ID (admins)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Write the list to this workbook")
	cmd.Flags().StringVar(&lang, "lang", "en", "Header language (en or hi)")
	return cmd
}

func printHistory(cmd *cobra.Command, records []result.HistoryRecord, loc *i18n.Localizer) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"ID", loc.T("created_at"), loc.T("cultivar"), loc.T("confidence"), loc.T("est_cost")}, "\t"))
	for _, rec := range records {
		created := ""
		if !rec.CreatedAt.IsZero() {
			created = rec.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			rec.ID,
			created,
			rec.Result.DisplayName(),
			result.FormatPercent(rec.Result.Confidence),
			result.FormatFixed(rec.Result.Economics.FertilizerCostINR, 2, result.Placeholder),
		)
	}
	return w.Flush()
}

func localizer(lang string) (*i18n.Localizer, error) {
	bundle, err := i18n.Load()
	if err != nil {
		return nil, err
	}
	return bundle.Localizer(bundle.Match("", lang)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
