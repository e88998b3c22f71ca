// MacroVista — Macroeconomic Comparison Dashboard
//
// Command line entrypoint. Each subcommand wraps one workflow: fetch a
// series, build and render the dashboard, export it, or serve the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/macrovista/macrovista/api"
	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/internal/config"
	"github.com/macrovista/macrovista/internal/dashboard"
	"github.com/macrovista/macrovista/internal/imf"
	"github.com/macrovista/macrovista/internal/news"
	"github.com/macrovista/macrovista/internal/report"
	"github.com/macrovista/macrovista/pkg/models"
	"github.com/macrovista/macrovista/pkg/utils"
)

// Version metadata, injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cfg is loaded once in PersistentPreRunE and shared by all commands.
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "macrovista",
	Short: "MacroVista — Macroeconomic comparison dashboard on IMF data",
	Long: `MacroVista
A comparative macroeconomic dashboard built on the IMF DataMapper API:
GDP, inflation, trade, debt and more for a dozen economies, served as
an HTML dashboard, a JSON API, XLSX workbooks, and PDF snapshots.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/macrovista.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newClient builds the DataMapper client from the loaded config.
func newClient() *imf.Client {
	return imf.New(imf.Options{
		BaseURL:    cfg.Upstream.BaseURL,
		UserAgent:  cfg.Upstream.UserAgent,
		Timeout:    time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		CacheTTL:   time.Duration(cfg.Upstream.CacheTTLSec) * time.Second,
		FetchDelay: time.Duration(cfg.Upstream.FetchDelayMs) * time.Millisecond,
	})
}

// newsFromConfig builds the headline service. An empty feed list means
// the built-in IMF feeds.
func newsFromConfig() *news.Service {
	if len(cfg.News.Feeds) == 0 {
		return news.NewService()
	}
	feeds := make([]news.Feed, len(cfg.News.Feeds))
	for i, f := range cfg.News.Feeds {
		feeds[i] = news.Feed{Name: f.Name, RSSURL: f.RSSURL, BaseURL: catalog.SourceURL}
	}
	return news.NewServiceWithFeeds(feeds)
}

// selectionFromFlags reads --countries/--from/--to, falling back to the
// configured defaults. The countries flag takes a comma-separated list.
func selectionFromFlags(cmd *cobra.Command) models.Selection {
	sel := models.Selection{
		Countries: cfg.Dashboard.DefaultCountries,
		StartYear: cfg.Dashboard.DefaultStartYear,
		EndYear:   cfg.Dashboard.DefaultEndYear,
	}

	if raw, _ := cmd.Flags().GetString("countries"); raw != "" {
		var codes []string
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			sel.Countries = codes
		}
	}
	if y, _ := cmd.Flags().GetInt("from"); y != 0 {
		sel.StartYear = y
	}
	if y, _ := cmd.Flags().GetInt("to"); y != 0 {
		sel.EndYear = y
	}
	return sel
}

// buildDashboard runs the full dashboard build for the command's
// selection flags and attaches headlines when news is enabled.
func buildDashboard(cmd *cobra.Command) (*models.Dashboard, error) {
	sel := selectionFromFlags(cmd)

	fmt.Printf("🌍 Building dashboard: %s, %d-%d\n", strings.Join(sel.Countries, ", "), sel.StartYear, sel.EndYear)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	builder := dashboard.NewBuilder(newClient())
	dash, err := builder.Build(ctx, sel)
	if err != nil {
		return nil, err
	}

	if cfg.News.Enabled {
		hctx, hcancel := context.WithTimeout(ctx, 10*time.Second)
		defer hcancel()
		if headlines, err := newsFromConfig().Headlines(hctx, cfg.News.Limit); err == nil {
			dash.Headlines = headlines
		}
	}
	return &dash, nil
}

// printBuildSummary reports panel coverage and surfaces build notices.
func printBuildSummary(dash *models.Dashboard) {
	withData := 0
	for _, p := range dash.Panels {
		if !p.Empty() {
			withData++
		}
	}
	fmt.Printf("   Panels: %d (%d with data)\n", len(dash.Panels), withData)
	for _, n := range dash.Notices {
		fmt.Printf("   ⚠️  %s\n", n.Message)
	}
	for _, p := range dash.Panels {
		for _, n := range p.Notices {
			fmt.Printf("   ⚠️  %s: %s\n", p.Title, n.Message)
		}
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MacroVista %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [country] [indicator]",
	Short: "Fetch one indicator series for one country",
	Long: `Fetch a single normalized indicator series from the IMF DataMapper API.

Examples:
  macrovista fetch MEX gdp
  macrovista fetch USA inflation --from 2015 --to 2024
  macrovista fetch BRA public_debt --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		country, ok := catalog.CountryByCode(args[0])
		if !ok {
			return fmt.Errorf("unknown country code %q (known: %s)", args[0], strings.Join(catalog.CountryCodes(), ", "))
		}
		ind, ok := catalog.IndicatorByKey(args[1])
		if !ok {
			return fmt.Errorf("unknown indicator %q (known: %s)", args[1], strings.Join(catalog.IndicatorKeys(), ", "))
		}

		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		if from == 0 {
			from = cfg.Dashboard.DefaultStartYear
		}
		if to == 0 {
			to = cfg.Dashboard.DefaultEndYear
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := newClient().Fetch(ctx, country.APICode, ind.APICode, from, to)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("📊 %s — %s, %d-%d\n", ind.Label, country.Name, from, to)
		fmt.Printf("   Source: %s\n\n", catalog.Source)
		if result.Empty() {
			fmt.Println("   No data available.")
			return nil
		}
		fmt.Printf("   %-6s %16s\n", "YEAR", "VALUE ("+ind.Unit+")")
		for _, p := range result.Points {
			fmt.Printf("   %-6d %16s\n", p.Year, utils.FormatNumber(p.Value))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("from", 0, "start year (default: configured start year)")
	fetchCmd.Flags().Int("to", 0, "end year (default: configured end year)")
	fetchCmd.Flags().Bool("json", false, "print the raw series as JSON")
}

// --- Render Command ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the dashboard to a standalone HTML page or PDF",
	Long: `Build the full comparison dashboard and write it as a standalone HTML
page with inline SVG charts. With --pdf the page is converted via
wkhtmltopdf or headless chromium; when neither is installed the HTML is
written next to the requested path instead.

Examples:
  macrovista render
  macrovista render --countries DEU,FRA,GBR --from 2000 --to 2024
  macrovista render --pdf --out briefing.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, err := buildDashboard(cmd)
		if err != nil {
			return err
		}
		printBuildSummary(dash)

		html, err := report.GenerateHTML(dash, report.DefaultPageConfig())
		if err != nil {
			return fmt.Errorf("rendering dashboard: %w", err)
		}

		out, _ := cmd.Flags().GetString("out")
		if pdf, _ := cmd.Flags().GetBool("pdf"); pdf {
			if out == "" {
				out = "macrovista.pdf"
			}
			if !report.IsPDFSupported() {
				fmt.Println("⚠️  No PDF engine found (wkhtmltopdf or chromium); writing HTML fallback.")
			}
			pdfCfg := report.DefaultPDFConfig()
			pdfCfg.OutputPath = out
			if err := report.GeneratePDF(html, pdfCfg); err != nil {
				return fmt.Errorf("generating PDF: %w", err)
			}
			fmt.Printf("✅ Saved %s\n", out)
			return nil
		}

		if out == "" {
			out = "macrovista.html"
		}
		if err := os.WriteFile(out, []byte(html), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("✅ Saved %s\n", out)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("countries", "", "comma-separated country codes (default: configured selection)")
	renderCmd.Flags().Int("from", 0, "start year")
	renderCmd.Flags().Int("to", 0, "end year")
	renderCmd.Flags().String("out", "", "output file path (default: macrovista.html)")
	renderCmd.Flags().Bool("pdf", false, "convert the page to PDF")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dashboard as an XLSX workbook",
	Long: `Build the full comparison dashboard and save it as an XLSX workbook:
an overview sheet plus one sheet per panel with its data grid.

Examples:
  macrovista export
  macrovista export --countries MEX,CHL,PER --out andes.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, err := buildDashboard(cmd)
		if err != nil {
			return err
		}
		printBuildSummary(dash)

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "macrovista.xlsx"
		}
		if err := report.SaveXLSX(out, dash); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("✅ Saved %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("countries", "", "comma-separated country codes (default: configured selection)")
	exportCmd.Flags().Int("from", 0, "start year")
	exportCmd.Flags().Int("to", 0, "end year")
	exportCmd.Flags().String("out", "", "output file path (default: macrovista.xlsx)")
}

// --- Catalog Command ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the available countries and indicators",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("🌍 Countries")
		fmt.Printf("   %-6s %-22s %s\n", "CODE", "NAME", "API")
		for _, c := range catalog.Countries {
			fmt.Printf("   %-6s %-22s %s\n", c.Code, c.Name, c.APICode)
		}
		fmt.Println()
		fmt.Println("📈 Indicators")
		fmt.Printf("   %-16s %-26s %-7s %s\n", "KEY", "LABEL", "UNIT", "API")
		for _, ind := range catalog.Indicators {
			fmt.Printf("   %-16s %-26s %-7s %s\n", ind.Key, ind.Label, ind.Unit, ind.APICode)
		}
	},
}

// --- Serve Command (HTTP API + dashboard page) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the MacroVista server: the dashboard page at /, the JSON API
under /api/v1, the XLSX export, and the WebSocket event stream at /ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		if host == "" {
			host = cfg.API.Host
		}
		if port == 0 {
			port = cfg.API.Port
		}

		addr := fmt.Sprintf("%s:%d", host, port)
		fmt.Printf("🌐 Starting MacroVista server on %s\n", addr)
		return api.NewServer(cfg).ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "bind host (overrides config)")
	serveCmd.Flags().Int("port", 0, "bind port (overrides config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  MacroVista — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Printf("  Data Source: %s\n", catalog.Source)
		fmt.Printf("  PDF Engine:  %s\n", report.DetectPDFEngine())
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    Upstream:     %s\n", cfg.Upstream.BaseURL)
		fmt.Printf("    Cache TTL:    %ds\n", cfg.Upstream.CacheTTLSec)
		fmt.Printf("    Fetch Delay:  %dms\n", cfg.Upstream.FetchDelayMs)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    News:         enabled=%v (limit: %d)\n", cfg.News.Enabled, cfg.News.Limit)
		fmt.Printf("    Defaults:     %s, %d-%d\n",
			strings.Join(cfg.Dashboard.DefaultCountries, ","),
			cfg.Dashboard.DefaultStartYear, cfg.Dashboard.DefaultEndYear)
		fmt.Println()

		// Upstream reachability
		fmt.Println("  Upstream:")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := newClient().Ping(ctx); err != nil {
			fmt.Printf("    ❌ %v\n", err)
		} else {
			fmt.Println("    ✅ reachable")
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
