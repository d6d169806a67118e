// Command assessment aggregates library assessment reports from load
// responses on disk and prints the chart series or the CSV export.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"library-assessment/internal/model"
	"library-assessment/internal/pkg/logger"
	"library-assessment/internal/report"
	"library-assessment/internal/session"
)

var (
	orgUnitsPath string
	reportPath   string
	reportType   string
	profilePath  string
	outPath      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "assessment",
	Short:         "Aggregate library assessment reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print the chart series of a report",
	RunE:  runSeries,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the CSV export of a report",
	RunE:  runExport,
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the report types and sub-dimension catalogs",
	RunE:  runReports,
}

func init() {
	for _, cmd := range []*cobra.Command{seriesCmd, exportCmd} {
		cmd.Flags().StringVar(&orgUnitsPath, "org-units", "", "org-unit load response (JSON)")
		cmd.Flags().StringVar(&reportPath, "report", "", "report load response (JSON)")
		cmd.Flags().StringVar(&reportType, "type", "", "report type, defaults to the profile's")
		cmd.Flags().StringVar(&profilePath, "profile", "", "YAML profile with toggles and report options")
		cmd.MarkFlagRequired("org-units")
		cmd.MarkFlagRequired("report")
	}
	seriesCmd.Flags().StringVar(&outputFormat, "format", "json", "json or yaml")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, stdout when empty")
	reportsCmd.Flags().StringVar(&outputFormat, "format", "json", "json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(seriesCmd, exportCmd, reportsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runSeries(cmd *cobra.Command, _ []string) error {
	s, err := buildSession()
	if err != nil {
		return err
	}
	view, err := s.Series()
	if err != nil {
		return err
	}
	return printValue(cmd.OutOrStdout(), outputFormat, view)
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := buildSession()
	if err != nil {
		return err
	}
	view, err := s.Export()
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = view.Table.WriteCSV(cmd.OutOrStdout())
		return err
	}
	n, err := writeCSVFile(outPath, view.Table)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, outPath)
	return nil
}

// writeCSVFile writes table to path. A failed close is reported since it can
// lose buffered rows.
func writeCSVFile(path string, table report.Table) (n int, err error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return table.WriteCSV(file)
}

type reportsOutput struct {
	Reports          []model.ReportDescriptor `json:"reports" yaml:"reports"`
	CollectionTypes  []model.CatalogEntry     `json:"collectionTypes" yaml:"collectionTypes"`
	CirculationTypes []model.CatalogEntry     `json:"circulationTypes" yaml:"circulationTypes"`
}

func runReports(cmd *cobra.Command, _ []string) error {
	catalogs := model.DefaultCatalogs()
	return printValue(cmd.OutOrStdout(), outputFormat, reportsOutput{
		Reports:          model.ReportTypes(),
		CollectionTypes:  catalogs.CollectionTypes.Entries(),
		CirculationTypes: catalogs.CirculationTypes.Entries(),
	})
}

// buildSession loads both files and replays the profile
func buildSession() (*session.Session, error) {
	profile, err := LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	if reportType != "" {
		profile.ReportType = model.ReportType(reportType)
	}
	if profile.ReportType == "" {
		return nil, fmt.Errorf("a report type is required (--type or reportType in the profile)")
	}

	opts := append([]session.Option{session.WithLogger(logger.NewConsoleLogger(verbose))}, profile.SessionOptions()...)
	s := session.New("cli", opts...)

	snap, tree, err := report.LoadOrgUnitsFile(orgUnitsPath)
	if err != nil {
		return nil, err
	}
	s.LoadOrgUnits(tree, snap.LoadedAt)

	if err := profile.ApplySettings(s); err != nil {
		return nil, err
	}

	ds, err := report.LoadReportFile(reportPath, profile.ReportType)
	if err != nil {
		return nil, err
	}
	if _, err := s.LoadReport(ds); err != nil {
		return nil, err
	}

	if err := profile.ApplyDrill(s); err != nil {
		return nil, err
	}
	return s, nil
}

func printValue(w io.Writer, format string, v interface{}) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
