package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"sheetSum/internal/config"
	"sheetSum/internal/excel"
	"sheetSum/internal/logger"
	"sheetSum/internal/roster"
	"sheetSum/internal/summary"
	"sheetSum/internal/tui"

	"github.com/spf13/cobra"
)

var (
	configPath string
	clientName string
	useTUI     bool

	cfg     *config.Config
	logFile *os.File
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetsum",
		Short: "Build per-client summary workbooks from dated spreadsheets",
		Long: `sheetsum collects each client's dated workbooks into one summary
workbook cloned from a template, one formatted tab per file.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.toml", "Path to the TOML or YAML config file")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "List discovered clients and their files",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the summary workbook of every client",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	buildCmd.Flags().StringVar(&clientName, "client", "", "Only build the summary of this client")
	buildCmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live progress view")

	sanitizeCmd := &cobra.Command{
		Use:   "sanitize [workbook]",
		Short: "Remove external workbook links from a workbook in place",
		Args:  cobra.ExactArgs(1),
		RunE:  runSanitize,
	}

	rootCmd.AddCommand(scanCmd, buildCmd, sanitizeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFile, err = logger.Setup(cfg.Log.Directory, cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.Info("Loaded config", "path", configPath, "command", cmd.Name())
	return nil
}

// discover groups the input directory by client, keeping only rostered
// clients when a roster can be read.
func discover() (map[string][]string, error) {
	files, err := excel.ListWorkbooks(cfg.Paths.InputDirectory, cfg.Summary.Extensions, cfg.Summary.TempPrefix)
	if err != nil {
		logger.Error("Failed to list input files", "directory", cfg.Paths.InputDirectory, "error", err)
		return nil, err
	}
	logger.Info("Found input files", "directory", cfg.Paths.InputDirectory, "file_count", len(files))
	groups := excel.GroupByClient(files)

	names, err := roster.Load(cfg.Paths.RosterFile, cfg.Roster.Column)
	if err != nil {
		logger.Warn("Roster unavailable, processing every client", "path", cfg.Paths.RosterFile, "error", err)
		return groups, nil
	}

	kept, skipped := roster.Filter(groups, names)
	for _, client := range skipped {
		logger.Warn("Client not in roster", "client", client)
	}
	return kept, nil
}

func sortedClients(groups map[string][]string) []string {
	clients := make([]string, 0, len(groups))
	for client := range groups {
		clients = append(clients, client)
	}
	sort.Strings(clients)
	return clients
}

func runScan(cmd *cobra.Command, args []string) error {
	groups, err := discover()
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		fmt.Printf("No workbooks found in directory: %s\n", cfg.Paths.InputDirectory)
		return nil
	}

	for _, client := range sortedClients(groups) {
		fmt.Printf("%s (%d files)\n", client, len(groups[client]))
		for _, file := range groups[client] {
			fmt.Printf("  %s\n", filepath.Base(file))
		}
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	groups, err := discover()
	if err != nil {
		return err
	}

	if clientName != "" {
		files, ok := groups[clientName]
		if !ok {
			return fmt.Errorf("no files found for client %q", clientName)
		}
		groups = map[string][]string{clientName: files}
	}

	if len(groups) == 0 {
		fmt.Printf("No clients to process in directory: %s\n", cfg.Paths.InputDirectory)
		return nil
	}

	builder := summary.NewBuilder(summary.Options{
		TemplatePath: cfg.Paths.TemplateFile,
		TemplateTab:  cfg.Summary.TemplateTab,
		PruneSheets:  cfg.Summary.PruneSheets,
		OutputDir:    cfg.Paths.OutputDirectory,
		OutputSuffix: cfg.Summary.OutputSuffix,
	})

	var report *summary.Report
	if useTUI {
		report, err = tui.RunProgress(len(groups), func(observer summary.Observer) (*summary.Report, error) {
			builder.SetObserver(observer)
			return builder.Run(groups)
		})
	} else {
		report, err = builder.Run(groups)
	}
	if err != nil {
		if errors.Is(err, summary.ErrTemplateMissing) {
			fmt.Printf("Template workbook not found: %s\n", cfg.Paths.TemplateFile)
		}
		return err
	}

	fmt.Print(tui.RenderReport(report))
	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d clients failed", failed, len(report.Outcomes))
	}
	return nil
}

func runSanitize(cmd *cobra.Command, args []string) error {
	path := args[0]

	editor, err := excel.OpenFile(path)
	if err != nil {
		return err
	}
	defer editor.Close()

	cleared, err := excel.SanitizeExternalLinks(editor.File())
	if err != nil {
		logger.Error("Failed to sanitize workbook", "file", path, "error", err)
		return err
	}
	if cleared == 0 {
		fmt.Printf("No external links found in %s\n", path)
		return nil
	}

	if err := editor.Save(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	logger.Info("Sanitized workbook", "file", path, "cleared_cells", cleared)
	fmt.Printf("✓ Cleared %d external link cells in %s\n", cleared, path)
	return nil
}
