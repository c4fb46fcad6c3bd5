package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"webpify/internal/config"
)

var flags struct {
	configPath    string
	workers       int
	logLevel      string
	logFormat     string
	logFile       string
	plain         bool
	keepOriginals bool
}

var rootCmd = &cobra.Command{
	Use:   "webpify [path]",
	Short: "webpify - convert JPEG and PNG images to WebP when it pays off",
	Long: "webpify walks a file or directory, re-encodes JPEG and PNG images as WebP, and replaces an " +
		"original only when the WebP file is smaller and visually equivalent.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, false)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings reads the config file and lets explicitly set flags win.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, _, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if fs.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if fs.Changed("keep-originals") {
		cfg.KeepOriginals = flags.keepOriginals
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ./"+config.ProjectFile+", then "+config.UserFile+")")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "parallel workers (0 = one per CPU)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "console", "log format: console or json")
	pf.StringVar(&flags.logFile, "log-file", "", "also write JSON logs to this file")
	pf.BoolVar(&flags.plain, "plain", false, "print log lines instead of the progress view")
	pf.BoolVar(&flags.keepOriginals, "keep-originals", false, "keep JPEG/PNG files after converting them")
}
