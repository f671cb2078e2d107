package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tordrt/fulcrumgen"
	"github.com/tordrt/fulcrumgen/internal/config"
	"github.com/tordrt/fulcrumgen/internal/fulcrum"
	"github.com/tordrt/fulcrumgen/internal/planner"
)

const apiKeyEnv = "FULCRUM_API_KEY"

var (
	apiKey       string
	formID       string
	formFile     string
	tableName    string
	configFile   string
	outputDir    string
	useTabs      bool
	indentation  int
	additional   []string
	recordLinks  string
	geometryHook bool
	extension    string
	baseURL      string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "fulcrumgen",
	Short: "Generate Sequelize models from a Fulcrum form",
	Long: `fulcrumgen fetches a Fulcrum form schema and writes one Sequelize model per table:
one for the form itself and one for every repeatable section, plus join tables for
multi-select record links.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&apiKey, "key", "k", "", "Fulcrum API key (default: $"+apiKeyEnv+")")
	rootCmd.Flags().StringVarP(&formID, "form", "f", "", "Fulcrum form ID")
	rootCmd.Flags().StringVar(&formFile, "form-file", "", "Read the form from an exported JSON file instead of the API")
	rootCmd.Flags().StringVarP(&tableName, "table", "t", "", "Table name for the form's own records (required)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML options file")
	rootCmd.Flags().StringVarP(&outputDir, "dir", "d", config.DefaultDirectory, "Output directory")
	rootCmd.Flags().BoolVar(&useTabs, "tabs", false, "Indent with tabs instead of spaces")
	rootCmd.Flags().IntVar(&indentation, "indent", config.DefaultIndentation, "Spaces per indentation level")
	rootCmd.Flags().StringArrayVarP(&additional, "additional", "a", nil, "Extra table option as key=value (repeatable)")
	rootCmd.Flags().StringVar(&recordLinks, "record-links", string(planner.RecordLinkJoin), "Multi-select record links: join or table")
	rootCmd.Flags().BoolVar(&geometryHook, "geometry-hook", false, "Add a hook that fills the_geom from latitude/longitude")
	rootCmd.Flags().StringVar(&extension, "ext", config.DefaultExtension, "Extension of generated files")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "Fulcrum API base URL (default: "+fulcrum.DefaultBaseURL+")")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	_ = rootCmd.MarkFlagRequired("table")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Validate source flags
	if formID == "" && formFile == "" {
		return fmt.Errorf("one of --form or --form-file must be specified")
	}
	if formID != "" && formFile != "" {
		return fmt.Errorf("only one of --form or --form-file can be specified")
	}

	opts, err := resolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	opts.Logger = newLogger(verbose)

	if formFile != "" {
		form, err := fulcrum.LoadFormFile(formFile)
		if err != nil {
			return &fulcrumgen.StageError{Stage: fulcrumgen.StageFetch, Err: err}
		}
		return fulcrumgen.GenerateFromForm(ctx, form, tableName, &opts)
	}

	key := resolveAPIKey(apiKey, os.Getenv(apiKeyEnv))
	if key == "" {
		return fmt.Errorf("--key or $%s must be specified", apiKeyEnv)
	}
	return fulcrumgen.Generate(ctx, key, formID, tableName, &opts)
}

// resolveOptions loads the config file, if any, and applies flags the user set on top
func resolveOptions(flags *pflag.FlagSet) (config.Options, error) {
	opts := config.Default()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return config.Options{}, err
		}
		opts = loaded
	}

	if flags.Changed("dir") {
		opts.Directory = outputDir
	}
	if flags.Changed("tabs") {
		opts.Spaces = !useTabs
	}
	if flags.Changed("indent") {
		opts.Indentation = indentation
	}
	if flags.Changed("record-links") {
		opts.RecordLinks = planner.RecordLinkMode(recordLinks)
	}
	if flags.Changed("geometry-hook") {
		opts.GeometryHook = geometryHook
	}
	if flags.Changed("ext") {
		opts.Extension = extension
	}
	if flags.Changed("base-url") {
		opts.BaseURL = baseURL
	}

	merged, err := parseAdditional(opts.Additional, additional)
	if err != nil {
		return config.Options{}, err
	}
	opts.Additional = merged

	if err := opts.Validate(); err != nil {
		return config.Options{}, err
	}
	return opts, nil
}

// parseAdditional applies key=value assignments to base in order
func parseAdditional(base config.Additional, assignments []string) (config.Additional, error) {
	out := base
	for _, a := range assignments {
		key, value, err := config.ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		out = out.With(key, value)
	}
	return out, nil
}

func resolveAPIKey(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return envValue
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
