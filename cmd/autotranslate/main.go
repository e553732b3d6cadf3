package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/goliatone/go-autotranslate"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var moduleBuilder = func(cfg autotranslate.Config) (*autotranslate.Module, error) {
	return autotranslate.New(cfg)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "autotranslate",
		Short:        "Machine-translate document fields into every configured locale",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML configuration file")

	root.AddCommand(
		newTranslateCmd(opts),
		newWorkerCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) load() (autotranslate.Config, error) {
	if strings.TrimSpace(o.configPath) == "" {
		cfg := autotranslate.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return autotranslate.LoadConfig(o.configPath)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autotranslate %s (%s)\n", version, commit)
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: provider=%s locales=%s collections=%d\n",
				cfg.Translation.Provider, strings.Join(cfg.I18N.Locales, ","), len(cfg.Collections))
			return nil
		},
	}
}

type translateFlags struct {
	collection string
	id         string
	file       string
	source     string
	locales    []string
	fields     []string
	formality  string
	requireAll bool
}

func newTranslateCmd(opts *rootOptions) *cobra.Command {
	flags := &translateFlags{}
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate one document into its target locales",
		Long: `Translate one document into its target locales.

The source document is read from --file (JSON) or fetched from the configured
store by --collection and --id. The per-locale result is printed as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTranslate(cmd.Context(), cmd.OutOrStdout(), opts, flags)
		},
	}
	cmd.Flags().StringVar(&flags.collection, "collection", "", "Collection the document belongs to")
	cmd.Flags().StringVar(&flags.id, "id", "", "Document identifier (defaults to the id in --file)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "JSON file holding the source document")
	cmd.Flags().StringVar(&flags.source, "source", "", "Source locale (defaults to the document or config)")
	cmd.Flags().StringSliceVar(&flags.locales, "locales", nil, "Restrict translation to these target locales")
	cmd.Flags().StringSliceVar(&flags.fields, "fields", nil, "Field paths to translate (defaults to the collection config)")
	cmd.Flags().StringVar(&flags.formality, "formality", "", "Formality forwarded to the provider")
	cmd.Flags().BoolVar(&flags.requireAll, "require-all", false, "Exit with an error when any locale fails")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func runTranslate(ctx context.Context, out io.Writer, opts *rootOptions, flags *translateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	req := autotranslate.TranslateRequest{
		Collection:    flags.collection,
		DocumentID:    flags.id,
		SourceLocale:  flags.source,
		Fields:        flags.fields,
		TargetLocales: flags.locales,
		RequireAll:    flags.requireAll,
	}
	req.Settings.Formality = flags.formality
	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		if err := json.Unmarshal(data, &req.Document); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	if err := module.ImportSource(ctx, req); err != nil {
		return fmt.Errorf("import source: %w", err)
	}
	result, runErr := module.Translate(ctx, req)
	if result != nil {
		if err := writeJSON(out, autotranslate.Summarize(result)); err != nil {
			return err
		}
	}
	return runErr
}

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued translation jobs until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			module, err := moduleBuilder(cfg)
			if err != nil {
				return fmt.Errorf("bootstrap module: %w", err)
			}
			defer module.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := module.RunWorker(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
