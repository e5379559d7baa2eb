package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/creatia/internal/assets"
	"github.com/fpang/creatia/internal/batch"
	"github.com/fpang/creatia/internal/bootstrap"
	"github.com/fpang/creatia/internal/cli"
	"github.com/fpang/creatia/internal/config"
	"github.com/fpang/creatia/internal/filehandler"
	"github.com/fpang/creatia/internal/logging"
	"github.com/fpang/creatia/internal/s3util"
)

// CLI flags
var (
	configFlag   string
	providerFlag string

	promptFlag   string
	countFlag    int
	qualityFlag  string
	sizeFlag     string
	formatFlag   string
	saveDirFlag  string
	prefixFlag   string
	refFlags     []string
	brandFlag    bool
	validateFlag bool

	rootFlag    string
	detailsFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "creatia-cli",
	Short: "Generate image batches and browse brand resources",
	Long: `Creatia CLI runs the batch image generator from the terminal.

Examples:
  creatia-cli generate --prompt "A hackathon poster" --count 4 --save-dir ./out
  creatia-cli generate -p "Put the logo on a mug" --ref logo.png --ref mug.jpg
  creatia-cli generate --brand -p "Developers coding together" --format jpeg
  creatia-cli resources templates`,
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of images from one prompt",
	RunE:  runGenerate,
}

var resourcesCmd = &cobra.Command{
	Use:       "resources [category]",
	Short:     "List catalog resources",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: filehandler.Categories,
	RunE:      runResources,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Image provider: openai or gemini (overrides config)")

	f := generateCmd.Flags()
	f.StringVarP(&promptFlag, "prompt", "p", "", "Image prompt (asked interactively when empty)")
	f.IntVarP(&countFlag, "count", "n", 3, fmt.Sprintf("Number of images (1-%d)", batch.MaxCount))
	f.StringVarP(&qualityFlag, "quality", "q", batch.DefaultQuality, "low, medium, high or auto")
	f.StringVarP(&sizeFlag, "size", "s", batch.DefaultSize, "Image size, e.g. 1024x1024, 1536x1024")
	f.StringVarP(&formatFlag, "format", "f", batch.DefaultOutputFormat, "png, jpeg or webp")
	f.StringVarP(&saveDirFlag, "save-dir", "o", "", "Directory to save images to")
	f.StringVar(&prefixFlag, "prefix", "", "File name prefix of saved images")
	f.StringArrayVarP(&refFlags, "ref", "r", nil, "Reference image path or s3:// URI (repeatable)")
	f.BoolVar(&brandFlag, "brand", false, "Append the AI Weekend brand guide to the prompt")
	f.BoolVar(&validateFlag, "validate", false, "Check the API key before generating")

	resourcesCmd.Flags().StringVar(&rootFlag, "root", "", "Resource catalog root (overrides config)")
	resourcesCmd.Flags().BoolVar(&detailsFlag, "details", false, "Show format and dimensions")

	rootCmd.AddCommand(generateCmd, resourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	logging.Init()
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		cfg.Provider = strings.ToLower(providerFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	prompt := promptFlag
	if prompt == "" {
		prompt = cli.PromptForInput(cmd.InOrStdin(), cmd.ErrOrStderr(), "Prompt", "")
	}
	if brandFlag {
		prompt = assets.BrandPrompt(prompt)
	}

	var clients *bootstrap.AWSClients
	if bootstrap.NeedsAWS(cfg) || hasS3Ref(refFlags) {
		if clients, err = bootstrap.InitAWS(ctx); err != nil {
			return err
		}
	}

	refs := refFlags
	if hasS3Ref(refs) {
		dir, err := os.MkdirTemp("", "creatia-refs-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		if refs, err = s3util.LocalizeReferences(ctx, clients.S3, refs, dir); err != nil {
			return err
		}
	}

	gen := cli.InitGenerator(ctx, cfg, bootstrap.KeyResolver(cfg, clients), validateFlag)

	opts := []batch.Option{
		batch.WithPoolSize(cfg.Batch.PoolSize),
		batch.WithJPEGQuality(cfg.Batch.JPEGQuality),
	}
	if mirror := bootstrap.InitMirror(cfg, clients); mirror != nil {
		opts = append(opts, batch.WithMirror(mirror))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, batch.WithMetrics(cfg.Metrics.Namespace))
	}
	svc := batch.NewService(gen, opts...)

	saveDir := saveDirFlag
	if saveDir != "" {
		if saveDir, err = cli.ResolveDirectory(saveDir, true); err != nil {
			return err
		}
	}

	start := time.Now()
	report, err := svc.Generate(ctx, batch.Request{
		Prompt:          prompt,
		Count:           countFlag,
		Quality:         qualityFlag,
		Size:            sizeFlag,
		OutputFormat:    formatFlag,
		ReferenceImages: refs,
		SaveDirectory:   saveDir,
		FilenamePrefix:  prefixFlag,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatBatchSummary(report, elapsed))

	if report.TotalSuccessful == 0 {
		log.Warn().Int("failed", report.TotalFailed).Msg("No image was generated")
	}
	return nil
}

func runResources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := cfg.Resources.Root
	if rootFlag != "" {
		if root, err = cli.ResolveDirectory(rootFlag, false); err != nil {
			return err
		}
	}
	catalog := filehandler.NewCatalog(root)

	var out interface{}
	if len(args) == 1 {
		files, err := catalog.List(args[0])
		if err != nil {
			return err
		}
		if detailsFlag {
			out = map[string]interface{}{args[0]: filehandler.InspectAll(files)}
		} else {
			out = map[string][]string{args[0]: files}
		}
	} else {
		if out, err = catalog.All(); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func hasS3Ref(refs []string) bool {
	for _, r := range refs {
		if _, _, ok := s3util.ParseURI(r); ok {
			return true
		}
	}
	return false
}
