package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/fpang/creatia/internal/batch"
	"github.com/fpang/creatia/internal/bootstrap"
	"github.com/fpang/creatia/internal/cli"
	"github.com/fpang/creatia/internal/config"
	"github.com/fpang/creatia/internal/filehandler"
	"github.com/fpang/creatia/internal/imagegen"
	"github.com/fpang/creatia/internal/logging"
	"github.com/fpang/creatia/internal/planner"
)

// commitHash is set at build time with -ldflags "-X main.commitHash=...".
var commitHash = "dev"

// CLI flags
var (
	configFlag   string
	portFlag     int
	providerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "creatia-server",
	Short: "HTTP API for batch image generation and content planning",
	Long: `Creatia server exposes the batch image generator, the resource catalog
and the weekly planner over HTTP.

Examples:
  creatia-server
  creatia-server --port 9000 --provider gemini
  creatia-server --config creatia.yaml`,
	RunE: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Port to listen on (overrides config)")
	rootCmd.Flags().StringVar(&providerFlag, "provider", "", "Image provider: openai or gemini (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()

	var clients *bootstrap.AWSClients
	if bootstrap.NeedsAWS(cfg) {
		if clients, err = bootstrap.InitAWS(ctx); err != nil {
			return err
		}
	}

	gen, err := cli.NewGenerator(ctx, cfg, bootstrap.KeyResolver(cfg, clients))
	if err != nil {
		return fmt.Errorf("failed to create image generator: %w", err)
	}

	chat, err := newChatClient(cfg, gen)
	if err != nil {
		return err
	}

	reports, err := bootstrap.InitStore(ctx, cfg, clients)
	if err != nil {
		return err
	}

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

	srv := &server{
		batches: batch.NewService(gen, opts...),
		reports: reports,
		catalog: filehandler.NewCatalog(cfg.Resources.Root),
		planner: planner.New(chat),
	}
	if clients != nil {
		srv.s3 = clients.S3
	}

	bootstrap.Describe(logging.NewStartupLogger("creatia-server"), cfg).
		CommitHash(commitHash).
		Config("port", fmt.Sprint(cfg.Server.Port)).
		InitDuration(time.Since(initStart)).
		Log()

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.routes(cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown did not complete")
		}
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("Starting web server")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	<-done
	return nil
}

// newChatClient builds the planner's chat client for the active provider,
// reusing the key and client already resolved for image generation.
func newChatClient(cfg *config.Config, gen imagegen.Generator) (planner.ChatClient, error) {
	if g, ok := gen.(*imagegen.GeminiGenerator); ok {
		return planner.NewGeminiChat(g.Client(), cfg.Gemini.ChatModel), nil
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required for the weekly planner")
	}
	oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		oc.BaseURL = cfg.OpenAI.BaseURL
	}
	return planner.NewOpenAIChat(openai.NewClientWithConfig(oc), cfg.OpenAI.ChatModel), nil
}
