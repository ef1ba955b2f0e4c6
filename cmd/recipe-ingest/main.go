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

	"go.mau.fi/util/exhttp"
	flag "maunium.net/go/mauflag"

	"github.com/beeper/recipe-ingest/pkg/api"
	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/assistant"
	"github.com/beeper/recipe-ingest/pkg/config"
	"github.com/beeper/recipe-ingest/pkg/fetch"
	"github.com/beeper/recipe-ingest/pkg/frames"
	"github.com/beeper/recipe-ingest/pkg/ingest"
	"github.com/beeper/recipe-ingest/pkg/prompt"
	"github.com/beeper/recipe-ingest/pkg/recipestore"
)

// Information to find out exactly which commit the service was built from.
// These are filled at build time with the -X linker flag.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath = flag.MakeFull("c", "config", "The path to your config file.", "config.yaml").String()
var envPath = flag.MakeFull("", "env-file", "The path to a .env file with secrets.", ".env").String()
var saveConfig = flag.MakeFull("u", "update-config", "Write keys missing from the config file back to it.", "false").Bool()
var writeExampleConfig = flag.MakeFull("e", "generate-example-config", "Save the example config to the config path and quit.", "false").Bool()
var version = flag.MakeFull("v", "version", "View version and quit.", "false").Bool()
var wantHelp, _ = flag.MakeHelpFlag()

func main() {
	flag.SetHelpTitles(
		"recipe-ingest - Turn recipe web pages and cooking videos into structured recipes.",
		"recipe-ingest [-hvue] [-c <path>] [--env-file <path>]",
	)
	err := flag.Parse()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	} else if *version {
		fmt.Printf("recipe-ingest %s (commit %s, built at %s)\n", Tag, Commit, BuildTime)
		os.Exit(0)
	} else if *writeExampleConfig {
		if err = os.WriteFile(*configPath, []byte(config.ExampleConfig), 0o600); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Failed to write example config:", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, *envPath, *saveConfig)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(10)
	}
	log := cfg.Logging.NewLogger(os.Stderr)
	log.Info().Str("version", Tag).Str("commit", Commit).Str("built_at", BuildTime).Msg("Starting recipe-ingest")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	store, err := recipestore.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer store.Close()

	fetcher, err := fetch.New(&cfg.Fetch)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize page fetcher")
	}
	resolver := &frames.HostResolver{
		YouTube: frames.NewYouTubeResolver(exhttp.SensibleClientSettings.Compile()),
		Direct:  frames.DirectResolver{},
	}
	sampler := frames.NewSampler(&cfg.Frames, resolver, frames.NewFFmpegBackend(&cfg.Frames))

	model := aiprovider.NewClient(&cfg.Model, log)
	if !model.Configured() {
		log.Warn().Msg("GEMINI_API_KEY is not set, AI features will answer with a not-configured message")
	}
	prompts := &prompt.Builder{Language: cfg.Prompt.Language}

	pipeline := ingest.NewPipeline(fetcher, sampler, model, store, prompts)
	pipeline.FrameCount = cfg.Frames.WithDefaults().Count

	exhttp.AutoAllowCORS = cfg.Server.AllowCORS
	apiServer := api.NewServer(pipeline, assistant.New(model, prompts), api.TrustedHeaderAuth{Header: cfg.Server.AuthHeader}, log)
	apiServer.AllowCORS = cfg.Server.AllowCORS

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("Failed to shut down HTTP server cleanly")
		}
	}()

	log.Info().Str("address", cfg.Server.ListenAddress).Msg("Listening for HTTP requests")
	if err = httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
	log.Info().Msg("Shut down")
}
