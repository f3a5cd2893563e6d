package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/readercompanion/internal/archive"
	"github.com/local/readercompanion/internal/config"
	"github.com/local/readercompanion/internal/gemini"
	logpkg "github.com/local/readercompanion/internal/logger"
	"github.com/local/readercompanion/internal/metrics"
	"github.com/local/readercompanion/internal/orchestrator"
	"github.com/local/readercompanion/internal/pdf"
	"github.com/local/readercompanion/internal/statuscheck"
	"github.com/local/readercompanion/internal/uistate"
	"github.com/local/readercompanion/internal/web"
)

var (
	flagFile     string
	flagSettings string
	flagListen   string
	flagUIState  string
)

func main() {
	root := &cobra.Command{
		Use:   "reader-companion",
		Short: "Reading companion panel for a PDF, backed by the Gemini API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&flagFile, "file", "", "path of the PDF to read (required)")
	root.Flags().StringVar(&flagSettings, "settings", "settings.json", "path of the live-editable settings file")
	root.Flags().StringVar(&flagListen, "listen", "", "listen address, overrides LISTEN")
	root.Flags().StringVar(&flagUIState, "ui-state", "uistate.json", "path of the persisted panel layout")
	_ = root.MarkFlagRequired("file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()
	metrics.Init()

	// The document is fixed for the session: validate it up front.
	info, err := pdf.Inspect(flagFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", flagFile).Msg("document not usable")
	}
	log.Info().Str("file", flagFile).Int("pages", info.Pages).Int64("bytes", info.Size).Msg("document opened")

	// Settings must parse at startup; later edits are picked up per send.
	if _, err := config.LoadSettings(flagSettings); err != nil {
		log.Fatal().Err(err).Str("settings", flagSettings).Msg("settings file invalid")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	client, err := gemini.New(gemini.Options{
		APIKey:         apiKey,
		BaseURL:        cfg.Gemini.BaseURL,
		UploadBaseURL:  cfg.Gemini.UploadBaseURL,
		RequestTimeout: cfg.Gemini.RequestTimeout,
		UploadTimeout:  cfg.Gemini.UploadTimeout,
	})
	if err != nil {
		if errors.Is(err, gemini.ErrMissingCredential) {
			log.Fatal().Msg("GEMINI_API_KEY is not set")
		}
		log.Fatal().Err(err).Msg("gemini client init failed")
	}

	orch := orchestrator.New(orchestrator.Dependencies{
		Client:    client,
		Extractor: pdf.NewExtractor(),
		Settings:  func() (config.Settings, error) { return config.LoadSettings(flagSettings) },
	}, orchestrator.Document{
		Path: flagFile,
		Name: filepath.Base(flagFile),
		MIME: info.MIME,
	})

	ui := uistate.Open(flagUIState)
	defer func() {
		if err := ui.Save(); err != nil {
			log.Warn().Err(err).Msg("ui state save failed")
		}
	}()

	archiver, err := archive.New(context.Background(), cfg.Archive)
	if err != nil {
		log.Fatal().Err(err).Msg("archive init failed")
	}
	if cfg.Archive.SaveOnExit {
		defer func() {
			_, err := archiver.Save(context.Background(), archive.Transcript{
				SessionID: orch.SessionID(),
				Document:  filepath.Base(flagFile),
				Turns:     orch.History(),
			})
			if err != nil {
				log.Warn().Err(err).Msg("transcript save on exit failed")
			}
		}()
	}

	checker := statuscheck.New(statuscheck.Options{
		APIKey:        apiKey,
		BaseURL:       cfg.Gemini.BaseURL,
		DocumentPath:  flagFile,
		ArchiveBucket: cfg.Archive.S3Bucket,
	})

	mux := http.NewServeMux()
	web.New(web.Options{
		Orchestrator: orch,
		UIState:      ui,
		Archiver:     archiver,
		Checker:      checker,
		Settings:     func() (config.Settings, error) { return config.LoadSettings(flagSettings) },
	}).RegisterRoutes(mux)

	listen := cfg.Server.Listen
	if flagListen != "" {
		listen = flagListen
	}
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		log.Info().Str("listen", listen).Str("session", orch.SessionID()).Msg("panel listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
	return nil
}
