package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finsight/internal/ai"
	"github.com/dvloznov/finsight/internal/ai/lab"
	"github.com/dvloznov/finsight/internal/api/handlers"
	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/app"
	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/jobs"
	"github.com/dvloznov/finsight/internal/jobs/inmemory"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/store"
	"github.com/dvloznov/finsight/internal/store/localdisk"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage and domain state
	storage, err := localdisk.New(cfg.StateDir, log)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("Failed to open state directory")
	}

	txs, budgets, err := app.LoadState(storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted state")
	}

	txStore := store.New(txs, storage, log)
	ledger := budget.NewLedger(budgets, storage, log)

	// AI gateway. Without an API key the tracker runs in degraded mode:
	// no parsing, no suggestions, fallback forecasts, lab disabled.
	var (
		gateway   handlers.Gateway
		suggester *ai.Suggester
		aiLab     *lab.Lab
	)
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.Model, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create AI client")
		}
		gateway = client
		// The HTTP surface resolves suggestions synchronously per
		// request (Suggester.Resolve); the debounced Input path with an
		// apply callback is for embedding callers, so no callback here.
		suggester = ai.NewSuggester(client.SuggestCategory, nil, ai.DefaultQuietPeriod, ai.DefaultMinInputLen, log)
		aiLab = lab.New(client.Generative(), lab.DefaultVideoPollInterval, log)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - AI features disabled")
	}

	// Job infrastructure for video generation
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	jobHandler := func(ctx context.Context, job *jobs.VideoJob) error {
		if aiLab == nil {
			return errors.New("AI features are not configured")
		}

		log.Info().Str("job_id", job.JobID).Msg("Generating video")
		uri, err := aiLab.GenerateVideo(ctx, job.Prompt)
		if err != nil {
			return err
		}
		job.VideoURI = uri
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msg("Starting job worker")
		return jobQueue.Start(gctx, jobHandler)
	})

	// Handlers
	transactionsHandler := handlers.NewTransactionsHandler(txStore, log)
	budgetsHandler := handlers.NewBudgetsHandler(ledger, txStore, log)
	dashboardHandler := handlers.NewDashboardHandler(txStore, ledger, log)
	aiHandler := handlers.NewAIHandler(gateway, suggester, txStore, log)
	labHandler := handlers.NewLabHandler(aiLab, jobQueue, jobStore, log)
	exportHandler := handlers.NewExportHandler(txStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		transactionsHandler.DeleteTransaction(w, r, id)
	})

	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetsHandler.GetBudgets(w, r)
		case http.MethodPut:
			budgetsHandler.UpdateBudget(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			dashboardHandler.GetDashboard(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/trend", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			dashboardHandler.GetTrend(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ai/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			aiHandler.Parse(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ai/suggest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			aiHandler.Suggest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ai/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			aiHandler.Forecast(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			labHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/image", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			labHandler.GenerateImage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/video", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			labHandler.EnqueueVideo(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/video/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/lab/video/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		labHandler.GetVideoJob(w, r, jobID)
	})

	mux.HandleFunc("/api/lab/speech", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			labHandler.Synthesize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/transcribe", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			labHandler.Transcribe(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/lab/live", labHandler.Live)

	mux.HandleFunc("/api/export/csv", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			exportHandler.ExportCSV(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Job queue shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
