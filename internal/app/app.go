package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"ragserver/features/chat"
	"ragserver/features/ingest"
	"ragserver/internal/adapter/pinecone"
	"ragserver/internal/config"
	"ragserver/internal/loader"
	"ragserver/internal/middleware"
	"ragserver/internal/retrieval"
)

// Embedder is the full embedding surface the app wires into both pipelines.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the vector index surface: ingestion writes, retrieval reads.
type Index interface {
	Upsert(ctx context.Context, vectors [][]float32, items []pinecone.Metadata, idPrefix string) error
	Query(ctx context.Context, vector []float32, topK int) ([]retrieval.Match, error)
}

type Completer interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Dependencies are the process-wide client singletons, constructed once at
// bootstrap and injected here. Nothing mutates them afterwards.
type Dependencies struct {
	Embedder  Embedder
	Index     Index
	Completer Completer
}

type App struct {
	Handler http.Handler
	port    int
}

func New(cfg *config.Config, deps *Dependencies) *App {
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(deps.Embedder, deps.Index, queryLogger)

	// PDF documents load first, text files second; a name collision is
	// resolved in favour of the text file.
	loaders := []ingest.Loader{
		loader.NewPDFLoader(cfg.PDFDir),
		loader.NewTextLoader(cfg.TextDir),
	}
	ingestService := ingest.NewService(loaders, deps.Embedder, deps.Index, cfg.ChunkSize, cfg.ChunkOverlap)
	ingestHandler := ingest.NewHandler(ingestService)

	chatService := chat.NewService(retrievalService, deps.Completer)
	chatHandler := chat.NewHandler(chatService)

	mux := http.NewServeMux()
	mux.Handle("POST /build", middleware.CorrelationID(middleware.CORS(ingestHandler.Build)))
	mux.Handle("POST /chat", middleware.CorrelationID(middleware.CORS(chatHandler.Chat)))

	// Method-qualified patterns never see OPTIONS, so browser preflights get
	// their own routes.
	preflight := middleware.CORS(func(w http.ResponseWriter, r *http.Request) {})
	mux.Handle("OPTIONS /build", preflight)
	mux.Handle("OPTIONS /chat", preflight)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{Handler: mux, port: cfg.ServerPort}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
