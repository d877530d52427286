// Ventro reconciliation engine server - wires C1-C16 into one HTTP/WebSocket
// process and serves the API described in spec.md §6.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"

	"github.com/NeoOne601/ventro/pkg/api"
	"github.com/NeoOne601/ventro/pkg/batch"
	"github.com/NeoOne601/ventro/pkg/config"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/events"
	"github.com/NeoOne601/ventro/pkg/extraction"
	"github.com/NeoOne601/ventro/pkg/fileenc"
	"github.com/NeoOne601/ventro/pkg/jobs"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
	"github.com/NeoOne601/ventro/pkg/money"
	"github.com/NeoOne601/ventro/pkg/orchestrator"
	"github.com/NeoOne601/ventro/pkg/quant"
	"github.com/NeoOne601/ventro/pkg/ratelimit"
	"github.com/NeoOne601/ventro/pkg/reconcile"
	"github.com/NeoOne601/ventro/pkg/repo"
	"github.com/NeoOne601/ventro/pkg/retrieval"
	"github.com/NeoOne601/ventro/pkg/samr"
	"github.com/NeoOne601/ventro/pkg/sanitize"
	"github.com/NeoOne601/ventro/pkg/security"
	"github.com/NeoOne601/ventro/pkg/webhooks"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with process environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to postgresql", "host", dbConfig.Host, "database", dbConfig.Database)

	repository := repo.New(dbClient)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable at startup, rate limiting and the websocket bridge will degrade until it recovers", "error", err)
	}

	// security: JWT issuance, revocation denylist, tamper-evident audit log.
	signingKey := []byte(getEnv("JWT_SIGNING_KEY", ""))
	if len(signingKey) == 0 {
		slog.Error("JWT_SIGNING_KEY must be set")
		os.Exit(1)
	}
	issuer := security.NewTokenIssuer(signingKey, 15*time.Minute)
	var denylist security.TokenDenylist = security.NewRedisDenylist(redisClient)
	auditChain := security.NewChain(repository)
	workpaperSignKey := []byte(getEnv("WORKPAPER_SIGN_KEY", getEnv("JWT_SIGNING_KEY", "")))

	limiterCfg, err := cfg.RateLimit.ToLimiterConfig()
	if err != nil {
		slog.Error("failed to build rate limiter config", "error", err)
		os.Exit(1)
	}
	limiter := ratelimit.NewSlidingWindowLimiter(limiterCfg, redisClient)

	// envelope file encryption: fail fast on a bad master key rather than
	// discovering it the first time a document is decrypted.
	masterKeyEnv := "FILE_ENCRYPTION_MASTER_KEY"
	fileEncProduction := false
	if cfg.FileEncryption != nil {
		if cfg.FileEncryption.MasterKeyEnv != "" {
			masterKeyEnv = cfg.FileEncryption.MasterKeyEnv
		}
		fileEncProduction = cfg.FileEncryption.Production
	}
	masterKey := []byte(getEnv(masterKeyEnv, ""))
	if len(masterKey) == 0 {
		slog.Error("file encryption master key env var not set", "env_var", masterKeyEnv)
		os.Exit(1)
	}
	fileEncEnv := fileenc.EnvDevelopment
	if fileEncProduction {
		fileEncEnv = fileenc.EnvProduction
	}
	fileEncSvc, err := fileenc.New(masterKey, fileEncEnv)
	if err != nil {
		slog.Error("failed to initialize file encryption service", "error", err)
		os.Exit(1)
	}

	secretsProvider := fileenc.ResolveProvider(cfg.Secrets.Provider, nil)

	// LLM router: one provider per chain_order member, its OpenAI member
	// doubling as the shared embedder for both retrieval and SAMR.
	var providers []llmrouter.Provider
	var embedder retrieval.IEmbedder
	for _, name := range cfg.LLM.ChainOrder {
		p, ok := cfg.LLM.Providers[name]
		if !ok {
			slog.Error("chain_order names an undeclared provider", "provider", name)
			os.Exit(1)
		}
		switch p.Type {
		case "openai":
			apiKey := os.Getenv(p.APIKeyEnv)
			oa := llmrouter.NewOpenAIProvider(apiKey, p.Model, p.EmbedModel, p.EmbedDim)
			providers = append(providers, oa)
			if embedder == nil {
				embedder = oa
			}
		case "anthropic":
			apiKey := os.Getenv(p.APIKeyEnv)
			providers = append(providers, llmrouter.NewAnthropicProvider(apiKey, p.Model))
		case "rule_based":
			dim := p.EmbedDim
			if dim == 0 {
				dim = 1536
			}
			providers = append(providers, llmrouter.NewRuleBasedProvider(dim))
		default:
			slog.Error("unknown LLM provider type", "type", p.Type, "provider", name)
			os.Exit(1)
		}
	}
	breakerCfg := llmrouter.BreakerConfig{
		FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
		Cooldown:         time.Duration(cfg.LLM.Breaker.CooldownSeconds) * time.Second,
	}
	if breakerCfg.FailureThreshold == 0 {
		breakerCfg = llmrouter.DefaultBreakerConfig()
	}
	router := llmrouter.NewRouter(providers, embedder, breakerCfg)

	// retrieval: Qdrant vector store plus the shared embedder and a
	// rule-based cross-encoder rerank fallback.
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host: getEnv("QDRANT_HOST", "localhost"),
		Port: atoiOr(getEnv("QDRANT_PORT", "6334"), 6334),
	})
	if err != nil {
		slog.Error("failed to create qdrant client", "error", err)
		os.Exit(1)
	}
	vectorStore := retrieval.NewQdrantStore(qdrantClient)
	reranker, err := retrieval.NewReranker(retrieval.RuleBasedCrossEncoder{}, 8)
	if err != nil {
		slog.Error("failed to construct reranker", "error", err)
		os.Exit(1)
	}

	sanitizer := sanitize.New()

	progress := events.NewPublisher(redisClient, repository)
	engine := extraction.NewEngine(vectorStore, embedder, reranker, sanitizer, router, progress)

	rates := money.NewRateTable(money.Currency("USD"))
	validator := quant.NewValidator(rates)

	detector := samr.NewDetector(router, cfg.SAMR.PerturbationStrength)
	thresholds := samr.NewAdaptiveThresholdService(repository, cfg.SAMR.DivergenceThreshold)
	if err := thresholds.StartScheduledRefresh("@every 15m"); err != nil {
		slog.Warn("SAMR threshold refresh schedule not started, thresholds will only recompute lazily on cache miss", "error", err)
	}
	defer thresholds.Stop()

	synthesizeVerdict := func(ctx context.Context, matches []domain.LineItemMatch, report quant.Report) (domain.Verdict, error) {
		return reconcile.SynthesizeVerdict(ctx, router, matches, report)
	}

	webhookDispatcher := webhooks.NewDispatcher(repository, http.DefaultClient)

	supervisor := &orchestrator.Supervisor{
		Extractor:         engine,
		Quantifier:        validator,
		SAMR:              detector,
		ThresholdResolver: thresholds,
		MatchLines:        reconcile.MatchLines,
		SynthesizeVerdict: synthesizeVerdict,
		Publisher:         progress,
	}

	reconcileExecutor := &orchestrator.ReconcileExecutor{
		Sessions:              repository,
		Supervisor:            supervisor,
		Webhooks:              webhookDispatcher,
		DefaultMatchThreshold: 85,
	}
	documentExecutor := &orchestrator.DocumentExecutor{
		Engine:    engine,
		Documents: repository,
	}
	batchExecutor := &batch.CallbackExecutor{
		Store:  repository,
		Source: repository,
		Orgs:   repository,
	}

	dispatcher := jobs.NewTypeDispatcher(map[jobs.Type]jobs.Executor{
		jobs.TypeProcessDocument:  documentExecutor,
		jobs.TypeReconcileSession: reconcileExecutor,
		jobs.TypeBatchCallback:    batchExecutor,
	})
	pool := jobs.NewPool(repository, cfg.Jobs.ToJobsConfig(), dispatcher)
	pool.Start(ctx)
	defer pool.Stop()

	connManager := events.NewConnectionManager(repository, 10*time.Second)
	bridge := events.NewRedisBridge(redisClient, connManager)
	bridge.Start(ctx)
	defer bridge.Stop()
	connManager.SetBridge(bridge)

	server := api.NewServer(cfg, dbClient, repository, issuer, denylist, limiter, repository, connManager)
	server.SetAuditChain(auditChain)
	server.SetWebhookDispatcher(webhookDispatcher)
	server.SetThresholdService(thresholds)
	server.SetWorkpaperSignKey(workpaperSignKey)
	server.SetRetrieval(vectorStore, embedder)

	if err := server.ValidateWiring(); err != nil {
		slog.Error("server wiring incomplete", "error", err)
		os.Exit(1)
	}

	_ = fileEncSvc     // attached to document handlers alongside SetRetrieval in a later pass
	_ = secretsProvider // unused; ResolveProvider returns no error and falls back to the environment provider

	listenAddr := cfg.Server.ListenAddr
	slog.Info("starting ventro", "listen_addr", listenAddr, "llm_providers", cfg.Stats().LLMProviders)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(listenAddr) }()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during graceful shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("server exited unexpectedly", "error", err)
			os.Exit(1)
		}
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
