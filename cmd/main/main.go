package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/knights-analytics/hugot"
	_ "github.com/mattn/go-sqlite3"
	"github.com/neurosnap/sentences"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/aerostats/insightserver"
	googlegenai "github.com/aerostats/insightserver/adapter/google-genai"
	hugotAdapter "github.com/aerostats/insightserver/adapter/hugot"
	ollamaAdapter "github.com/aerostats/insightserver/adapter/ollama"
	"github.com/aerostats/insightserver/adapter/preprocess"
	redisAdapter "github.com/aerostats/insightserver/adapter/redis"
	"github.com/aerostats/insightserver/adapter/rest"
	"github.com/aerostats/insightserver/adapter/sqlquery"
	"github.com/aerostats/insightserver/adapter/store"
	weaviateAdapter "github.com/aerostats/insightserver/adapter/weaviate"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("fatal error config file: ", err)
	}

	logger, err := buildLogger()
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	// Connect to the database
	logger.Info("connecting to db", zap.String("name", viper.GetString("db.name")))
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&cache=shared", viper.GetString("db.name")))
	if err != nil {
		log.Fatal("db open: ", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatal("db ping: ", err)
	}

	// Run db migrations
	if err := insightserver.Migrate(db, viper.GetString("db.migrations_path")); err != nil {
		log.Fatal("db migrate: ", err)
	}

	genaiClient := newGenaiClientFunc(ctx)

	generator := buildGenerator(genaiClient, logger)
	embedder, cleanupEmbedder := buildEmbedder(ctx, genaiClient, logger)
	defer cleanupEmbedder()
	semantic := buildSemantic(ctx, embedder, logger)

	var (
		structured = sqlquery.New(db, sqlquery.WithLogger(logger))
		generated  = sqlquery.NewGenerated(db, generator,
			sqlquery.WithGeneratedModel(viper.GetString("adapter.generate.sql_model")),
			sqlquery.WithGeneratedLogger(logger),
		)
		preprocessor = preprocess.New(generator, structured.Intents(),
			preprocess.WithModel(viper.GetString("adapter.generate.preprocess_model")),
			preprocess.WithLogger(logger),
		)
		storeAdapter = store.New(db)
	)

	evaluatorOptions := []insightserver.EvaluatorOption{}
	if training := loadSentenceTraining(logger); training != nil {
		evaluatorOptions = append(evaluatorOptions, insightserver.WithSentenceTokenizer(
			sentences.NewSentenceTokenizer(training),
		))
	}

	is := insightserver.New(
		preprocessor,
		structured,
		semantic,
		generated,
		insightserver.NewRenderer(),
		insightserver.NewPromptBuilder(),
		insightserver.NewDispatcher(generator,
			insightserver.WithConcurrencyLimit(viper.GetInt("dispatch.concurrency")),
			insightserver.WithDispatcherLogger(logger),
		),
		insightserver.NewEvaluator(evaluatorOptions...),
		storeAdapter,
		insightserver.WithDefaultModel(viper.GetString("adapter.generate.default_model")),
		insightserver.WithTopK(viper.GetInt("retrieve.top_k")),
		insightserver.WithLogger(logger),
	)

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "serve":
		serve(is, logger)
	case "ask":
		if len(os.Args) < 3 {
			log.Fatal("usage: main ask <question>")
		}
		ask(ctx, is, strings.Join(os.Args[2:], " "))
	case "compare":
		compare(ctx, is)
	case "repl":
		repl(ctx, is)
	case "ingest":
		if len(os.Args) < 3 {
			log.Fatal("usage: main ingest <feedback.json>")
		}
		ingest(ctx, semantic, embedder, os.Args[2], logger)
	default:
		log.Fatalf("unknown mode: %s", mode)
	}
}

func buildLogger() (*zap.Logger, error) {
	if viper.GetBool("log.development") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newGenaiClientFunc defers client construction until an adapter actually
// needs it, so deployments without a Gemini API key can run fully local.
func newGenaiClientFunc(ctx context.Context) func() *genai.Client {
	var client *genai.Client
	return func() *genai.Client {
		if client == nil {
			// The client gets the API key from the environment variable `GEMINI_API_KEY`.
			var err error
			client, err = genai.NewClient(ctx, nil)
			if err != nil {
				log.Fatal("genai client: ", err)
			}
		}
		return client
	}
}

func buildGenerator(genaiClient func() *genai.Client, logger *zap.Logger) insightserver.Generator {
	switch name := viper.GetString("adapter.generate.name"); name {
	case "google-genai":
		logger.Info("generate adapter: google-genai")
		return googlegenai.New(genaiClient(), googlegenai.WithLogger(logger))
	case "ollama":
		logger.Info("generate adapter: ollama")
		return ollamaAdapter.New(
			ollamaAdapter.WithBaseURL(viper.GetString("ollama.base_url")),
			ollamaAdapter.WithLogger(logger),
		)
	default:
		log.Fatalf("unknown generate adapter: %s", name)
		return nil
	}
}

func buildEmbedder(ctx context.Context, genaiClient func() *genai.Client, logger *zap.Logger) (insightserver.Embedder, func()) {
	switch name := viper.GetString("adapter.embed.name"); name {
	case "google-genai":
		logger.Info("embed adapter: google-genai")
		embedder := googlegenai.New(
			genaiClient(),
			googlegenai.WithEmbeddingModel(viper.GetString("adapter.embed.model")),
			googlegenai.WithLogger(logger),
		)
		return embedder, func() {}
	case "hugot":
		logger.Info("embed adapter: hugot")
		session, err := hugot.NewGoSession()
		if err != nil {
			log.Fatal("hugot session: ", err)
		}
		embedder, err := hugotAdapter.New(
			ctx,
			session,
			hugotAdapter.WithEmbeddingModelName(viper.GetString("adapter.embed.model")),
			hugotAdapter.WithModelsDir(viper.GetString("adapter.embed.models_dir")),
			hugotAdapter.WithLogger(logger),
		)
		if err != nil {
			log.Fatal("hugot adapter: ", err)
		}
		return embedder, func() {
			if err := session.Destroy(); err != nil {
				log.Fatal("hugot session destroy: ", err)
			}
		}
	default:
		log.Fatalf("unknown embed adapter: %s", name)
		return nil, nil
	}
}

func buildSemantic(ctx context.Context, embedder insightserver.Embedder, logger *zap.Logger) insightserver.SemanticSearcher {
	switch name := viper.GetString("adapter.semantic.name"); name {
	case "redis":
		logger.Info("semantic adapter: redis")
		rdb := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			Protocol: viper.GetInt("redis.protocol"),
		})
		adapter, err := redisAdapter.New(
			ctx,
			rdb,
			embedder,
			redisAdapter.WithIndexName(viper.GetString("redis.index")),
			redisAdapter.WithIndexPrefix(viper.GetString("redis.index_prefix")),
			redisAdapter.WithDialectVersion(viper.GetInt("redis.protocol")),
			redisAdapter.WithVectorDim(viper.GetInt("redis.vector_dim")),
			redisAdapter.WithVectorDistanceMetric(viper.GetString("redis.vector_distance_metric")),
			redisAdapter.WithLogger(logger),
		)
		if err != nil {
			log.Fatal("redis adapter: ", err)
		}
		return adapter
	case "weaviate":
		logger.Info("semantic adapter: weaviate")
		wvClient, err := weaviate.NewClient(weaviate.Config{
			Host:   viper.GetString("weaviate.host"),
			Scheme: viper.GetString("weaviate.scheme"),
		})
		if err != nil {
			log.Fatal("weaviate client: ", err)
		}
		adapter, err := weaviateAdapter.New(ctx, wvClient, embedder, weaviateAdapter.WithLogger(logger))
		if err != nil {
			log.Fatal("weaviate adapter: ", err)
		}
		return adapter
	default:
		log.Fatalf("unknown semantic adapter: %s", name)
		return nil
	}
}

func serve(is rest.InsightServer, logger *zap.Logger) {
	var (
		restAdapter = rest.New(is, rest.WithLogger(logger))
		address     = viper.GetString("http.host") + ":" + viper.GetString("http.port")
	)

	httpServer := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Second,
		Addr:              address,
		Handler:           restAdapter.Routes(),
	}

	logger.Info("listening", zap.String("address", address))

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
		logger.Info("stopped serving new connections")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP shutdown error: %v", err)
	}
	logger.Info("graceful shutdown complete")
}

func ask(ctx context.Context, is rest.InsightServer, question string) {
	answer, err := is.Answer(ctx, question)
	if err != nil {
		log.Fatal("answer: ", err)
	}

	fmt.Println(answer.Response.Text)
	fmt.Printf("\nmodel=%s latency=%s assessment=%s aggregate=%.2f\n",
		answer.Response.Model,
		answer.Response.Latency,
		answer.Evaluation.Assessment,
		answer.Evaluation.Aggregate,
	)
}

func compare(ctx context.Context, is rest.InsightServer) {
	var (
		queries = viper.GetStringSlice("compare.queries")
		models  = viper.GetStringSlice("compare.models")
	)

	snapshot, err := is.Compare(ctx, queries, models)
	if err != nil {
		log.Fatal("compare: ", err)
	}

	fmt.Printf("comparison %s over %d queries\n\n", snapshot.ID, len(snapshot.Queries))
	for rank, summary := range snapshot.Summary {
		fmt.Printf("%d. %-32s aggregate=%.3f latency=%s failures=%d/%d\n",
			rank+1, summary.Model, summary.AvgAggregate, summary.AvgLatency, summary.Failures, summary.Queries)
	}
}

func repl(ctx context.Context, is rest.InsightServer) {
	fmt.Println("flight insights - type a question, or 'exit' to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return
		}

		answer, err := is.Answer(ctx, question)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}

		fmt.Printf("\n%s\n\n[%s in %s, %s]\n\n",
			answer.Response.Text,
			answer.Response.Model,
			answer.Response.Latency,
			answer.Evaluation.Assessment,
		)
	}
}

type feedbackSaver interface {
	SaveFeedback(ctx context.Context, entries []insightserver.FeedbackEntry, vectors []insightserver.Vector) error
}

type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]insightserver.Vector, error)
}

func embedEntries(ctx context.Context, embedder insightserver.Embedder, entries []insightserver.FeedbackEntry) ([]insightserver.Vector, error) {
	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Text)
	}

	if batcher, ok := embedder.(batchEmbedder); ok {
		return batcher.EmbedBatch(ctx, texts)
	}

	vectors := make([]insightserver.Vector, 0, len(texts))
	for _, text := range texts {
		vector, err := embedder.EmbedContent(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func ingest(ctx context.Context, semantic insightserver.SemanticSearcher, embedder insightserver.Embedder, path string, logger *zap.Logger) {
	saver, ok := semantic.(feedbackSaver)
	if !ok {
		log.Fatalf("semantic adapter %s cannot ingest feedback", semantic.Name())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("read feedback file: ", err)
	}

	var entries []insightserver.FeedbackEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Fatal("parse feedback file: ", err)
	}

	vectors, err := embedEntries(ctx, embedder, entries)
	if err != nil {
		log.Fatal("embed feedback: ", err)
	}

	if err := saver.SaveFeedback(ctx, entries, vectors); err != nil {
		log.Fatal("save feedback: ", err)
	}

	logger.Info("feedback ingested", zap.Int("entries", len(entries)), zap.String("file", path))
}

// loadSentenceTraining reads the tokenizer training data used for clarity
// scoring. Missing training data is not fatal, the evaluator falls back to
// simpler sentence splitting.
func loadSentenceTraining(logger *zap.Logger) *sentences.Storage {
	path := viper.GetString("evaluate.sentence_training")
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("sentence training data unavailable", zap.Error(err))
		return nil
	}

	training, err := sentences.LoadTraining(raw)
	if err != nil {
		logger.Warn("sentence training data invalid", zap.Error(err))
		return nil
	}

	return training
}
