// Command evalsrv is the evaluation engine's HTTP server: it wires the
// Store, agent Registry, scorer Registry, trace Client, Runner,
// Orchestrator, Comparator and Aggregator together behind pkg/api's Gin
// routes, following cmd/tarsy/main.go's flag+godotenv+gin bootstrap idiom.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/api"
	"github.com/neon-eval/evalengine/pkg/comparator"
	"github.com/neon-eval/evalengine/pkg/orchestrator"
	"github.com/neon-eval/evalengine/pkg/runner"
	"github.com/neon-eval/evalengine/pkg/scorer"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
	"github.com/neon-eval/evalengine/pkg/stats"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/pkg/trace"
	"github.com/neon-eval/evalengine/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting %s", version.Full())
	log.Printf("HTTP port: %s", httpPort)

	ctx := context.Background()

	dbCfg := store.ConfigFromEnv(os.Getenv)
	st, err := store.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database; migrations applied")

	traceClient, err := trace.NewClient(ctx, trace.Config{
		Endpoint:    getEnv("OTLP_ENDPOINT", ""),
		ServiceName: version.AppName,
	})
	if err != nil {
		log.Fatalf("Failed to initialize trace client: %v", err)
	}
	defer traceClient.Shutdown(ctx)

	agents := agent.NewRegistry()
	// Real deployments register concrete agent implementations here, e.g.:
	//   agents.RegisterFactory("mypackage:MyAgent", myagent.New)

	scorerJudge := judge.NewHTTPJudge(getEnv("JUDGE_ENDPOINT", "http://localhost:9000/judge"))
	scorers := scorer.NewRegistry(
		scorer.NewToolSelectionScorer(),
		scorer.NewContentScorer(scorerJudge),
		scorer.NewReasoningScorer(scorerJudge),
	)

	pgStore := store.NewPostgresStore(st.DB())

	run := runner.New(pgStore, scorers, traceClient)
	orch := orchestrator.New(pgStore, agents, run)
	cmp := comparator.New(pgStore)
	agg := stats.New(pgStore)

	authenticator := api.NewStaticAuthenticator(loadAPIKeys())

	server := api.NewServer(pgStore, orch, cmp, agg, scorers.Known())

	router := gin.Default()
	api.RegisterRoutes(router, server, authenticator)

	router.GET("/health/db", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		health, err := store.Health(reqCtx, st.DB())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": health, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": health, "version": version.Full()})
	})

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadAPIKeys resolves the static API-key → Principal table from the
// environment. Real deployments should back this with a config file or a
// secrets manager; a single admin key read from EVAL_API_KEY keeps local
// bring-up simple.
func loadAPIKeys() map[string]api.Principal {
	key := getEnv("EVAL_API_KEY", "")
	if key == "" {
		return map[string]api.Principal{}
	}
	return map[string]api.Principal{
		key: {Scopes: map[api.Scope]bool{api.ScopeAdmin: true}},
	}
}
