package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/ai"
	"github.com/NikiP31/TransactionsPipeline/internal/config"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	// Flags
	queryFlag := flag.String("q", "", "Run a single natural language query and exit")
	modelFlag := flag.String("model", "", "OpenRouter model name (overrides LLM_MODEL)")
	flag.Parse()

	// Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Fatal("OPENROUTER_API_KEY is required for the AI agent. Please set it in your environment or config.")
	}

	model := cfg.Model
	if *modelFlag != "" {
		model = *modelFlag
	}

	// Context + signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down AI agent...")
		cancel()
	}()

	// Warehouse session the agent runs its generated SQL against
	sess, err := warehouse.Open(cfg.DuckDBPath, &warehouse.S3Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Region:    cfg.MinIORegion,
		UseSSL:    cfg.MinIOUseSSL,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open warehouse")
	}
	defer sess.Close()

	// Agent
	agent, err := ai.NewAgent(sess, ai.AgentConfig{
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		Model:            model,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create AI agent")
	}

	// Single-shot mode
	if *queryFlag != "" {
		if err := runSingle(ctx, agent, *queryFlag); err != nil {
			logger.WithError(err).Fatal("query failed")
		}
		return
	}

	// REPL mode
	runREPL(ctx, agent)
}

func runSingle(ctx context.Context, agent *ai.Agent, q string) error {
	res, err := agent.Ask(ctx, q)
	if err != nil {
		return err
	}

	fmt.Printf("SQL:\n%s\n\n", res.SQL)
	fmt.Printf("Answer:\n%s\n", res.Answer)
	return nil
}

func runREPL(ctx context.Context, agent *ai.Agent) {
	fmt.Println("Transactions AI Agent (NL → DuckDB SQL)")
	fmt.Println("Type your question and press Enter. Empty line to exit.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		q, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("error reading input:", err)
			return
		}
		q = strings.TrimSpace(q)
		if q == "" {
			fmt.Println("bye")
			return
		}

		// Short cooldown to avoid hammering the LLM if user spams enter.
		time.Sleep(200 * time.Millisecond)

		res, err := agent.Ask(ctx, q)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}

		fmt.Printf("\nSQL:\n%s\n\n", res.SQL)
		fmt.Printf("Answer:\n%s\n\n", res.Answer)
	}
}
