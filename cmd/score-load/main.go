package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cardcognition/internal/loadtest"
	"github.com/okian/cardcognition/pkg/logger"
)

const defaultRunTimeout = 30 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:5000", "Base URL of the service")
		requests = flag.Int("requests", loadtest.DefaultRequests, "Number of scoring requests to send")
		cards    = flag.Int("cards", loadtest.DefaultCardsPerRequest, "Suggested cards per request")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout  = flag.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
		output   = flag.String("output", "", "Write the request plan to this JSON file")
		verbose  = flag.Bool("verbose", false, "Log every scored response")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := loadtest.Run(ctx, &loadtest.Config{
		BaseURL:         *baseURL,
		Requests:        *requests,
		CardsPerRequest: *cards,
		Workers:         *workers,
		Timeout:         *timeout,
		OutputFile:      *output,
		Verbose:         *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
