// Command oracle triggers one scheduled refresh on the API server. It is
// meant to be run from cron:
//
//	oracle -mode retry      # every 30 minutes
//	oracle -mode full       # a few times a day
//	oracle -mode metadata   # after the master file is republished
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dobashik/cashflow-maker-web/internal/client"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "retry", "refresh to trigger: retry, full or metadata")
	timeout := flag.Duration("timeout", 15*time.Minute, "overall deadline of the run")
	flag.Parse()

	if err := run(*mode, *timeout); err != nil {
		logger.Get().Errorw("oracle run failed", "mode", *mode, "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(mode string, timeout time.Duration) error {
	_ = godotenv.Load()

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		return fmt.Errorf("API_URL is required")
	}
	apiKey := os.Getenv("PIPELINE_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("PIPELINE_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logger.Get()
	start := time.Now()
	c := client.NewPipelineClient(apiURL, apiKey, &http.Client{Timeout: timeout})

	switch mode {
	case "retry", "full":
		result, err := c.RefreshPrices(ctx, mode)
		if err != nil {
			return err
		}
		log.Infow("oracle run completed",
			"mode", mode,
			"updated", result.UpdatedCount,
			"found", result.PricesFound,
			"failed", result.FailedCount,
			"duration", time.Since(start).String(),
		)
	case "metadata":
		result, err := c.RefreshMetadata(ctx)
		if err != nil {
			return err
		}
		log.Infow("oracle run completed", "mode", mode, "updated", result.Updated, "duration", time.Since(start).String())
	default:
		return fmt.Errorf("unknown mode %q (use retry, full or metadata)", mode)
	}
	return nil
}
