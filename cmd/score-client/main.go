package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/claimscore/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumItems   = 10000
	defaultBatchSize  = 64
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems  = flag.Int("items", defaultNumItems, "Number of claim items to generate and submit")
		batchSize = flag.Int("batch", defaultBatchSize, "Items per predictions request")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Enable per-batch logging")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:   *baseURL,
		NumItems:  *numItems,
		BatchSize: *batchSize,
		Workers:   *workers,
		Timeout:   *timeout,
		Verbose:   *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
