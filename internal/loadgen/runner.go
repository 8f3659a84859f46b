package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type predictionRequest struct {
	Items []Item `json:"items"`
}

type predictionResponse struct {
	Results map[string]struct {
		RawScore    float64 `json:"raw_score"`
		Probability float64 `json:"probability"`
		Dummy       bool    `json:"dummy"`
	} `json:"results"`
	Count int `json:"count"`
}

// Run generates NumItems synthetic claims and submits them in batches of
// BatchSize using Workers concurrent submitters, then prints a summary.
func Run(ctx context.Context, config *Config) error {
	if config.NumItems <= 0 || config.BatchSize <= 0 || config.Workers <= 0 {
		return fmt.Errorf("invalid load config: items=%d batch=%d workers=%d",
			config.NumItems, config.BatchSize, config.Workers)
	}

	start := time.Now()
	items := generateItems(config.NumItems)
	log.Printf("generated %d claim items", len(items))

	batches := make([][]Item, 0, (len(items)+config.BatchSize-1)/config.BatchSize)
	for i := 0; i < len(items); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}

	client := &http.Client{Timeout: config.Timeout}
	url := config.BaseURL + "/v1/predictions"

	var (
		batchesOK   int64
		batchesFail int64
		itemsScored int64
		dummyItems  int64
	)

	batchChan := make(chan []Item, config.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				scored, dummy, err := submitBatch(ctx, client, url, batch)
				if err != nil {
					atomic.AddInt64(&batchesFail, 1)
					if config.Verbose {
						log.Printf("batch of %d failed: %v", len(batch), err)
					}
					continue
				}
				atomic.AddInt64(&batchesOK, 1)
				atomic.AddInt64(&itemsScored, int64(scored))
				atomic.AddInt64(&dummyItems, int64(dummy))
				if config.Verbose {
					log.Printf("batch of %d scored (dummy: %d)", scored, dummy)
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- batch:
			}
		}
	}()

	wg.Wait()

	stats := Stats{
		ItemsGenerated: len(items),
		BatchesSent:    len(batches),
		BatchesOK:      int(atomic.LoadInt64(&batchesOK)),
		BatchesFailed:  int(atomic.LoadInt64(&batchesFail)),
		ItemsScored:    int(atomic.LoadInt64(&itemsScored)),
		DummyItems:     int(atomic.LoadInt64(&dummyItems)),
		Elapsed:        time.Since(start),
	}

	log.Printf("load run complete: %d/%d batches ok, %d items scored (%d dummy) in %s",
		stats.BatchesOK, stats.BatchesSent, stats.ItemsScored, stats.DummyItems, stats.Elapsed.Round(time.Millisecond))

	if stats.BatchesFailed > 0 {
		return fmt.Errorf("%d of %d batches failed", stats.BatchesFailed, stats.BatchesSent)
	}

	return fetchServerStats(ctx, client, config.BaseURL)
}

// submitBatch posts one predictions request and counts scored and dummy
// results.
func submitBatch(ctx context.Context, client *http.Client, url string, batch []Item) (scored, dummy int, err error) {
	body, err := json.Marshal(predictionRequest{Items: batch})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var parsed predictionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	for _, r := range parsed.Results {
		if r.Dummy {
			dummy++
		}
	}
	return parsed.Count, dummy, nil
}

// fetchServerStats prints the service's own view of the run.
func fetchServerStats(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/stats", nil)
	if err != nil {
		return fmt.Errorf("failed to create stats request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	log.Printf("server stats: %s", bytes.TrimSpace(data))
	return nil
}
