package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lookup-labs/doclookup/internal/ingest"
	"github.com/lookup-labs/doclookup/pkg/config"
	"github.com/lookup-labs/doclookup/pkg/kafka"
	"github.com/lookup-labs/doclookup/pkg/resilience"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Words       []string
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 100000),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)

	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()
}

var sampleContents = []string{
	"the quick brown fox jumps over the lazy dog",
	"inverted index structures map words to documents",
	"tokenization splits text on punctuation and whitespace",
	"unicode case folding keeps queries consistent",
	"covid19 vaccine research published in 2021",
	"kafka topics carry document register and remove events",
	"redis caches lookup results with short ttl",
	"empty posting sets are deleted eagerly",
	"replacement purges tokens from superseded content",
	"health checks probe redis and the index",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the lookup service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	seed := flag.Int("seed", 200, "number of documents to seed before the test")
	viaKafka := flag.Bool("kafka", false, "seed documents via the kafka document topic instead of HTTP")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated kafka brokers (with -kafka)")
	topic := flag.String("topic", "document-events", "kafka document topic (with -kafka)")
	flag.Parse()

	words := []string{
		"index", "document", "lookup", "tokenization", "unicode",
		"kafka", "redis", "posting", "replacement", "fox",
		"covid19", "ttl", "missing", "health", "content",
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Words:       words,
	}

	fmt.Println("=== Doclookup Load Generator ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Seed docs:   %d (kafka=%v)\n", *seed, *viaKafka)
	fmt.Println()

	if *viaKafka {
		seedViaKafka(*brokers, *topic, *seed)
	} else {
		seedViaHTTP(cfg.BaseURL, *seed)
	}

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

func seedViaKafka(brokers, topic string, count int) {
	kcfg := config.KafkaConfig{
		Brokers: strings.Split(brokers, ","),
	}
	producer := kafka.NewProducer(kcfg, topic)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	events := make([]kafka.Event, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("doc-%d", i)
		content := sampleContents[i%len(sampleContents)]
		events = append(events, kafka.Event{
			Key: name,
			Value: ingest.DocumentEvent{
				Op:      ingest.OpRegister,
				Name:    &name,
				Content: &content,
			},
		})
	}
	err := resilience.Retry(ctx, "seed-publish", resilience.RetryConfig{}, func() error {
		return producer.PublishBatch(ctx, events)
	})
	if err != nil {
		fmt.Printf("seeding via kafka failed: %v\n", err)
		return
	}
	fmt.Printf("seeded %d documents via kafka topic %s\n", count, topic)
}

func seedViaHTTP(baseURL string, count int) {
	client := &http.Client{Timeout: 10 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	seeded := 0
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("doc-%d", i)
		content := sampleContents[i%len(sampleContents)]
		body := fmt.Sprintf(`{"name":%q,"content":%q}`, name, content)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			baseURL+"/api/v1/documents", strings.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			seeded++
		}
	}
	fmt.Printf("seeded %d/%d documents via HTTP\n", seeded, count)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			wordIdx := workerID

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				word := cfg.Words[wordIdx%len(cfg.Words)]
				wordIdx++

				lookupURL := fmt.Sprintf("%s/api/v1/lookup?word=%s",
					cfg.BaseURL, url.QueryEscape(word))

				start := time.Now()
				resp, err := client.Do(mustNewRequest(ctx, lookupURL))
				duration := time.Since(start)

				if err != nil {
					stats.RecordRequest(duration, 0, err)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				stats.RecordRequest(duration, resp.StatusCode, nil)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func mustNewRequest(ctx context.Context, rawURL string) *http.Request {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		panic(fmt.Sprintf("creating request: %v", err))
	}
	return req
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := sum / time.Duration(len(latencies))

	fmt.Println()
	fmt.Println("=== Latency ===")
	fmt.Printf("Average:         %s\n", avg)
	fmt.Printf("P50:             %s\n", percentile(latencies, 50))
	fmt.Printf("P95:             %s\n", percentile(latencies, 95))
	fmt.Printf("P99:             %s\n", percentile(latencies, 99))
	fmt.Printf("Max:             %s\n", latencies[len(latencies)-1])
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
