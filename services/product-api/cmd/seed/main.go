// Product seeder with per-second outbound request throttling.
// - Concurrency is controlled by a fixed worker pool (maxConcurrentRequests)
// - Throughput is controlled by an RPS limiter (token bucket)
// - Graceful shutdown on SIGINT/SIGTERM
//
// Example:
//
//	go run ./services/product-api/cmd/seed \
//	  -noOfProducts=5000 \
//	  -maxConcurrentRequests=50 \
//	  -rps=500 \
//	  -productApiUrl=http://localhost:3000
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// --------- CLI flags ---------
var (
	noOfProducts          = flag.Int("noOfProducts", 100, "Total number of products to seed")
	maxConcurrentRequests = flag.Int("maxConcurrentRequests", 10, "Max in-flight HTTP requests (worker pool size)")
	minPrice              = flag.Float64("minPrice", 1.0, "Min product price")
	maxPrice              = flag.Float64("maxPrice", 100.0, "Max product price")
	productApiURL         = flag.String("productApiUrl", "http://localhost:3000", "Product API base URL")
	rps                   = flag.Int("rps", 200, "Global requests-per-second limit for outbound POST /products")
	rpsBurst              = flag.Int("rpsBurst", 0, "Burst size for the limiter (0 => equals rps)")
	httpClientTimeoutMs   = flag.Int("httpClientTimeoutMs", 4000, "Total HTTP client timeout (ms)")
)

type SeedProduct struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Seeder struct {
	minPrice float64
	maxPrice float64
	apiURL   string

	// controls
	workers    int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *zap.Logger

	// metrics
	enqueued int64
	sent     int64
	ok       int64
	fail     int64
}

func main() {
	flag.Parse()

	logger, err := pkg.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *rps <= 0 {
		logger.Error("rps must be positive")
		os.Exit(1)
	}
	burst := *rpsBurst
	if burst <= 0 {
		burst = *rps
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{
		Timeout: time.Duration(*httpClientTimeoutMs) * time.Millisecond,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        *maxConcurrentRequests,
			MaxIdleConnsPerHost: *maxConcurrentRequests,
			IdleConnTimeout:     30 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   3 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	seeder := NewSeeder(logger, client, *productApiURL, *maxConcurrentRequests, rate.NewLimiter(rate.Limit(*rps), burst), *minPrice, *maxPrice)

	start := time.Now()
	logger.Info("start seeding",
		zap.Int("no_of_products", *noOfProducts),
		zap.Int("workers", seeder.workers),
		zap.Int("rps", *rps),
		zap.Int("burst", burst),
	)
	seeder.Run(ctx, *noOfProducts)

	logger.Info("seeding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int64("enqueued", seeder.enqueued),
		zap.Int64("sent", seeder.sent),
		zap.Int64("success", seeder.ok),
		zap.Int64("failed", seeder.fail),
	)
	if seeder.fail > 0 {
		os.Exit(1)
	}
}

func NewSeeder(logger *zap.Logger, client *http.Client, apiURL string, workers int, limiter *rate.Limiter, minP, maxP float64) *Seeder {
	if minP > maxP {
		minP, maxP = maxP, minP
	}
	if workers <= 0 {
		workers = 1
	}
	return &Seeder{
		minPrice:   minP,
		maxPrice:   maxP,
		apiURL:     apiURL,
		workers:    workers,
		limiter:    limiter,
		httpClient: client,
		logger:     logger,
	}
}

// Run posts total products and returns once every enqueued request has finished or ctx is done.
func (s *Seeder) Run(ctx context.Context, total int) {
	jobs := make(chan SeedProduct, min(max(total, 1), 10000)) // bounded buffer

	var workersWG sync.WaitGroup
	workersWG.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer workersWG.Done()
			for p := range jobs {
				// throttle by RPS before sending the request
				if err := s.limiter.Wait(ctx); err != nil {
					s.logger.Warn("limiter wait interrupted", zap.Error(err))
					return
				}
				s.sendProduct(ctx, p)
			}
		}()
	}

enqueue:
	for i := 0; i < total; i++ {
		p := SeedProduct{
			Name:  "product-" + uuid.NewString()[:8],
			Price: rand.Float64()*(s.maxPrice-s.minPrice) + s.minPrice,
		}
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- p:
			atomic.AddInt64(&s.enqueued, 1)
		}
	}

	close(jobs)
	workersWG.Wait()
}

func (s *Seeder) sendProduct(ctx context.Context, p SeedProduct) {
	start := time.Now()
	atomic.AddInt64(&s.sent, 1)

	body, _ := json.Marshal(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v1/products", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&s.fail, 1)
		s.logger.Error("build request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		atomic.AddInt64(&s.fail, 1)
		s.logger.Error("api call failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	traceID := resp.Header.Get(pkg.HeaderTraceId)
	if resp.StatusCode != http.StatusCreated {
		atomic.AddInt64(&s.fail, 1)
		s.logger.Error("api call failed",
			zap.String(pkg.TraceId, traceID),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("latency", time.Since(start)),
		)
		return
	}
	atomic.AddInt64(&s.ok, 1)
	s.logger.Debug("api call completed",
		zap.String(pkg.TraceId, traceID),
		zap.String("name", p.Name),
		zap.Duration("latency", time.Since(start)),
	)
}
