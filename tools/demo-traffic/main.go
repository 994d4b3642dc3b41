// demo-traffic generates synthetic log traffic through a small fleet of
// dispatch managers, each exporting a Prometheus metrics sink. Run it, point
// Prometheus at the three ports, wait ~10 minutes, and screenshot the
// Grafana dashboard.
//
// Usage:
//
//	go run . [-duration 15m]
//
// Ports:
//
//	:19091 — api-gateway   (high-volume, clean traffic)
//	:19092 — batch-worker  (moderate, periodic retry storms)
//	:19093 — checkout      (repeating incident scenario)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/metrics"
)

func main() {
	duration := flag.Duration("duration", 15*time.Minute, "how long to run before auto-exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	agents := []struct {
		name     string
		port     int
		scenario func(context.Context, *log.Manager)
	}{
		{"api-gateway", 19091, scenarioAPIGateway},
		{"batch-worker", 19092, scenarioBatchWorker},
		{"checkout", 19093, scenarioCheckout},
	}

	var wg sync.WaitGroup
	for _, a := range agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runAgent(ctx, a.name, a.port, a.scenario)
		}()
	}

	fmt.Println("Demo traffic running:")
	for _, a := range agents {
		fmt.Printf("  %-14s http://localhost:%d/metrics\n", a.name, a.port)
	}
	if *duration > 0 {
		fmt.Printf("\nWill run for %s. Press Ctrl+C to stop early.\n", *duration)
	} else {
		fmt.Println("\nRunning until Ctrl+C (no timeout).")
	}
	fmt.Println("\nAdd to Prometheus scrape config:")
	fmt.Println("  - job_name: cakelog-demo")
	fmt.Println("    static_configs:")
	fmt.Println("      - targets:")
	for _, a := range agents {
		fmt.Printf("          - 'localhost:%d'  # %s\n", a.port, a.name)
	}

	<-ctx.Done()
	wg.Wait()
	fmt.Println("\nDone.")
}

// runAgent wires a manager with a metrics sink, serves the sink's scrape
// endpoint on port, and drives the scenario until ctx is cancelled.
func runAgent(ctx context.Context, name string, port int, scenario func(context.Context, *log.Manager)) {
	mgr := log.New()
	if err := mgr.SetConfig("metrics", log.Config{Type: "metrics"}); err != nil {
		fatalf("%s: %v", name, err)
	}
	defer func() { _ = mgr.Reset() }()

	eng, err := mgr.Engine("metrics")
	if err != nil {
		fatalf("%s: %v", name, err)
	}
	sink, ok := eng.(*metrics.Engine)
	if !ok {
		fatalf("%s: metrics sink has unexpected type %T", name, eng)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", sink.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatalf("%s: %v", name, err)
		}
	}()

	scenario(ctx, mgr)
	_ = srv.Shutdown(context.Background())
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// write discards the dispatch result; demo traffic has nowhere to report it.
func write(mgr *log.Manager, level log.Level, msg string, scopes ...string) {
	_, _ = mgr.Write(level, msg, scopes...)
}

// maybe returns true with the given probability per second (called once/sec).
func maybe(probPerSec float64) bool {
	return rand.Float64() < probPerSec
}

// sinWave returns a value that oscillates between base±amplitude over period seconds.
func sinWave(elapsed, base, amplitude, period float64) float64 {
	return base + amplitude*math.Sin(2*math.Pi*elapsed/period)
}

// tick runs fn every second until ctx is cancelled.
func tick(ctx context.Context, fn func(elapsed float64)) {
	start := time.Now()
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(time.Since(start).Seconds())
		}
	}
}

// ---------------------------------------------------------------------------
// Scenario 1: api-gateway — High-volume request logging
//
// Steady info traffic across a few routes, debug chatter, very rare errors.
// The "boring but healthy" service.
// ---------------------------------------------------------------------------

func scenarioAPIGateway(ctx context.Context, mgr *log.Manager) {
	paths := []string{"/v1/orders", "/v1/carts", "/v1/products", "/healthz"}
	tick(ctx, func(elapsed float64) {
		n := int(sinWave(elapsed, 40, 15, 120))
		for range n {
			path := paths[rand.IntN(len(paths))]
			write(mgr, log.LevelInfo, fmt.Sprintf("GET %s 200 %dms", path, 5+rand.IntN(40)), "http")
		}

		if maybe(0.4) {
			write(mgr, log.LevelDebug, "connection pool: 12 idle, 3 in use", "http")
		}
		if maybe(0.05) {
			write(mgr, log.LevelWarning, "upstream latency above 250ms", "http")
		}
		// Very rare failure — maybe one every few minutes.
		if maybe(0.004) {
			write(mgr, log.LevelError, "GET /v1/orders 502 upstream connection reset", "http")
		}
	})
}

// ---------------------------------------------------------------------------
// Scenario 2: batch-worker — Job lifecycle with retry storms
//
// Notices for job starts and completions, info progress lines, and a retry
// storm of warnings every couple of minutes.
// ---------------------------------------------------------------------------

func scenarioBatchWorker(ctx context.Context, mgr *log.Manager) {
	tick(ctx, func(elapsed float64) {
		if maybe(0.1) {
			write(mgr, log.LevelNotice, fmt.Sprintf("job %04d started", rand.IntN(10000)), "queue")
		}
		if maybe(0.3) {
			write(mgr, log.LevelInfo, fmt.Sprintf("processed %d records", 50+rand.IntN(400)), "queue")
		}
		if maybe(0.08) {
			write(mgr, log.LevelNotice, "job completed", "queue")
		}

		// Retry storm peaks roughly every two minutes.
		if maybe(math.Max(0, sinWave(elapsed, 0.1, 0.4, 120))) {
			write(mgr, log.LevelWarning, "delivery attempt failed, backing off 5s", "queue")
		}
		if maybe(0.01) {
			write(mgr, log.LevelError, "job failed after 3 retries", "queue")
		}
	})
}

// ---------------------------------------------------------------------------
// Scenario 3: checkout — Repeating incident scenario
//
// Cycles every 5 minutes (300s):
//   0:00–2:00  Normal baseline payment traffic
//   2:00–3:00  Degradation: replica lag warnings, first payment errors
//   3:00–4:00  Outage: error flood, critical database entries, one alert
//   4:00–5:00  Recovery: tapering warnings, replicas catching up
//
// Repeats, so a 15-minute window shows three visible incident arcs.
// ---------------------------------------------------------------------------

func scenarioCheckout(ctx context.Context, mgr *log.Manager) {
	tick(ctx, func(elapsed float64) {
		cycle := math.Mod(elapsed, 300)
		switch {
		case cycle < 120:
			checkoutBaseline(mgr, elapsed)

		case cycle < 180:
			checkoutBaseline(mgr, elapsed)
			if maybe(0.5) {
				write(mgr, log.LevelWarning, "replica lag above 2s", "db")
			}
			if maybe(0.2) {
				write(mgr, log.LevelError, "charge declined: gateway timeout", "payment")
			}

		case cycle < 240:
			if maybe(0.8) {
				write(mgr, log.LevelError, "charge failed: connection refused", "payment", "db")
			}
			if maybe(0.3) {
				write(mgr, log.LevelCritical, "primary database unreachable", "db")
			}
			// One alert per cycle, right as the outage starts.
			if cycle >= 180 && cycle < 182 {
				write(mgr, log.LevelAlert, "checkout unavailable, paging on-call", "payment")
			}

		default:
			if maybe(0.3) {
				write(mgr, log.LevelWarning, "retrying queued charges", "payment")
			}
			if maybe(0.2) {
				write(mgr, log.LevelNotice, "replica caught up, resuming writes", "db")
			}
			checkoutBaseline(mgr, elapsed)
		}
	})
}

func checkoutBaseline(mgr *log.Manager, elapsed float64) {
	n := int(math.Max(0, sinWave(elapsed, 8, 3, 90)))
	for range n {
		write(mgr, log.LevelInfo, fmt.Sprintf("charge authorized: order %06d", rand.IntN(1000000)), "payment")
	}
	if maybe(0.2) {
		write(mgr, log.LevelDebug, "payment gateway handshake reused", "payment")
	}
}
