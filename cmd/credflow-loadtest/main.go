package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/MrEthical07/credflow"
	"github.com/MrEthical07/credflow/directory/memdir"
	"github.com/MrEthical07/credflow/notify"
)

type account struct {
	email   string
	mu      sync.Mutex
	access  string
	refresh string
}

const seedPassword = "loadtest-password"

func main() {
	var (
		users       = flag.Int("users", 200, "number of accounts to register and verify")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		rps         = flag.Float64("rps", 0, "global operations per second per phase; 0 is unpaced")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, CREDFLOW_REDIS_ADDR or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *rps < 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency and ops must be > 0; rps must be >= 0")
		os.Exit(2)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := credflow.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if len(cfg.JWT.Secret) == 0 && cfg.JWT.SigningMethod == "hs256" {
		cfg.JWT.Secret = make([]byte, 32)
		_, _ = rand.Read(cfg.JWT.Secret)
	}
	// Seeding hashes one password per account; keep Argon2id at its floor.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	// Load generators hammer a handful of identities.
	cfg.LoginLimit.MaxAttempts = 1 << 20

	addr := *redisAddr
	if addr == "" && os.Getenv(credflow.EnvPrefix+"REDIS_ADDR") != "" {
		addr = cfg.Store.Addr
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	outbox := &notify.Recorder{}
	engine, err := credflow.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithRedis(client).
		WithDirectory(memdir.New()).
		WithSender(outbox).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("registering %d accounts...\n", *users)
	startSeed := time.Now()
	accounts, err := seed(ctx, engine, outbox, *users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(ctx, accounts, *ops, *concurrency, *rps, func(ctx context.Context, a *account) error {
		res, err := engine.Login(ctx, a.email, seedPassword)
		if err != nil {
			return err
		}
		a.access, a.refresh = res.AccessToken, res.RefreshToken
		return nil
	})
	validateStats := runPhase(ctx, accounts, *ops, *concurrency, *rps, func(ctx context.Context, a *account) error {
		_, err := engine.ValidateAccess(ctx, a.access)
		return err
	})
	refreshStats := runPhase(ctx, accounts, *ops, *concurrency, *rps, func(ctx context.Context, a *account) error {
		res, err := engine.Refresh(ctx, a.refresh)
		if err != nil {
			return err
		}
		a.access, a.refresh = res.AccessToken, res.RefreshToken
		return nil
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("dependency failures=%d notify sent=%d\n",
		snap.Counters[credflow.MetricDependencyFailure],
		snap.Counters[credflow.MetricNotifySent],
	)
}

// seed registers, verifies and logs in n accounts. Verification tokens are
// read back from the in-memory outbox once the notification pool delivers
// them.
func seed(ctx context.Context, engine *credflow.Engine, outbox *notify.Recorder, n int) ([]*account, error) {
	accounts := make([]*account, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("load-%d@example.com", i)
		_, err := engine.Register(ctx, credflow.RegisterInput{
			Email:     email,
			Username:  fmt.Sprintf("load-%d", i),
			Password:  seedPassword,
			BirthYear: 1990,
		})
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", email, err)
		}
		accounts[i] = &account{email: email}
	}

	for _, a := range accounts {
		var (
			note notify.Notification
			ok   bool
		)
		deadline := time.Now().Add(5 * time.Second)
		for {
			if note, ok = outbox.Last(notify.KindEmailVerification, a.email); ok || time.Now().After(deadline) {
				break
			}
			time.Sleep(time.Millisecond)
		}
		if !ok {
			return nil, fmt.Errorf("no verification message for %s", a.email)
		}
		if _, err := engine.VerifyEmail(ctx, note.Code); err != nil {
			return nil, fmt.Errorf("verify %s: %w", a.email, err)
		}
		res, err := engine.Login(ctx, a.email, seedPassword)
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", a.email, err)
		}
		a.access, a.refresh = res.AccessToken, res.RefreshToken
	}
	return accounts, nil
}

func runPhase(ctx context.Context, accounts []*account, ops, concurrency int, rps float64, op func(context.Context, *account) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), concurrency)
	}

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mathrand.New(mathrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				if err := limiter.Wait(ctx); err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				a := accounts[r.Intn(len(accounts))]

				a.mu.Lock()
				t0 := time.Now()
				err := op(ctx, a)
				d := time.Since(t0)
				a.mu.Unlock()
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
