package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/memory"
	"github.com/MrEthical07/portalAuth/middleware"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password-1"

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of sessions to issue before the run")
		accounts    = flag.Int("accounts", 64, "number of accounts to seed for the login phase")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per verify and gateway phase")
		loginOps    = flag.Int("login-ops", 500, "operations in the login phase (argon2id bound)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *accounts <= 0 || *concurrency <= 0 || *ops <= 0 || *loginOps < 0 {
		fmt.Fprintln(os.Stderr, "sessions, accounts, concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
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

	cfg := portalAuth.DefaultConfig()
	cfg.Token.Secret = []byte("load-test-secret-load-test-secret-load-test-secret-0123456789ab")
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	// Throttle stays active but never trips for the seeded accounts.
	cfg.Security.MaxLoginAttempts = 1 << 20

	table := permission.DefaultPortalTable()
	dir := memory.New(table)
	engine, err := portalAuth.New().
		WithConfig(cfg).
		WithDirectory(dir).
		WithPermissionTable(table).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d accounts and %d sessions...\n", *accounts, *sessions)
	startSeed := time.Now()
	digest, err := engine.HashPassword(loadPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
		os.Exit(1)
	}
	identifiers := make([]string, *accounts)
	for i := range identifiers {
		identifiers[i] = fmt.Sprintf("user-%d@load.test", i)
		err := dir.Add(portalAuth.Account{
			SubjectID:    fmt.Sprintf("sub-%d", i),
			Identifier:   identifiers[i],
			PasswordHash: digest,
			Role:         roleFor(i),
			DepartmentID: "load",
			Active:       true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed account failed: %v\n", err)
			os.Exit(1)
		}
	}
	tokens := make([]string, *sessions)
	for i := range tokens {
		s, err := engine.IssueSession(ctx, portalAuth.Principal{
			SubjectID:    fmt.Sprintf("sub-%d", i%*accounts),
			Role:         roleFor(i % *accounts),
			DepartmentID: "load",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = s.Token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := engine.VerifySession(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	gateway := middleware.Gateway(engine)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	cookieName := engine.CookieConfig().SessionName
	gatewayStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, _ int) error {
		req := httptest.NewRequest(http.MethodGet, "/api/faculty/me", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: tokens[r.Intn(len(tokens))]})
		rec := httptest.NewRecorder()
		gateway.ServeHTTP(rec, req)
		// Roles without faculty_profile access are expected to get 403.
		if rec.Code != http.StatusOK && rec.Code != http.StatusForbidden {
			return fmt.Errorf("unexpected status %d", rec.Code)
		}
		return nil
	})

	var loginStats phaseStats
	if *loginOps > 0 {
		loginStats = runPhase(*loginOps, *concurrency, 104729, func(r *rand.Rand, _ int) error {
			_, err := engine.Login(ctx, identifiers[r.Intn(len(identifiers))], loadPassword)
			return err
		})
	}

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("gateway", gatewayStats)
	if *loginOps > 0 {
		printStats("login", loginStats)
	}

	snap := engine.MetricsSnapshot()
	fmt.Printf("gateway latency buckets: %v\n", snap.Histograms[portalAuth.MetricGatewayLatency])
}

func roleFor(i int) portalAuth.Role {
	roles := []portalAuth.Role{
		portalAuth.RoleFaculty,
		portalAuth.RoleDepartmentHead,
		portalAuth.RoleStaff,
		portalAuth.RoleAdmin,
	}
	return roles[i%len(roles)]
}

// runPhase runs op ops times across concurrency workers and records each latency.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
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
		return phaseStats{total: total}
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
	return samples[(len(samples)-1)*p/100]
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
