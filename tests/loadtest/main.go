package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math/rand"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	baseURL        = "http://127.0.0.1:3000"
	usernameHeader = "X-Reddit-Username"
	numWorkers     = 50
	testDuration   = 10 * time.Second
	numPlayers     = 500
)

var subreddits = []string{"cats", "dogs", "gardening", "golang", "aww"}

var actions = []string{"plant", "feed", "charge", "post"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== Cinnarito Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Players: %d | Subreddits: %d\n\n", numPlayers, len(subreddits))

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Sessions (GET /api/init) ---")
	runPhase(testDuration, doInit)

	// Cooldown rejections (429) are expected here and not counted as errors.
	fmt.Println("\n--- Phase 2: Mixed load (60% actions, 40% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doAction(rng)
		case r < 0.80:
			return doGetState(rng)
		case r < 0.90:
			return doGetActions(rng)
		default:
			return doGetDaily(rng)
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (5% actions, 95% state polling) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.05 {
			return doAction(rng)
		}
		return doGetState(rng)
	})
}

// recorder collects per-endpoint outcomes from all workers of a phase.
type recorder struct {
	mu        sync.Mutex
	endpoints map[string]*stats
}

func (rec *recorder) add(r result) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	s, ok := rec.endpoints[r.endpoint]
	if !ok {
		s = &stats{}
		rec.endpoints[r.endpoint] = s
	}
	s.count++
	if r.err {
		s.errors++
	}
	s.latencies = append(s.latencies, r.latency)
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	rec := &recorder{endpoints: make(map[string]*stats)}
	var wg sync.WaitGroup
	for i := range numWorkers {
		wg.Go(func() {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
			for ctx.Err() == nil {
				rec.add(workFn(rng))
			}
		})
	}
	wg.Wait()

	rec.print(duration)
}

func (rec *recorder) print(duration time.Duration) {
	var total, failed int64

	fmt.Printf("\n  %-26s %8s %6s %10s %10s %10s\n", "Endpoint", "Reqs", "Errs", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 80))

	for _, ep := range slices.Sorted(maps.Keys(rec.endpoints)) {
		s := rec.endpoints[ep]
		total += s.count
		failed += s.errors
		slices.Sort(s.latencies)
		fmt.Printf("  %-26s %8d %6d %10s %10s %10s\n", ep, s.count, s.errors,
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	fmt.Println("  " + strings.Repeat("-", 80))
	if total == 0 {
		fmt.Println("  no requests completed")
		return
	}
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		total, failed, float64(failed)/float64(total)*100, float64(total)/duration.Seconds())
}

func player(rng *rand.Rand) string {
	return fmt.Sprintf("player_%d", rng.Intn(numPlayers))
}

func subreddit(rng *rand.Rand) string {
	return subreddits[rng.Intn(len(subreddits))]
}

func do(endpoint string, req *http.Request, ok func(status int) bool) result {
	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, !ok(resp.StatusCode)}
}

func is200(status int) bool { return status == http.StatusOK }

func doInit(rng *rand.Rand) result {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/init/%s", baseURL, subreddit(rng)), nil)
	req.Header.Set(usernameHeader, player(rng))
	return do("GET /api/init", req, is200)
}

func doAction(rng *rand.Rand) result {
	action := actions[rng.Intn(len(actions))]
	data, _ := json.Marshal(map[string]string{"subredditName": subreddit(rng)})
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/"+action, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(usernameHeader, player(rng))
	return do("POST /api/"+action, req, func(status int) bool {
		return status == http.StatusOK || status == http.StatusTooManyRequests || status == http.StatusBadRequest
	})
}

func doGetState(rng *rand.Rand) result {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/state/%s", baseURL, subreddit(rng)), nil)
	return do("GET /api/state", req, func(status int) bool {
		return status == http.StatusOK || status == http.StatusNotFound
	})
}

func doGetActions(rng *rand.Rand) result {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/actions/%s?limit=20", baseURL, subreddit(rng)), nil)
	return do("GET /api/actions", req, is200)
}

func doGetDaily(rng *rand.Rand) result {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/growth/daily/%s", baseURL, subreddit(rng)), nil)
	return do("GET /api/growth/daily", req, func(status int) bool {
		return status == http.StatusOK || status == http.StatusNotFound
	})
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
