// Package culler checks stored links for dead or unreachable URLs.
package culler

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/linkshelf/internal/linkurl"
	"github.com/nikbrunner/linkshelf/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Result holds the check result for a single link.
type Result struct {
	Link       model.Link
	Status     Status
	StatusCode int    // 0 if connection failed
	Error      string // for unreachable URLs
}

// ProgressFunc is called after each URL is checked.
type ProgressFunc func(completed, total int)

// Options configures a check run.
type Options struct {
	Concurrency    int
	Timeout        time.Duration
	RequestsPerSec float64  // 0 disables rate limiting
	ExcludeDomains []string // 404s on these domains count as possibly private
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	OnProgress     ProgressFunc
}

const (
	DefaultConcurrency = 10
	DefaultTimeout     = 10 * time.Second
)

// CheckLinks checks all link URLs concurrently. Results keep the order of
// links. Links not reached before ctx is cancelled are reported unreachable.
func CheckLinks(ctx context.Context, links []model.Link, opts Options) []Result {
	if len(links) == 0 {
		return nil
	}

	// Suppress noisy HTTP client logging (protocol errors, unsolicited responses).
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), concurrency)
	}

	exclude := make(map[string]bool, len(opts.ExcludeDomains))
	for _, domain := range opts.ExcludeDomains {
		exclude[strings.ToLower(domain)] = true
	}

	logger := opts.Logger.With().Str("component", "culler").Logger()
	results := make([]Result, len(links))
	jobs := make(chan int, len(links))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						results[idx] = Result{Link: links[idx], Status: Unreachable, Error: normalizeError(err.Error())}
						continue
					}
				}
				results[idx] = checkURL(ctx, client, links[idx], exclude)
				logger.Debug().
					Str("url", links[idx].URL).
					Stringer("status", results[idx].Status).
					Int("code", results[idx].StatusCode).
					Msg("checked link")

				if opts.OnProgress != nil {
					progressMu.Lock()
					completed++
					opts.OnProgress(completed, len(links))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// FilterDead returns only the dead results.
func FilterDead(results []Result) []Result {
	var dead []Result
	for _, r := range results {
		if r.Status == Dead {
			dead = append(dead, r)
		}
	}
	return dead
}

func checkURL(ctx context.Context, client *http.Client, link model.Link, exclude map[string]bool) Result {
	result := Result{Link: link}

	// HEAD first, GET for servers that reject it.
	resp, err := do(ctx, client, http.MethodHead, link.URL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = do(ctx, client, http.MethodGet, link.URL)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if isExcludedDomain(link.URL, exclude) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		// 5xx, 403 and friends may be temporary or need auth.
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func do(ctx context.Context, client *http.Client, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// isExcludedDomain matches the URL host against excluded domains and their
// subdomains.
func isExcludedDomain(rawURL string, exclude map[string]bool) bool {
	u, ok := linkurl.Parse(rawURL)
	if !ok {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if exclude[host] {
		return true
	}
	for domain := range exclude {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context canceled"):
		return "Cancelled"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return errStr
	}
}
