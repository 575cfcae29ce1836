package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const (
	fetchAttempts   = 3
	fetchRetryDelay = 1 * time.Second
	fetchTimeout    = 25 * time.Second
)

// DocumentFetcher retrieves and parses the raw registry document. Transient
// transport failures are retried a fixed number of times; a document that
// fetches but does not parse degrades to an empty registry rather than
// failing the whole operation.
type DocumentFetcher struct {
	url        string
	httpClient *http.Client
	logger     *log.Logger
}

// NewDocumentFetcher creates a fetcher for the registry document at url.
func NewDocumentFetcher(url string, logger *log.Logger) *DocumentFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &DocumentFetcher{
		url: url,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		logger: logger,
	}
}

// Fetch retrieves the registry document, making up to three attempts with a
// one-second pause between them. Timeouts and gateway failures both count
// against the retry budget; exhausting it reports the registry as
// temporarily unavailable.
func (f *DocumentFetcher) Fetch(ctx context.Context) (Registry, error) {
	var lastErr error

	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(fetchRetryDelay):
			case <-ctx.Done():
				return Registry{}, NewEngineError(ErrUnavailable, "registry fetch canceled")
			}
		}

		reg, err := f.fetchOnce(ctx)
		if err == nil {
			return reg, nil
		}
		lastErr = err

		if IsTimeout(err) {
			f.logger.Warn("registry fetch timed out", "attempt", attempt, "url", f.url)
		} else {
			f.logger.Warn("registry fetch failed", "attempt", attempt, "url", f.url, "err", err)
		}
	}

	return Registry{}, NewEngineError(ErrUnavailable,
		fmt.Sprintf("registry unreachable after %d attempts: %v", fetchAttempts, lastErr))
}

func (f *DocumentFetcher) fetchOnce(ctx context.Context) (Registry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Registry{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Registry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Registry{}, NewEngineError(ClassifyHTTPStatus(resp.StatusCode),
			fmt.Sprintf("registry request returned status %d", resp.StatusCode))
	}

	var reg Registry
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		// A malformed document is not worth failing over: the caller gets
		// an empty catalog and the next refresh may succeed.
		f.logger.Warn("registry document did not parse, using empty catalog", "url", f.url, "err", err)
		return Registry{RegistryURL: f.url}, nil
	}

	if reg.RegistryURL == "" {
		reg.RegistryURL = f.url
	}

	return reg, nil
}
