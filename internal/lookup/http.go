package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veriperu/dniverify/internal/domain"
)

const requestTimeout = 90 * time.Second

// HTTPProvider talks to a scraping sidecar that owns all browser and captcha
// detail. The sidecar exposes POST /lookup accepting {"dni": ...} and
// answering with a LookupResult, plus GET /healthz.
type HTTPProvider struct {
	name     string
	baseURL  string
	attempts int
	delay    time.Duration
	client   *http.Client
}

func NewHTTPProvider(name, baseURL string, attempts int, delay time.Duration) *HTTPProvider {
	if attempts < 1 {
		attempts = 1
	}

	return &HTTPProvider{
		name:     name,
		baseURL:  baseURL,
		attempts: attempts,
		delay:    delay,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

func (p *HTTPProvider) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create health request: %w", p.name, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: sidecar unreachable: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: sidecar unhealthy: status %d", p.name, resp.StatusCode)
	}

	return nil
}

// ProcessDNI submits one lookup, retrying transport-level and server-side
// failures up to the budget. Exhausting the budget is reported as a
// not-found outcome with a diagnostic reason, not as an error.
func (p *HTTPProvider) ProcessDNI(ctx context.Context, dni string) (domain.LookupResult, error) {
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return domain.LookupResult{}, ctx.Err()
			}
		}

		result, retryable, err := p.lookup(ctx, dni)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return domain.LookupResult{}, err
		}
		lastErr = err
	}

	return domain.LookupResult{
		Found:  false,
		Reason: fmt.Sprintf("%s lookup failed after %d attempts: %v", p.name, p.attempts, lastErr),
	}, nil
}

func (p *HTTPProvider) lookup(ctx context.Context, dni string) (result domain.LookupResult, retryable bool, err error) {
	body, err := json.Marshal(map[string]string{"dni": dni})
	if err != nil {
		return domain.LookupResult{}, false, fmt.Errorf("%s: failed to encode request: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/lookup", bytes.NewReader(body))
	if err != nil {
		return domain.LookupResult{}, false, fmt.Errorf("%s: failed to create request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.LookupResult{}, true, fmt.Errorf("%s: request failed: %w", p.name, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return domain.LookupResult{}, true, fmt.Errorf("%s: sidecar returned status %d", p.name, resp.StatusCode)
	default:
		return domain.LookupResult{}, false, fmt.Errorf("%s: sidecar rejected lookup with status %d", p.name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.LookupResult{}, false, fmt.Errorf("%s: failed to decode response: %w", p.name, err)
	}

	if !result.Found && result.Reason == "" {
		result.Reason = "no match reported by registry"
	}

	return result, false, nil
}
