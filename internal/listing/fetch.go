package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "visawatch/pkg/logx"
)

// maxBodyBytes caps the listing response size.
const maxBodyBytes = 8 << 20

var ErrBodyTooLarge = errors.New("listing response exceeds size limit")

type FetcherConfig struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// Fetcher performs one GET against the listing endpoint per call.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
	log    logx.Logger
}

// NewFetcher builds a Fetcher. client may be nil.
func NewFetcher(cfg FetcherConfig, client *http.Client, log logx.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = "visawatch/1.0"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{cfg: cfg, client: client, log: log}
}

// Fetch returns the current listings. On any failure (network, timeout,
// non-2xx status, malformed JSON) it logs the error and returns an empty
// non-nil slice along with it, so callers that only want entries can treat a
// failed fetch as "no listings".
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := f.get(ctx)
	if err != nil {
		f.log.Error("error fetching data", logx.Err(err), logx.String("endpoint", f.cfg.Endpoint), logx.Duration("took", time.Since(start)))
		return []Entry{}, err
	}
	f.log.Info("fetched data successfully", logx.Int("entries", len(entries)), logx.Duration("took", time.Since(start)))
	return entries, nil
}

func (f *Fetcher) get(ctx context.Context) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, fmt.Errorf("get listings: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
