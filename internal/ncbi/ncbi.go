package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akrmnd/vitalis/internal/sniff"
)

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 30 * time.Second}

const efetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// Client fetches sequence records from NCBI efetch, keeping a per-accession
// file cache so repeated fetches stay off the network.
type Client struct {
	cacheDir string
	apiKey   string
}

// NewClient returns a Client caching under cacheDir. An empty cacheDir
// disables caching; an empty apiKey uses the anonymous rate limits.
func NewClient(cacheDir, apiKey string) *Client {
	return &Client{cacheDir: cacheDir, apiKey: apiKey}
}

func rettype(format sniff.Format) (string, error) {
	switch format {
	case sniff.FormatGenbank:
		return "gb", nil
	case sniff.FormatFasta:
		return "fasta", nil
	default:
		return "", fmt.Errorf("ncbi fetch: no rettype for format %q", format)
	}
}

func (c *Client) cachePath(accession string, ext string) string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir, accession+"."+ext)
}

// Fetch returns the flat-file text of the given nucleotide accession in the
// requested format. The cache is consulted first; a 429 from NCBI is retried
// after the pause the server asks for.
func (c *Client) Fetch(ctx context.Context, accession string, format sniff.Format) (string, error) {
	if accession == "" {
		return "", fmt.Errorf("ncbi fetch: empty accession")
	}
	ext, err := rettype(format)
	if err != nil {
		return "", err
	}

	// check cache first
	if path := c.cachePath(accession, ext); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	url := fmt.Sprintf("%s?db=nuccore&id=%s&rettype=%s&retmode=text", efetchURL, accession, ext)
	if c.apiKey != "" {
		url += "&api_key=" + c.apiKey
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", "vitalis-fetcher/1.0 (https://github.com/akrmnd/vitalis)")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt*300) * time.Millisecond)
			continue
		}
		if resp.StatusCode == 200 {
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return "", err
			}
			c.writeCache(accession, ext, data)
			return string(data), nil
		}
		if resp.StatusCode == 429 {
			resp.Body.Close()
			lastErr = fmt.Errorf("ncbi efetch returned 429")
			time.Sleep(retryAfter(resp, attempt))
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return "", fmt.Errorf("ncbi efetch returned status %d: %s", resp.StatusCode, string(body))
	}
	return "", lastErr
}

// writeCache is best effort; Fetch works without a cache.
func (c *Client) writeCache(accession, ext string, data []byte) {
	path := c.cachePath(accession, ext)
	if path == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

// retryAfter returns how long to pause after a 429: the Retry-After header
// when present, otherwise a pause growing with the attempt.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(attempt*500) * time.Millisecond
}
