package signatures

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bifrost-re/bifrost/internal/cache"
)

// fourByteDirectoryURL is the default 4byte-style directory endpoint, the
// same external collaborator spec.md §4.10 describes as "caller-provided".
const fourByteDirectoryURL = "https://www.4byte.directory/api/v1/signatures/"

// HTTPDirectory resolves selectors against a remote 4byte-style REST API,
// caching every response (hit or miss) in the on-disk cache so a rerun
// against the same bytecode never re-issues the request.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

func NewHTTPDirectory(baseURL string, c *cache.Cache) *HTTPDirectory {
	if baseURL == "" {
		baseURL = fourByteDirectoryURL
	}
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
	}
}

func (d *HTTPDirectory) Name() string { return "4byte" }

type fourByteResponse struct {
	Results []struct {
		TextSignature string `json:"text_signature"`
	} `json:"results"`
}

func (d *HTTPDirectory) Lookup(ctx context.Context, selector [4]byte) ([]Candidate, error) {
	key := "sig4:" + hexSelector(selector)

	if d.cache != nil {
		if raw, ok := d.cache.Get(key); ok {
			return decodeCached(raw)
		}
	}

	url := fmt.Sprintf("%s?hex_signature=0x%s", d.baseURL, hexSelector(selector))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("signatures: build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signatures: request 4byte: %w", err)
	}
	defer resp.Body.Close()

	var parsed fourByteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("signatures: decode 4byte response: %w", err)
	}

	cands := make([]Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		cands = append(cands, Candidate{
			Name:          functionName(r.TextSignature),
			FullSignature: r.TextSignature,
		})
	}

	if d.cache != nil {
		if raw, err := json.Marshal(cands); err == nil {
			_ = d.cache.Set(key, raw)
		}
	}
	return cands, nil
}

func decodeCached(raw []byte) ([]Candidate, error) {
	var cands []Candidate
	if err := json.Unmarshal(raw, &cands); err != nil {
		return nil, fmt.Errorf("signatures: decode cached entry: %w", err)
	}
	return cands, nil
}

func hexSelector(sel [4]byte) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 8)
	for i, b := range sel {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0xF]
	}
	return string(buf)
}
