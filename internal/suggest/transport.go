package suggest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"suggestbox/internal/domain"
)

// maxBodyBytes bounds how much of a response is read
const maxBodyBytes = 1 << 20

// Transport performs one suggestion request
type Transport interface {
	Fetch(ctx context.Context, q domain.Query) (domain.SuggestionSet, error)
}

// HTTPTransport queries the suggestion endpoint with GET <endpoint>?<param>=<query>
type HTTPTransport struct {
	client   *http.Client
	endpoint *url.URL
	param    string
	decoder  Decoder
	timeout  time.Duration
}

// NewHTTPTransport creates a transport for endpoint. A zero timeout leaves
// requests bounded only by the caller's context.
func NewHTTPTransport(endpoint, param string, decoder Decoder, timeout time.Duration) (*HTTPTransport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid suggestion endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid suggestion endpoint %q: not an absolute URL", endpoint)
	}
	if decoder == nil {
		decoder = AutoDecoder{}
	}
	if param == "" {
		param = "q"
	}
	return &HTTPTransport{
		client:   cleanhttp.DefaultPooledClient(),
		endpoint: u,
		param:    param,
		decoder:  decoder,
		timeout:  timeout,
	}, nil
}

// URL returns the request URL for q
func (t *HTTPTransport) URL(q domain.Query) string {
	u := *t.endpoint
	values := u.Query()
	values.Set(t.param, q.String())
	u.RawQuery = values.Encode()
	return u.String()
}

// Fetch issues the request and decodes the body
func (t *HTTPTransport) Fetch(ctx context.Context, q domain.Query) (domain.SuggestionSet, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(q), nil)
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html, application/json;q=0.9, application/msgpack;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return domain.SuggestionSet{}, fmt.Errorf("suggestion endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("failed to read suggestion response: %w", err)
	}

	return t.decoder.Decode(resp.Header.Get("Content-Type"), body)
}
