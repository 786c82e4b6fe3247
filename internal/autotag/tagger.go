// Package autotag uploads an image to the auto-tagging endpoint and hands
// the returned tags to a form field.
package autotag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-cleanhttp"

	"suggestbox/internal/logging"
)

const (
	fileField = "file"
	csrfField = "csrfmiddlewaretoken"

	maxResponseSize = 1 << 20
)

// StartMsg asks the form to upload the image at Path
type StartMsg struct {
	Path string
}

// ResultMsg carries the outcome of one upload
type ResultMsg struct {
	Seq  uint64
	Path string
	Tags []string
	Err  error
}

// Tagger posts images to the auto-tag endpoint. A new upload aborts the
// previous one; Start, Current and Cancel must be called from Update only.
type Tagger struct {
	endpoint string
	csrf     string
	client   *http.Client
	timeout  time.Duration
	logger   *log.Logger

	seq    uint64
	cancel context.CancelFunc
}

// DefaultTimeout bounds a single upload unless WithTimeout says otherwise
const DefaultTimeout = 30 * time.Second

// TaggerOption configures a Tagger
type TaggerOption func(*Tagger)

// WithTimeout bounds each upload; zero means no limit
func WithTimeout(d time.Duration) TaggerOption {
	return func(t *Tagger) { t.timeout = d }
}

// NewTagger creates a tagger for endpoint. csrfToken is sent with every
// upload when not empty.
func NewTagger(endpoint, csrfToken string, opts ...TaggerOption) (*Tagger, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid autotag endpoint: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("autotag endpoint must be absolute: %q", endpoint)
	}

	t := &Tagger{
		endpoint: endpoint,
		csrf:     csrfToken,
		client:   cleanhttp.DefaultPooledClient(),
		timeout:  DefaultTimeout,
		logger:   logging.New("autotag"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start uploads the image at path and returns the upload's sequence number
// and the command that performs it
func (t *Tagger) Start(path string) (uint64, tea.Cmd) {
	t.Cancel()
	seq := t.seq

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	return seq, func() tea.Msg {
		defer cancel()

		tags, err := t.Upload(ctx, path)
		switch {
		case err == nil:
			t.logger.Info("image tagged", "path", path, "tags", len(tags))
		case errors.Is(err, context.Canceled):
			t.logger.Debug("upload superseded", "path", path, "seq", seq)
		default:
			t.logger.Warn("auto-tagging failed", "path", path, "err", err)
		}
		return ResultMsg{Seq: seq, Path: path, Tags: tags, Err: err}
	}
}

// Current reports whether seq belongs to the latest upload
func (t *Tagger) Current(seq uint64) bool {
	return seq == t.seq
}

// Cancel aborts the in-flight upload and invalidates its result
func (t *Tagger) Cancel() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
}

// Upload posts the image at path and returns the tags from the response
func (t *Tagger) Upload(ctx context.Context, path string) ([]string, error) {
	body, contentType, err := t.encode(path)
	if err != nil {
		return nil, err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("autotag endpoint returned %s", resp.Status)
	}

	var tags []string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

func (t *Tagger) encode(path string) (io.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if t.csrf != "" {
		if err := w.WriteField(csrfField, t.csrf); err != nil {
			return nil, "", fmt.Errorf("failed to write form: %w", err)
		}
	}

	name := filepath.Base(path)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, escapeQuotes(name)))
	h.Set("Content-Type", mediaType(name, data))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to write form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to write form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// mediaType guesses the image type from its extension, then its content
func mediaType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
