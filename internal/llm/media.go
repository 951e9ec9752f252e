package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultInlineLimit is the largest attachment downloaded for inlining.
// Vendors cap inline request bodies at about 20 MB.
const DefaultInlineLimit = 16 << 20

// MediaFetcher downloads attachments so they can be sent as bytes. Clips
// served by a local hosting service are not reachable by the vendor.
type MediaFetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewMediaFetcher returns a fetcher using client, or a default client when
// nil. maxBytes <= 0 means DefaultInlineLimit.
func NewMediaFetcher(client *resty.Client, maxBytes int64) *MediaFetcher {
	if client == nil {
		client = resty.New()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultInlineLimit
	}
	return &MediaFetcher{client: client, maxBytes: maxBytes}
}

// ErrMediaTooLarge is returned by Fetch when an attachment exceeds the limit.
type ErrMediaTooLarge struct {
	URL   string
	Limit int64
}

func (e *ErrMediaTooLarge) Error() string {
	return fmt.Sprintf("media %s is larger than %d bytes", e.URL, e.Limit)
}

// Fetch downloads url, refusing bodies larger than the limit.
func (f *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch media %s: HTTP %d", url, resp.StatusCode())
	}
	if resp.RawResponse.ContentLength > f.maxBytes {
		return nil, &ErrMediaTooLarge{URL: url, Limit: f.maxBytes}
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &ErrMediaTooLarge{URL: url, Limit: f.maxBytes}
	}
	return data, nil
}

// InlineProvider downloads message attachments before handing the request
// to the wrapped provider. Attachments that cannot be fetched keep their
// URL and the provider falls back to linking them.
type InlineProvider struct {
	inner  Provider
	fetch  *MediaFetcher
	logger *zap.Logger
}

// WithInlineMedia wraps p so attachments are sent as bytes.
func WithInlineMedia(p Provider, fetch *MediaFetcher, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineProvider{inner: p, fetch: fetch, logger: logger}
}

func (p *InlineProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msgs := make([]Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = m
		if len(m.Media) == 0 {
			continue
		}
		media := make([]MediaPart, len(m.Media))
		for j, part := range m.Media {
			media[j] = part
			if part.Inline() {
				continue
			}
			data, err := p.fetch.Fetch(ctx, part.URL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				p.logger.Warn("sending media by URL", zap.String("url", part.URL), zap.Error(err))
				continue
			}
			media[j].Data = data
		}
		msgs[i].Media = media
	}
	req.Messages = msgs
	return p.inner.Generate(ctx, req)
}

func (p *InlineProvider) ModelID() string {
	return p.inner.ModelID()
}
