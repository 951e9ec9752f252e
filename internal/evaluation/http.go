package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/abhisek/signiz/internal/llm"
)

type uploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	ID       string `json:"id"`
	PublicID string `json:"publicId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPUploader posts clips as multipart form data to a hosting endpoint.
type HTTPUploader struct {
	client *resty.Client
	url    string
}

// NewHTTPUploader creates an uploader for endpoint. A nil client gets a
// fresh resty client.
func NewHTTPUploader(endpoint string, client *resty.Client) *HTTPUploader {
	if client == nil {
		client = resty.New()
	}
	return &HTTPUploader{client: client, url: endpoint}
}

func (u *HTTPUploader) Upload(ctx context.Context, clip []byte, mimeType string) (MediaReference, error) {
	var out uploadResponse
	var apiErr errorResponse

	resp, err := u.client.R().
		SetContext(ctx).
		SetMultipartField("video", "attempt"+extensionFor(mimeType), mimeType, bytes.NewReader(clip)).
		SetResult(&out).
		SetError(&apiErr).
		Post(u.url)
	if err != nil {
		return MediaReference{}, err
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return MediaReference{}, &UploadError{
			Reason: UploadRejected,
			Err:    fmt.Errorf("hosting returned %d: %s", resp.StatusCode(), msg),
		}
	}

	id := out.ID
	if id == "" {
		id = out.PublicID
	}
	if out.URL == "" {
		return MediaReference{}, &UploadError{Reason: UploadRejected, Err: errors.New("hosting response has no url")}
	}
	return MediaReference{URL: out.URL, ID: id, MIMEType: mimeType}, nil
}

type evaluateRequest struct {
	VideoURL          string   `json:"videoUrl"`
	SignDescription   string   `json:"signDescription,omitempty"`
	ReferenceVideoURL string   `json:"referenceVideoUrl,omitempty"`
	ReferenceImages   []string `json:"referenceImages,omitempty"`
}

// HTTPEvaluator asks a remote evaluation endpoint for a verdict.
type HTTPEvaluator struct {
	client *resty.Client
	url    string
}

// NewHTTPEvaluator creates an evaluator for endpoint.
func NewHTTPEvaluator(endpoint string, client *resty.Client) *HTTPEvaluator {
	if client == nil {
		client = resty.New()
	}
	return &HTTPEvaluator{client: client, url: endpoint}
}

func (e *HTTPEvaluator) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	description := sc.SignDescription
	if description == "" {
		description = sc.SignToPerform
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(evaluateRequest{
			VideoURL:          ref.URL,
			SignDescription:   description,
			ReferenceVideoURL: sc.ReferenceVideoURL,
			ReferenceImages:   sc.ReferenceImages,
		}).
		Post(e.url)
	if err != nil {
		return nil, err
	}

	body := resp.Body()
	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	if resp.IsError() || apiErr.Error != "" {
		msg := strings.TrimSpace(apiErr.Error)
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &EvaluationError{
			Reason: EvaluationNetwork,
			Err:    fmt.Errorf("evaluation service returned %d: %s", resp.StatusCode(), msg),
		}
	}

	return decodeVerdict(body)
}

// decodeVerdict checks raw against VerdictSchema before decoding it.
func decodeVerdict(raw []byte) (*Verdict, error) {
	if err := llm.ValidateJSON(VerdictSchema, raw); err != nil {
		return nil, &EvaluationError{Reason: EvaluationMalformed, Err: err}
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &EvaluationError{Reason: EvaluationMalformed, Err: err}
	}
	return &v, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0])) {
	case "video/webm":
		return ".webm"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/x-matroska":
		return ".mkv"
	default:
		return ".bin"
	}
}
