package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/signiz/internal/evaluation"
)

var webmClip = append([]byte{0x1a, 0x45, 0xdf, 0xa3}, []byte("attempt")...)

type stubEvaluator struct {
	verdict *evaluation.Verdict
	err     error
	got     evaluation.SignContext
	gotRef  evaluation.MediaReference
}

func (s *stubEvaluator) Evaluate(ctx context.Context, ref evaluation.MediaReference, sc evaluation.SignContext) (*evaluation.Verdict, error) {
	s.got, s.gotRef = sc, ref
	return s.verdict, s.err
}

func goodVerdict() *evaluation.Verdict {
	return &evaluation.Verdict{
		AccuracyScore:           88,
		HandShapeDetected:       evaluation.HandFlat,
		MovementPatternDetected: evaluation.MoveSingleDirection,
		Strengths:               []string{"clear palm"},
		Improvements:            []evaluation.Improvement{},
		CriticalFeedback:        "none",
		Encouragement:           "Fantastic!",
	}
}

func newTestServer(t *testing.T, ev evaluation.Evaluator) (*httptest.Server, *Server) {
	t.Helper()
	ts := httptest.NewUnstartedServer(nil)
	media, err := evaluation.NewLocalUploader(t.TempDir(), "http://"+ts.Listener.Addr().String())
	require.NoError(t, err)
	s := New(media, ev, Options{}, nil)
	ts.Config.Handler = s.Handler()
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, s
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, "attempt.webm")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadVideo(t *testing.T) {
	ts, _ := newTestServer(t, &stubEvaluator{})
	body, ctype := multipartBody(t, "video", webmClip)

	resp, err := http.Post(ts.URL+"/api/upload-video", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success  bool   `json:"success"`
		URL      string `json:"url"`
		ID       string `json:"id"`
		PublicID string `json:"publicId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, out.ID, out.PublicID)
	assert.Equal(t, ts.URL+"/media/"+out.ID, out.URL)

	media, err := http.Get(out.URL)
	require.NoError(t, err)
	defer media.Body.Close()
	got, _ := io.ReadAll(media.Body)
	assert.Equal(t, webmClip, got)
}

func TestUploadVideoMissingFile(t *testing.T) {
	ts, _ := newTestServer(t, &stubEvaluator{})
	body, ctype := multipartBody(t, "clip", webmClip)

	resp, err := http.Post(ts.URL+"/api/upload-video", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"No video file provided"}`, string(raw))
}

func TestUploadVideoEmptyFile(t *testing.T) {
	ts, _ := newTestServer(t, &stubEvaluator{})
	body, ctype := multipartBody(t, "video", nil)

	resp, err := http.Post(ts.URL+"/api/upload-video", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Failed to upload video"}`, string(raw))
}

func TestEvaluate(t *testing.T) {
	ev := &stubEvaluator{verdict: goodVerdict()}
	ts, _ := newTestServer(t, ev)

	resp, err := http.Post(ts.URL+"/api/evaluate", "application/json", strings.NewReader(
		`{"videoUrl":"https://media.test/a.webm","signDescription":"Family","referenceImages":["https://media.test/ref.png"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v evaluation.Verdict
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, 88.0, v.AccuracyScore)
	assert.Equal(t, "Family", ev.got.SignToPerform)
	assert.Equal(t, []string{"https://media.test/ref.png"}, ev.got.ReferenceImages)
	assert.Equal(t, "https://media.test/a.webm", ev.gotRef.URL)
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name   string
		ev     *stubEvaluator
		body   string
		status int
		want   string
	}{
		{"missing video url", &stubEvaluator{verdict: goodVerdict()}, `{"signDescription":"Family"}`, http.StatusBadRequest, `{"error":"No video URL provided"}`},
		{"bad json", &stubEvaluator{verdict: goodVerdict()}, `{`, http.StatusBadRequest, `{"error":"No video URL provided"}`},
		{"evaluator fails", &stubEvaluator{err: errors.New("model offline")}, `{"videoUrl":"https://m/a.webm"}`, http.StatusBadGateway, `{"error":"Failed to evaluate sign. Please try again."}`},
		{"bad reference image", &stubEvaluator{verdict: goodVerdict()}, `{"videoUrl":"https://m/a.webm","referenceImages":["ref.png"]}`, http.StatusBadRequest, `{"error":"Reference media must be valid URLs"}`},
		{"bad reference video", &stubEvaluator{verdict: goodVerdict()}, `{"videoUrl":"https://m/a.webm","referenceVideoUrl":"not a url"}`, http.StatusBadRequest, `{"error":"Reference media must be valid URLs"}`},
		{"malformed verdict", &stubEvaluator{verdict: &evaluation.Verdict{AccuracyScore: 140}}, `{"videoUrl":"https://m/a.webm"}`, http.StatusBadGateway, `{"error":"Failed to evaluate sign. Please try again."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.ev)
			resp, err := http.Post(ts.URL+"/api/evaluate", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			raw, _ := io.ReadAll(resp.Body)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestMediaNotFound(t *testing.T) {
	ts, _ := newTestServer(t, &stubEvaluator{})
	for _, id := range []string{"nope", "0b9c1d1e-1a2b-4c3d-8e9f-000000000000"} {
		resp, err := http.Get(ts.URL + "/media/" + id)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
	}
}

func TestHealthz(t *testing.T) {
	_, s := newTestServer(t, &stubEvaluator{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// The HTTP client backends and this service speak the same contract.
func TestClientsAgainstServer(t *testing.T) {
	ts, _ := newTestServer(t, &stubEvaluator{verdict: goodVerdict()})
	client := resty.New()
	p := evaluation.NewPipeline(
		evaluation.NewHTTPUploader(ts.URL+"/api/upload-video", client),
		evaluation.NewHTTPEvaluator(ts.URL+"/api/evaluate", client),
	)

	sub, err := p.Submit(context.Background(), webmClip, "video/webm", evaluation.SignContext{
		SignToPerform: "Letter B",
		Instructions:  "Hold your hand flat with fingers together.",
	})
	require.NoError(t, err)
	assert.Equal(t, 88.0, sub.Verdict.AccuracyScore)
	assert.True(t, strings.HasPrefix(sub.Media.URL, ts.URL+"/media/"))
}
