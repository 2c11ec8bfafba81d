package imagen

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// --- Mocks ---

// spyDoer は predict 呼び出しを記録し、用意しておいた応答を返すモックです。
// 呼び出し回数ゼロの検証（ネットワーク未到達の証明）にも使います。
type spyDoer struct {
	requests []*http.Request
	bodies   [][]byte
	status   int
	response string
	err      error
}

func (d *spyDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	d.requests = append(d.requests, req)
	d.bodies = append(d.bodies, body)

	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(d.response)),
	}, nil
}

type staticTokenProvider struct {
	token string
	valid bool
	err   error
}

func (p *staticTokenProvider) Token() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.token, nil
}

func (p *staticTokenProvider) Valid() bool { return p.valid }

type mockFetcher struct {
	httpkit.ClientInterface
	data  []byte
	err   error
	calls []string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls = append(m.calls, url)
	return m.data, m.err
}

type mockReader struct {
	data  []byte
	err   error
	calls []string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.calls = append(m.calls, uri)
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

// --- Helpers ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient は認証済み状態のテスト用クライアントを組み立てます。
func newTestClient(t *testing.T, doer *spyDoer, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithHTTPDoer(doer), WithLogger(quietLogger())}, opts...)
	client, err := NewClient("test-project", opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.SetCredentials(&staticTokenProvider{token: "test-token", valid: true})
	return client
}
