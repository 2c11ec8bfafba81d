package imagen

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/vertex-imagen-kit/pkg/imgutil"
)

const (
	useReferenceCompression = true
	referenceJPEGQuality    = 75
)

// prepareReferenceImage は参照 URL から画像を取得し、インライン添付用に変換します。
// 取得に失敗した場合は警告ログを出してテキストのみで続行します（nil を返す）。
func (c *Client) prepareReferenceImage(ctx context.Context, rawURL string) *instanceImage {
	data, err := c.fetchReferenceData(ctx, rawURL)
	if err != nil {
		c.log.Warn("参照画像の取得に失敗しました。テキストのみで続行します", "url", rawURL, "error", err)
		return nil
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		c.log.Warn("参照データが画像ではないため添付しません", "url", rawURL)
		return nil
	}

	if useReferenceCompression {
		if compressed, err := imgutil.CompressToJPEG(data, referenceJPEGQuality); err == nil {
			data = compressed
		}
	}

	return &instanceImage{BytesBase64Encoded: base64.StdEncoding.EncodeToString(data)}
}

func (c *Client) fetchReferenceData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		if c.reader == nil {
			return nil, fmt.Errorf("gs:// URI requires an InputReader (WithReader): %s", rawURL)
		}
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if c.fetcher == nil {
		return nil, fmt.Errorf("http(s) URL requires a fetcher (WithFetcher): %s", rawURL)
	}
	if safe, err := isSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("unsafe reference URL: %w", err)
	}
	return c.fetcher.FetchBytes(ctx, rawURL)
}
