package imagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/vertex-imagen-kit/pkg/domain"
)

// predictRequest は :predict エンドポイントのリクエストボディです。
type predictRequest struct {
	Instances  []instance        `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type instance struct {
	Prompt string         `json:"prompt"`
	Image  *instanceImage `json:"image,omitempty"`
}

type instanceImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

type predictParameters struct {
	SampleCount    int                  `json:"sampleCount"`
	AspectRatio    domain.AspectRatio   `json:"aspectRatio"`
	AddWatermark   bool                 `json:"addWatermark"`
	EnhancePrompt  bool                 `json:"enhancePrompt"`
	NegativePrompt string               `json:"negativePrompt,omitempty"`
	SafetySetting  domain.SafetySetting `json:"safetySetting,omitempty"`
	Seed           *int64               `json:"seed,omitempty"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
	Prompt             string `json:"prompt,omitempty"`
}

func (c *Client) predictURL(model string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.baseURL, c.projectID, c.location, model)
}

func (c *Client) buildPredictRequest(ctx context.Context, req domain.GenerationRequest) predictRequest {
	inst := instance{Prompt: req.Prompt}
	if req.ReferenceURL != "" {
		inst.Image = c.prepareReferenceImage(ctx, req.ReferenceURL)
	}
	return predictRequest{
		Instances: []instance{inst},
		Parameters: predictParameters{
			SampleCount:    req.Count,
			AspectRatio:    req.AspectRatio,
			AddWatermark:   false,
			EnhancePrompt:  req.EnhancePrompt,
			NegativePrompt: req.NegativePrompt,
			SafetySetting:  req.SafetySetting,
			Seed:           req.Seed,
		},
	}
}

// callPredict は1回の HTTPS POST を発行し、予測を生成画像にマッピングします。
// リトライは行いません。失敗はそのまま呼び出し元に返します。
func (c *Client) callPredict(ctx context.Context, token string, req domain.GenerationRequest) ([]*domain.GeneratedImage, error) {
	body, err := json.Marshal(c.buildPredictRequest(ctx, req))
	if err != nil {
		return nil, fmt.Errorf("error marshalling predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL(req.Model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error making predict request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.APIError{Message: fmt.Sprintf("predict call failed: %v", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Error("closing response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("reading response body: %v", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var decoded predictResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &domain.APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decoding response: %v", err),
		}
	}
	if len(decoded.Predictions) == 0 {
		return nil, &domain.APIError{Message: "no images produced"}
	}

	images := make([]*domain.GeneratedImage, 0, len(decoded.Predictions))
	for _, pred := range decoded.Predictions {
		// 予測にプロンプトが無い場合、EnhancedPrompt だけは要求時のプロンプトへ
		// フォールバックする（Prompt は空のまま）
		enhanced := pred.Prompt
		if enhanced == "" {
			enhanced = req.Prompt
		}
		images = append(images, domain.NewGeneratedImage(pred.BytesBase64Encoded, pred.Prompt, enhanced))
	}
	return images, nil
}
