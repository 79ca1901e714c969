package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"recipe_community/internal/pkg/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/services/green"
	"github.com/google/uuid"
)

// GreenClassifier 阿里云内容安全 文本反垃圾
type GreenClassifier struct {
	client *green.Client
	strict bool
}

func NewGreenClassifier(cfg config.ModerationConfig) (*GreenClassifier, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, fmt.Errorf("moderation config is missing")
	}

	client, err := green.NewClientWithAccessKey(cfg.RegionID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}
	return &GreenClassifier{client: client, strict: cfg.Strict}, nil
}

type textScanTask struct {
	DataID  string `json:"dataId"`
	Content string `json:"content"`
}

type textScanBody struct {
	Scenes []string       `json:"scenes"`
	Tasks  []textScanTask `json:"tasks"`
}

type textScanResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Code    int `json:"code"`
		Results []struct {
			Label      string  `json:"label"`
			Suggestion string  `json:"suggestion"`
			Rate       float64 `json:"rate"`
		} `json:"results"`
	} `json:"data"`
}

func (g *GreenClassifier) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(textScanBody{
		Scenes: []string{"antispam"},
		Tasks:  []textScanTask{{DataID: uuid.New().String(), Content: text}},
	})
	if err != nil {
		return Result{}, err
	}

	request := green.CreateTextScanRequest()
	request.SetContent(body)

	// SDK 调用不支持 context，提前检查一次取消
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	response, err := g.client.TextScan(request)
	if err != nil {
		return Result{}, err
	}
	if response.GetHttpStatus() != http.StatusOK {
		return Result{}, fmt.Errorf("text scan http status %d", response.GetHttpStatus())
	}
	return parseTextScan(response.GetHttpContentBytes(), g.strict)
}

// parseTextScan block 一律判违规，review 仅在 strict 时判违规
func parseTextScan(raw []byte, strict bool) (Result, error) {
	var resp textScanResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Result{}, fmt.Errorf("decode text scan response: %w", err)
	}
	if resp.Code != http.StatusOK {
		return Result{}, fmt.Errorf("text scan failed: code=%d msg=%s", resp.Code, resp.Msg)
	}

	var out Result
	for _, d := range resp.Data {
		if d.Code != http.StatusOK {
			return Result{}, fmt.Errorf("text scan task failed: code=%d", d.Code)
		}
		for _, r := range d.Results {
			if r.Suggestion == "block" || (strict && r.Suggestion == "review") {
				out.Flagged = true
				out.Categories = append(out.Categories, r.Label)
			}
		}
	}
	return out, nil
}
