package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	baseURL    = flag.String("base", "http://localhost:8080", "server base url")
	totalUsers = flag.Int("users", 30, "number of concurrent users")
	targetID   = flag.String("target", "", "likeable id (thread/post/comment)")
	targetType = flag.String("type", "thread", "likeable type")
	otpCode    = flag.String("code", "123456", "fixed OTP code configured as app.test_otp_code")

	httpClient *http.Client
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func init() {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 500
	t.MaxIdleConnsPerHost = 500
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

// 每个用户对同一目标点一次赞，结束后计数应等于成功次数
func main() {
	flag.Parse()
	if *targetID == "" {
		fmt.Println("需要 -target 指定点赞目标")
		return
	}
	ctx := context.Background()

	tokens := make([]string, *totalUsers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for i := range tokens {
		g.Go(func() error {
			tok, err := login(gctx, fmt.Sprintf("1390000%04d", i))
			if err != nil {
				return fmt.Errorf("user %d: %w", i, err)
			}
			tokens[i] = tok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("登录失败: %v\n", err)
		return
	}

	before, err := likeCount(ctx)
	if err != nil {
		fmt.Printf("查询点赞数失败: %v\n", err)
		return
	}

	fmt.Printf("开始压测：%d 个用户并发点赞 %s/%s ...\n", *totalUsers, *targetType, *targetID)
	var liked, failed atomic.Int64
	start := time.Now()

	g, gctx = errgroup.WithContext(ctx)
	for _, tok := range tokens {
		g.Go(func() error {
			ok, err := toggle(gctx, tok)
			switch {
			case err != nil:
				failed.Add(1)
			case ok:
				liked.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(start)

	after, err := likeCount(ctx)
	if err != nil {
		fmt.Printf("查询点赞数失败: %v\n", err)
		return
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(*totalUsers)/duration.Seconds())
	fmt.Printf("点赞成功: %d，失败: %d\n", liked.Load(), failed.Load())
	fmt.Printf("计数变化: %d -> %d (预期增量: %d)\n", before, after, liked.Load())
	if after-before != liked.Load() {
		fmt.Println("计数不一致！")
	}
	fmt.Println("--------------------------------------------------")
}

func do(ctx context.Context, method, path, token string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, *baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, env.Message)
	}
	return &env, nil
}

func login(ctx context.Context, mobile string) (string, error) {
	if _, err := do(ctx, http.MethodPost, "/auth/otp", "", map[string]string{"mobile": mobile}); err != nil {
		return "", err
	}
	env, err := do(ctx, http.MethodPost, "/auth/login", "", map[string]string{"mobile": mobile, "code": *otpCode})
	if err != nil {
		return "", err
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func toggle(ctx context.Context, token string) (bool, error) {
	env, err := do(ctx, http.MethodPost, "/likes/toggle", token, map[string]string{
		"likeableId":   *targetID,
		"likeableType": *targetType,
	})
	if err != nil {
		return false, err
	}
	var res struct {
		Liked bool `json:"liked"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return false, err
	}
	return res.Liked, nil
}

func likeCount(ctx context.Context) (int64, error) {
	path := fmt.Sprintf("/likes?likeableId=%s&likeableType=%s", *targetID, *targetType)
	env, err := do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return 0, err
	}
	var res struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}
