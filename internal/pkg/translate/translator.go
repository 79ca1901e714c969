package translate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"recipe_community/internal/pkg/config"
	"recipe_community/pkg/cache"
	"recipe_community/pkg/logger"

	"github.com/aliyun/alibaba-cloud-sdk-go/services/alimt"
	"go.uber.org/zap"
)

// ErrNotConfigured 未配置翻译服务
var ErrNotConfigured = errors.New("translation service is not configured")

// Translator 机器翻译
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// AliyunTranslator 阿里云机器翻译（通用版）
type AliyunTranslator struct {
	client *alimt.Client
}

func NewAliyunTranslator(cfg config.TranslationConfig) (*AliyunTranslator, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, ErrNotConfigured
	}
	client, err := alimt.NewClientWithAccessKey(cfg.RegionID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}
	return &AliyunTranslator{client: client}, nil
}

func (t *AliyunTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if text == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	request := alimt.CreateTranslateGeneralRequest()
	request.Scheme = "https"
	request.FormatType = "text"
	request.SourceLanguage = "auto"
	request.TargetLanguage = targetLang
	request.SourceText = text
	request.Scene = "general"

	response, err := t.client.TranslateGeneral(request)
	if err != nil {
		return "", err
	}
	if response.Data.Translated == "" {
		return "", fmt.Errorf("translate failed: code=%v message=%s", response.Code, response.Message)
	}
	return response.Data.Translated, nil
}

// CachedTranslator 以 (目标语言, 原文摘要) 为键缓存翻译结果
type CachedTranslator struct {
	next  Translator
	cache cache.CacheService
	ttl   time.Duration
}

func NewCachedTranslator(next Translator, c cache.CacheService, ttl time.Duration) *CachedTranslator {
	return &CachedTranslator{next: next, cache: c, ttl: ttl}
}

func (t *CachedTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	key := cacheKey(text, targetLang)

	var cached string
	err := t.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("translation cache read failed", zap.Error(err))
	}

	out, err := t.next.Translate(ctx, text, targetLang)
	if err != nil {
		return "", err
	}
	if err := t.cache.Set(ctx, key, out, t.ttl); err != nil {
		logger.Log.Warn("translation cache write failed", zap.Error(err))
	}
	return out, nil
}

func cacheKey(text, lang string) string {
	sum := sha1.Sum([]byte(text))
	return "translate:" + lang + ":" + hex.EncodeToString(sum[:])
}
