package moderation

import (
	"context"

	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"

	"go.uber.org/zap"
)

// 判定来源
const (
	SourceClassifier = "classifier"
	SourceKeyword    = "keyword"
	SourceNone       = "none"
)

// Verdict 审核结论
type Verdict struct {
	Flagged    bool     `json:"flagged"`
	Source     string   `json:"source"`
	Categories []string `json:"categories,omitempty"`
}

// Result 外部分类器返回
type Result struct {
	Flagged    bool
	Categories []string
}

// Classifier 外部内容审核服务
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Checker 业务层依赖的审核入口
type Checker interface {
	Check(ctx context.Context, text string) Verdict
}

// Gate 先走外部分类器，未命中（或不可用）再走关键词表
// 分类器的任何错误只记日志，不向调用方传播
type Gate struct {
	classifier Classifier
	keywords   *KeywordFilter
}

// NewGate classifier 可以为 nil（未配置时只做关键词检查）
func NewGate(classifier Classifier, keywords *KeywordFilter) *Gate {
	if keywords == nil {
		keywords = NewKeywordFilter(nil)
	}
	return &Gate{classifier: classifier, keywords: keywords}
}

// Check 审核一段文本
func (g *Gate) Check(ctx context.Context, text string) Verdict {
	v := g.check(ctx, text)
	metrics.RecordModeration(v.Source, v.Flagged)
	return v
}

func (g *Gate) check(ctx context.Context, text string) Verdict {
	if g.classifier != nil {
		res, err := g.classifier.Classify(ctx, text)
		switch {
		case err != nil:
			logger.Log.Warn("moderation classifier unavailable, falling back to keywords", zap.Error(err))
		case res.Flagged:
			return Verdict{Flagged: true, Source: SourceClassifier, Categories: res.Categories}
		}
	}

	if term, ok := g.keywords.Match(text); ok {
		return Verdict{Flagged: true, Source: SourceKeyword, Categories: []string{"keyword:" + term}}
	}
	return Verdict{Source: SourceNone}
}
