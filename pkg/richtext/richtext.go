// Package richtext 渲染用户提交的 Markdown 并做 HTML 清洗
package richtext

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Processor 线程安全，可全局复用
type Processor struct {
	md     goldmark.Markdown
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func New() *Processor {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Table, extension.Linkify),
	)

	ugc := bluemonday.UGCPolicy()
	ugc.RequireNoFollowOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)

	return &Processor{md: md, ugc: ugc, strict: bluemonday.StrictPolicy()}
}

// Render Markdown -> 清洗后的 HTML
func (p *Processor) Render(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		// 渲染失败时退化为转义后的原文
		return p.ugc.Sanitize(html.EscapeString(src))
	}
	return strings.TrimSpace(p.ugc.Sanitize(buf.String()))
}

// PlainText 去掉所有标签，返回纯文本（用于标题、地区等短字段）
func (p *Processor) PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(p.strict.Sanitize(s)))
}
