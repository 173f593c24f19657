package agent

import (
	"strings"
	"testing"
)

func TestPreparePrompt_NoURLs(t *testing.T) {
	prompt, urls := PreparePrompt("如何在Go中实现重试？")
	if urls != nil {
		t.Errorf("expected no urls, got %v", urls)
	}
	if !strings.Contains(prompt, `用户原始问题: "如何在Go中实现重试？"`) {
		t.Errorf("prompt missing original query: %s", prompt)
	}
	if strings.Contains(prompt, "参考URL") {
		t.Errorf("no-URL prompt should not mention 参考URL")
	}
	if !strings.Contains(prompt, AnswerStartMarker) || !strings.Contains(prompt, AnswerEndMarker) {
		t.Errorf("prompt must mandate answer markers")
	}
}

func TestPreparePrompt_WithURLs(t *testing.T) {
	prompt, urls := PreparePrompt("帮我分析 @https://example.com/doc 和 https://go.dev/blog 的区别")
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %v", urls)
	}
	if !strings.Contains(prompt, "参考URL（你需要在后台处理这些URL）: https://example.com/doc, https://go.dev/blog") {
		t.Errorf("prompt missing url list: %s", prompt)
	}
	// 清理后的问题不再包含 URL
	if !strings.Contains(prompt, `用户原始问题: "帮我分析  和  的区别"`) {
		t.Errorf("prompt query not cleaned: %s", prompt)
	}
}

func TestBuildPrompt_Branching(t *testing.T) {
	withURLs := BuildPrompt("q", []string{"https://a.com"})
	withoutURLs := BuildPrompt("q", nil)

	if !strings.Contains(withURLs, "理解问题和分析URL内容") {
		t.Errorf("with-URL branch wrong template")
	}
	if strings.Contains(withoutURLs, "URL") {
		t.Errorf("no-URL branch should not mention URL: %s", withoutURLs)
	}
}
