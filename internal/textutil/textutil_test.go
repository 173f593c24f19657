package textutil

import (
	"reflect"
	"testing"
)

const (
	startMarker = "$$$ANSWER_START$$$"
	endMarker   = "$$$ANSWER_END$$$"
)

func TestExtractMarkedContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "正常提取",
			text: "前言 " + startMarker + "\n# 答案\n内容\n" + endMarker + " 后记",
			want: "# 答案\n内容",
		},
		{
			name: "只取首个标记对",
			text: startMarker + "一" + endMarker + startMarker + "二" + endMarker,
			want: "一",
		},
		{
			name: "缺少结束标记原样返回",
			text: startMarker + " 只有开始 ",
			want: startMarker + " 只有开始 ",
		},
		{
			name: "缺少开始标记原样返回",
			text: " 只有结束 " + endMarker,
			want: " 只有结束 " + endMarker,
		},
		{
			name: "无标记时保留首尾空白",
			text: "  普通回答  \n",
			want: "  普通回答  \n",
		},
		{
			name: "标记顺序颠倒原样返回",
			text: endMarker + "内容" + startMarker,
			want: endMarker + "内容" + startMarker,
		},
		{
			name: "标记之间为空",
			text: startMarker + "   " + endMarker,
			want: "",
		},
		{
			name: "空输入",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMarkedContent(tt.text, startMarker, endMarker)
			if got != tt.want {
				t.Errorf("ExtractMarkedContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "at前缀URL",
			text: "看看 @https://example.com/docs 这个",
			want: []string{"https://example.com/docs"},
		},
		{
			name: "裸URL",
			text: "参考 https://go.dev/ref/spec 的说明",
			want: []string{"https://go.dev/ref/spec"},
		},
		{
			name: "两种混合去重",
			text: "@https://a.com 和 https://a.com 以及 https://b.com",
			want: []string{"https://a.com", "https://b.com"},
		},
		{
			name: "裸URL在引号和括号前截断",
			text: `见 "https://a.com/x" 和 (https://b.com/y)`,
			want: []string{"https://a.com/x", "https://b.com/y"},
		},
		{
			name: "http也支持",
			text: "旧站 http://old.example.com 还在",
			want: []string{"http://old.example.com"},
		},
		{
			name: "无URL",
			text: "这里没有链接",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractURLs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCleanQuery(t *testing.T) {
	q := "帮我分析 @https://example.com/a 这个页面"
	got := CleanQuery(q, AtURLPattern)
	want := "帮我分析  这个页面"
	if got != want {
		t.Errorf("CleanQuery() = %q, want %q", got, want)
	}

	// 先清 @ 前缀再清裸 URL
	q2 := CleanQuery(CleanQuery("查一下 @https://a.com 和 https://b.com", AtURLPattern), BareURLPattern)
	if q2 != "查一下  和" {
		t.Errorf("CleanQuery() chained = %q", q2)
	}
}

func TestStripFenceFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "代码围栏优先",
			text: "说明\n```markdown\n# 标题\n正文\n```\n尾注",
			want: "# 标题\n正文",
		},
		{
			name: "退回标题截取",
			text: "思考过程...\n# 答案\n正文",
			want: "# 答案\n正文",
		},
		{
			name: "无结构原样返回",
			text: "  直接回答  ",
			want: "直接回答",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFenceFallback(tt.text); got != tt.want {
				t.Errorf("StripFenceFallback() = %q, want %q", got, tt.want)
			}
		})
	}
}
