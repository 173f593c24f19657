// Package textutil 提供查询预处理工具：标记内容提取、URL 识别与清理。
package textutil

import (
	"regexp"
	"strings"
)

// URL 匹配模式
var (
	// AtURLPattern 匹配 @ 前缀的 URL，捕获 URL 本体
	AtURLPattern = regexp.MustCompile(`@(https?://\S+)`)
	// BareURLPattern 匹配裸 URL；是否带 @ 前缀由调用方检查前一个字节
	BareURLPattern = regexp.MustCompile(`https?://[^\s'"\\)]+`)
)

// ExtractMarkedContent 提取首个 start 与 end 标记之间的内容并去除首尾空白。
// 标记缺失或顺序颠倒时不报错，输入原样返回，不做任何修改。
func ExtractMarkedContent(text, start, end string) string {
	startIdx := strings.Index(text, start)
	endIdx := strings.Index(text, end)
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		return text
	}
	return strings.TrimSpace(text[startIdx+len(start) : endIdx])
}

// ExtractURLs 提取文本中的 URL：@ 前缀 URL 与裸 URL 的并集，去重且保持出现顺序。
func ExtractURLs(text string) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}

	for _, m := range AtURLPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	// RE2 不支持 lookbehind，手动检查前一个字节排除 @ 前缀的匹配
	for _, loc := range BareURLPattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '@' {
			continue
		}
		add(text[loc[0]:loc[1]])
	}

	return urls
}

// CleanQuery 删除 re 的所有匹配并去除首尾空白
func CleanQuery(q string, re *regexp.Regexp) string {
	return strings.TrimSpace(re.ReplaceAllString(q, ""))
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\n(.*?)```")

// StripFenceFallback 旧版答案提取：优先取首个 Markdown 代码围栏内容，
// 否则从首个一级/二级标题截取到结尾。
//
// Deprecated: 答案提取已改用 ExtractMarkedContent 的显式标记协议，
// 本函数仅为兼容旧数据保留，不参与查询流水线。
func StripFenceFallback(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, prefix := range []string{"# ", "## "} {
		if idx := strings.Index(text, prefix); idx != -1 {
			return strings.TrimSpace(text[idx:])
		}
	}
	return strings.TrimSpace(text)
}
