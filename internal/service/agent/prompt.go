package agent

import (
	"fmt"
	"strings"

	"github.com/ashwinyue/fastagent/internal/textutil"
)

// 答案标记，Agent 输出的线上契约
const (
	AnswerStartMarker = "$$$ANSWER_START$$$"
	AnswerEndMarker   = "$$$ANSWER_END$$$"
)

// Instruction 技术助手的系统指令
const Instruction = `你是一个专业的技术开发助手，专注于提供清晰、简洁、针对性的技术解答。
你的核心职责是：
1. 深入分析用户的技术问题，理解其核心需求。
2. 如果用户提供了URL，在后台默默获取内容作为背景知识。
3. 使用 web_search 工具默默查询相关的权威技术资料作为参考。
4. 彻底消化和整合所有收集到的信息。
5. **最终输出的唯一要求：生成一份纯净的Markdown文档。**
    - **请务必、务必、务必使用 ` + "`" + AnswerStartMarker + "`" + ` 作为你最终答案 Markdown 的开始标记。**
    - **请务必、务必、务必使用 ` + "`" + AnswerEndMarker + "`" + ` 作为你最终答案 Markdown 的结束标记。**
    - 在这两个标记之间的内容，应该是直接回答用户原始问题的、结构清晰的Markdown，只包含必要的解释、说明和代码示例。
    - **绝对禁止在这两个标记之间包含任何关于工具使用、工具原始输出、成功/失败消息或任何中间步骤的描述。**
    - 以中文回复。

用户只想看到被 ` + "`" + AnswerStartMarker + "`" + ` 和 ` + "`" + AnswerEndMarker + "`" + ` 包裹的最终答案。
`

// BuildPrompt 根据清理后的问题与 URL 列表构造提示词
func BuildPrompt(cleanedQuery string, urls []string) string {
	if len(urls) > 0 {
		return fmt.Sprintf(`请严格按照以下要求，为用户提供纯净的Markdown格式技术解答：
用户原始问题: "%s"
参考URL（你需要在后台处理这些URL）: %s

你的任务是：
1. 理解问题和分析URL内容。
2. 结合后台搜索工具查找相关文档。
3. **核心：整合信息，生成最终答案。请将最终的、纯净的Markdown答案严格包裹在 `+"`"+AnswerStartMarker+"`"+` 和 `+"`"+AnswerEndMarker+"`"+` 标记之间。这两个标记之外不要有任何其他内容是给用户的。**
`, cleanedQuery, strings.Join(urls, ", "))
	}

	return fmt.Sprintf(`请严格按照以下要求，为用户提供纯净的Markdown格式技术解答：
用户原始问题: "%s"

你的任务是：
1. 理解问题。
2. 结合后台搜索工具查找相关文档。
3. (可选，后台进行) 补充网络搜索。
4. **核心：整合信息，生成最终答案。请将最终的、纯净的Markdown答案严格包裹在 `+"`"+AnswerStartMarker+"`"+` 和 `+"`"+AnswerEndMarker+"`"+` 标记之间。这两个标记之外不要有任何其他内容是给用户的。**
`, cleanedQuery)
}

// PreparePrompt 提取 URL、清理问题并构造提示词。
// 无 URL 时问题原文直接入模板。
func PreparePrompt(query string) (string, []string) {
	urls := textutil.ExtractURLs(query)
	if len(urls) == 0 {
		return BuildPrompt(query, nil), nil
	}

	cleaned := textutil.CleanQuery(query, textutil.AtURLPattern)
	cleaned = textutil.CleanQuery(cleaned, textutil.BareURLPattern)
	return BuildPrompt(cleaned, urls), urls
}
