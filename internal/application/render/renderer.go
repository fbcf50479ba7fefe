// Package render 将模型输出的纯文本书稿解析为结构化行块。
// 书稿约定：首部 "TÍTULO: ..." 一行，其后若干 "CAPÍTULO N: ..." 章节头，
// 其余非空行视为正文段落，空行为段间距。
package render

import (
	"regexp"
	"strings"
)

// Kind 行块类型
type Kind string

const (
	// KindTitle 书名行
	KindTitle Kind = "title"
	// KindChapter 章节头行
	KindChapter Kind = "chapter"
	// KindParagraph 正文段落行
	KindParagraph Kind = "paragraph"
	// KindSpacer 段间距（连续空行折叠为一个）
	KindSpacer Kind = "spacer"
)

// Block 渲染行块
type Block struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// FallbackTitle 无法从正文提取书名时的缺省标题
const FallbackTitle = "Livro sem título"

var (
	// 标题标记不区分大小写；章节头严格匹配大写与单个空格
	titleRe   = regexp.MustCompile(`(?i)^TÍTULO:\s*(.*)`)
	chapterRe = regexp.MustCompile(`^CAPÍTULO \d+:`)
)

// Parse 逐行解析书稿为行块序列。
// 行首尾空白在判型前去除；连续多个空行折叠为一个 spacer，
// 首尾的空行同样各保留一个 spacer。
func Parse(content string) []Block {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			if n := len(blocks); n == 0 || blocks[n-1].Kind != KindSpacer {
				blocks = append(blocks, Block{Kind: KindSpacer})
			}
		case titleRe.MatchString(line):
			text := strings.TrimSpace(titleRe.FindStringSubmatch(line)[1])
			blocks = append(blocks, Block{Kind: KindTitle, Text: text})
		case chapterRe.MatchString(line):
			blocks = append(blocks, Block{Kind: KindChapter, Text: line})
		default:
			blocks = append(blocks, Block{Kind: KindParagraph, Text: line})
		}
	}
	return blocks
}

// ExtractTitle 从书稿中提取书名；找不到标题行时返回 FallbackTitle。
func ExtractTitle(content string) string {
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if m := titleRe.FindStringSubmatch(line); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return title
			}
		}
	}
	return FallbackTitle
}
