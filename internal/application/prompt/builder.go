// Package prompt 将用户动作映射为面向生成模型的自然语言指令。
// 纯函数实现，无副作用；指令语言为葡萄牙语，与生成的书籍内容一致。
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTopic 生成主题为空
	ErrEmptyTopic = errors.New("topic is required")
	// ErrMissingOrganizeFields 章节整理所需字段缺失
	ErrMissingOrganizeFields = errors.New("organize fields are required")
)

// OrganizeMode 章节整理子模式
type OrganizeMode string

const (
	// OrganizeModeInsert 在第 N 章后插入新章节
	OrganizeModeInsert OrganizeMode = "insert"
	// OrganizeModeReorder 按给定顺序重排章节
	OrganizeModeReorder OrganizeMode = "reorder"
)

// OrganizeParams 章节整理参数
type OrganizeParams struct {
	Mode         OrganizeMode
	AfterChapter string // insert：在哪一章之后
	Topic        string // insert：新章节主题
	Sequence     string // reorder：目标章节顺序
}

// Generate 返回整书生成指令；主题为空白时不产生指令。
func Generate(topic, genre string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}
	genre = strings.TrimSpace(genre)
	if genre != "" {
		return fmt.Sprintf("Escreva um livro completo no gênero de %s sobre o tema: %q", genre, topic), nil
	}
	return fmt.Sprintf("Escreva um livro completo sobre o tema: %q", topic), nil
}

// Continue 返回追加新章节的固定指令
func Continue() string {
	return "Continue a história a partir do último capítulo, adicionando um novo capítulo que siga a lógica e o tom da narrativa."
}

// Expand 返回整体扩写指令，要求保留标题与章节标记
func Expand() string {
	return "Reescreva o livro inteiro que você escreveu até agora, tornando as descrições mais ricas, os parágrafos mais longos e a prosa mais elaborada, sem alterar a trama principal. Mantenha o formato de TÍTULO e CAPÍTULOS."
}

// ImproveDialogue 返回对白润色指令，要求保留情节与结构
func ImproveDialogue() string {
	return "Reescreva o livro inteiro que você escreveu até agora, focando em melhorar os diálogos entre os personagens. Torne-os mais realistas, impactantes e reveladores sobre suas personalidades. Mantenha o formato, a trama e os capítulos."
}

// Organize 返回章节整理指令；必填字段缺失时不产生指令。
func Organize(p OrganizeParams) (string, error) {
	switch p.Mode {
	case OrganizeModeInsert:
		after := strings.TrimSpace(p.AfterChapter)
		topic := strings.TrimSpace(p.Topic)
		if after == "" || topic == "" {
			return "", ErrMissingOrganizeFields
		}
		return fmt.Sprintf("Insira um novo capítulo após o CAPÍTULO %s. O novo capítulo deve ser sobre %q. Reescreva o livro inteiro com esta adição, renumerando os capítulos seguintes.", after, topic), nil
	case OrganizeModeReorder:
		seq := strings.TrimSpace(p.Sequence)
		if seq == "" {
			return "", ErrMissingOrganizeFields
		}
		return fmt.Sprintf("Reorganize os capítulos do livro na seguinte ordem: %s. Reescreva o livro inteiro nesta nova ordem.", seq), nil
	default:
		return "", ErrMissingOrganizeFields
	}
}
