package dto

import (
	"livro-ai-api/internal/application/render"
)

// GenerateRequest 全新生成请求
type GenerateRequest struct {
	Topic string `json:"topic" binding:"required"`
	Genre string `json:"genre"`
}

// OrganizeRequest 章节整理请求
type OrganizeRequest struct {
	Mode         string `json:"mode" binding:"required,oneof=insert reorder"`
	AfterChapter string `json:"after_chapter"`
	Topic        string `json:"topic"`
	Sequence     string `json:"sequence"`
}

// WorkspaceResponse 工作区快照响应
type WorkspaceResponse struct {
	Content   string `json:"content"`
	Generated bool   `json:"generated"`
}

// RenderResponse 渲染后的书稿行块
type RenderResponse struct {
	Title  string         `json:"title"`
	Blocks []render.Block `json:"blocks"`
}

// GenresResponse 可选体裁列表
type GenresResponse struct {
	Genres []string `json:"genres"`
}
