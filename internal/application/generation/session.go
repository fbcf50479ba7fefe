// Package generation 承载书稿生成的会话生命周期与流式编排。
package generation

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelFactory 定义生成层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// Session 一个用户的多轮生成会话。
// 历史消息以系统指令开头，之后是交替的用户指令与模型回复；
// 并发控制由 Manager 负责，Session 本身不加锁。
type Session struct {
	chatModel model.BaseChatModel
	history   []*schema.Message
}

func newSession(chatModel model.BaseChatModel) *Session {
	return &Session{
		chatModel: chatModel,
		history:   []*schema.Message{schema.SystemMessage(systemInstruction)},
	}
}

// Ask 发送一条指令并同步等待完整回复，回复计入历史。
// 用于会话预热等不需要流式输出的场景。
func (s *Session) Ask(ctx context.Context, instruction string) (string, error) {
	msgs := append(s.snapshot(), schema.UserMessage(instruction))
	out, err := s.chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, schema.UserMessage(instruction), out)
	return out.Content, nil
}

// Stream 发送一条指令并返回流式回复；调用方负责 Close()。
// 流结束后需调用 Commit 将指令与完整回复计入历史。
func (s *Session) Stream(ctx context.Context, instruction string) (*schema.StreamReader[*schema.Message], error) {
	msgs := append(s.snapshot(), schema.UserMessage(instruction))
	return s.chatModel.Stream(ctx, msgs)
}

// Commit 将一轮流式交互的指令与拼接后的完整回复追加到历史
func (s *Session) Commit(instruction, reply string) {
	s.history = append(s.history, schema.UserMessage(instruction), schema.AssistantMessage(reply, nil))
}

// Turns 返回系统指令之外的历史消息条数
func (s *Session) Turns() int {
	return len(s.history) - 1
}

func (s *Session) snapshot() []*schema.Message {
	msgs := make([]*schema.Message, len(s.history))
	copy(msgs, s.history)
	return msgs
}
