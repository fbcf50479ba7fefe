package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"livro-ai-api/pkg/metrics"
)

// instrumentedChatModel 包装底层 ChatModel，记录调用次数与时延
type instrumentedChatModel struct {
	inner    model.BaseChatModel
	provider string
	model    string
}

func newInstrumentedChatModel(inner model.BaseChatModel, provider, modelName string) model.BaseChatModel {
	return &instrumentedChatModel{inner: inner, provider: provider, model: modelName}
}

func (m *instrumentedChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	start := time.Now()
	out, err := m.inner.Generate(ctx, msgs, opts...)
	m.record(start, err)
	return out, err
}

// Stream 只统计建立流的调用本身；流内片段由上层按动作维度统计
func (m *instrumentedChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	start := time.Now()
	reader, err := m.inner.Stream(ctx, msgs, opts...)
	m.record(start, err)
	return reader, err
}

func (m *instrumentedChatModel) record(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.LLMCallTotal.WithLabelValues(m.provider, m.model, status).Inc()
	metrics.LLMCallDuration.WithLabelValues(m.provider, m.model).Observe(time.Since(start).Seconds())
}
