package tracer

import (
	"context"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, Config{ServiceName: "livro-ai-api-test", Enabled: false})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// 未启用时 Span 创建仍可用（noop），shutdown 无副作用
	spanCtx, span := Start(ctx, "test.op")
	span.End()
	if spanCtx == nil {
		t.Fatal("Start() returned nil context")
	}
	if id := TraceID(spanCtx); id != "" {
		t.Errorf("TraceID() = %q, want empty for noop span", id)
	}

	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
}

func TestInstrumentationNameFallback(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"显式 scope 名", Config{ServiceName: "svc", InstrumentationName: "scope"}, "scope"},
		{"回退到服务名", Config{ServiceName: "svc"}, "svc"},
		{"全部缺省", Config{}, defaultInstrumentationName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.instrumentationName(); got != tt.want {
				t.Errorf("instrumentationName() = %q, want %q", got, tt.want)
			}
		})
	}
}
