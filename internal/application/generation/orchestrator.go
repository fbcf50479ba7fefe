package generation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	apperrors "livro-ai-api/pkg/errors"
	"livro-ai-api/pkg/logger"
	"livro-ai-api/pkg/metrics"
)

// Action 生成动作类型
type Action string

const (
	// ActionGenerate 全新生成整本书
	ActionGenerate Action = "generate"
	// ActionContinue 续写新章节
	ActionContinue Action = "continue"
	// ActionExpand 整体扩写
	ActionExpand Action = "expand"
	// ActionDialogue 对白润色
	ActionDialogue Action = "dialogue"
	// ActionOrganize 章节整理
	ActionOrganize Action = "organize"
)

// appendsDraft 续写在现有书稿后追加，其余动作整体重写工作区
func (a Action) appendsDraft() bool {
	return a == ActionContinue
}

// Workspace 用户工作区快照
type Workspace struct {
	Content   string `json:"content"`
	Generated bool   `json:"generated"`
}

// draft 用户工作区内部状态，由 Orchestrator 的互斥锁保护
type draft struct {
	content   string
	generated bool
	busy      bool
}

// Orchestrator 书稿生成编排器。
// 串联会话管理与工作区：每个用户同一时刻至多一次生成运行，
// 流式片段按到达顺序进入工作区，失败时保留已到达的部分。
type Orchestrator struct {
	sessions *Manager

	mu     sync.Mutex
	drafts map[string]*draft
}

// NewOrchestrator 创建生成编排器
func NewOrchestrator(sessions *Manager) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		drafts:   make(map[string]*draft),
	}
}

// Start 发起一次流式生成运行。
// generate 动作开启全新会话并清空工作区；其余动作要求工作区已有内容。
// 同一用户已有运行未结束时返回 ErrRunInFlight。
func (o *Orchestrator) Start(ctx context.Context, userID string, action Action, instruction string) (*Run, error) {
	o.mu.Lock()
	d, ok := o.drafts[userID]
	if !ok {
		d = &draft{}
		o.drafts[userID] = d
	}
	if d.busy {
		o.mu.Unlock()
		return nil, apperrors.ErrRunInFlight
	}
	if action != ActionGenerate && !d.generated {
		o.mu.Unlock()
		return nil, apperrors.ErrWorkspaceEmpty
	}

	d.busy = true
	appendSep := action.appendsDraft() && d.content != ""
	if !action.appendsDraft() {
		d.content = ""
	}
	o.mu.Unlock()

	// generate 总是开启全新会话；其余动作沿用现有会话，
	// 会话缺失（如预热失败后）则惰性新建
	var (
		session *Session
		haveSes bool
	)
	if action != ActionGenerate {
		session, haveSes = o.sessions.Get(userID)
	}
	if !haveSes {
		s, err := o.sessions.StartNew(ctx, userID)
		if err != nil {
			o.release(userID)
			metrics.BookGenerationTotal.WithLabelValues(string(action), "failure").Inc()
			return nil, err
		}
		session = s
	}

	reader, err := session.Stream(ctx, instruction)
	if err != nil {
		o.release(userID)
		metrics.BookGenerationTotal.WithLabelValues(string(action), "failure").Inc()
		logger.Error(ctx, "generation stream start failed", err,
			"user_id", userID,
			"action", string(action),
		)
		return nil, apperrors.ErrLLMCallFailed.WithError(err)
	}

	logger.Info(ctx, "generation run started", "user_id", userID, "action", string(action))
	return &Run{
		o:           o,
		userID:      userID,
		action:      action,
		instruction: instruction,
		session:     session,
		reader:      reader,
		started:     time.Now(),
		appendSep:   appendSep,
	}, nil
}

// Workspace 返回用户工作区快照
func (o *Orchestrator) Workspace(userID string) Workspace {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d, ok := o.drafts[userID]; ok {
		return Workspace{Content: d.content, Generated: d.generated}
	}
	return Workspace{}
}

// Load 用已保存的书稿填充工作区，并以正文预热新会话。
// 预热期间占用该用户的运行位，并发动作返回 ErrRunInFlight。
// 预热失败不阻断载入：书稿仍可阅读与渲染，但缺少模型上下文，
// 此时返回的 primed 为 false。
func (o *Orchestrator) Load(ctx context.Context, userID, body string) (primed bool, err error) {
	o.mu.Lock()
	d, ok := o.drafts[userID]
	if !ok {
		d = &draft{}
		o.drafts[userID] = d
	}
	if d.busy {
		o.mu.Unlock()
		return false, apperrors.ErrRunInFlight
	}
	d.content = body
	d.generated = true
	d.busy = true
	o.mu.Unlock()

	primeErr := o.sessions.PrimeWithHistory(ctx, userID, body)
	o.release(userID)
	if primeErr != nil {
		return false, nil
	}
	return true, nil
}

// Reset 清空用户工作区并移除会话
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	o.mu.Lock()
	if d, ok := o.drafts[userID]; ok {
		if d.busy {
			o.mu.Unlock()
			return apperrors.ErrRunInFlight
		}
		delete(o.drafts, userID)
	}
	o.mu.Unlock()

	o.sessions.Reset(ctx, userID)
	return nil
}

func (o *Orchestrator) release(userID string) {
	o.mu.Lock()
	if d, ok := o.drafts[userID]; ok {
		d.busy = false
	}
	o.mu.Unlock()
}

func (o *Orchestrator) appendFragment(userID, fragment string) {
	o.mu.Lock()
	if d, ok := o.drafts[userID]; ok {
		d.content += fragment
	}
	o.mu.Unlock()
}

func (o *Orchestrator) markGenerated(userID string) {
	o.mu.Lock()
	if d, ok := o.drafts[userID]; ok {
		d.generated = true
		d.busy = false
	}
	o.mu.Unlock()
}

// Run 一次进行中的流式生成。
// 用法：循环 Recv 直到 io.EOF 或错误，最后必须 Close。
type Run struct {
	o           *Orchestrator
	userID      string
	action      Action
	instruction string
	session     *Session
	reader      *schema.StreamReader[*schema.Message]
	started     time.Time
	buf         strings.Builder
	fragments   int
	appendSep   bool
	finished    bool
}

// Recv 返回下一个内容片段。
// 流结束时将完整回复计入会话历史并返回 io.EOF；
// 中途失败时保留已写入工作区的部分并返回错误。
func (r *Run) Recv() (string, error) {
	for {
		msg, err := r.reader.Recv()
		if errors.Is(err, io.EOF) {
			r.finish("success")
			return "", io.EOF
		}
		if err != nil {
			r.finish("failure")
			return "", apperrors.ErrGenerationFailed.WithError(err)
		}
		// 流尾部可能出现仅携带 Usage 的空消息，跳过
		if msg.Content == "" {
			continue
		}

		fragment := msg.Content
		if r.appendSep {
			fragment = "\n\n" + fragment
			r.appendSep = false
		}
		r.fragments++
		r.buf.WriteString(fragment)
		r.o.appendFragment(r.userID, fragment)
		return fragment, nil
	}
}

// Fragments 返回已接收的片段数
func (r *Run) Fragments() int {
	return r.fragments
}

// Close 关闭底层流并释放运行。
// 未读完就关闭视为中止：已到达的片段保留在工作区，不计入会话历史。
func (r *Run) Close() {
	r.reader.Close()
	if !r.finished {
		r.finish("aborted")
	}
}

func (r *Run) finish(status string) {
	if r.finished {
		return
	}
	r.finished = true

	if status == "success" {
		r.session.Commit(r.instruction, r.buf.String())
		r.o.markGenerated(r.userID)
	} else {
		r.o.release(r.userID)
	}

	metrics.BookGenerationTotal.WithLabelValues(string(r.action), status).Inc()
	metrics.BookGenerationDuration.WithLabelValues(string(r.action)).Observe(time.Since(r.started).Seconds())
	metrics.BookStreamFragments.WithLabelValues(string(r.action)).Observe(float64(r.fragments))
}
