package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxIterations   = 5
	DefaultToolConcurrency = 4

	FallbackReply = "Sorry, I could not finish the analysis. Please try rephrasing your question."
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one history entry. ToolCalls is set only on assistant
// messages, ToolCallID only on tool results.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Model completes a conversation given the tool catalog. The reply is an
// assistant message carrying either text or tool calls.
type Model interface {
	Complete(ctx context.Context, history []Message, tools []ToolSpec) (Message, error)
}

// Executor runs one decoded invocation and returns its view.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (any, error)
}

// ChartData pairs a view with the tool that produced it.
type ChartData struct {
	Tool ToolName `json:"tool"`
	View any      `json:"view"`
}

type Reply struct {
	TurnID     string      `json:"turn_id"`
	Text       string      `json:"text"`
	Charts     []ChartData `json:"charts"`
	Iterations int         `json:"iterations"`
	GaveUp     bool        `json:"gave_up"`
}

type State string

const (
	StateIdle           State = "idle"
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateResponding     State = "responding"
	StateGaveUp         State = "gave_up"
)

type AgentOptions struct {
	// SystemPrompt is used as is when Prompt is nil.
	SystemPrompt string
	// Prompt renders the system instruction for the instant now. It is
	// re-rendered at the start of every turn and on Reset so relative dates
	// follow the club's calendar.
	Prompt          func(now time.Time) string
	Now             func() time.Time
	MaxIterations   int
	ToolConcurrency int
	Logger          *slog.Logger
	Recorder        TurnRecorder
}

// Agent owns one conversation. Turns are serialized by turnMu; mu guards the
// history and is never held across a model or tool call, so History and
// Reset answer while a turn is in flight.
type Agent struct {
	model   Model
	tools   Executor
	catalog []ToolSpec
	opts    AgentOptions
	log     *slog.Logger

	turnMu sync.Mutex

	mu      sync.Mutex
	history []Message
	state   State
	// gen changes on every Reset; a turn started before it stops writing
	// to the history.
	gen uint64
}

func NewAgent(model Model, tools Executor, opts AgentOptions) *Agent {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.ToolConcurrency < 1 {
		opts.ToolConcurrency = DefaultToolConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &Agent{
		model:   model,
		tools:   tools,
		catalog: Catalog(),
		opts:    opts,
		log:     opts.Logger,
		state:   StateIdle,
	}
	a.history = []Message{a.systemMessage()}
	return a
}

func (a *Agent) systemMessage() Message {
	content := a.opts.SystemPrompt
	if a.opts.Prompt != nil {
		content = a.opts.Prompt(a.opts.Now())
	}
	return Message{Role: RoleSystem, Content: content}
}

// Reset drops every turn, keeping only a freshly rendered system instruction.
// A turn still running keeps its reply but no longer writes to the history.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.history = []Message{a.systemMessage()}
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.history)
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Chat runs one user turn to completion. A model failure is returned as an
// error; tool failures are fed back to the model instead.
func (a *Agent) Chat(ctx context.Context, userMessage string) (Reply, error) {
	a.turnMu.Lock()
	defer a.turnMu.Unlock()

	started := time.Now()
	reply := Reply{TurnID: uuid.NewString(), Charts: []ChartData{}}
	rec := TurnRecord{TurnID: reply.TurnID, UserMessage: userMessage, StartedAt: started}
	log := a.log.With("turn_id", reply.TurnID)

	a.mu.Lock()
	gen := a.gen
	a.history[0] = a.systemMessage()
	a.history = append(a.history, Message{Role: RoleUser, Content: userMessage})
	work := slices.Clone(a.history)
	a.mu.Unlock()

	// commit extends the working copy and, unless a Reset intervened, the
	// shared history.
	commit := func(msgs ...Message) {
		work = append(work, msgs...)
		a.mu.Lock()
		if a.gen == gen {
			a.history = append(a.history, msgs...)
		}
		a.mu.Unlock()
	}

	for i := 0; i < a.opts.MaxIterations; i++ {
		reply.Iterations = i + 1
		a.setState(StateAwaitingModel)
		msg, err := a.model.Complete(ctx, slices.Clone(work), a.catalog)
		if err != nil {
			a.setState(StateIdle)
			rec.Error = err.Error()
			a.record(ctx, log, rec, reply, started)
			return Reply{}, fmt.Errorf("model completion: %w", err)
		}
		msg.Role = RoleAssistant
		commit(msg)

		if len(msg.ToolCalls) == 0 {
			a.setState(StateResponding)
			reply.Text = msg.Content
			a.record(ctx, log, rec, reply, started)
			a.setState(StateIdle)
			return reply, nil
		}

		a.setState(StateExecutingTools)
		results := a.runTools(ctx, log, msg.ToolCalls)
		toolMsgs := make([]Message, 0, len(results))
		for _, r := range results {
			toolMsgs = append(toolMsgs, Message{Role: RoleTool, ToolCallID: r.call.ID, Content: r.payload})
			rec.Tools = append(rec.Tools, r.audit)
			if r.err == nil {
				reply.Charts = append(reply.Charts, ChartData{Tool: ToolName(r.call.Name), View: r.view})
			}
		}
		commit(toolMsgs...)
	}

	a.setState(StateGaveUp)
	log.Warn("iteration cap reached", "max_iterations", a.opts.MaxIterations)
	reply.Text = FallbackReply
	reply.GaveUp = true
	a.record(ctx, log, rec, reply, started)
	a.setState(StateIdle)
	return reply, nil
}

type toolResult struct {
	call    ToolCall
	view    any
	err     error
	payload string
	audit   ToolAudit
}

// runTools executes every call of one model reply. Results come back in call
// order, each carrying the id of the call it answers.
func (a *Agent) runTools(ctx context.Context, log *slog.Logger, calls []ToolCall) []toolResult {
	results := make([]toolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.ToolConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = a.runTool(gctx, log, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Agent) runTool(ctx context.Context, log *slog.Logger, call ToolCall) toolResult {
	start := time.Now()
	res := toolResult{call: call}
	res.audit = ToolAudit{CallID: call.ID, Name: call.Name, Arguments: call.Arguments}

	inv, err := DecodeInvocation(call.Name, call.Arguments)
	if err == nil {
		res.view, err = a.safeExecute(ctx, inv)
	}
	res.audit.Duration = time.Since(start)

	if err != nil {
		res.err = err
		res.audit.Error = err.Error()
		res.payload = errorPayload(err)
		log.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "error", err, "duration", res.audit.Duration)
		return res
	}

	b, err := json.Marshal(res.view)
	if err != nil {
		res.err = err
		res.audit.Error = err.Error()
		res.payload = errorPayload(fmt.Errorf("encode result: %w", err))
		return res
	}
	res.payload = string(b)
	log.Info("tool executed", "tool", call.Name, "call_id", call.ID, "duration", res.audit.Duration)
	return res
}

// safeExecute turns a panicking builder into an ordinary tool error.
func (a *Agent) safeExecute(ctx context.Context, inv Invocation) (view any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", inv.Tool(), r)
		}
	}()
	return a.tools.Execute(ctx, inv)
}

func errorPayload(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}

func (a *Agent) record(ctx context.Context, log *slog.Logger, rec TurnRecord, reply Reply, started time.Time) {
	rec.FinalText = reply.Text
	rec.Iterations = reply.Iterations
	rec.GaveUp = reply.GaveUp
	rec.Duration = time.Since(started)
	log.Info("turn finished",
		"iterations", rec.Iterations,
		"tools", len(rec.Tools),
		"gave_up", rec.GaveUp,
		"duration", rec.Duration,
	)
	if a.opts.Recorder == nil {
		return
	}
	if err := a.opts.Recorder.RecordTurn(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("turn audit write failed", "error", err)
	}
}
