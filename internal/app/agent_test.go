package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedModel replays canned replies and remembers what it was sent.
type scriptedModel struct {
	mu      sync.Mutex
	replies []Message
	err     error
	calls   int
	seen    [][]Message
}

func (m *scriptedModel) Complete(_ context.Context, history []Message, tools []ToolSpec) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	m.seen = append(m.seen, snapshot)
	if m.err != nil {
		return Message{}, m.err
	}
	if len(tools) != 7 {
		return Message{}, errors.New("catalog not offered")
	}
	i := m.calls
	m.calls++
	if i >= len(m.replies) {
		return m.replies[len(m.replies)-1], nil
	}
	return m.replies[i], nil
}

type stubExecutor struct {
	fn    func(ctx context.Context, inv Invocation) (any, error)
	calls atomic.Int32
}

func (e *stubExecutor) Execute(ctx context.Context, inv Invocation) (any, error) {
	e.calls.Add(1)
	return e.fn(ctx, inv)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []TurnRecord
}

func (r *memoryRecorder) RecordTurn(_ context.Context, rec TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func text(s string) Message { return Message{Role: RoleAssistant, Content: s} }

func calls(tc ...ToolCall) Message { return Message{Role: RoleAssistant, ToolCalls: tc} }

func echoExecutor() *stubExecutor {
	return &stubExecutor{fn: func(_ context.Context, inv Invocation) (any, error) {
		return map[string]string{"tool": string(inv.Tool())}, nil
	}}
}

func newTestAgent(m Model, e Executor, opts AgentOptions) *Agent {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = "system"
	}
	opts.Logger = discardLogger()
	return NewAgent(m, e, opts)
}

func TestChatImmediateAnswer(t *testing.T) {
	exec := echoExecutor()
	a := newTestAgent(&scriptedModel{replies: []Message{text("Hello!")}}, exec, AgentOptions{})

	reply, err := a.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "Hello!" || len(reply.Charts) != 0 || reply.Iterations != 1 || reply.GaveUp {
		t.Errorf("reply = %+v", reply)
	}
	if reply.Charts == nil {
		t.Error("charts should be an empty list, not null")
	}
	if exec.calls.Load() != 0 {
		t.Error("no tool should run")
	}
	h := a.History()
	if len(h) != 3 || h[0].Role != RoleSystem || h[1].Role != RoleUser || h[2].Role != RoleAssistant {
		t.Errorf("history = %+v", h)
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s", a.State())
	}
}

func TestChatRunsToolsAndCorrelatesResults(t *testing.T) {
	model := &scriptedModel{replies: []Message{
		calls(
			ToolCall{ID: "call_a", Name: "get_occupancy_for_date", Arguments: `{"date":"2024-03-01"}`},
			ToolCall{ID: "call_b", Name: "get_revenue_summary", Arguments: `{"start_date":"2024-03-01","end_date":"2024-03-07"}`},
		),
		text("Done."),
	}}
	a := newTestAgent(model, echoExecutor(), AgentOptions{})

	reply, err := a.Chat(context.Background(), "how are we doing?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "Done." || reply.Iterations != 2 {
		t.Errorf("reply = %+v", reply)
	}
	if len(reply.Charts) != 2 || reply.Charts[0].Tool != ToolOccupancyForDate || reply.Charts[1].Tool != ToolRevenueSummary {
		t.Errorf("charts = %+v", reply.Charts)
	}

	// The second model call sees both tool results, each answering its own id.
	second := model.seen[1]
	results := map[string]string{}
	for _, m := range second {
		if m.Role == RoleTool {
			results[m.ToolCallID] = m.Content
		}
	}
	if !strings.Contains(results["call_a"], "get_occupancy_for_date") || !strings.Contains(results["call_b"], "get_revenue_summary") {
		t.Errorf("tool results = %v", results)
	}
}

func TestChatToolErrorsAreFedBackNotCharted(t *testing.T) {
	model := &scriptedModel{replies: []Message{
		calls(
			ToolCall{ID: "1", Name: "get_weather", Arguments: `{}`},
			ToolCall{ID: "2", Name: "get_available_slots", Arguments: `{"date":"soon"}`},
			ToolCall{ID: "3", Name: "get_available_slots", Arguments: `{"date":"2024-03-01"}`},
			ToolCall{ID: "4", Name: "get_occupancy_for_date", Arguments: `{"date":"2024-03-01"}`},
		),
		text("Partial answer."),
	}}
	exec := &stubExecutor{fn: func(_ context.Context, inv Invocation) (any, error) {
		switch inv.Tool() {
		case ToolAvailableSlots:
			return nil, errors.New("platform unavailable")
		default:
			panic("builder exploded")
		}
	}}
	a := newTestAgent(model, exec, AgentOptions{})

	reply, err := a.Chat(context.Background(), "slots?")
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Charts) != 0 {
		t.Errorf("failed tools were charted: %+v", reply.Charts)
	}
	if reply.Text != "Partial answer." {
		t.Errorf("text = %q", reply.Text)
	}

	var toolMsgs int
	for _, m := range model.seen[1] {
		if m.Role != RoleTool {
			continue
		}
		toolMsgs++
		var payload map[string]string
		if err := json.Unmarshal([]byte(m.Content), &payload); err != nil || payload["error"] == "" {
			t.Errorf("tool %s payload = %s", m.ToolCallID, m.Content)
		}
	}
	if toolMsgs != 4 {
		t.Errorf("tool messages = %d, want 4", toolMsgs)
	}
}

func TestChatGivesUpAtIterationCap(t *testing.T) {
	loop := calls(ToolCall{ID: "x", Name: "get_available_slots", Arguments: `{"date":"2024-03-01"}`})
	model := &scriptedModel{replies: []Message{loop}}
	rec := &memoryRecorder{}
	a := newTestAgent(model, echoExecutor(), AgentOptions{MaxIterations: 3, Recorder: rec})

	reply, err := a.Chat(context.Background(), "loop forever")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.GaveUp || reply.Text != FallbackReply || reply.Iterations != 3 {
		t.Errorf("reply = %+v", reply)
	}
	if model.calls != 3 {
		t.Errorf("model calls = %d, want 3", model.calls)
	}
	// system + user + 3 x (assistant + tool)
	if n := len(a.History()); n != 8 {
		t.Errorf("history length = %d, want 8", n)
	}
	if len(rec.records) != 1 || !rec.records[0].GaveUp || len(rec.records[0].Tools) != 3 {
		t.Errorf("records = %+v", rec.records)
	}
}

func TestChatModelFailure(t *testing.T) {
	rec := &memoryRecorder{}
	a := newTestAgent(&scriptedModel{err: errors.New("rate limited")}, echoExecutor(), AgentOptions{Recorder: rec})

	if _, err := a.Chat(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v", err)
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s", a.State())
	}
	if len(rec.records) != 1 || rec.records[0].Error == "" {
		t.Errorf("records = %+v", rec.records)
	}
}

func TestResetKeepsOnlySystemInstruction(t *testing.T) {
	a := newTestAgent(&scriptedModel{replies: []Message{text("ok")}}, echoExecutor(), AgentOptions{SystemPrompt: "be useful"})
	for i := 0; i < 3; i++ {
		if _, err := a.Chat(context.Background(), "question"); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(a.History()); n != 7 {
		t.Fatalf("history length = %d, want 7", n)
	}
	a.Reset()
	h := a.History()
	if len(h) != 1 || h[0].Role != RoleSystem || h[0].Content != "be useful" {
		t.Errorf("history after reset = %+v", h)
	}
}

func TestChatRunsToolCallsConcurrently(t *testing.T) {
	const n = 4
	var tcs []ToolCall
	for i := 0; i < n; i++ {
		tcs = append(tcs, ToolCall{ID: string(rune('a' + i)), Name: "get_available_slots", Arguments: `{"date":"2024-03-01"}`})
	}
	model := &scriptedModel{replies: []Message{calls(tcs...), text("done")}}

	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	exec := &stubExecutor{fn: func(ctx context.Context, inv Invocation) (any, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return "ok", nil
	}}
	a := newTestAgent(model, exec, AgentOptions{ToolConcurrency: n})

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for peak.Load() < n && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		close(release)
	}()

	reply, err := a.Chat(context.Background(), "all slots")
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() != n {
		t.Errorf("peak concurrency = %d, want %d", peak.Load(), n)
	}
	for i, c := range reply.Charts {
		if c.View != "ok" {
			t.Errorf("chart %d = %+v", i, c)
		}
	}
	// Tool messages keep the order of the calls.
	var ids []string
	for _, m := range a.History() {
		if m.Role == RoleTool {
			ids = append(ids, m.ToolCallID)
		}
	}
	if strings.Join(ids, "") != "abcd" {
		t.Errorf("tool message order = %v", ids)
	}
}

func TestSystemPromptFollowsClubCalendar(t *testing.T) {
	ct := mustClubTime(t, "UTC")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	model := &scriptedModel{replies: []Message{text("ok")}}
	a := newTestAgent(model, echoExecutor(), AgentOptions{
		Prompt: func(at time.Time) string {
			return SystemPrompt(PromptInfo{ClubName: "Club", Clock: ct, Now: at})
		},
		Now: func() time.Time { return now },
	})
	if h := a.History(); !strings.Contains(h[0].Content, "Today is 2024-03-01") {
		t.Fatalf("initial prompt:\n%s", h[0].Content)
	}

	now = time.Date(2024, 3, 2, 0, 30, 0, 0, time.UTC)
	a.Reset()
	if h := a.History(); !strings.Contains(h[0].Content, "Today is 2024-03-02") {
		t.Errorf("prompt after midnight reset:\n%s", h[0].Content)
	}

	now = time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	if _, err := a.Chat(context.Background(), "what about tomorrow?"); err != nil {
		t.Fatal(err)
	}
	sent := model.seen[0]
	if sent[0].Role != RoleSystem || !strings.Contains(sent[0].Content, `"tomorrow" = 2024-03-04`) {
		t.Errorf("prompt sent to model:\n%s", sent[0].Content)
	}
	var systems int
	for _, m := range a.History() {
		if m.Role == RoleSystem {
			systems++
		}
	}
	if systems != 1 || a.History()[0].Role != RoleSystem {
		t.Errorf("system messages = %d", systems)
	}
}

// gatedModel blocks inside Complete until released.
type gatedModel struct {
	entered chan struct{}
	release chan struct{}
}

func (m *gatedModel) Complete(ctx context.Context, _ []Message, _ []ToolSpec) (Message, error) {
	close(m.entered)
	select {
	case <-m.release:
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
	return text("late answer"), nil
}

func TestHistoryAndResetDoNotWaitForTurn(t *testing.T) {
	model := &gatedModel{entered: make(chan struct{}), release: make(chan struct{})}
	a := newTestAgent(model, echoExecutor(), AgentOptions{})

	type result struct {
		reply Reply
		err   error
	}
	done := make(chan result, 1)
	go func() {
		r, err := a.Chat(context.Background(), "slow question")
		done <- result{r, err}
	}()
	<-model.entered

	answered := make(chan int, 1)
	go func() {
		n := len(a.History())
		if a.State() != StateAwaitingModel {
			n = -1
		}
		a.Reset()
		answered <- n
	}()
	select {
	case n := <-answered:
		if n != 2 {
			t.Errorf("history during turn = %d, want 2 (or wrong state)", n)
		}
	case <-time.After(2 * time.Second):
		close(model.release)
		t.Fatal("History/Reset blocked behind the running turn")
	}

	close(model.release)
	res := <-done
	if res.err != nil || res.reply.Text != "late answer" {
		t.Fatalf("reply = %+v, err = %v", res.reply, res.err)
	}
	// The reset wins: the finished turn does not reappear.
	if h := a.History(); len(h) != 1 || h[0].Role != RoleSystem {
		t.Errorf("history after reset = %+v", h)
	}
}
