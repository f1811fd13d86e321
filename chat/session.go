// Package chat implements the streaming conversation engine: delta
// accumulation, the tool call lifecycle, and session state.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"apitui/config"
	"apitui/executor"
	"apitui/llm"
)

const (
	// MaxHistory bounds the retained conversation, oldest dropped first.
	MaxHistory = 20

	// MaxToolRetries caps consecutive failed tool executions per turn.
	MaxToolRetries = 3

	historyMirrorKey = "chat-history"
)

// EventKind identifies a session notification.
type EventKind int

const (
	EventHistoryChanged EventKind = iota
	EventStreamDelta
	EventToolProposed
	EventToolExecuting
	EventTurnDone
)

// Event is a session notification delivered through the notify
// callback. The callback runs on the session's streaming goroutine and
// must not call back into the session synchronously.
type Event struct {
	Kind      EventKind
	MessageID string
	Delta     string
	Pending   *PendingCall
	ToolName  string
}

type EventFunc func(Event)

// Mirror persists session state. Writes are best effort: a failing
// mirror never interrupts a conversation.
type Mirror interface {
	PutJSON(key string, value any) error
	GetJSON(key string, out any) error
}

// Options configures a Session. Mirror and Notify may be nil.
type Options struct {
	Client       *llm.Client
	Executor     *executor.Executor
	Mirror       Mirror
	Tools        []llm.Tool
	ToolsEnabled bool
	AutoExecute  bool
	SystemPrompt string
	Notify       EventFunc
}

// Session is one conversation. At most one turn is in flight at a
// time; Send while busy is a no-op.
type Session struct {
	id     string
	client *llm.Client
	exec   *executor.Executor
	mirror Mirror
	notify EventFunc

	tools        []llm.Tool
	toolsEnabled bool
	autoExecute  bool
	systemPrompt string

	mu             sync.Mutex
	history        []Message
	counter        int64
	active         bool
	cancel         context.CancelFunc
	pending        *PendingCall
	pendingCtx     context.Context
	pendingRetries int
}

func NewSession(opts Options) *Session {
	s := &Session{
		id:           uuid.NewString(),
		client:       opts.Client,
		exec:         opts.Executor,
		mirror:       opts.Mirror,
		notify:       opts.Notify,
		tools:        opts.Tools,
		toolsEnabled: opts.ToolsEnabled,
		autoExecute:  opts.AutoExecute,
		systemPrompt: opts.SystemPrompt,
	}

	if s.mirror != nil {
		var restored []Message
		if err := s.mirror.GetJSON(historyMirrorKey, &restored); err == nil && len(restored) > 0 {
			s.history = restored
			if len(s.history) > MaxHistory {
				s.history = s.history[len(s.history)-MaxHistory:]
			}
		}
	}

	return s
}

func (s *Session) ID() string {
	return s.id
}

// History returns a snapshot of the conversation.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Busy reports whether a turn is in flight or a call is awaiting
// confirmation.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Pending returns the call awaiting confirmation, or nil.
func (s *Session) Pending() *PendingCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// Send starts a new turn. Blank input and input while a turn is in
// flight are ignored.
func (s *Session) Send(text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true

	s.appendLocked(Message{
		ID:        s.nextIDLocked(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	placeholderID := s.nextIDLocked()
	s.appendLocked(Message{
		ID:        placeholderID,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Streaming: true,
	})
	s.persistLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
	go s.streamTurn(ctx, placeholderID, 0)
}

// Cancel stops the in-flight turn, keeping any partial assistant text.
// Calling it when nothing is running is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	pendingDismissed := false
	if s.pending != nil {
		s.pending = nil
		s.pendingCtx = nil
		s.active = false
		pendingDismissed = true
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pendingDismissed {
		s.emit(Event{Kind: EventTurnDone})
	}
}

// ConfirmPending executes the proposed call. A non-nil draft replaces
// the pending one, freezing the user's edits into the invocation.
func (s *Session) ConfirmPending(draft *executor.Args) {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	p := s.pending
	s.pending = nil
	ctx := s.pendingCtx
	s.pendingCtx = nil
	retries := s.pendingRetries
	s.mu.Unlock()

	args := p.Draft
	if draft != nil {
		args = *draft
	}

	if ctx == nil || ctx.Err() != nil {
		s.finishIdle()
		return
	}

	go s.executeAndContinue(ctx, p.Call, args, retries)
}

// DismissPending discards the proposed call without executing it.
func (s *Session) DismissPending() {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.pendingCtx = nil
	s.active = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.emit(Event{Kind: EventTurnDone})
}

// ClearHistory wipes the conversation. Ignored while a turn is in
// flight.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.history = nil
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
}

// streamTurn runs one model request. retries counts consecutive failed
// tool executions this turn and rides along through tool-call
// continuations.
func (s *Session) streamTurn(ctx context.Context, placeholderID string, retries int) {
	s.mu.Lock()
	wire := toWireMessages(s.systemPrompt, s.history)
	var tools []llm.Tool
	if s.toolsEnabled {
		tools = s.tools
	}
	s.mu.Unlock()

	stream, err := s.client.StreamChat(ctx, wire, tools)
	if err != nil {
		if ctx.Err() != nil {
			s.finishCancelled(placeholderID, "")
			return
		}
		s.finishWithError(placeholderID, err)
		return
	}
	defer stream.Close()

	acc := NewAccumulator()
	var finishReason string
	var streamErr error

	for stream.Next() {
		chunk := stream.Current()

		if msg, ok := chunk.ErrorMessage(); ok {
			streamErr = fmt.Errorf("provider error: %s", msg)
			break
		}

		delta := acc.Add(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != "" {
			finishReason = chunk.Choices[0].FinishReason
		}
		if delta != "" {
			s.updateStreaming(placeholderID, acc.Content(), delta)
		}
	}
	if streamErr == nil {
		streamErr = stream.Err()
	}

	if ctx.Err() != nil {
		s.finishCancelled(placeholderID, acc.Content())
		return
	}
	if streamErr != nil {
		s.finishWithError(placeholderID, streamErr)
		return
	}

	if finishReason == llm.FinishToolCalls || acc.HasToolCalls() {
		s.proposeCall(ctx, placeholderID, acc, retries)
		return
	}

	s.finishTurn(placeholderID, acc.Content())
}

// proposeCall hands the first assembled tool call to the confirmation
// flow, or straight to execution when auto-execute is on. Additional
// calls in the same response are dropped.
func (s *Session) proposeCall(ctx context.Context, placeholderID string, acc *Accumulator, retries int) {
	calls := acc.ToolCalls()
	if len(calls) == 0 {
		s.finishTurn(placeholderID, acc.Content())
		return
	}
	if len(calls) > 1 && config.DebugLog != nil {
		config.DebugLog.Printf("[CHAT] Ignoring %d extra tool calls in response", len(calls)-1)
	}
	call := calls[0]

	s.mu.Lock()
	if content := acc.Content(); content != "" {
		s.settleMessageLocked(placeholderID, content)
	} else {
		s.removeMessageLocked(placeholderID)
	}
	s.persistLocked()
	auto := s.autoExecute
	pending := newPendingCall(call)
	if !auto {
		s.pending = pending
		s.pendingCtx = ctx
		s.pendingRetries = retries
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})

	if auto {
		s.executeAndContinue(ctx, call, pending.Draft, retries)
		return
	}

	p := *pending
	s.emit(Event{Kind: EventToolProposed, Pending: &p, ToolName: call.Name})
}

// executeAndContinue runs the call, records the frozen invocation and
// its result, and either loops back to the model or ends the turn when
// the retry cap is hit.
func (s *Session) executeAndContinue(ctx context.Context, call ToolCall, args executor.Args, retries int) {
	s.emit(Event{Kind: EventToolExecuting, ToolName: call.Name})

	result, err := s.exec.Do(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			s.finishIdle()
			return
		}
		result = executor.Result{Error: err.Error()}
	}

	failed := result.Error != "" || !result.OK
	if failed {
		retries++
	} else {
		retries = 0
	}

	s.mu.Lock()
	s.appendLocked(Message{
		ID:   s.nextIDLocked(),
		Role: RoleAssistant,
		ToolCalls: []ToolCall{{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: frozenArguments(args),
		}},
		Timestamp: time.Now(),
	})
	s.appendLocked(Message{
		ID:         s.nextIDLocked(),
		Role:       RoleTool,
		ToolCallID: call.ID,
		Content:    executor.FormatResult(result),
		Timestamp:  time.Now(),
	})

	if failed && retries >= MaxToolRetries {
		s.appendLocked(Message{
			ID:        s.nextIDLocked(),
			Role:      RoleAssistant,
			Content:   fmt.Sprintf("The %s call failed %d times in a row, so I stopped retrying. Check the target API settings or try a different request.", call.Name, retries),
			Timestamp: time.Now(),
		})
		s.active = false
		s.cancel = nil
		s.persistLocked()
		s.mu.Unlock()

		s.emit(Event{Kind: EventHistoryChanged})
		s.emit(Event{Kind: EventTurnDone})
		return
	}

	placeholderID := s.nextIDLocked()
	s.appendLocked(Message{
		ID:        placeholderID,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Streaming: true,
	})
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
	s.streamTurn(ctx, placeholderID, retries)
}

func (s *Session) updateStreaming(id, content, delta string) {
	s.mu.Lock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Content = content
			break
		}
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventStreamDelta, MessageID: id, Delta: delta})
}

func (s *Session) finishTurn(id, content string) {
	s.mu.Lock()
	s.settleMessageLocked(id, content)
	s.active = false
	s.cancel = nil
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
	s.emit(Event{Kind: EventTurnDone})
}

// finishCancelled settles the turn after a cancel, keeping whatever
// text already streamed. An empty placeholder is removed instead.
func (s *Session) finishCancelled(id, partial string) {
	s.mu.Lock()
	if partial != "" {
		s.settleMessageLocked(id, partial)
	} else {
		s.removeMessageLocked(id)
	}
	s.active = false
	s.cancel = nil
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
	s.emit(Event{Kind: EventTurnDone})
}

func (s *Session) finishWithError(id string, err error) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[CHAT] Turn failed: %v", err)
	}
	info := ClassifyError(err)

	s.mu.Lock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Streaming = false
			s.history[i].Error = info
			break
		}
	}
	s.active = false
	s.cancel = nil
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventHistoryChanged})
	s.emit(Event{Kind: EventTurnDone})
}

func (s *Session) finishIdle() {
	s.mu.Lock()
	s.active = false
	s.cancel = nil
	s.mu.Unlock()

	s.emit(Event{Kind: EventTurnDone})
}

func (s *Session) appendLocked(msg Message) {
	s.history = append(s.history, msg)
	if len(s.history) > MaxHistory {
		s.history = s.history[len(s.history)-MaxHistory:]
	}
}

func (s *Session) settleMessageLocked(id, content string) {
	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Content = content
			s.history[i].Streaming = false
			return
		}
	}
}

func (s *Session) removeMessageLocked(id string) {
	for i := range s.history {
		if s.history[i].ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			return
		}
	}
}

func (s *Session) nextIDLocked() string {
	s.counter++
	return nextMessageID(s.counter)
}

func (s *Session) persistLocked() {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.PutJSON(historyMirrorKey, s.history); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[CHAT] Failed to mirror history: %v", err)
	}
}

func (s *Session) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}
