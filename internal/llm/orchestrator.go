package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ghost/internal/tools"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToolOutputPrefix marks a user entry as tool output rather than human input.
const ToolOutputPrefix = "Tool output: "

// unknownToolLabel is recorded instead of model-chosen names that match no tool.
const unknownToolLabel = "unknown"

// Outcome classifies how a turn resolved.
type Outcome string

const (
	OutcomeIgnored       Outcome = "ignored"
	OutcomeChat          Outcome = "chat"
	OutcomeUnknownTool   Outcome = "unknown_tool"
	OutcomeDenied        Outcome = "denied"
	OutcomeExecuted      Outcome = "executed"
	OutcomeFailed        Outcome = "failed"
	OutcomeEndpointError Outcome = "endpoint_error"
)

// Gatekeeper decides which tools need confirmation and asks the human.
type Gatekeeper interface {
	RequiresApproval(name string) bool
	RequestApproval(ctx context.Context, name string, params tools.Params) (bool, error)
}

// Recorder receives turn and tool measurements.
type Recorder interface {
	ObserveTurn(outcome string)
	ObserveCompletion(d time.Duration, err error)
	ObserveToolCall(tool, result string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(string)                           {}
func (nopRecorder) ObserveCompletion(time.Duration, error)       {}
func (nopRecorder) ObserveToolCall(string, string, time.Duration) {}

// TurnResult describes what a single Send produced.
type TurnResult struct {
	Outcome Outcome
	// Messages are the visible messages added during the turn, in order.
	Messages []Message
	// Notices are status lines about tool activity. They are not chat messages.
	Notices []string
	// Call is the last tool call the model made during the turn, if any.
	Call *Call
	// Err is the completion endpoint failure that ended the turn, if any.
	Err error
}

// Orchestrator drives conversation turns: it queries the completion endpoint,
// dispatches tool calls found in replies, and folds their results back into
// the conversation log. One Orchestrator serves one session.
type Orchestrator struct {
	completer Completer
	registry  *tools.Registry
	gate      Gatekeeper
	logger    *zap.Logger
	recorder  Recorder
	onNotice  func(string)
	now       func() time.Time

	busy atomic.Bool

	mu           sync.Mutex // guards the fields below
	model        string
	persona      string
	limit        int
	attached     *tools.AttachedProcess
	autoFollowUp bool
	maxFollowUps int
	log          *Log
	transcript   []Message
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithModel sets the model identifier sent with each request.
func WithModel(model string) Option {
	return func(o *Orchestrator) { o.model = model }
}

// WithHistoryLimit sets the conversation log cap.
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) { o.limit = clampLimit(n) }
}

// WithPersona replaces the default persona text of the system prompt.
func WithPersona(p string) Option {
	return func(o *Orchestrator) { o.persona = p }
}

// WithAttachedProcess sets the process handle injected into tools that need it.
func WithAttachedProcess(p *tools.AttachedProcess) Option {
	return func(o *Orchestrator) { o.attached = p }
}

// WithAutoFollowUp makes the orchestrator re-query the endpoint right after a
// tool result is folded back, at most n times per turn.
func WithAutoFollowUp(n int) Option {
	return func(o *Orchestrator) {
		o.autoFollowUp = n > 0
		o.maxFollowUps = n
	}
}

// WithNoticeHandler registers a callback receiving status notices as they happen.
func WithNoticeHandler(fn func(string)) Option {
	return func(o *Orchestrator) { o.onNotice = fn }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator and starts a new chat.
func New(completer Completer, registry *tools.Registry, gate Gatekeeper, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		completer: completer,
		registry:  registry,
		gate:      gate,
		logger:    zap.NewNop(),
		recorder:  nopRecorder{},
		now:       time.Now,
		limit:     DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(o)
	}

	system, err := o.systemEntry()
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}
	o.log = NewLog(system, o.limit)
	o.transcript = []Message{o.welcome()}
	return o, nil
}

func (o *Orchestrator) systemEntry() (Entry, error) {
	prompt, err := BuildSystemPrompt(o.persona, o.registry.List())
	if err != nil {
		return Entry{}, err
	}
	return Entry{Role: RoleSystem, Content: prompt, Time: o.now()}, nil
}

func (o *Orchestrator) welcome() Message {
	return Message{Sender: SenderAssistant, Content: WelcomeMessage, Timestamp: o.now()}
}

// Busy reports whether a turn is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Model returns the model identifier in use.
func (o *Orchestrator) Model() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.model
}

// SetModel changes the model used from the next request on.
func (o *Orchestrator) SetModel(model string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.model = model
}

// SetPersona changes the persona; it takes effect on the next NewChat or LoadTranscript.
func (o *Orchestrator) SetPersona(p string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persona = p
}

// SetAttachedProcess changes the process injected into process-aware tools.
func (o *Orchestrator) SetAttachedProcess(p *tools.AttachedProcess) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = p
}

// Log returns a copy of the conversation log.
func (o *Orchestrator) Log() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.log.Entries()
}

// Transcript returns a copy of the visible messages.
func (o *Orchestrator) Transcript() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.transcript))
	copy(out, o.transcript)
	return out
}

// NewChat discards the conversation and returns the welcome message.
func (o *Orchestrator) NewChat() (Message, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return Message{}, ErrTurnInProgress
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	defer o.mu.Unlock()

	system, err := o.systemEntry()
	if err != nil {
		return Message{}, fmt.Errorf("building system prompt: %w", err)
	}
	o.log.Reset(system)
	welcome := o.welcome()
	o.transcript = []Message{welcome}
	return welcome, nil
}

// LoadTranscript replaces the conversation with a saved transcript. The log
// is rebuilt from user and assistant messages only.
func (o *Orchestrator) LoadTranscript(msgs []Message) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer o.busy.Store(false)

	o.mu.Lock()
	defer o.mu.Unlock()

	system, err := o.systemEntry()
	if err != nil {
		return fmt.Errorf("building system prompt: %w", err)
	}
	o.log.Reset(system)
	for _, m := range msgs {
		switch m.Sender {
		case SenderUser:
			o.log.Append(Entry{Role: RoleUser, Content: m.Content, Time: m.Timestamp})
		case SenderAssistant:
			o.log.Append(Entry{Role: RoleAssistant, Content: m.Content, Time: m.Timestamp})
		}
	}
	o.log.Truncate()

	o.transcript = make([]Message, len(msgs))
	copy(o.transcript, msgs)
	return nil
}

// turn accumulates the results of one Send.
type turn struct {
	logger *zap.Logger
	result TurnResult
}

// Send runs one turn for the user's text. Blank text is ignored. While a
// turn is in flight further sends fail with ErrTurnInProgress and change
// nothing. Tool and endpoint failures never surface as errors; they are
// reported through the result.
func (o *Orchestrator) Send(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{Outcome: OutcomeIgnored}, nil
	}
	if !o.busy.CompareAndSwap(false, true) {
		return TurnResult{}, ErrTurnInProgress
	}
	defer o.busy.Store(false)

	t := &turn{logger: o.logger.With(zap.String("turn", uuid.NewString()))}
	t.logger.Debug("turn started")

	o.addUser(t, text)
	o.run(ctx, t)

	o.mu.Lock()
	if n := o.log.Truncate(); n > 0 {
		t.logger.Debug("history truncated", zap.Int("removed", n))
	}
	o.mu.Unlock()

	o.recorder.ObserveTurn(string(t.result.Outcome))
	t.logger.Debug("turn resolved", zap.String("outcome", string(t.result.Outcome)))
	return t.result, nil
}

func (o *Orchestrator) run(ctx context.Context, t *turn) {
	o.mu.Lock()
	followUps := 0
	if o.autoFollowUp {
		followUps = o.maxFollowUps
	}
	o.mu.Unlock()

	for round := 0; ; round++ {
		reply, err := o.complete(ctx, t)
		if err != nil {
			o.endpointFailed(t, err)
			return
		}

		outcome := o.resolve(ctx, t, reply)
		t.result.Outcome = outcome
		if outcome == OutcomeChat || round >= followUps {
			return
		}
		t.logger.Debug("following up on tool result", zap.Int("round", round+1))
	}
}

func (o *Orchestrator) complete(ctx context.Context, t *turn) (string, error) {
	o.mu.Lock()
	o.log.Truncate()
	entries := o.log.Entries()
	model := o.model
	o.mu.Unlock()

	start := time.Now()
	reply, err := callCompleter(ctx, o.completer, model, entries)
	o.recorder.ObserveCompletion(time.Since(start), err)
	return reply, err
}

// callCompleter queries the endpoint, converting panics into errors.
func callCompleter(ctx context.Context, c Completer, model string, entries []Entry) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panic: %v", r)
		}
	}()
	return c.Complete(ctx, model, entries)
}

func (o *Orchestrator) endpointFailed(t *turn, err error) {
	t.logger.Error("completion request failed", zap.Error(err))
	t.result.Outcome = OutcomeEndpointError
	t.result.Err = err

	msg := fmt.Sprintf("Error: %v", err)
	o.notify(t, msg)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.show(t, Message{Sender: SenderSystem, Content: msg, Timestamp: o.now()})
}

// resolve handles one reply: ordinary chat is shown, a tool call is
// dispatched and its result folded back into the log.
func (o *Orchestrator) resolve(ctx context.Context, t *turn, reply string) Outcome {
	call, ok := ExtractCall(reply)
	if !ok {
		o.mu.Lock()
		defer o.mu.Unlock()
		now := o.now()
		o.log.Append(Entry{Role: RoleAssistant, Content: reply, Time: now})
		o.show(t, Message{Sender: SenderAssistant, Content: reply, Timestamp: now})
		return OutcomeChat
	}

	t.result.Call = &call
	t.logger.Info("tool call requested", zap.String("tool", call.Name), zap.Int("params", len(call.Params)))
	o.notify(t, fmt.Sprintf("Ghost is attempting to use tool: '%s'.", call.Name))

	result, outcome := o.dispatch(ctx, t, call)

	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	o.log.Append(Entry{Role: RoleAssistant, Content: reply, Time: now})
	o.log.Append(Entry{Role: RoleUser, Content: ToolOutputPrefix + result, Time: now})
	return outcome
}

func (o *Orchestrator) dispatch(ctx context.Context, t *turn, call Call) (string, Outcome) {
	tool, ok := o.registry.Resolve(call.Name)
	if !ok {
		t.logger.Warn("unknown tool requested", zap.String("tool", call.Name))
		o.recorder.ObserveToolCall(unknownToolLabel, "unknown", 0)
		return fmt.Sprintf("Assistant requested an unknown tool: '%s'.", call.Name), OutcomeUnknownTool
	}

	// The attached process key is reserved; only the orchestrator sets it.
	params := call.Params.Without(tools.AttachedProcessKey)

	if o.gate != nil && o.gate.RequiresApproval(call.Name) {
		o.notify(t, fmt.Sprintf("Awaiting user confirmation for tool: %s...", call.Name))
		approved, err := askApproval(ctx, o.gate, call.Name, params)
		if err != nil {
			t.logger.Warn("approval failed, treating as denied", zap.String("tool", call.Name), zap.Error(err))
		}
		if !approved {
			o.recorder.ObserveToolCall(call.Name, "denied", 0)
			o.notify(t, fmt.Sprintf("User denied tool: %s.", call.Name))
			return fmt.Sprintf("User denied execution for tool %s.", call.Name), OutcomeDenied
		}
		o.notify(t, fmt.Sprintf("User approved tool: %s. Executing...", call.Name))
	} else {
		o.notify(t, fmt.Sprintf("Executing tool: %s...", call.Name))
	}

	if tools.NeedsAttachedProcess(tool) {
		o.mu.Lock()
		attached := o.attached
		o.mu.Unlock()
		if attached != nil {
			params = params.With(tools.AttachedProcessKey, attached)
		}
	}

	start := time.Now()
	out, err := execute(ctx, tool, params)
	elapsed := time.Since(start)
	if err != nil {
		t.logger.Warn("tool execution failed", zap.String("tool", call.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
		o.recorder.ObserveToolCall(call.Name, "error", elapsed)
		o.notify(t, fmt.Sprintf("Tool '%s' failed.", call.Name))
		return fmt.Sprintf("Error executing tool '%s': %v", call.Name, err), OutcomeFailed
	}

	t.logger.Info("tool executed", zap.String("tool", call.Name), zap.Duration("elapsed", elapsed), zap.Int("bytes", len(out)))
	o.recorder.ObserveToolCall(call.Name, "ok", elapsed)
	o.notify(t, fmt.Sprintf("Tool '%s' result received.", call.Name))
	return out, OutcomeExecuted
}

// askApproval asks the gate, treating a panic as a failed (declined) request.
func askApproval(ctx context.Context, gate Gatekeeper, name string, params tools.Params) (approved bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			approved, err = false, fmt.Errorf("approval panic: %v", r)
		}
	}()
	return gate.RequestApproval(ctx, name, params)
}

// execute runs the tool, converting panics into errors.
func execute(ctx context.Context, tool tools.Tool, params tools.Params) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return tool.Execute(ctx, params)
}

func (o *Orchestrator) addUser(t *turn, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	o.log.Append(Entry{Role: RoleUser, Content: text, Time: now})
	o.show(t, Message{Sender: SenderUser, Content: text, Timestamp: now})
}

// show appends a visible message. Callers hold o.mu.
func (o *Orchestrator) show(t *turn, m Message) {
	o.transcript = append(o.transcript, m)
	t.result.Messages = append(t.result.Messages, m)
}

func (o *Orchestrator) notify(t *turn, notice string) {
	t.result.Notices = append(t.result.Notices, notice)
	if o.onNotice != nil {
		o.onNotice(notice)
	}
}
