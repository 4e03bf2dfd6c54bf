// Package approval gates state-changing tools behind a human yes/no decision.
package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ghost/internal/tools"

	"go.uber.org/zap"
)

// DefaultGated lists the built-in tools that mutate persistent state.
var DefaultGated = []string{
	"create_file",
	"write_file",
	"move_file",
	"copy_file",
	"delete_file",
	"create_directory",
}

// Policy is the static table of tools requiring confirmation.
type Policy struct {
	gated map[string]struct{}
}

// NewPolicy returns the default policy plus any extra tool names.
func NewPolicy(extra ...string) *Policy {
	p := &Policy{gated: make(map[string]struct{}, len(DefaultGated)+len(extra))}
	for _, name := range DefaultGated {
		p.gated[name] = struct{}{}
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			p.gated[name] = struct{}{}
		}
	}
	return p
}

// RequiresApproval reports whether name must be confirmed before running.
func (p *Policy) RequiresApproval(name string) bool {
	_, ok := p.gated[name]
	return ok
}

// Gated returns the gated tool names in sorted order.
func (p *Policy) Gated() []string {
	out := make([]string, 0, len(p.gated))
	for name := range p.gated {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Request describes a pending tool call awaiting a decision.
type Request struct {
	Tool    string
	Params  tools.Params
	Summary string
}

// Approver obtains a decision from the human. Implementations may block
// until the user answers or ctx is done.
type Approver interface {
	RequestApproval(ctx context.Context, req Request) (bool, error)
}

// Func adapts a function to the Approver interface.
type Func func(ctx context.Context, req Request) (bool, error)

func (f Func) RequestApproval(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// Always returns an Approver that answers every request with decision.
func Always(decision bool) Approver {
	return Func(func(ctx context.Context, req Request) (bool, error) {
		return decision, nil
	})
}

// Gate combines a Policy with the Approver that enforces it.
type Gate struct {
	policy   *Policy
	approver Approver
	logger   *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a gate. A nil approver declines everything.
func NewGate(policy *Policy, approver Approver, opts ...Option) *Gate {
	if policy == nil {
		policy = NewPolicy()
	}
	if approver == nil {
		approver = Always(false)
	}
	g := &Gate{policy: policy, approver: approver, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequiresApproval reports whether name is gated.
func (g *Gate) RequiresApproval(name string) bool {
	return g.policy.RequiresApproval(name)
}

// Policy returns the gate's policy.
func (g *Gate) Policy() *Policy {
	return g.policy
}

// RequestApproval asks the human about a pending call. Cancellation and
// approver failures count as a decline; the error is returned for logging.
func (g *Gate) RequestApproval(ctx context.Context, name string, params tools.Params) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	req := Request{Tool: name, Params: params, Summary: Summary(name, params)}
	ok, err := g.approver.RequestApproval(ctx, req)
	if err != nil {
		g.logger.Warn("approval request failed", zap.String("tool", name), zap.Error(err))
		return false, err
	}
	g.logger.Info("approval decision", zap.String("tool", name), zap.Bool("approved", ok))
	return ok, nil
}

// Summary renders a pending call for the confirmation prompt.
func Summary(name string, params tools.Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ghost wants to use tool: '%s'.\n", name)

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == tools.AttachedProcessKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("\nParameters:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, renderValue(params[k]))
		}
	}
	b.WriteString("\nDo you approve?")
	return b.String()
}

func renderValue(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
