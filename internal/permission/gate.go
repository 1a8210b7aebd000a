package permission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"locode/internal/logging"
)

// Handler executes (or rejects) the operation behind a resolved approval.
// allowed is false for deny resolutions; the handler decides what a
// denial means for its source (an agent approval fails its task, a
// console approval just reports).
type Handler func(ctx context.Context, a *Approval, allowed bool) error

// Gate maps tool names to effective permission decisions and owns the
// FIFO queue of pending approvals. It is the single holder of permission
// state; nothing here is ambient or global.
type Gate struct {
	policies *Policies
	noLook   bool

	queue    []*Approval
	handlers map[Source]Handler

	mu sync.RWMutex
}

// NewGate creates a gate over the given policy table.
func NewGate(policies *Policies) *Gate {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Gate{
		policies: policies,
		handlers: make(map[Source]Handler),
	}
}

// SetHandler registers the resolution handler for a source.
func (g *Gate) SetHandler(source Source, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[source] = h
}

// Effective returns the effective decision for a tool. Deny wins
// unconditionally; otherwise no-look mode upgrades everything to allow;
// otherwise the stored policy applies verbatim.
func (g *Gate) Effective(toolName string) Level {
	g.mu.RLock()
	defer g.mu.RUnlock()

	policy := g.policies.GetPolicy(toolName)
	if policy == LevelDeny {
		return LevelDeny
	}
	if g.noLook {
		return LevelAllow
	}
	return policy
}

// SetPolicy updates the stored policy for a tool.
func (g *Gate) SetPolicy(toolName string, level Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies.SetPolicy(toolName, level)
}

// Policy returns the stored (not effective) policy for a tool.
func (g *Gate) Policy(toolName string) Level {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.policies.GetPolicy(toolName)
}

// ReplacePolicies swaps in a new policy table, e.g. after a config reload.
func (g *Gate) ReplacePolicies(policies *Policies) {
	if policies == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies = policies
}

// NoLook reports whether no-look mode is active.
func (g *Gate) NoLook() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.noLook
}

// SetNoLook toggles no-look mode. Turning it on resolves every queued
// approval as allow_once, in queue order; turning it off leaves
// already-granted approvals alone.
func (g *Gate) SetNoLook(ctx context.Context, on bool) {
	g.mu.Lock()
	g.noLook = on
	var flush []*Approval
	if on && len(g.queue) > 0 {
		flush = g.queue
		g.queue = nil
	}
	g.mu.Unlock()

	if len(flush) == 0 {
		return
	}
	logging.Info("no-look enabled, flushing approval queue", "pending", len(flush))
	for _, a := range flush {
		g.dispatch(ctx, a, AllowOnce)
	}
}

// Request appends an approval to the pending queue. Missing ID and
// timestamp are filled in. In no-look mode the request resolves
// immediately as allow_once unless the tool is denied by policy.
func (g *Gate) Request(ctx context.Context, a *Approval) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	g.mu.Lock()
	if g.noLook && g.policies.GetPolicy(a.Call.Tool) != LevelDeny {
		g.mu.Unlock()
		g.dispatch(ctx, a, AllowOnce)
		return
	}
	g.queue = append(g.queue, a)
	g.mu.Unlock()

	logging.Debug("approval queued",
		"id", a.ID,
		"tool", a.Call.Tool,
		"task_id", a.TaskID,
		"source", a.Source)
}

// Pending returns the queued approvals in FIFO order.
func (g *Gate) Pending() []*Approval {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Approval, len(g.queue))
	copy(out, g.queue)
	return out
}

// Resolve removes the approval with the given id from the queue and
// applies the resolution: always-variants update the policy table first,
// then the source handler runs the operation or records the denial.
// Resolving an unknown id is an error; an approval can never be resolved
// twice.
func (g *Gate) Resolve(ctx context.Context, id string, res Resolution) error {
	g.mu.Lock()
	var approval *Approval
	for i, a := range g.queue {
		if a.ID == id {
			approval = a
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			break
		}
	}
	if approval == nil {
		g.mu.Unlock()
		return fmt.Errorf("no pending approval with id %s", id)
	}
	switch res {
	case AllowAlways:
		g.policies.SetPolicy(approval.Call.Tool, LevelAllow)
	case DenyAlways:
		g.policies.SetPolicy(approval.Call.Tool, LevelDeny)
	}
	g.mu.Unlock()

	return g.dispatch(ctx, approval, res)
}

// RemoveTaskCall removes queued approvals matching a (task, tool) pair,
// returning how many were removed. Used when a pending call is dismissed.
func (g *Gate) RemoveTaskCall(taskID, toolName string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.queue[:0]
	removed := 0
	for _, a := range g.queue {
		if a.TaskID == taskID && a.Call.Tool == toolName {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	g.queue = kept
	return removed
}

func (g *Gate) dispatch(ctx context.Context, a *Approval, res Resolution) error {
	g.mu.RLock()
	handler := g.handlers[a.Source]
	g.mu.RUnlock()

	logging.Info("approval resolved",
		"id", a.ID,
		"tool", a.Call.Tool,
		"resolution", res.String())

	if handler == nil {
		return nil
	}
	return handler(ctx, a, res.Allowed())
}
