package permission

import (
	"context"
	"testing"

	"locode/internal/toolcall"
)

func TestEffectiveDenyWins(t *testing.T) {
	policies := DefaultPolicies()
	policies.SetPolicy("run_command", LevelDeny)
	g := NewGate(policies)

	if got := g.Effective("run_command"); got != LevelDeny {
		t.Errorf("effective = %v, want deny", got)
	}
	g.SetNoLook(context.Background(), true)
	if got := g.Effective("run_command"); got != LevelDeny {
		t.Errorf("effective under no-look = %v, want deny", got)
	}
}

func TestEffectiveNoLookMonotonic(t *testing.T) {
	// Enabling no-look never downgrades a decision: allow stays allow,
	// ask becomes allow, deny stays deny.
	policies := &Policies{
		DefaultPolicy: LevelAsk,
		ToolPolicies: map[string]Level{
			"read_file":   LevelAllow,
			"run_command": LevelAsk,
			"write_file":  LevelDeny,
		},
	}
	g := NewGate(policies)

	before := map[string]Level{}
	for _, tool := range []string{"read_file", "run_command", "write_file"} {
		before[tool] = g.Effective(tool)
	}

	g.SetNoLook(context.Background(), true)

	want := map[string]Level{
		"read_file":   LevelAllow,
		"run_command": LevelAllow,
		"write_file":  LevelDeny,
	}
	for tool, w := range want {
		if got := g.Effective(tool); got != w {
			t.Errorf("effective(%s) = %v, want %v (was %v)", tool, got, w, before[tool])
		}
	}
}

func TestEffectiveStoredPolicyVerbatim(t *testing.T) {
	g := NewGate(DefaultPolicies())
	if got := g.Effective("run_command"); got != LevelAsk {
		t.Errorf("effective(run_command) = %v, want ask", got)
	}
	if got := g.Effective("read_file"); got != LevelAllow {
		t.Errorf("effective(read_file) = %v, want allow", got)
	}
	if got := g.Effective("something_else"); got != LevelAsk {
		t.Errorf("effective(unknown) = %v, want default ask", got)
	}
}

func TestQueueFIFOAndResolveRemoves(t *testing.T) {
	g := NewGate(DefaultPolicies())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		g.Request(ctx, &Approval{
			ID:     id,
			Call:   toolcall.Call{Tool: "run_command"},
			Source: SourceConsole,
		})
	}

	pending := g.Pending()
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	for i, id := range []string{"a", "b", "c"} {
		if pending[i].ID != id {
			t.Errorf("pending[%d].ID = %s, want %s", i, pending[i].ID, id)
		}
	}

	// Out-of-order resolution is allowed.
	if err := g.Resolve(ctx, "b", DenyOnce); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(g.Pending()) != 2 {
		t.Errorf("pending = %d, want 2", len(g.Pending()))
	}

	// Resolving the same id twice fails.
	if err := g.Resolve(ctx, "b", AllowOnce); err == nil {
		t.Error("expected error resolving an already-resolved approval")
	}
}

func TestResolveAlwaysUpdatesPolicy(t *testing.T) {
	g := NewGate(DefaultPolicies())
	ctx := context.Background()

	g.Request(ctx, &Approval{ID: "x", Call: toolcall.Call{Tool: "run_command"}, Source: SourceConsole})
	if err := g.Resolve(ctx, "x", DenyAlways); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := g.Policy("run_command"); got != LevelDeny {
		t.Errorf("policy = %v, want deny after deny_always", got)
	}
	if len(g.Pending()) != 0 {
		t.Errorf("queue not empty after resolution")
	}

	g.Request(ctx, &Approval{ID: "y", Call: toolcall.Call{Tool: "write_file"}, Source: SourceConsole})
	if err := g.Resolve(ctx, "y", AllowAlways); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := g.Policy("write_file"); got != LevelAllow {
		t.Errorf("policy = %v, want allow after allow_always", got)
	}
}

func TestNoLookFlushesQueueAsAllowOnce(t *testing.T) {
	g := NewGate(DefaultPolicies())
	ctx := context.Background()

	var resolutions []string
	g.SetHandler(SourceConsole, func(ctx context.Context, a *Approval, allowed bool) error {
		if !allowed {
			t.Errorf("approval %s resolved as denied, want allow_once", a.ID)
		}
		resolutions = append(resolutions, a.ID)
		return nil
	})

	const n = 4
	ids := []string{"q1", "q2", "q3", "q4"}
	for _, id := range ids {
		g.Request(ctx, &Approval{ID: id, Call: toolcall.Call{Tool: "run_command"}, Source: SourceConsole})
	}

	g.SetNoLook(ctx, true)

	if len(g.Pending()) != 0 {
		t.Errorf("pending = %d, want 0 after no-look flush", len(g.Pending()))
	}
	if len(resolutions) != n {
		t.Fatalf("resolutions = %d, want %d", len(resolutions), n)
	}
	for i, id := range ids {
		if resolutions[i] != id {
			t.Errorf("resolution order[%d] = %s, want %s", i, resolutions[i], id)
		}
	}

	// Toggling off does not revisit anything.
	g.SetNoLook(ctx, false)
	if len(resolutions) != n {
		t.Errorf("resolutions changed after no-look off")
	}
}

func TestRequestUnderNoLookResolvesImmediately(t *testing.T) {
	g := NewGate(DefaultPolicies())
	ctx := context.Background()
	g.SetNoLook(ctx, true)

	ran := false
	g.SetHandler(SourceAgent, func(ctx context.Context, a *Approval, allowed bool) error {
		ran = allowed
		return nil
	})

	g.Request(ctx, &Approval{Call: toolcall.Call{Tool: "write_file"}, Source: SourceAgent})
	if !ran {
		t.Error("expected immediate allow_once under no-look")
	}
	if len(g.Pending()) != 0 {
		t.Error("approval should not remain queued under no-look")
	}
}

func TestRemoveTaskCall(t *testing.T) {
	g := NewGate(DefaultPolicies())
	ctx := context.Background()

	g.Request(ctx, &Approval{ID: "1", TaskID: "t1", Call: toolcall.Call{Tool: "run_command"}, Source: SourceAgent})
	g.Request(ctx, &Approval{ID: "2", TaskID: "t2", Call: toolcall.Call{Tool: "run_command"}, Source: SourceAgent})
	g.Request(ctx, &Approval{ID: "3", TaskID: "t1", Call: toolcall.Call{Tool: "write_file"}, Source: SourceAgent})

	if removed := g.RemoveTaskCall("t1", "run_command"); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	pending := g.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != "2" || pending[1].ID != "3" {
		t.Errorf("unexpected queue contents: %v, %v", pending[0].ID, pending[1].ID)
	}
}
