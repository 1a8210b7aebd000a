package permission

// Level represents the permission level for a tool.
type Level string

const (
	// LevelAllow allows the tool to execute without asking.
	LevelAllow Level = "allow"
	// LevelAsk queues an approval before executing.
	LevelAsk Level = "ask"
	// LevelDeny denies execution of the tool.
	LevelDeny Level = "deny"
)

// ParseLevel converts a string to a Level, defaulting to ask.
func ParseLevel(s string) Level {
	switch s {
	case "allow":
		return LevelAllow
	case "deny":
		return LevelDeny
	default:
		return LevelAsk
	}
}

// Policies holds the per-tool permission policy table.
type Policies struct {
	DefaultPolicy Level
	ToolPolicies  map[string]Level
}

// DefaultPolicies returns the default policy table: read-only and search
// tools are allowed, anything that mutates files or runs commands asks.
func DefaultPolicies() *Policies {
	return &Policies{
		DefaultPolicy: LevelAsk,
		ToolPolicies: map[string]Level{
			"read_file":  LevelAllow,
			"list_files": LevelAllow,
			"web_search": LevelAllow,

			"write_file":  LevelAsk,
			"run_command": LevelAsk,
		},
	}
}

// NewPoliciesFromConfig creates a policy table from config strings.
func NewPoliciesFromConfig(defaultPolicy string, toolPolicies map[string]string) *Policies {
	p := &Policies{
		DefaultPolicy: ParseLevel(defaultPolicy),
		ToolPolicies:  make(map[string]Level),
	}
	for tool, policy := range toolPolicies {
		p.ToolPolicies[tool] = ParseLevel(policy)
	}
	return p
}

// GetPolicy returns the stored permission level for a tool.
func (p *Policies) GetPolicy(toolName string) Level {
	if policy, ok := p.ToolPolicies[toolName]; ok {
		return policy
	}
	return p.DefaultPolicy
}

// SetPolicy sets the permission level for a tool.
func (p *Policies) SetPolicy(toolName string, level Level) {
	if p.ToolPolicies == nil {
		p.ToolPolicies = make(map[string]Level)
	}
	p.ToolPolicies[toolName] = level
}
