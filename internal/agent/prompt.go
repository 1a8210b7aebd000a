package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"locode/internal/tools"
)

const systemPreamble = `You are a local code agent, a highly skilled software engineer.
You are running on the user's local machine and have direct access to the file system.

Your goal is to help the user build, debug, and understand code.

You have access to the following tools. To use a tool, you MUST output a JSON block in this EXACT format:

` + "```json" + `
{
  "tool": "tool_name",
  "params": {
    "param1": "value1"
  }
}
` + "```" + `

Available Tools:
`

const systemEpilogue = `
If you do not need to use a tool, just respond with normal text.
If you use a tool, STOP generating after the JSON block. The system will execute it and give you the result.
Prefer ` + "`web_search`" + ` when you need fresh or external information.
When the task is complete, reply with a line starting with DONE: followed by a short summary.`

// continuePrompt nudges the model onward between automatic steps.
const continuePrompt = "Continue working on the task. Use a tool if needed. " +
	"When the task is complete, reply with a line starting with DONE: followed by a short summary."

// SystemPrompt renders the agent instructions with the tool list taken
// from the registry's declarations.
func SystemPrompt(registry *tools.Registry) string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)

	for i, decl := range registry.Declarations() {
		fmt.Fprintf(&sb, "%d. `%s`: %s\n", i+1, decl.Name, decl.Description)
		if decl.Parameters == nil || len(decl.Parameters.Properties) == 0 {
			continue
		}

		required := make(map[string]bool, len(decl.Parameters.Required))
		for _, name := range decl.Parameters.Required {
			required[name] = true
		}

		names := make([]string, 0, len(decl.Parameters.Properties))
		for name := range decl.Parameters.Properties {
			names = append(names, name)
		}
		sort.Slice(names, func(a, b int) bool {
			if required[names[a]] != required[names[b]] {
				return required[names[a]]
			}
			return names[a] < names[b]
		})

		parts := make([]string, 0, len(names))
		for _, name := range names {
			schema := decl.Parameters.Properties[name]
			part := fmt.Sprintf("`%s` (%s)", name, strings.ToLower(string(schema.Type)))
			if !required[name] {
				part += " (optional)"
			}
			parts = append(parts, part)
		}
		fmt.Fprintf(&sb, "    params: %s\n", strings.Join(parts, ", "))
	}

	sb.WriteString(systemEpilogue)
	return sb.String()
}

// ContextMessage reads the given files and formats them as a context
// block for the conversation. Unreadable files are reported inline so a
// bad path does not abort the whole message.
func ContextMessage(baseDir string, files []string) string {
	if len(files) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Context Files:\n")
	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(&sb, "## %s\n(could not read: %s)\n\n", file, err)
			continue
		}
		fmt.Fprintf(&sb, "## %s\n%s\n\n", file, string(data))
	}
	return strings.TrimRight(sb.String(), "\n")
}
