package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"locode/internal/agent"
	"locode/internal/config"
	"locode/internal/permission"
	"locode/internal/task"
)

// Console is the interactive shell over the coordinator. Each input
// line either runs as the active task's prompt or, with a leading
// slash, drives task and permission management.
type Console struct {
	coord   *agent.Coordinator
	runner  *agent.Runner
	gate    *permission.Gate
	cfg     *config.Config
	styles  *Styles
	render  *glamour.TermRenderer
	in      *bufio.Scanner
	out     io.Writer
	version string
}

// New creates a console over the coordinator, reading from in and
// writing to out.
func New(coord *agent.Coordinator, runner *agent.Runner, gate *permission.Gate, cfg *config.Config, in io.Reader, out io.Writer, version string) *Console {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	return &Console{
		coord:   coord,
		runner:  runner,
		gate:    gate,
		cfg:     cfg,
		styles:  DefaultStyles(),
		render:  renderer,
		in:      bufio.NewScanner(in),
		out:     out,
		version: version,
	}
}

// Run reads input lines until EOF or /quit.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.styles.Banner.Render("locode "+c.version))
	fmt.Fprintln(c.out, c.styles.Muted.Render("model: "+c.cfg.Model.Name+"  /help for commands"))

	for {
		fmt.Fprint(c.out, c.styles.Prompt.Render("> "))
		if !c.in.Scan() {
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := c.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		c.runPrompt(ctx, line)
	}
}

// handleCommand dispatches a slash command. It returns true on /quit.
func (c *Console) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		c.printHelp()
	case "/tasks":
		c.printTasks()
	case "/new":
		tk := c.coord.AddTask()
		fmt.Fprintln(c.out, c.styles.Success.Render("created "+tk.Title()))
	case "/use":
		if len(args) != 1 {
			fmt.Fprintln(c.out, c.styles.Warn.Render("usage: /use <task-id-prefix>"))
			break
		}
		c.selectTask(args[0])
	case "/rm":
		if len(args) != 1 {
			fmt.Fprintln(c.out, c.styles.Warn.Render("usage: /rm <task-id-prefix>"))
			break
		}
		c.removeTask(args[0])
	case "/runall":
		c.runAll(ctx)
		c.printTasks()
	case "/dismiss":
		if err := c.coord.Dismiss(c.coord.Active().ID()); err != nil {
			fmt.Fprintln(c.out, c.styles.Warn.Render(err.Error()))
		} else {
			fmt.Fprintln(c.out, c.styles.Muted.Render("pending tool call dismissed"))
		}
	case "/auto":
		on := !c.runner.AutoRun()
		c.runner.SetAutoRun(on)
		fmt.Fprintln(c.out, c.styles.Muted.Render(fmt.Sprintf("auto-run tools: %v", on)))
	case "/continue":
		on := !c.runner.AutoContinue()
		c.runner.SetAutoContinue(on)
		fmt.Fprintln(c.out, c.styles.Muted.Render(fmt.Sprintf("auto-continue: %v", on)))
	case "/share":
		on := !c.runner.Thread().Shared()
		c.coord.SetSharedThread(on)
		fmt.Fprintln(c.out, c.styles.Muted.Render(fmt.Sprintf("shared thread: %v", on)))
	case "/nolook":
		on := !c.gate.NoLook()
		c.gate.SetNoLook(ctx, on)
		fmt.Fprintln(c.out, c.styles.Warn.Render(fmt.Sprintf("no-look mode: %v", on)))
	case "/context":
		if len(args) == 0 {
			fmt.Fprintln(c.out, c.styles.Warn.Render("usage: /context <file> [file...]"))
			break
		}
		msg := agent.ContextMessage(c.cfg.Tools.WorkDir, args)
		c.runner.Thread().Append(c.coord.Active(), task.Message{Role: task.RoleUser, Content: msg})
		fmt.Fprintln(c.out, c.styles.Muted.Render(fmt.Sprintf("added %d context file(s) to %s", len(args), c.coord.Active().Title())))
	case "/approvals":
		c.resolveApprovals(ctx)
	default:
		fmt.Fprintln(c.out, c.styles.Warn.Render("unknown command, /help for commands"))
	}
	return false
}

// runAll runs every task with a prompt in list order, resolving queued
// approvals after each task so a parked tool call settles before the
// next task appends to the shared thread.
func (c *Console) runAll(ctx context.Context) {
	for _, tk := range c.coord.Tasks() {
		if strings.TrimSpace(tk.Prompt()) == "" {
			continue
		}
		if err := c.coord.Run(ctx, tk.ID()); err != nil {
			fmt.Fprintln(c.out, c.styles.Error.Render(tk.Title()+": "+err.Error()))
		}
		c.resolveApprovals(ctx)
	}
}

// runPrompt runs the line as the active task's prompt.
func (c *Console) runPrompt(ctx context.Context, line string) {
	tk := c.coord.Active()
	tk.SetPrompt(line)

	if err := c.coord.Run(ctx, tk.ID()); err != nil {
		fmt.Fprintln(c.out, c.styles.Error.Render(err.Error()))
	}

	c.resolveApprovals(ctx)
	c.report(tk)
}

// resolveApprovals walks the pending queue and asks the user to resolve
// each approval.
func (c *Console) resolveApprovals(ctx context.Context) {
	for {
		pending := c.gate.Pending()
		if len(pending) == 0 {
			return
		}
		a := pending[0]

		fmt.Fprintln(c.out, c.styles.Tool.Render(
			fmt.Sprintf("approval needed: %s %v", a.Call.Tool, a.Call.Params)))
		fmt.Fprint(c.out, c.styles.Prompt.Render("[y]es once / [n]o once / [a]lways / [d]eny always > "))

		if !c.in.Scan() {
			return
		}
		var res permission.Resolution
		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes":
			res = permission.AllowOnce
		case "n", "no":
			res = permission.DenyOnce
		case "a", "always":
			res = permission.AllowAlways
		case "d", "deny":
			res = permission.DenyAlways
		default:
			fmt.Fprintln(c.out, c.styles.Warn.Render("answer y, n, a or d"))
			continue
		}

		if err := c.gate.Resolve(ctx, a.ID, res); err != nil {
			fmt.Fprintln(c.out, c.styles.Error.Render(err.Error()))
		}
	}
}

// report prints the task outcome, rendering the final reply as markdown.
func (c *Console) report(tk *task.Task) {
	switch tk.Status() {
	case task.StatusFailed:
		fmt.Fprintln(c.out, c.styles.Error.Render(tk.Title()+" failed: "+tk.Err()))
		return
	case task.StatusAwaiting:
		fmt.Fprintln(c.out, c.styles.Warn.Render(tk.Title()+" is awaiting a tool approval"))
		return
	}

	if !c.cfg.Agent.FinalOnly {
		for _, msg := range tk.Messages() {
			if msg.Role == task.RoleTool {
				fmt.Fprintln(c.out, c.styles.Tool.Render("[tool "+msg.Tool+"]"))
			}
		}
	}

	reply := tk.LastAssistant()
	if reply == "" {
		fmt.Fprintln(c.out, c.styles.Muted.Render("(no reply)"))
		return
	}
	if rendered, err := c.render.Render(reply); err == nil {
		fmt.Fprint(c.out, rendered)
	} else {
		fmt.Fprintln(c.out, reply)
	}
}

func (c *Console) printTasks() {
	active := c.coord.Active()
	for _, tk := range c.coord.Tasks() {
		marker := "  "
		if tk == active {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s  %s  [%s]", marker, shortID(tk.ID()), tk.Title(), tk.Status())
		if tk.Status() == task.StatusFailed {
			line += "  " + tk.Err()
		}
		fmt.Fprintln(c.out, c.styles.Muted.Render(line))
	}
}

func (c *Console) selectTask(prefix string) {
	for _, tk := range c.coord.Tasks() {
		if strings.HasPrefix(tk.ID(), prefix) {
			if err := c.coord.SetActive(tk.ID()); err == nil {
				fmt.Fprintln(c.out, c.styles.Success.Render("active: "+tk.Title()))
				return
			}
		}
	}
	fmt.Fprintln(c.out, c.styles.Warn.Render("no task matches "+prefix))
}

func (c *Console) removeTask(prefix string) {
	for _, tk := range c.coord.Tasks() {
		if strings.HasPrefix(tk.ID(), prefix) {
			if err := c.coord.RemoveTask(tk.ID()); err == nil {
				fmt.Fprintln(c.out, c.styles.Success.Render("removed "+tk.Title()))
				return
			}
		}
	}
	fmt.Fprintln(c.out, c.styles.Warn.Render("no task matches "+prefix))
}

func (c *Console) printHelp() {
	help := `/tasks          list tasks
/new            create and select a task
/use <id>       select a task by id prefix
/rm <id>        remove a task by id prefix
/runall         run every task with a prompt
/dismiss        drop the active task's pending tool call
/auto           toggle auto-run for ask-level tools
/continue       toggle continue-until-done
/share          toggle the shared thread
/nolook         toggle no-look mode (auto-approve everything not denied)
/context <f>    add file contents to the active task's conversation
/approvals      resolve queued approvals
/quit           exit`
	fmt.Fprintln(c.out, c.styles.Muted.Render(help))
}

// shortID returns the first eight characters of a task id.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
