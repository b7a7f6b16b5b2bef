package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/session"
	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
)

// console is the interactive command line. It also prints notifications,
// so it doubles as a notify.Sink.
type console struct {
	rl  *readline.Instance
	out io.Writer

	s     *session.Session
	store *settings.Store
}

var _ notify.Sink = (*console)(nil)

func openConsole() (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pager> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{rl: rl, out: rl.Stdout()}, nil
}

// Stderr returns a writer that does not corrupt the prompt.
func (c *console) Stderr() io.Writer {
	if c.rl == nil {
		return os.Stderr
	}
	return c.rl.Stderr()
}

func (c *console) attach(s *session.Session, store *settings.Store) {
	c.s = s
	c.store = store
}

// Close releases the terminal.
func (c *console) Close() {
	if c.rl != nil {
		c.rl.Close()
	}
}

// Run reads commands until ctx ends, the input closes or quit is given.
func (c *console) Run(ctx context.Context, cancel context.CancelFunc) {
	c.printHelp()
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
		if c.execute(line) {
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the console should quit.
func (c *console) execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "alarms", "a":
		c.cmdAlarms()
	case "pending", "p":
		c.cmdPending()
	case "status", "s":
		c.cmdStatus()
	case "get", "settings":
		c.cmdGet(args)
	case "set":
		c.cmdSet(args)
	case "kick":
		c.s.Kick()
		fmt.Fprintln(c.out, "Connection restarted")
	case "network":
		c.s.NetworkAvailable()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `
Pager Commands:
  alarms             - List active alarms
  pending            - List alarms waiting for their escalation delay
  status             - Show connection and login status
  get [key]          - Show settings
  set <key> <value>  - Change a setting (empty value clears it)
  kick               - Restart the connection and register again
  network            - Start the connection if it is not running

  General:
    help             - Show this help
    quit             - Exit`)
}

func (c *console) cmdAlarms() {
	snap := c.s.Alarms()
	if len(snap) == 0 {
		fmt.Fprintln(c.out, "No active alarms")
		return
	}
	for _, id := range snap.IDs() {
		rec := snap[id]
		fmt.Fprintf(c.out, "  %6d  P%d  %s  %-20s %s\n",
			id, rec.Priority, rec.Timestamp.Format(time.TimeOnly), rec.Sender, rec.Message)
	}
}

func (c *console) cmdPending() {
	pending := c.s.PendingAlarms()
	if len(pending) == 0 {
		fmt.Fprintln(c.out, "No pending alarms")
		return
	}
	now := time.Now()
	for _, p := range pending {
		fmt.Fprintf(c.out, "  %6d  due in %-8s %s\n",
			p.ID, p.RemainingTime(now).Round(time.Second), p.Record.Message)
	}
}

func (c *console) cmdStatus() {
	st := c.s.Status()
	dest := st.Destination
	if dest == "" {
		dest = "(none)"
	}
	login := st.LoginName
	if login == "" {
		login = "(not logged in)"
	}
	profiles := "(none)"
	if len(st.Profiles) > 0 {
		profiles = strings.Join(st.Profiles, ", ")
	}

	fmt.Fprintf(c.out, "Destination:  %s\n", dest)
	fmt.Fprintf(c.out, "Connection:   %s (cycles: %d)\n", st.State, st.Cycles)
	if st.SilentFor > 0 {
		fmt.Fprintf(c.out, "Watchdog:     %s (last datagram %s ago)\n", st.Watchdog, st.SilentFor.Round(time.Second))
	} else {
		fmt.Fprintf(c.out, "Watchdog:     %s\n", st.Watchdog)
	}
	fmt.Fprintf(c.out, "Name:         %s\n", st.FriendlyName)
	fmt.Fprintf(c.out, "Heartbeats:   %d\n", st.Heartbeats)
	fmt.Fprintf(c.out, "Login:        %s\n", login)
	fmt.Fprintf(c.out, "Profiles:     %s\n", profiles)
	switch {
	case st.Synced:
		fmt.Fprintf(c.out, "Clock offset: %s\n", st.ClockOffset)
	case st.OffsetKnown:
		fmt.Fprintf(c.out, "Clock offset: %s (previous connection)\n", st.ClockOffset)
	default:
		fmt.Fprintln(c.out, "Clock offset: (not synced)")
	}
	fmt.Fprintf(c.out, "Alarms:       %d active, %d pending\n", st.Active, st.Pending)
}

func (c *console) cmdGet(args []string) {
	values := c.store.All()
	if len(args) > 0 {
		v, ok := values[settings.Key(args[0])]
		if !ok {
			fmt.Fprintf(c.out, "%s is not set\n", args[0])
			return
		}
		fmt.Fprintf(c.out, "%s = %s\n", args[0], displayValue(settings.Key(args[0]), v))
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.out, "  %-20s %s\n", k, displayValue(settings.Key(k), values[settings.Key(k)]))
	}
}

func (c *console) cmdSet(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: set <key> <value>")
		return
	}
	value := strings.Join(args[1:], " ")
	if err := c.store.SetString(args[0], value); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s = %s\n", args[0], displayValue(settings.Key(args[0]), value))
}

// displayValue masks the PIN.
func displayValue(key settings.Key, v string) string {
	if key == settings.LoginPIN && v != "" {
		return strings.Repeat("*", len(v))
	}
	return v
}

// Notify prints the notification above the prompt.
func (c *console) Notify(ch notify.Channel, id int, title, body string) {
	if title == "" {
		fmt.Fprintf(c.out, "[%s %d] %s\n", ch, id, body)
		return
	}
	fmt.Fprintf(c.out, "[%s %d] %s: %s\n", ch, id, title, body)
}

// Cancel prints the withdrawal.
func (c *console) Cancel(id int) {
	fmt.Fprintf(c.out, "[cleared %d]\n", id)
}
