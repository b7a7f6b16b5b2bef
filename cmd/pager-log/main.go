// Command pager-log is a tool for viewing and analyzing pager capture files.
//
// Capture files are written by dcare-pager when run with the -capture flag.
//
// Usage:
//
//	pager-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	pager-log view pager.plog
//
//	# View only incoming datagrams
//	pager-log view --category datagram --direction in pager.plog
//
//	# Follow one alarm through arm, delay and clear
//	pager-log view --alarm 12034 pager.plog
//
//	# Export to CSV
//	pager-log export --format csv -o pager.csv pager.plog
//
//	# Keep one connection cycle
//	pager-log filter --conn-id 3f2a9c1e -o cycle.plog pager.plog
//
//	# Show statistics
//	pager-log stats pager.plog
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/poltys-apps/dcare-pager-gw/cmd/pager-log/commands"
)

const usage = `pager-log - Pager Capture Analyzer

Usage:
  pager-log <command> [flags] <file.plog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "pager-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// pathArg returns the single positional argument or exits.
func pathArg(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pager-log view - View capture file in human-readable format

Usage:
  pager-log view [flags] <file.plog>

Flags:
`)
		fs.PrintDefaults()
	}

	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (datagram, alert, state, error)")
	alarm := fs.String("alarm", "", "Filter alert events by local alarm id")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := pathArg(fs)

	var filter commands.ViewFilter
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}
	if *alarm != "" {
		id, err := strconv.Atoi(*alarm)
		if err != nil {
			fatal(fmt.Errorf("invalid alarm id: %s", *alarm))
		}
		filter.LocalID = &id
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pager-log export - Export capture file to JSON or CSV format

Usage:
  pager-log export [flags] <file.plog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := pathArg(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pager-log filter - Filter capture file and write to new file

Usage:
  pager-log filter [flags] <file.plog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (datagram, alert, state, error)")
	alarm := fs.String("alarm", "", "Filter alert events by local alarm id")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := pathArg(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		ConnID:    *connID,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Direction: *direction,
		Category:  *category,
		LocalID:   *alarm,
	}
	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pager-log stats - Show statistics about the capture file

Usage:
  pager-log stats <file.plog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := pathArg(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
