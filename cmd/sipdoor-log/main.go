// Command sipdoor-log is a tool for viewing and analyzing doorbell
// event capture files.
//
// Capture files are created by sipdoord when an event log path is
// configured.
//
// Usage:
//
//	sipdoor-log <command> [flags] <file.dlog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL format
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	sipdoor-log view doorbell.dlog
//
//	# View only session events
//	sipdoor-log view --source session doorbell.dlog
//
//	# View only call activity
//	sipdoor-log view --category call doorbell.dlog
//
//	# Export to JSONL
//	sipdoor-log export -o doorbell.jsonl doorbell.dlog
//
//	# Show statistics
//	sipdoor-log stats doorbell.dlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sipdoor/sipdoor-go/cmd/sipdoor-log/commands"
)

const usage = `sipdoor-log - Doorbell Event Capture Analyzer

Usage:
  sipdoor-log <command> [flags] <file.dlog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL format
  stats    Show statistics about the capture file

Use "sipdoor-log <command> -help" for more information about a command.
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

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `sipdoor-log view - View capture file in human-readable format

Usage:
  sipdoor-log view [flags] <file.dlog>

Flags:
`)
		fs.PrintDefaults()
	}

	source := fs.String("source", "", "Filter by source (link, session, button, actuator)")
	category := fs.String("category", "", "Filter by category (state, call, button, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	var filter commands.ViewFilter
	if *source != "" {
		s, err := commands.ParseSourceFlag(*source)
		if err != nil {
			fatal(err)
		}
		filter.Source = &s
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `sipdoor-log export - Export capture file to JSONL format

Usage:
  sipdoor-log export [flags] <file.dlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *output); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `sipdoor-log stats - Show statistics about the capture file

Usage:
  sipdoor-log stats <file.dlog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
