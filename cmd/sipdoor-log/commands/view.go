// Package commands implements the sipdoor-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Source   *eventlog.Source
	Category *eventlog.Category
}

// ParseSourceFlag converts a -source flag value to an event source.
func ParseSourceFlag(s string) (eventlog.Source, error) {
	switch strings.ToLower(s) {
	case "link":
		return eventlog.SourceLink, nil
	case "session":
		return eventlog.SourceSession, nil
	case "button":
		return eventlog.SourceButton, nil
	case "actuator":
		return eventlog.SourceActuator, nil
	default:
		return 0, fmt.Errorf("unknown source %q (want link, session, button or actuator)", s)
	}
}

// ParseCategoryFlag converts a -category flag value to an event category.
func ParseCategoryFlag(s string) (eventlog.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return eventlog.CategoryState, nil
	case "call":
		return eventlog.CategoryCall, nil
	case "button":
		return eventlog.CategoryButton, nil
	case "error":
		return eventlog.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (want state, call, button or error)", s)
	}
}

// RunView reads the capture file and writes matching events to w in
// human-readable format.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	reader, err := eventlog.NewFilteredReader(path, eventlog.Filter{
		Source:   filter.Source,
		Category: filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event eventlog.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	fmt.Fprintf(w, "%s %-8s %s\n", ts, event.Source, describe(event))
}

func describe(event eventlog.Event) string {
	switch {
	case event.State != nil:
		s := fmt.Sprintf("state %s -> %s", event.State.OldState, event.State.NewState)
		if event.State.Reason != "" {
			s += " (" + event.State.Reason + ")"
		}
		return s

	case event.Call != nil:
		s := "call " + event.Call.Kind.String()
		if event.Call.CallID != "" {
			s += " id=" + event.Call.CallID
		}
		if event.Call.Reason != "" {
			s += " reason=" + event.Call.Reason
		}
		return s

	case event.Button != nil:
		s := "button " + event.Button.Signal
		if event.Button.DurationMS > 0 {
			s += fmt.Sprintf(" duration=%dms", event.Button.DurationMS)
		}
		return s

	case event.Address != nil:
		s := "link up local=" + event.Address.LocalAddr
		if event.Address.ServerAddr != "" {
			s += " server=" + event.Address.ServerAddr
		}
		return s

	case event.Error != nil:
		s := "error " + event.Error.Message
		if event.Error.Context != "" {
			s += " in " + event.Error.Context
		}
		return s

	default:
		return "unknown"
	}
}
