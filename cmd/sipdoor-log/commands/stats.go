package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsBySource   map[eventlog.Source]int
	EventsByCategory map[eventlog.Category]int
	Calls            int
	CallsAnswered    int
	CallsCancelled   int
	ButtonPresses    int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// Collect reads the capture file and aggregates statistics.
func Collect(path string) (*Stats, error) {
	reader, err := eventlog.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsBySource:   make(map[eventlog.Source]int),
		EventsByCategory: make(map[eventlog.Category]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsBySource[event.Source]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Call != nil:
			switch event.Call.Kind {
			case eventlog.CallStarted:
				stats.Calls++
				stats.CallsAnswered++
			case eventlog.CallCancelled:
				stats.Calls++
				stats.CallsCancelled++
			}
		case event.Button != nil:
			stats.ButtonPresses++
		case event.Error != nil:
			stats.Errors++
		}
	}

	return stats, nil
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Total events: %d\n", stats.TotalEvents)
	if stats.TotalEvents == 0 {
		return nil
	}

	fmt.Fprintf(w, "Time range:   %s - %s (%s)\n",
		stats.TimeRange.Start.UTC().Format(time.RFC3339),
		stats.TimeRange.End.UTC().Format(time.RFC3339),
		stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))

	fmt.Fprintln(w, "\nBy source:")
	for _, source := range []eventlog.Source{
		eventlog.SourceLink, eventlog.SourceSession,
		eventlog.SourceButton, eventlog.SourceActuator,
	} {
		if n := stats.EventsBySource[source]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", source, n)
		}
	}

	fmt.Fprintln(w, "\nBy category:")
	for _, category := range []eventlog.Category{
		eventlog.CategoryState, eventlog.CategoryCall,
		eventlog.CategoryButton, eventlog.CategoryError,
	} {
		if n := stats.EventsByCategory[category]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", category, n)
		}
	}

	fmt.Fprintf(w, "\nCalls:          %d (%d answered, %d cancelled)\n",
		stats.Calls, stats.CallsAnswered, stats.CallsCancelled)
	fmt.Fprintf(w, "Button presses: %d\n", stats.ButtonPresses)
	fmt.Fprintf(w, "Errors:         %d\n", stats.Errors)
	return nil
}
