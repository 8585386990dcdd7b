package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// exportRecord is the JSONL shape of one event.
type exportRecord struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Category  string `json:"category"`

	OldState string `json:"old_state,omitempty"`
	NewState string `json:"new_state,omitempty"`
	Reason   string `json:"reason,omitempty"`

	CallKind string `json:"call_kind,omitempty"`
	CallID   string `json:"call_id,omitempty"`

	Signal     string `json:"signal,omitempty"`
	DurationMS uint32 `json:"duration_ms,omitempty"`

	Error        string `json:"error,omitempty"`
	ErrorContext string `json:"error_context,omitempty"`

	LocalAddr  string `json:"local_addr,omitempty"`
	ServerAddr string `json:"server_addr,omitempty"`
}

// RunExport converts the capture file to JSONL, written to the output
// path or stdout when the path is empty.
func RunExport(path, output string) error {
	reader, err := eventlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return Export(reader, w)
}

// Export streams events from the reader to w as JSONL.
func Export(reader *eventlog.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := enc.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
}

func toRecord(event eventlog.Event) exportRecord {
	rec := exportRecord{
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Source:    event.Source.String(),
		Category:  event.Category.String(),
	}
	switch {
	case event.State != nil:
		rec.OldState = event.State.OldState
		rec.NewState = event.State.NewState
		rec.Reason = event.State.Reason
	case event.Call != nil:
		rec.CallKind = event.Call.Kind.String()
		rec.CallID = event.Call.CallID
		rec.Reason = event.Call.Reason
	case event.Button != nil:
		rec.Signal = event.Button.Signal
		rec.DurationMS = event.Button.DurationMS
	case event.Address != nil:
		rec.LocalAddr = event.Address.LocalAddr
		rec.ServerAddr = event.Address.ServerAddr
	case event.Error != nil:
		rec.Error = event.Error.Message
		rec.ErrorContext = event.Error.Context
	}
	return rec
}
