package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"refactory/internal/refactor"
)

// Sink writes rendered outcome reports to a writer and, when enabled,
// accepted candidates back to disk next to their originals. Publish is
// safe for concurrent use.
type Sink struct {
	mu            sync.Mutex
	w             io.Writer
	writeAccepted bool
	pretty        bool
	log           *zap.Logger
}

// NewSink builds a sink writing reports to w. When writeAccepted is set,
// accepted candidates are saved as "<path>.refactored". pretty enables
// terminal rendering of the markdown.
func NewSink(w io.Writer, writeAccepted, pretty bool, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{w: w, writeAccepted: writeAccepted, pretty: pretty, log: log.Named("sink")}
}

// Publish implements refactor.ResultSink.
func (s *Sink) Publish(_ context.Context, out *refactor.Outcome) error {
	md := Format(out)
	if s.pretty {
		md = Render(md)
	}

	s.mu.Lock()
	_, err := fmt.Fprintln(s.w, md)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if s.writeAccepted && out.State == refactor.StateAccepted {
		dest := out.Path + ".refactored"
		if err := os.WriteFile(dest, []byte(out.Candidate+"\n"), 0o644); err != nil {
			return fmt.Errorf("write candidate: %w", err)
		}
		s.log.Info("wrote accepted candidate", zap.String("path", dest))
	}
	return nil
}
