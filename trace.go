package rexx

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/itchyny/timefmt-go"
)

// TraceMode is the TRACE setting of a run.
type TraceMode int

// Trace modes.
const (
	TraceOff TraceMode = iota
	TraceNormal
	TraceAll
	TraceResults
	TraceIntermediates
)

func (m TraceMode) String() string {
	switch m {
	case TraceNormal:
		return "NORMAL"
	case TraceResults:
		return "R"
	case TraceIntermediates:
		return "I"
	case TraceAll:
		return "A"
	default:
		return "O"
	}
}

// ParseTraceMode parses a TRACE setting such as "R" or "intermediates".
func ParseTraceMode(s string) (TraceMode, error) {
	m, ok := parseTraceMode(s)
	if !ok {
		return TraceOff, fmt.Errorf("invalid TRACE setting: %q", s)
	}
	return m, nil
}

func parseTraceMode(s string) (TraceMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "O", "OFF":
		return TraceOff, true
	case "N", "NORMAL", "":
		return TraceNormal, true
	case "R", "RESULTS":
		return TraceResults, true
	case "I", "INTERMEDIATES":
		return TraceIntermediates, true
	case "A", "ALL":
		return TraceAll, true
	}
	return TraceOff, false
}

// tracer writes TRACE lines to the host sink and keeps them for
// ExitStatus.TraceLines.
type tracer struct {
	mu    sync.Mutex
	w     io.Writer
	now   func() time.Time
	lines []string
}

// emit records one event: [HH:MM:SS.mmm] MODE:TYPE description => result.
func (t *tracer) emit(mode TraceMode, typ, desc string, result any, hasResult bool) {
	now := t.now()
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(timefmt.Format(now, "%H:%M:%S"))
	fmt.Fprintf(&sb, ".%03d] %s:%s %s", now.Nanosecond()/int(time.Millisecond), mode, typ, desc)
	if hasResult {
		sb.WriteString(" => ")
		sb.WriteString(toString(result, DefaultNumeric()))
	}
	line := sb.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if t.w != nil {
		fmt.Fprintln(t.w, line)
	}
}

func (t *tracer) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
