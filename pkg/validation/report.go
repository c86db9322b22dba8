package validation

import (
	"strconv"
	"strings"
)

// Locations reported in MessageContext.
const (
	LocationRequest  = "REQUEST"
	LocationResponse = "RESPONSE"
)

// MessageContext describes where a message was raised.
type MessageContext struct {
	Method         string
	Path           string
	Location       string
	Parameter      string
	Pointer        string
	ResponseStatus int
}

// String renders the context as comma separated key=value pairs. Empty
// fields are omitted.
func (c *MessageContext) String() string {
	if c == nil {
		return ""
	}
	var parts []string
	if c.Method != "" || c.Path != "" {
		parts = append(parts, strings.TrimSpace(c.Method+" "+c.Path))
	}
	if c.Location != "" {
		parts = append(parts, "location="+c.Location)
	}
	if c.ResponseStatus != 0 {
		parts = append(parts, "status="+strconv.Itoa(c.ResponseStatus))
	}
	if c.Parameter != "" {
		parts = append(parts, "parameter="+c.Parameter)
	}
	if c.Pointer != "" {
		parts = append(parts, "pointer="+c.Pointer)
	}
	return strings.Join(parts, ", ")
}

// Message is a single validation finding.
type Message struct {
	Key     string
	Level   Level
	Message string
	Context *MessageContext
}

// Report is the ordered outcome of one validation call.
type Report struct {
	Messages []Message
}

// HasErrors reports whether any message is at ERROR level.
func (r *Report) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, m := range r.Messages {
		if m.Level == LevelError {
			return true
		}
	}
	return false
}

// Render formats the report as a banner line followed by one line per
// message: "- [LEVEL] message (context)".
func (r *Report) Render(banner string) string {
	var sb strings.Builder
	sb.WriteString(banner)
	if r == nil {
		return sb.String()
	}
	for _, m := range r.Messages {
		if m.Level == LevelIgnore {
			continue
		}
		sb.WriteString("\n- [")
		sb.WriteString(string(m.Level))
		sb.WriteString("] ")
		sb.WriteString(m.Message)
		if ctx := m.Context.String(); ctx != "" {
			sb.WriteString(" (")
			sb.WriteString(ctx)
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// reportBuilder resolves levels as messages are added and drops ignored ones.
type reportBuilder struct {
	levels *LevelResolver
	report *Report
}

func newReportBuilder(levels *LevelResolver) *reportBuilder {
	return &reportBuilder{levels: levels, report: &Report{}}
}

func (b *reportBuilder) add(key, message string, ctx *MessageContext) Level {
	level := b.levels.Resolve(key, LevelError)
	if level == LevelIgnore {
		return level
	}
	b.report.Messages = append(b.report.Messages, Message{
		Key:     key,
		Level:   level,
		Message: message,
		Context: ctx,
	})
	return level
}
