package behavioral

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/logger"
	"github.com/TheApexWu/suzerain/internal/models"
)

// maxLineSize bounds a single JSONL record; tool outputs can be large.
const maxLineSize = 10 * 1024 * 1024

// Record is one decoded line of a Claude Code session log.
// Unknown fields are ignored.
type Record struct {
	Line      int      `json:"-"`
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Message   *Message `json:"message"`
}

// Message is the message envelope of assistant and user records
type Message struct {
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock covers the tool_use and tool_result block shapes
type ContentBlock struct {
	Type string `json:"type"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// ParsedSession is the outcome of parsing one session log
type ParsedSession struct {
	ID       string
	Context  string
	Events   []Event
	Warnings []Warning
	Quality  DataQuality
}

// Empty reports whether the session produced no valid events.
// Empty sessions are reported but excluded from aggregation.
func (s *ParsedSession) Empty() bool {
	return len(s.Events) == 0
}

// Parser correlates tool requests with responses
type Parser struct {
	classes map[string]string
	log     logger.Logger
}

// NewParser creates a parser that classifies tools with the given
// tool-name to tool-class map and reports warnings to log (nil discards).
func NewParser(toolClasses map[string]string, log logger.Logger) *Parser {
	if log == nil {
		log = logger.Nop
	}
	return &Parser{classes: toolClasses, log: log}
}

// ParseFile parses one session file. The session id is the file name
// without extension and the context is derived from the parent directory.
func (p *Parser) ParseFile(path string) (*ParsedSession, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	sessionID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	context := ProjectContext(filepath.Base(filepath.Dir(path)))
	return p.ParseReader(sessionID, context, file)
}

// ParseReader parses a JSONL stream. Malformed and oversize lines are
// skipped with a warning; only a read failure is returned as an error.
func (p *Parser) ParseReader(sessionID, projectContext string, r io.Reader) (*ParsedSession, error) {
	b := p.newBuilder(sessionID, projectContext)
	reader := bufio.NewReaderSize(r, 64*1024)

	var records []Record
	lineNum := 0
	for {
		raw, oversize, err := readLine(reader)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading session %s: %w", sessionID, err)
		}
		if err == io.EOF && len(raw) == 0 && !oversize {
			break
		}
		lineNum++

		if oversize {
			b.warn(WarnMalformedRecord, lineNum, fmt.Sprintf("record exceeds %d bytes", maxLineSize))
		} else if line := bytes.TrimSpace(raw); len(line) > 0 {
			var rec Record
			if jerr := json.Unmarshal(line, &rec); jerr != nil {
				b.warn(WarnMalformedRecord, lineNum, "invalid JSON")
			} else {
				rec.Line = lineNum
				records = append(records, rec)
			}
		}

		if err == io.EOF {
			break
		}
	}

	for _, rec := range records {
		b.consume(rec)
	}
	return b.finish(), nil
}

// readLine returns the next line including its newline. A line longer than
// maxLineSize is consumed to its end and reported as oversize with no data.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	oversize := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversize {
			if len(line)+len(chunk) > maxLineSize {
				oversize = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, oversize, err
	}
}

// ParseRecords parses records that were already decoded.
func (p *Parser) ParseRecords(sessionID, projectContext string, records []Record) *ParsedSession {
	b := p.newBuilder(sessionID, projectContext)
	for _, rec := range records {
		b.consume(rec)
	}
	return b.finish()
}

// toolClass maps a normalised tool name onto its configured class
func (p *Parser) toolClass(name string) string {
	if class, ok := p.classes[name]; ok {
		return class
	}
	return config.ClassOther
}

// commandCategory classifies the command of a shell tool call. Only the
// category leaves this function.
func (p *Parser) commandCategory(tool string, input json.RawMessage) models.CommandCategory {
	if p.toolClass(tool) != config.ClassShell || len(input) == 0 {
		return ""
	}
	var in struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Command == "" {
		return ""
	}
	return ClassifyCommand(in.Command)
}

type pendingCall struct {
	name     string
	category models.CommandCategory
	line     int
	ts       time.Time
	hasTS    bool
}

// sessionBuilder holds the per-session correlation state
type sessionBuilder struct {
	p       *Parser
	session *ParsedSession
	pending map[string]pendingCall
	order   []string
}

func (p *Parser) newBuilder(sessionID, projectContext string) *sessionBuilder {
	return &sessionBuilder{
		p: p,
		session: &ParsedSession{
			ID:      sessionID,
			Context: projectContext,
			Quality: make(DataQuality),
		},
		pending: make(map[string]pendingCall),
	}
}

func (b *sessionBuilder) warn(kind WarningKind, line int, detail string) {
	w := Warning{Kind: kind, SessionID: b.session.ID, Line: line, Detail: detail}
	b.session.Warnings = append(b.session.Warnings, w)
	b.session.Quality.Add(kind)
	b.p.log.LogWarn(w.String())
}

func (b *sessionBuilder) consume(rec Record) {
	switch rec.Type {
	case "assistant":
		b.consumeRequests(rec)
	case "user":
		b.consumeResponses(rec)
	case "":
		b.warn(WarnMissingField, rec.Line, "record has no type")
	default:
		// summary, system, file-history-snapshot and friends carry no decisions
	}
}

// contentBlocks decodes message content. Plain string content (a typed
// prompt or a text reply) has no blocks.
func contentBlocks(msg *Message) []ContentBlock {
	if msg == nil || len(msg.Content) == 0 || msg.Content[0] != '[' {
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return nil
	}
	return blocks
}

func (b *sessionBuilder) consumeRequests(rec Record) {
	if rec.Message == nil {
		b.warn(WarnMissingField, rec.Line, "assistant record has no message")
		return
	}
	ts, hasTS := parseTimestamp(rec.Timestamp)

	for _, block := range contentBlocks(rec.Message) {
		if block.Type != "tool_use" {
			continue
		}
		if block.ID == "" || block.Name == "" {
			b.warn(WarnMissingField, rec.Line, "tool_use without id or name")
			continue
		}
		if prev, dup := b.pending[block.ID]; dup {
			b.warn(WarnUnmatchedRequest, prev.line, fmt.Sprintf("tool_use %s (%s) superseded before a response", block.ID, prev.name))
		} else {
			b.order = append(b.order, block.ID)
		}
		name := NormalizeToolName(block.Name)
		b.pending[block.ID] = pendingCall{
			name:     name,
			category: b.p.commandCategory(name, block.Input),
			line:     rec.Line,
			ts:       ts,
			hasTS:    hasTS,
		}
	}
}

func (b *sessionBuilder) consumeResponses(rec Record) {
	if rec.Message == nil {
		b.warn(WarnMissingField, rec.Line, "user record has no message")
		return
	}
	ts, hasTS := parseTimestamp(rec.Timestamp)

	for _, block := range contentBlocks(rec.Message) {
		if block.Type != "tool_result" {
			continue
		}
		if block.ToolUseID == "" {
			b.warn(WarnMissingField, rec.Line, "tool_result without tool_use_id")
			continue
		}
		req, ok := b.pending[block.ToolUseID]
		if !ok {
			b.warn(WarnOrphanResponse, rec.Line, fmt.Sprintf("tool_result for unknown tool_use %s", block.ToolUseID))
			continue
		}
		delete(b.pending, block.ToolUseID)

		event := Event{
			ToolName:        req.name,
			ToolClass:       b.p.toolClass(req.name),
			Accepted:        !block.IsError,
			Rejected:        block.IsError && isApprovalDenial(block.Content),
			CommandCategory: req.category,
			SessionID:       b.session.ID,
			ProjectContext:  b.session.Context,
			Timestamp:       ts,
		}
		if !hasTS {
			event.Timestamp = req.ts
		}

		switch {
		case !hasTS || !req.hasTS:
			event.DecisionTimeClamped = true
			b.warn(WarnMissingTimestamp, rec.Line, fmt.Sprintf("%s decision time unknown, using 0", req.name))
		case ts.Before(req.ts):
			event.DecisionTimeClamped = true
			b.warn(WarnNegativeDecisionTime, rec.Line, fmt.Sprintf("%s response precedes request by %s", req.name, req.ts.Sub(ts)))
		default:
			event.DecisionTimeMS = ts.Sub(req.ts).Milliseconds()
		}

		b.session.Events = append(b.session.Events, event)
	}
}

func (b *sessionBuilder) finish() *ParsedSession {
	for _, id := range b.order {
		req, ok := b.pending[id]
		if !ok {
			continue
		}
		delete(b.pending, id)
		b.warn(WarnUnmatchedRequest, req.line, fmt.Sprintf("tool_use %s (%s) has no response", id, req.name))
	}
	return b.session
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// isApprovalDenial reports whether an error result is a governance
// rejection. Content is either a string or a list of text blocks; it is
// inspected here and never retained.
func isApprovalDenial(content json.RawMessage) bool {
	if len(content) == 0 {
		return false
	}

	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		var blocks []struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(content, &blocks); err == nil {
			parts := make([]string, 0, len(blocks))
			for _, blk := range blocks {
				parts = append(parts, blk.Text)
			}
			text = strings.Join(parts, " ")
		} else {
			text = string(content)
		}
	}
	return strings.Contains(strings.ToLower(text), "requires approval")
}
