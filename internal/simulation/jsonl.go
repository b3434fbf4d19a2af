package simulation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TheApexWu/suzerain/internal/models"
)

type logRecord struct {
	Type      string     `json:"type"`
	SessionID string     `json:"sessionId"`
	Timestamp string     `json:"timestamp"`
	Message   logMessage `json:"message"`
}

type logMessage struct {
	Role    string     `json:"role"`
	Content []logBlock `json:"content"`
}

type logBlock struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// sampleCommands stands in for a shell command of each category
var sampleCommands = map[models.CommandCategory]string{
	models.CommandDestructive:   "rm -rf build",
	models.CommandStateChanging: "git commit -am wip",
	models.CommandReadOnly:      "git status",
	models.CommandUnknown:       "go test ./...",
}

// WriteJSONL writes sessions as <dir>/<project>/<session id>.jsonl in the
// Claude Code log layout so they can be parsed like real logs. It returns
// the number of files written.
func WriteJSONL(dir string, sessions []Session) (int, error) {
	written := 0
	for _, sess := range sessions {
		projectDir := filepath.Join(dir, sess.Project)
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return written, fmt.Errorf("failed to create project directory: %w", err)
		}
		path := filepath.Join(projectDir, sess.ID+".jsonl")
		if err := writeSession(path, sess); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func writeSession(path string, sess Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, ev := range sess.Events {
		toolID := fmt.Sprintf("toolu_sim_%s_%04d", sess.ID[:8], i)
		requested := ev.Timestamp.Add(-time.Duration(ev.DecisionTimeMS) * time.Millisecond)

		input := map[string]any{"simulated": true}
		if cmd, ok := sampleCommands[ev.CommandCategory]; ok {
			input = map[string]any{"command": cmd}
		}

		request := logRecord{
			Type:      "assistant",
			SessionID: sess.ID,
			Timestamp: requested.UTC().Format(time.RFC3339Nano),
			Message: logMessage{Role: "assistant", Content: []logBlock{{
				Type:  "tool_use",
				ID:    toolID,
				Name:  ev.ToolName,
				Input: input,
			}}},
		}

		result := logBlock{Type: "tool_result", ToolUseID: toolID, Content: "Simulated " + ev.ToolName + " result"}
		if !ev.Accepted {
			result.IsError = true
			result.Content = "Tool " + ev.ToolName + " requires approval. User rejected."
		}
		response := logRecord{
			Type:      "user",
			SessionID: sess.ID,
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
			Message:   logMessage{Role: "user", Content: []logBlock{result}},
		}

		if err := enc.Encode(request); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		if err := enc.Encode(response); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
