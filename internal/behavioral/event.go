package behavioral

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/TheApexWu/suzerain/internal/models"
)

// Event is one tool call and the user's decision on it.
// Each event belongs to exactly one session and each session to one context.
type Event struct {
	ToolName  string
	ToolClass string

	// Accepted is true when the tool_result carried no error
	Accepted bool

	// Rejected is true when the error text says the call "requires approval".
	// An event with neither flag set is a plain tool failure.
	Rejected bool

	// DecisionTimeMS is response minus request time, never negative
	DecisionTimeMS int64

	// DecisionTimeClamped is set when the delta was negative or a timestamp was missing
	DecisionTimeClamped bool

	// CommandCategory is set for shell tools whose input carried a command.
	// The command text itself is never kept.
	CommandCategory models.CommandCategory

	SessionID      string
	ProjectContext string

	// Timestamp of the response
	Timestamp time.Time
}

// NormalizeToolName strips the server prefix of MCP tools:
// "mcp__github__create_issue" becomes "create_issue".
func NormalizeToolName(name string) string {
	if !strings.HasPrefix(name, "mcp__") {
		return name
	}
	parts := strings.Split(name, "__")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return name
}

// ProjectContext hashes a project directory name into a short opaque id.
func ProjectContext(projectDir string) string {
	sum := sha256.Sum256([]byte(projectDir))
	return hex.EncodeToString(sum[:6])
}
