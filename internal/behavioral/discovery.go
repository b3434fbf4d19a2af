package behavioral

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TheApexWu/suzerain/internal/config"
)

// SessionInfo describes a discovered session file
type SessionInfo struct {
	Project   string    // Project directory name; stays local, never reported
	Context   string    // Hashed project context
	SessionID string    // File name without .jsonl
	Path      string    // Absolute path to the file
	ModTime   time.Time // File modification time
	Size      int64     // File size in bytes
}

// DiscoverSessions lists <root>/<project>/*.jsonl, newest first.
// Sub-agent transcripts (agent-*.jsonl) are skipped. A non-empty
// projectFilter keeps projects whose directory name contains it,
// case-insensitively.
func DiscoverSessions(root, projectFilter string) ([]SessionInfo, error) {
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return nil, err
	}

	projects, err := os.ReadDir(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs directory %s: %w", expanded, err)
	}

	filter := strings.ToLower(projectFilter)
	var sessions []SessionInfo
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(project.Name()), filter) {
			continue
		}

		projectDir := filepath.Join(expanded, project.Name())
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !isSessionFile(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			path, err := filepath.Abs(filepath.Join(projectDir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to get absolute path: %w", err)
			}
			sessions = append(sessions, SessionInfo{
				Project:   project.Name(),
				Context:   ProjectContext(project.Name()),
				SessionID: strings.TrimSuffix(entry.Name(), ".jsonl"),
				Path:      path,
				ModTime:   info.ModTime(),
				Size:      info.Size(),
			})
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].ModTime.Equal(sessions[j].ModTime) {
			return sessions[i].ModTime.After(sessions[j].ModTime)
		}
		return sessions[i].Path < sessions[j].Path
	})
	return sessions, nil
}

// isSessionFile matches main session transcripts only
func isSessionFile(name string) bool {
	return strings.HasSuffix(name, ".jsonl") && !strings.HasPrefix(name, "agent-")
}

// progressLogger is implemented by loggers that can draw a progress bar
type progressLogger interface {
	LogProgress(label string, done, total int)
}

// ParseAll discovers and parses every session under root. Files that cannot
// be read are logged and skipped. Empty sessions are returned so callers can
// report them; callers must exclude them from aggregation.
func (p *Parser) ParseAll(ctx context.Context, root, projectFilter string) ([]*ParsedSession, DataQuality, error) {
	infos, err := DiscoverSessions(root, projectFilter)
	if err != nil {
		return nil, nil, err
	}
	p.log.LogDebug(fmt.Sprintf("discovered %d session files", len(infos)))

	progress, _ := p.log.(progressLogger)
	quality := make(DataQuality)
	sessions := make([]*ParsedSession, 0, len(infos))

	for i, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		parsed, err := p.ParseFile(info.Path)
		if err != nil {
			p.log.LogWarn(fmt.Sprintf("skipping session %s: %v", info.SessionID, err))
			continue
		}
		quality.Merge(parsed.Quality)
		sessions = append(sessions, parsed)

		if progress != nil && len(infos) > 1 {
			progress.LogProgress("Parsing", i+1, len(infos))
		}
	}
	return sessions, quality, nil
}
