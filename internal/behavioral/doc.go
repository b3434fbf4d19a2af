// Package behavioral turns Claude Code session JSONL files into governance
// events: one Event per tool call the user accepted or rejected.
//
// Session files live under ~/.claude/projects/<project>/<uuid>.jsonl. An
// assistant record carries tool_use blocks; the matching user record carries
// tool_result blocks keyed by tool_use_id. The parser correlates the two,
// derives accept/reject and decision time, and records data-quality warnings
// for anything it has to skip or repair. Project directory names are hashed
// into an opaque context id so no path leaves the parser.
//
// Example usage:
//
//	p := behavioral.NewParser(cfg.Features.ToolClasses, log)
//	sessions, quality, err := p.ParseAll(ctx, "~/.claude/projects", "")
//	if err != nil {
//	    return err
//	}
//	for _, s := range sessions {
//	    summary := behavioral.Summarize(s.ID, s.Context, s.Events)
//	    fmt.Println(summary.Depth)
//	}
package behavioral
