package behavioral

import (
	"regexp"
	"strings"

	"github.com/TheApexWu/suzerain/internal/models"
)

// Patterns match the lowercased command. Categories are tried from most to
// least dangerous and the first hit wins.
var (
	destructivePatterns = compileAll(
		`\brm\b`, `\brmdir\b`, `>\s*/`,
		`\bgit\s+push\s+.*--force`, `\bgit\s+push\s+-f\b`,
		`\bgit\s+reset\s+--hard`, `\bgit\s+clean\s+-fd`,
		`\bdrop\s+table\b`, `\bdrop\s+database\b`, `\btruncate\b`,
		`\bdd\s+`, `\bmkfs\b`, `\bkill\s+-9`, `\bpkill\b`,
		`\bshutdown\b`, `\breboot\b`, `\bsudo\s+rm\b`,
		`\bchmod\s+777\b`, `\bchown\b.*-r`,
	)

	stateChangingPatterns = compileAll(
		`\bgit\s+commit\b`, `\bgit\s+push\b`, `\bgit\s+merge\b`,
		`\bgit\s+rebase\b`, `\bgit\s+checkout\b`, `\bgit\s+branch\s+-d\b`,
		`\bgit\s+stash\b`, `\bnpm\s+install\b`, `\bnpm\s+uninstall\b`,
		`\bpip\s+install\b`, `\bpip\s+uninstall\b`,
		`\byarn\s+add\b`, `\byarn\s+remove\b`,
		`\bmkdir\b`, `\btouch\b`, `\bmv\b`, `\bcp\b`,
		`\bcurl\s+.*-x\s*(post|put|delete|patch)`, `\bwget\b`,
		`\bdocker\s+(run|stop|rm|build)`, `\bkubectl\s+(apply|delete|create)`,
		`\bsed\s+-i\b`, `\bawk\s+.*-i\b`, `>>`, `\becho\s+.*>`,
	)

	readOnlyPatterns = compileAll(
		`\bls\b`, `\bll\b`, `\bla\b`, `\bcat\b`, `\bhead\b`, `\btail\b`,
		`\bless\b`, `\bmore\b`, `\bgrep\b`, `\brg\b`, `\bfind\b`, `\bfd\b`,
		`\bwc\b`, `\bdu\b`, `\bdf\b`, `\bpwd\b`, `\bwhoami\b`,
		`\bwhich\b`, `\bwhere\b`, `\btype\b`, `\bfile\b`, `\bstat\b`,
		`\bgit\s+status\b`, `\bgit\s+log\b`, `\bgit\s+diff\b`, `\bgit\s+show\b`,
		`\bgit\s+branch\b`, `\bgit\s+remote\s+-v`,
		`\bnpm\s+list\b`, `\bnpm\s+ls\b`, `\bpip\s+list\b`, `\bpip\s+show\b`,
		`\bpython\s+--version`, `\bnode\s+--version`,
		`\benv\b`, `\bprintenv\b`, `\becho\s+\$`,
	)

	curlPattern = regexp.MustCompile(`\bcurl\s+`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// ClassifyCommand sorts a shell command into a category. An empty command
// is unknown.
func ClassifyCommand(command string) models.CommandCategory {
	cmd := strings.ToLower(strings.TrimSpace(command))
	switch {
	case cmd == "":
		return models.CommandUnknown
	case matchesAny(destructivePatterns, cmd):
		return models.CommandDestructive
	case matchesAny(stateChangingPatterns, cmd):
		return models.CommandStateChanging
	case matchesAny(readOnlyPatterns, cmd):
		return models.CommandReadOnly
	// a curl without an explicit method only fetches
	case curlPattern.MatchString(cmd) && !strings.Contains(cmd, "-x"):
		return models.CommandReadOnly
	default:
		return models.CommandUnknown
	}
}
