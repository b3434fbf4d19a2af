package simulation

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/models"
)

// paletteEntry is a tool with its base draw weight
type paletteEntry struct {
	tool   string
	weight float64
}

// palette is ordered so that a persona's ToolDiversityTarget takes the
// first N entries. Bash is always first.
var palette = []paletteEntry{
	{"Bash", 0.35},
	{"Read", 0.20},
	{"Edit", 0.10},
	{"Grep", 0.05},
	{"Write", 0.05},
	{"Glob", 0.05},
	{"TodoWrite", 0.05},
	{"WebSearch", 0.03},
	{"WebFetch", 0.02},
	{"NotebookEdit", 0.02},
	{"AskUserQuestion", 0.02},
}

// commandMix is how often each command category is drawn for a shell call
var commandMix = []struct {
	category models.CommandCategory
	weight   float64
}{
	{models.CommandReadOnly, 0.5},
	{models.CommandStateChanging, 0.3},
	{models.CommandDestructive, 0.1},
	{models.CommandUnknown, 0.1},
}

var highRiskTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"NotebookEdit": true,
}

const (
	agentSpawnTool  = "Task"
	agentOutputTool = "TaskOutput"

	// depthSpread is the coefficient of variation of session depth
	depthSpread = 0.3
	// decisionSpread is the coefficient of variation of decision time
	decisionSpread = 0.5

	minDecisionMS = 50
	maxDecisionMS = 60_000
)

// Session is a generated session plus the project directory it belongs to
type Session struct {
	features.Session
	Project string
}

// Option configures a Simulator
type Option func(*Simulator)

// WithRand injects the random source
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		s.rng = r
	}
}

// WithSeed uses a deterministic PCG source seeded with seed
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithStart sets the timestamp of the first generated session
func WithStart(t time.Time) Option {
	return func(s *Simulator) {
		s.start = t
	}
}

// WithToolClasses overrides the tool-name to tool-class map
func WithToolClasses(classes map[string]string) Option {
	return func(s *Simulator) {
		s.classes = classes
	}
}

// Simulator generates sessions for one persona. It is not safe for
// concurrent use because it owns a random source.
type Simulator struct {
	persona Persona
	rng     *rand.Rand
	start   time.Time
	classes map[string]string
}

// New validates the persona and builds a simulator. Without WithRand or
// WithSeed the source is seeded from the runtime.
func New(persona Persona, opts ...Option) (*Simulator, error) {
	if err := persona.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		persona: persona,
		start:   time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC),
		classes: config.DefaultToolClasses(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

// Persona returns the persona being simulated
func (s *Simulator) Persona() Persona {
	return s.persona
}

// Generate returns n sessions ready for the feature engine
func (s *Simulator) Generate(n int) ([]features.Session, error) {
	generated, err := s.Simulate(n)
	if err != nil {
		return nil, err
	}
	out := make([]features.Session, len(generated))
	for i, g := range generated {
		out[i] = g.Session
	}
	return out, nil
}

// Simulate returns n sessions along with their project directory names
func (s *Simulator) Simulate(n int) ([]Session, error) {
	if n < 1 {
		return nil, &ParameterError{Persona: s.persona.Name, Field: "sessions", Value: float64(n), Reason: "must be positive"}
	}
	sessions := make([]Session, 0, n)
	for i := 0; i < n; i++ {
		sess, err := s.session(i)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *Simulator) session(index int) (Session, error) {
	p := s.persona

	id, err := uuid.NewRandomFromReader(randReader{s.rng})
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	project := "-simulated-" + p.Key
	bashProb := p.BashAcceptanceProb
	if cs := p.ContextSwitching; cs != nil {
		if s.rng.Float64() < 0.5 {
			project = fmt.Sprintf("-simulated-%s-stable-%d", p.Key, index%3)
			bashProb = cs.HighTrustBashProb
		} else {
			project = fmt.Sprintf("-simulated-%s-active-%d", p.Key, index%3)
			bashProb = cs.LowTrustBashProb
		}
	}
	context := behavioral.ProjectContext(project)

	depth := s.depth()
	tools := s.toolSequence(depth)

	now := s.start.Add(time.Duration(index)*3*time.Hour + time.Duration(s.rng.IntN(3600))*time.Second)
	events := make([]behavioral.Event, 0, len(tools))
	for _, tool := range tools {
		decision := s.decisionTime(tool)
		now = now.Add(time.Duration(decision) * time.Millisecond)

		var category models.CommandCategory
		if tool == "Bash" {
			category = s.command()
		}
		accepted := s.accept(tool, bashProb)
		events = append(events, behavioral.Event{
			ToolName:        tool,
			ToolClass:       s.toolClass(tool),
			Accepted:        accepted,
			Rejected:        !accepted,
			DecisionTimeMS:  decision,
			CommandCategory: category,
			SessionID:       id.String(),
			ProjectContext:  context,
			Timestamp:       now,
		})
		now = now.Add(time.Duration(100+s.rng.IntN(400)) * time.Millisecond)
	}

	return Session{
		Session: features.Session{ID: id.String(), Context: context, Events: events},
		Project: project,
	}, nil
}

// depth draws from N(mean, 0.3 mean), at least 1
func (s *Simulator) depth() int {
	mean := float64(s.persona.MeanSessionDepth)
	d := int(math.Round(mean + s.rng.NormFloat64()*depthSpread*mean))
	return max(1, d)
}

func (s *Simulator) toolSequence(depth int) []string {
	p := s.persona
	choices := palette[:min(p.ToolDiversityTarget, len(palette))]
	total := 0.0
	for _, c := range choices {
		total += c.weight
	}

	seq := make([]string, 0, depth)
	for len(seq) < depth {
		if p.UsesAgents && s.rng.Float64() < p.AgentProbability {
			seq = append(seq, agentSpawnTool)
			if len(seq) < depth {
				seq = append(seq, agentOutputTool)
			}
			continue
		}

		r := s.rng.Float64() * total
		pick := choices[len(choices)-1].tool
		for _, c := range choices {
			if r < c.weight {
				pick = c.tool
				break
			}
			r -= c.weight
		}
		seq = append(seq, pick)
	}
	return seq
}

// decisionTime is slower for risky tools and faster for safe ones
func (s *Simulator) decisionTime(tool string) int64 {
	base := float64(s.persona.MeanDecisionTimeMS)
	if tool == "Bash" || highRiskTools[tool] {
		base *= 1.5
	} else {
		base *= 0.5
	}
	ms := int64(base + s.rng.NormFloat64()*decisionSpread*base)
	return min(max(ms, minDecisionMS), maxDecisionMS)
}

// command draws the category of a shell call from commandMix
func (s *Simulator) command() models.CommandCategory {
	r := s.rng.Float64()
	for _, c := range commandMix {
		if r < c.weight {
			return c.category
		}
		r -= c.weight
	}
	return models.CommandUnknown
}

func (s *Simulator) accept(tool string, bashProb float64) bool {
	p := s.persona
	switch {
	case tool == "Bash":
		return s.rng.Float64() < bashProb
	case highRiskTools[tool]:
		return s.rng.Float64() < p.HighRiskAcceptanceProb
	default:
		return s.rng.Float64() < p.LowRiskAcceptanceProb
	}
}

func (s *Simulator) toolClass(tool string) string {
	if class, ok := s.classes[tool]; ok {
		return class
	}
	return config.ClassOther
}

// randReader adapts a rand.Rand to io.Reader so uuids follow the seed
type randReader struct {
	r *rand.Rand
}

func (rr randReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], rr.r.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}
