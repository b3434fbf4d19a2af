// Package models holds the result types shared by the feature engine, the
// classifier, the axis validator, the cache and the CLI.
package models

import "fmt"

// Archetype is one of the six behavioral governance archetypes
type Archetype string

const (
	ArchetypeAdaptive          Archetype = "Adaptive"
	ArchetypeDelegator         Archetype = "Delegator"
	ArchetypeCouncil           Archetype = "Council"
	ArchetypeGuardian          Archetype = "Guardian"
	ArchetypeStrategist        Archetype = "Strategist"
	ArchetypeConstitutionalist Archetype = "Constitutionalist"
)

// Archetypes lists every archetype in rule priority order.
var Archetypes = []Archetype{
	ArchetypeAdaptive,
	ArchetypeDelegator,
	ArchetypeCouncil,
	ArchetypeGuardian,
	ArchetypeStrategist,
	ArchetypeConstitutionalist,
}

var archetypeDescriptions = map[Archetype]string{
	ArchetypeAdaptive:          "Context-dependent governance. Different rules for different contexts.",
	ArchetypeDelegator:         "Full trust in AI execution. Let the machine do its work.",
	ArchetypeCouncil:           "Leverages AI sophistication while maintaining trust. Collaborative power.",
	ArchetypeGuardian:          "Protective oversight. Careful review before action.",
	ArchetypeStrategist:        "Selective delegation. Trust where it matters, control where it counts.",
	ArchetypeConstitutionalist: "Consistent moderate policy. Balanced approach across contexts.",
}

// Description returns the one-line summary of the archetype
func (a Archetype) Description() string {
	return archetypeDescriptions[a]
}

// Valid reports whether a names one of the six archetypes.
func (a Archetype) Valid() bool {
	_, ok := archetypeDescriptions[a]
	return ok
}

// ParseArchetype converts a name (as stored or shared) back to an Archetype
func ParseArchetype(name string) (Archetype, error) {
	a := Archetype(name)
	if !a.Valid() {
		return "", fmt.Errorf("unknown archetype %q", name)
	}
	return a, nil
}
