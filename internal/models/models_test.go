package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestArchetypeDescriptions(t *testing.T) {
	if len(Archetypes) != 6 {
		t.Fatalf("len(Archetypes) = %d, want 6", len(Archetypes))
	}
	for _, a := range Archetypes {
		if a.Description() == "" {
			t.Errorf("%s has no description", a)
		}
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if Archetype("Pirate").Valid() {
		t.Error("unknown archetype should not be valid")
	}
}

func TestParseArchetype(t *testing.T) {
	tests := []struct {
		name    string
		want    Archetype
		wantErr bool
	}{
		{"Delegator", ArchetypeDelegator, false},
		{"Constitutionalist", ArchetypeConstitutionalist, false},
		{"delegator", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseArchetype(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseArchetype(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseArchetype(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFeatureVectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		vec     FeatureVector
		wantErr string
	}{
		{
			name: "valid",
			vec:  FeatureVector{TrustLevel: 0.6, TrustDefined: true, Sophistication: 0.2, Variance: 0, Events: 30, TrustEvents: 10},
		},
		{
			name: "undefined trust is not range checked",
			vec:  FeatureVector{TrustLevel: -1, TrustDefined: false, Events: 5},
		},
		{
			name:    "sophistication above one",
			vec:     FeatureVector{Sophistication: 1.2},
			wantErr: "sophistication",
		},
		{
			name:    "trust events exceed events",
			vec:     FeatureVector{Events: 2, TrustEvents: 3},
			wantErr: "trust_events",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vec.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestReportJSONShape(t *testing.T) {
	r := &Report{
		Version:     "1.0.0",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Summary:     ReportSummary{SessionsAnalyzed: 3, TotalEvents: 30, DistinctContexts: 2},
		Classification: Classification{
			Status:     StatusClassified,
			Archetype:  ArchetypeGuardian,
			Rule:       "guardian",
			Confidence: ConfidenceHigh,
		},
	}

	data, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	classification := decoded["classification"].(map[string]interface{})
	if classification["archetype"] != "Guardian" {
		t.Errorf("archetype = %v, want Guardian", classification["archetype"])
	}
	if _, ok := classification["insufficient_reason"]; ok {
		t.Error("insufficient_reason should be omitted for classified results")
	}
	if !(Classification{Status: StatusClassified}).IsClassified() {
		t.Error("IsClassified() = false for classified status")
	}
}
