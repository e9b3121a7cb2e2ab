package entities

import "testing"

func TestParseOverrideTarget(t *testing.T) {
	tests := []struct {
		label string
		want  OverrideTarget
		ok    bool
	}{
		{"Mission Need", MissionNeedTarget(), true},
		{"mission need", MissionNeedTarget(), true},
		{"Stage One Dist", StageTarget(Fleet, FieldDistribution), true},
		{"Stage Two Param 1", StageTarget(ConditionF, FieldParam1), true},
		{"  Stage Three Param 2 ", StageTarget(Depot, FieldParam2), true},
		{"Stage Four Param 1", StageTarget(ConditionA, FieldParam1), true},
		{"Stage Five Param 1", OverrideTarget{}, false},
		{"Stage One Param 3", OverrideTarget{}, false},
		{"", OverrideTarget{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseOverrideTarget(tt.label)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestOverrideTargets_LabelsRoundTrip(t *testing.T) {
	targets := OverrideTargets()
	if len(targets) != 13 {
		t.Fatalf("Expected 13 targets (mission need + 12 stage columns), got %d", len(targets))
	}
	seen := map[string]bool{}
	for _, target := range targets {
		label := target.Label()
		if seen[label] {
			t.Errorf("Duplicate label %q", label)
		}
		seen[label] = true
		parsed, ok := ParseOverrideTarget(label)
		if !ok || parsed != target {
			t.Errorf("Label %q did not resolve back to %+v", label, target)
		}
	}
}
