package core

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		swipes int64
		want   Confidence
	}{
		{"no swipes", 0, ConfidenceLow},
		{"just below medium", 9, ConfidenceLow},
		{"at medium threshold", 10, ConfidenceMedium},
		{"just below high", 49, ConfidenceMedium},
		{"at high threshold", 50, ConfidenceHigh},
		{"well above high", 500, ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTasteProfile("u1")
			p.Behavior.TotalSwipes = tt.swipes
			if got := Classify(p, DefaultConfidenceThresholds); got != tt.want {
				t.Errorf("Classify(%d swipes) = %v, want %v", tt.swipes, got, tt.want)
			}
		})
	}
}

func TestClassifyNilProfile(t *testing.T) {
	if got := Classify(nil, DefaultConfidenceThresholds); got != ConfidenceLow {
		t.Errorf("Classify(nil) = %v, want low", got)
	}
}

func TestClassifyZeroThresholdsFallBackToDefaults(t *testing.T) {
	p := NewTasteProfile("u1")
	p.Behavior.TotalSwipes = 50
	if got := Classify(p, ConfidenceThresholds{}); got != ConfidenceHigh {
		t.Errorf("Classify with zero thresholds = %v, want high", got)
	}
}
