package classify

import "testing"

func TestNewNullModelDefaultsVersion(t *testing.T) {
	m := NewNullModel("")
	if m.Version() != "none" {
		t.Fatalf("expected default version %q, got %q", "none", m.Version())
	}
}

func TestNullModelAlwaysPredictsBackgroundAtZeroConfidence(t *testing.T) {
	m := NewNullModel("v9")
	label, confidence := m.Predict(make([]byte, 300), 10, 10)
	if label != LabelBackground {
		t.Fatalf("expected LabelBackground, got %v", label)
	}
	if confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", confidence)
	}
	if m.Version() != "v9" {
		t.Fatalf("expected version v9, got %q", m.Version())
	}
}
