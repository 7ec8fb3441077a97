package claude

import "testing"

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("sk-ant-test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model == "" {
		t.Error("expected a default model")
	}
	if p.Name() != "claude" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}
