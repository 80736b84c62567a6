package analyzer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPolicy_OverridesListedOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	data := []byte("denied_tags:\n  - canvas\nmarker_classes:\n  - clicky\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}

	if len(p.DeniedTags) != 1 || p.DeniedTags[0] != "canvas" {
		t.Errorf("DeniedTags: got %v, want [canvas]", p.DeniedTags)
	}
	if len(p.MarkerClasses) != 1 || p.MarkerClasses[0] != "clicky" {
		t.Errorf("MarkerClasses: got %v, want [clicky]", p.MarkerClasses)
	}
	// Untouched lists keep their defaults.
	def := DefaultPolicy()
	if len(p.InteractiveTags) != len(def.InteractiveTags) {
		t.Errorf("InteractiveTags: got %d entries, want default %d", len(p.InteractiveTags), len(def.InteractiveTags))
	}
	if len(p.InteractiveRoles) != len(def.InteractiveRoles) {
		t.Errorf("InteractiveRoles: got %d entries, want default %d", len(p.InteractiveRoles), len(def.InteractiveRoles))
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("LoadPolicy on missing file: got nil error")
	}
}

func TestLoadPolicy_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("denied_tags: {not: a list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Fatalf("LoadPolicy on bad yaml: got nil error")
	}
}

func TestPolicyCompile_LowercasesSets(t *testing.T) {
	p := Policy{InteractiveTags: []string{"Button", "A"}}
	sets := p.compile()

	if _, ok := sets.tags["button"]; !ok {
		t.Errorf("tags missing lowercased entry for Button")
	}
	if _, ok := sets.tags["a"]; !ok {
		t.Errorf("tags missing lowercased entry for A")
	}
}

func TestDefaultPolicy_CoreEntries(t *testing.T) {
	sets := DefaultPolicy().compile()

	for _, tag := range []string{"a", "button", "input", "select", "textarea"} {
		if _, ok := sets.tags[tag]; !ok {
			t.Errorf("interactive tags missing %q", tag)
		}
	}
	if _, ok := sets.denied["script"]; !ok {
		t.Errorf("denied tags missing script")
	}
	if _, ok := sets.structural["div"]; !ok {
		t.Errorf("structural tags missing div")
	}
	if _, ok := sets.cursors["pointer"]; !ok {
		t.Errorf("interactive cursors missing pointer")
	}
	if _, ok := sets.nonCursors["not-allowed"]; !ok {
		t.Errorf("non-interactive cursors missing not-allowed")
	}
}
