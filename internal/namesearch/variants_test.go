package namesearch

import (
	"testing"
)

func contains(vs []string, want string) bool {
	for _, v := range vs {
		if v == want {
			return true
		}
	}
	return false
}

func TestVariantsExactFirst(t *testing.T) {
	vs := Variants("Eldritch Blast")
	if len(vs) == 0 || vs[0] != "eldritch blast" {
		t.Fatalf("variants = %v", vs)
	}
}

func TestVariantsEmpty(t *testing.T) {
	if vs := Variants("   "); vs != nil {
		t.Errorf("Variants(blank) = %v, want nil", vs)
	}
}

func TestVariantsNoDuplicates(t *testing.T) {
	vs := Variants("Black Iron Armor +2")
	seen := map[string]bool{}
	for _, v := range vs {
		if seen[v] {
			t.Fatalf("duplicate variant %q in %v", v, vs)
		}
		seen[v] = true
	}
}

func TestVariantsForms(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		// parenthetical and bracketed suffixes
		{"Backstab (Level 13)", "backstab"},
		{"Charge [Movement Technique]", "charge"},
		// enhancement bonus
		{"Black Iron Armor +2", "black iron armor"},
		// camelcase split
		{"SoulSword", "soul sword"},
		// compound word split
		{"Soulsword", "soul sword"},
		// type suffixes
		{"Fey Step Teleport", "fey step"},
		{"Dragon Breath Attack", "dragon breath"},
		// form-of reconstruction
		{"Winter Wind Attack", "form of the winter wind"},
		// tier words
		{"Wayfinder Epic Badge", "wayfinder badge"},
		// equipment suffix, with and without bonus
		{"Anakore Armor", "anakore"},
		{"Anakore Armor +3", "anakore"},
		// secondary power
		{"Chaos Bolt Secondary Attack", "chaos bolt"},
		// "X form Y attack"
		{"Wyrm Form Breath Attack", "wyrm form"},
		// implement words, bonus-stripped first
		{"Chaos Shard Rod +1", "chaos shard"},
		// dash compounds keep the full bonus-stripped name
		{"Pact Blade - Raiment of Shadows +4", "pact blade - raiment of shadows"},
	}
	for _, tt := range tests {
		vs := Variants(tt.name)
		if !contains(vs, tt.want) {
			t.Errorf("Variants(%q) = %v, missing %q", tt.name, vs, tt.want)
		}
	}
}

func TestVariantsImplementFanout(t *testing.T) {
	vs := Variants("Controller's Implement +1")
	for _, want := range []string{
		"controller's orb", "controller's rod", "controller's staff",
		"controller's wand", "controller's tome", "controller's totem",
		"controller's holy symbol", "controller's ki focus",
	} {
		if !contains(vs, want) {
			t.Errorf("Variants missing %q: %v", want, vs)
		}
	}
}

func TestVariantsAsciiFold(t *testing.T) {
	vs := Variants("Résonance Blade")
	if !contains(vs, "resonance blade") {
		t.Errorf("Variants = %v, missing ascii-folded form", vs)
	}
}
