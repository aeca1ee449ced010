package config

import (
	"reflect"
	"testing"
)

func TestParseTierGroups(t *testing.T) {
	tg, err := ParseTierGroups("tier-groups", "tok={pos,lemma};tok2={}")
	if err != nil {
		t.Fatalf("ParseTierGroups: %v", err)
	}
	want := []TierGroup{
		{Owner: "tok", Dependents: []string{"pos", "lemma"}},
		{Owner: "tok2"},
	}
	if !reflect.DeepEqual(tg.Groups, want) {
		t.Errorf("Groups = %+v, want %+v", tg.Groups, want)
	}
	if !tg.MultiTier() {
		t.Error("two groups should be multi-tier")
	}
}

func TestParseTierGroupsWhitespace(t *testing.T) {
	tg, err := ParseTierGroups("tier-groups", " tok = { pos , lemma } ")
	if err != nil {
		t.Fatalf("ParseTierGroups: %v", err)
	}
	if len(tg.Groups) != 1 || tg.Groups[0].Owner != "tok" {
		t.Fatalf("Groups = %+v", tg.Groups)
	}
	if !reflect.DeepEqual(tg.Groups[0].Dependents, []string{"pos", "lemma"}) {
		t.Errorf("Dependents = %v", tg.Groups[0].Dependents)
	}
	if tg.MultiTier() {
		t.Error("one group should not be multi-tier")
	}
}

func TestParseTierGroupsErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"no equals", "tok"},
		{"empty owner", "={pos}"},
		{"duplicate owner", "tok={};tok={}"},
		{"missing braces", "tok=pos,lemma"},
		{"only separators", ";;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTierGroups("tier-groups", tt.value); err == nil {
				t.Errorf("value %q should be rejected", tt.value)
			}
		})
	}
}

func TestTierGroupsAccessors(t *testing.T) {
	tg, err := ParseTierGroups("tier-groups", "a={x,y};b={}")
	if err != nil {
		t.Fatalf("ParseTierGroups: %v", err)
	}
	if got := tg.Owners(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Owners() = %v", got)
	}
	if got := tg.Names(); !reflect.DeepEqual(got, []string{"a", "x", "y", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	for _, name := range []string{"a", "x", "y", "b"} {
		if !tg.Contains(name) {
			t.Errorf("Contains(%q) = false", name)
		}
	}
	if tg.Contains("z") {
		t.Error("Contains(z) = true")
	}
}
