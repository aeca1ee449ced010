// Package config holds the explicit conversion configuration. Options are
// enumerated struct fields validated at load time; unknown or malformed
// input fails fast, before any document is processed.
package config

import (
	"fmt"
	"strings"

	"github.com/annoweave/annoweave/core/errors"
)

// TierGroup maps one governing (segmentation) tier to the dependent
// annotation tiers that are keyed to its boundaries.
type TierGroup struct {
	Owner      string
	Dependents []string
}

// TierGroups is an ordered set of tier groups. More than one group, or a
// forced flag, makes a document multi-tier (shared timeline backbone).
type TierGroups struct {
	Groups []TierGroup
}

// ParseTierGroups parses the grouping syntax `tok={anno1,anno2};tok2={}`.
// The option name is reported in errors (e.g. "tier-groups", "column-map").
func ParseTierGroups(option, value string) (*TierGroups, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.NewConfig(option, "no tier mapping configured")
	}
	tg := &TierGroups{}
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(value, ";") {
		group := strings.TrimSpace(raw)
		if group == "" {
			continue
		}
		owner, rest, ok := strings.Cut(group, "=")
		if !ok {
			return nil, errors.NewConfig(option, fmt.Sprintf("group %q has no `=`", group))
		}
		owner = strings.TrimSpace(owner)
		if owner == "" {
			return nil, errors.NewConfig(option, fmt.Sprintf("group %q has an empty owner tier", group))
		}
		if _, dup := seen[owner]; dup {
			return nil, errors.NewConfig(option, fmt.Sprintf("tier %q is declared as owner twice", owner))
		}
		seen[owner] = struct{}{}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, "}") {
			return nil, errors.NewConfig(option, fmt.Sprintf("group %q must list dependents as {a,b,...}", group))
		}
		var dependents []string
		for _, name := range strings.Split(strings.Trim(rest, "{}"), ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				dependents = append(dependents, name)
			}
		}
		tg.Groups = append(tg.Groups, TierGroup{Owner: owner, Dependents: dependents})
	}
	if len(tg.Groups) == 0 {
		return nil, errors.NewConfig(option, "no tier mapping configured")
	}
	return tg, nil
}

// MultiTier reports whether the grouping implies a shared timeline.
func (tg *TierGroups) MultiTier() bool {
	return len(tg.Groups) > 1
}

// Owners returns the owner tier names in declaration order.
func (tg *TierGroups) Owners() []string {
	out := make([]string, len(tg.Groups))
	for i, g := range tg.Groups {
		out[i] = g.Owner
	}
	return out
}

// Names returns all tier names (owners and dependents) in declaration
// order.
func (tg *TierGroups) Names() []string {
	var out []string
	for _, g := range tg.Groups {
		out = append(out, g.Owner)
		out = append(out, g.Dependents...)
	}
	return out
}

// Contains reports whether name is an owner or dependent tier.
func (tg *TierGroups) Contains(name string) bool {
	for _, g := range tg.Groups {
		if g.Owner == name {
			return true
		}
		for _, dep := range g.Dependents {
			if dep == name {
				return true
			}
		}
	}
	return false
}
