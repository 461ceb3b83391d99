package rules

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

// Snapshot is an immutable, validated view of the active rule configuration.
// Classification and escalation always run against one snapshot, so an admin
// edit mid-stream can never produce a half-old half-new decision.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time

	tardiness map[models.TardinessKind][]models.TardinessRule
	byID      map[string]*models.TardinessRule
	actions   map[models.TriggerType][]models.DisciplinaryActionRule
}

// NewSnapshot validates the provided rule sets and builds a snapshot from
// the active rules. Inactive rules are ignored but still validated for type
// correctness so a broken rule cannot lurk until activation.
func NewSnapshot(version int64, tardiness []models.TardinessRule, actions []models.DisciplinaryActionRule) (*Snapshot, error) {
	if err := Validate(tardiness, actions); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:   version,
		LoadedAt:  time.Now().UTC(),
		tardiness: make(map[models.TardinessKind][]models.TardinessRule),
		byID:      make(map[string]*models.TardinessRule),
		actions:   make(map[models.TriggerType][]models.DisciplinaryActionRule),
	}
	for _, rule := range tardiness {
		if !rule.Active {
			continue
		}
		snap.tardiness[rule.Kind] = append(snap.tardiness[rule.Kind], rule)
	}
	for kind := range snap.tardiness {
		set := snap.tardiness[kind]
		sort.Slice(set, func(i, j int) bool { return set[i].StartMinutes < set[j].StartMinutes })
		for i := range set {
			snap.byID[set[i].ID] = &set[i]
		}
	}
	for _, rule := range actions {
		if !rule.Active {
			continue
		}
		snap.actions[rule.TriggerType] = append(snap.actions[rule.TriggerType], rule)
	}
	return snap, nil
}

// Match returns the tardiness rule whose range contains lateMinutes, or nil
// when the lateness is unclassified. Ranges are half-open [start, end).
// Non-overlap is enforced per kind only, so ranges of different kinds may
// both contain a lateness; the rule with the smallest start wins.
func (s *Snapshot) Match(lateMinutes int) *models.TardinessRule {
	if lateMinutes <= 0 {
		return nil
	}
	var match *models.TardinessRule
	for _, kind := range []models.TardinessKind{models.KindLateArrival, models.KindDirectTardiness} {
		for i := range s.tardiness[kind] {
			rule := &s.tardiness[kind][i]
			if !rule.Contains(lateMinutes) {
				continue
			}
			if match == nil || rule.StartMinutes < match.StartMinutes {
				match = rule
			}
		}
	}
	return match
}

// Rule returns the active tardiness rule with the given id, or nil when the
// snapshot does not carry it.
func (s *Snapshot) Rule(id string) *models.TardinessRule {
	return s.byID[id]
}

// ActionRules returns the active disciplinary rules for one trigger family.
func (s *Snapshot) ActionRules(trigger models.TriggerType) []models.DisciplinaryActionRule {
	return s.actions[trigger]
}

// MaxPeriodDays returns the widest rolling window among a trigger family's
// rules, so the evaluator can fetch the applied-event log once.
func (s *Snapshot) MaxPeriodDays(trigger models.TriggerType) int {
	max := 0
	for _, rule := range s.actions[trigger] {
		if rule.PeriodDays > max {
			max = rule.PeriodDays
		}
	}
	return max
}

// Validate checks a prospective rule set for internal consistency. It is
// run on every load and on every admin edit; a failing set never replaces
// the serving snapshot.
func Validate(tardiness []models.TardinessRule, actions []models.DisciplinaryActionRule) error {
	byKind := make(map[models.TardinessKind][]models.TardinessRule)
	for _, rule := range tardiness {
		if !rule.Kind.Valid() {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: unknown kind %q", rule.Name, rule.Kind))
		}
		if rule.StartMinutes < 0 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: negative start minutes", rule.Name))
		}
		if rule.EndMinutes != nil && *rule.EndMinutes <= rule.StartMinutes {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: empty minute range", rule.Name))
		}
		if rule.AccumulationThreshold < 1 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: accumulation threshold must be at least 1", rule.Name))
		}
		if rule.Kind == models.KindDirectTardiness && rule.AccumulationThreshold != 1 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: direct tardiness threshold must be exactly 1", rule.Name))
		}
		if rule.FormalTardiesPerConversion < 1 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("rule %q: conversion must yield at least 1 formal tardy", rule.Name))
		}
		if rule.Active {
			byKind[rule.Kind] = append(byKind[rule.Kind], rule)
		}
	}

	for kind, set := range byKind {
		sort.Slice(set, func(i, j int) bool { return set[i].StartMinutes < set[j].StartMinutes })
		for i := 1; i < len(set); i++ {
			prev, next := set[i-1], set[i]
			if prev.EndMinutes == nil || next.StartMinutes < *prev.EndMinutes {
				return appErrors.Clone(appErrors.ErrConfiguration,
					fmt.Sprintf("%s rules %q and %q have overlapping minute ranges", kind, prev.Name, next.Name))
			}
		}
	}

	for _, rule := range actions {
		if !rule.TriggerType.Valid() {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("action rule %q: unknown trigger type %q", rule.Name, rule.TriggerType))
		}
		if !rule.ActionType.Valid() {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("action rule %q: unknown action type %q", rule.Name, rule.ActionType))
		}
		if rule.TriggerCount < 1 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("action rule %q: trigger count must be at least 1", rule.Name))
		}
		if rule.PeriodDays < 1 {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("action rule %q: period days must be at least 1", rule.Name))
		}
		if rule.ActionType == models.ActionSuspension && (rule.SuspensionDays == nil || *rule.SuspensionDays < 1) {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("action rule %q: suspension requires suspension days", rule.Name))
		}
	}

	return nil
}

// Catalog holds the serving snapshot. Replace swaps it atomically; readers
// keep whatever snapshot they grabbed for the rest of their pipeline run.
type Catalog struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// NewCatalog returns an empty catalog; Replace must be called before the
// first Current.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Current returns the serving snapshot.
func (c *Catalog) Current() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "rule catalog not loaded")
	}
	return snap, nil
}

// Replace validates the prospective rule set and, on success, makes it the
// serving snapshot. On failure the previous snapshot keeps serving.
func (c *Catalog) Replace(tardiness []models.TardinessRule, actions []models.DisciplinaryActionRule) (*Snapshot, error) {
	snap, err := NewSnapshot(c.version.Add(1), tardiness, actions)
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)
	return snap, nil
}
