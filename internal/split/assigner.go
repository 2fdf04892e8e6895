// Package split maintains per-item share vectors: equal defaults,
// history-informed proposals, and validated mutations.
package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// InvalidSplitError rejects a share mutation that would violate the
// sum-to-1.0 invariant. The item's previous shares stay untouched.
type InvalidSplitError struct {
	Err    error
	ItemID string
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("invalid split for item %s: %v", e.ItemID, e.Err)
}

func (e *InvalidSplitError) Unwrap() error {
	return e.Err
}

// Assigner attaches and updates share vectors on line items.
type Assigner struct {
	storage service.Storage
	persons []string
}

// NewAssigner creates an assigner for the configured set of persons.
func NewAssigner(storage service.Storage, persons []string) (*Assigner, error) {
	if len(persons) < 2 {
		return nil, fmt.Errorf("share splitting needs at least two persons, got %d", len(persons))
	}

	seen := make(map[string]bool, len(persons))
	for _, person := range persons {
		if strings.TrimSpace(person) == "" {
			return nil, errors.New("person identifier cannot be empty")
		}
		if seen[person] {
			return nil, fmt.Errorf("duplicate person identifier %q", person)
		}
		seen[person] = true
	}

	return &Assigner{storage: storage, persons: persons}, nil
}

// Persons returns the configured person identifiers.
func (a *Assigner) Persons() []string {
	return a.persons
}

// DefaultShares proposes the share vector for a new item: the last-used
// ratio for a semantically-equivalent item when one exists in history,
// an equal split otherwise.
func (a *Assigner) DefaultShares(ctx context.Context, correctedName string) model.ShareVector {
	key := historyKey(correctedName)
	if key == "" || correctedName == model.Unrecognized {
		return model.EqualShares(a.persons)
	}

	prior, err := a.storage.GetLastShares(ctx, key)
	if err != nil || prior == nil {
		return model.EqualShares(a.persons)
	}

	// History recorded under a different person configuration cannot be
	// replayed.
	if !a.coversPersons(prior) {
		slog.Debug("share history has stale person set, using equal split",
			"name", key)
		return model.EqualShares(a.persons)
	}

	return prior.Clone()
}

// AssignDefaults fills in shares for every billable item that has none
// yet. Promotional and voided lines carry no shares; they never bill.
func (a *Assigner) AssignDefaults(ctx context.Context, items []model.LineItem) {
	for i := range items {
		if !items[i].Billable() || len(items[i].Shares) > 0 {
			continue
		}
		items[i].Shares = a.DefaultShares(ctx, items[i].DisplayName())
	}
}

// SetShares replaces an item's share vector. The update is atomic: an
// invalid vector is rejected with InvalidSplitError before anything is
// written, and the item's previous shares remain in effect.
func (a *Assigner) SetShares(ctx context.Context, itemID string, shares model.ShareVector) error {
	if err := a.validateShares(shares); err != nil {
		return &InvalidSplitError{ItemID: itemID, Err: err}
	}

	item, err := a.storage.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load item %s: %w", itemID, err)
	}

	if err := a.storage.UpdateItemShares(ctx, itemID, shares); err != nil {
		return fmt.Errorf("failed to update shares for item %s: %w", itemID, err)
	}

	a.recordHistory(ctx, item.DisplayName(), shares)
	return nil
}

// ApplyUniform bulk-sets one person's fraction on a set of items. The
// remaining fraction is distributed among the other persons proportional
// to their prior relative shares, or equally when no prior shares exist.
func (a *Assigner) ApplyUniform(ctx context.Context, itemIDs []string, person string, fraction float64) error {
	if !a.knownPerson(person) {
		return fmt.Errorf("unknown person %q", person)
	}
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("fraction %v outside [0, 1]", fraction)
	}

	for _, itemID := range itemIDs {
		item, err := a.storage.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("failed to load item %s: %w", itemID, err)
		}

		shares := a.redistribute(item.Shares, person, fraction)
		if err := a.validateShares(shares); err != nil {
			return &InvalidSplitError{ItemID: itemID, Err: err}
		}

		if err := a.storage.UpdateItemShares(ctx, itemID, shares); err != nil {
			return fmt.Errorf("failed to update shares for item %s: %w", itemID, err)
		}
		a.recordHistory(ctx, item.DisplayName(), shares)
	}

	return nil
}

// redistribute builds the new vector: person gets fraction, everyone else
// splits the remainder by their prior relative weight.
func (a *Assigner) redistribute(prior model.ShareVector, person string, fraction float64) model.ShareVector {
	remainder := 1.0 - fraction

	others := make([]string, 0, len(a.persons)-1)
	priorOtherSum := 0.0
	for _, p := range a.persons {
		if p == person {
			continue
		}
		others = append(others, p)
		priorOtherSum += prior[p]
	}

	shares := model.ShareVector{person: fraction}
	if priorOtherSum > model.ShareEpsilon {
		for _, p := range others {
			shares[p] = remainder * (prior[p] / priorOtherSum)
		}
	} else {
		for _, p := range others {
			shares[p] = remainder / float64(len(others))
		}
	}
	return shares
}

func (a *Assigner) validateShares(shares model.ShareVector) error {
	for person := range shares {
		if !a.knownPerson(person) {
			return fmt.Errorf("unknown person %q", person)
		}
	}
	for _, person := range a.persons {
		if _, ok := shares[person]; !ok {
			return fmt.Errorf("missing share for person %q", person)
		}
	}
	return shares.Validate()
}

func (a *Assigner) knownPerson(person string) bool {
	for _, p := range a.persons {
		if p == person {
			return true
		}
	}
	return false
}

func (a *Assigner) coversPersons(shares model.ShareVector) bool {
	if len(shares) != len(a.persons) {
		return false
	}
	for _, p := range a.persons {
		if _, ok := shares[p]; !ok {
			return false
		}
	}
	return true
}

// recordHistory appends the chosen ratio so the next occurrence of the
// same product proposes it. History failures are logged, not fatal; the
// mutation itself already succeeded.
func (a *Assigner) recordHistory(ctx context.Context, name string, shares model.ShareVector) {
	key := historyKey(name)
	if key == "" || name == model.Unrecognized {
		return
	}
	if err := a.storage.RecordShareChoice(ctx, key, shares); err != nil {
		slog.Warn("failed to record share history",
			"name", key,
			"error", err)
	}
}

// historyKey normalizes a product name for history matching: matching is
// case-insensitive per the corrected name.
func historyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
