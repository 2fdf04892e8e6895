// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"math"
	"sort"
)

// Unrecognized is the sentinel corrected name for items the correction
// oracle explicitly could not resolve. It is never guessed over.
const Unrecognized = "UNRECOGNIZED"

// ShareEpsilon is the tolerance used when validating that a share vector
// sums to 1.0.
const ShareEpsilon = 1e-6

// ShareVector maps a person identifier to their fraction of an item's cost.
type ShareVector map[string]float64

// Validate checks that every fraction is within [0, 1] and that the
// fractions sum to 1.0 within ShareEpsilon.
func (s ShareVector) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("share vector is empty")
	}

	sum := 0.0
	for person, fraction := range s {
		if fraction < 0 || fraction > 1 {
			return fmt.Errorf("share for %q is %v, must be within [0, 1]", person, fraction)
		}
		sum += fraction
	}

	if math.Abs(sum-1.0) > ShareEpsilon {
		return fmt.Errorf("shares sum to %v, expected 1.0", sum)
	}
	return nil
}

// Clone returns an independent copy of the share vector.
func (s ShareVector) Clone() ShareVector {
	out := make(ShareVector, len(s))
	for person, fraction := range s {
		out[person] = fraction
	}
	return out
}

// Persons returns the person identifiers in deterministic order.
func (s ShareVector) Persons() []string {
	persons := make([]string, 0, len(s))
	for person := range s {
		persons = append(persons, person)
	}
	sort.Strings(persons)
	return persons
}

// EqualShares builds a share vector that splits an item evenly across persons.
// The last person absorbs the rounding remainder so the vector always
// validates exactly.
func EqualShares(persons []string) ShareVector {
	if len(persons) == 0 {
		return ShareVector{}
	}

	shares := make(ShareVector, len(persons))
	each := 1.0 / float64(len(persons))
	sum := 0.0
	for _, person := range persons[:len(persons)-1] {
		shares[person] = each
		sum += each
	}
	shares[persons[len(persons)-1]] = 1.0 - sum
	return shares
}

// LineItem is one priced product entry on a receipt.
type LineItem struct {
	ID            string
	ReceiptID     string
	RawName       string
	CorrectedName string
	Shares        ShareVector
	UnitPrice     float64
	Position      int
	IsPromotional bool
	Voided        bool
}

// Billable reports whether the item participates in per-person totals.
// Promotional lines were folded into a preceding item and voided items
// were explicitly excluded by the operator; both stay in the sequence
// for audit but never bill.
func (li *LineItem) Billable() bool {
	return !li.IsPromotional && !li.Voided
}

// DisplayName returns the corrected name, falling back to the raw
// extraction when no correction has been applied yet.
func (li *LineItem) DisplayName() string {
	if li.CorrectedName != "" {
		return li.CorrectedName
	}
	return li.RawName
}
