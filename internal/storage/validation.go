package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bonsplit/bonsplit/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidReceipt = errors.New("invalid receipt")
	ErrInvalidItem    = errors.New("invalid line item")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateReceipt validates a receipt and all its items.
func validateReceipt(receipt *model.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("%w: receipt", ErrNilParameter)
	}
	if receipt.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReceipt)
	}
	for i := range receipt.Items {
		if err := validateItem(&receipt.Items[i]); err != nil {
			return fmt.Errorf("item at index %d: %w", i, err)
		}
	}
	return nil
}

// validateItem validates a single line item. Shares are optional at
// save time; assignment may happen later. When present they must sum
// to 1.0.
func validateItem(item *model.LineItem) error {
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if item.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidItem)
	}
	if item.RawName == "" {
		return fmt.Errorf("%w: missing raw name", ErrInvalidItem)
	}
	// Folded discount lines keep their signed price for audit.
	if item.UnitPrice < 0 && !item.IsPromotional {
		return fmt.Errorf("%w: negative unit price %v", ErrInvalidItem, item.UnitPrice)
	}
	if len(item.Shares) > 0 {
		if err := item.Shares.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidItem, err)
		}
	}
	return nil
}
