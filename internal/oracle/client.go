package oracle

import (
	"context"
)

// Client defines the interface for correction providers.
type Client interface {
	CorrectName(ctx context.Context, prompt string) (CorrectionResponse, error)
}

// CorrectionResponse contains the provider's raw correction result.
type CorrectionResponse struct {
	CorrectedName string
	// Resolved is false when the provider explicitly could not make
	// sense of the name. The corrector maps that to the UNRECOGNIZED
	// sentinel rather than guessing.
	Resolved bool
}
