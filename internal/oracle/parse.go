package oracle

import (
	"fmt"
	"strings"
)

// parseCorrectionResponse parses the NAME/RESOLVED response format. The
// parser is forgiving about casing and surrounding whitespace but insists
// on both fields being present.
func parseCorrectionResponse(output string) (CorrectionResponse, error) {
	var resp CorrectionResponse
	var haveName, haveResolved bool

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasPrefixFold(line, "NAME:"):
			resp.CorrectedName = strings.TrimSpace(line[len("NAME:"):])
			haveName = true
		case hasPrefixFold(line, "RESOLVED:"):
			value := strings.ToLower(strings.TrimSpace(line[len("RESOLVED:"):]))
			resp.Resolved = value == "yes" || value == "true"
			haveResolved = true
		}
	}

	if !haveName || !haveResolved {
		return CorrectionResponse{}, fmt.Errorf("malformed correction response: %q", output)
	}

	return resp, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
