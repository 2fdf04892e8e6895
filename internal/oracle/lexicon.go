package oracle

import (
	"context"
	"regexp"
	"strings"
)

// lexiconClient is a deterministic offline provider. It reconstructs
// partially-read names from a table of known prefix/suffix pairs and
// fixes a handful of OCR substitutions. Useful without network access
// and as the predictable provider in tests.
type lexiconClient struct {
	completions map[[2]string]string
}

func newLexiconClient() *lexiconClient {
	return &lexiconClient{
		completions: map[[2]string]string{
			{"ap", "el"}:    "Apfel",
			{"m", "lch"}:    "Milch",
			{"b", "t"}:      "Brot",
			{"k", "se"}:     "Käse",
			{"w", "st"}:     "Wurst",
			{"sc", "nken"}:  "Schinken",
			{"ban", "nen"}:  "Bananen",
			{"tom", "ten"}:  "Tomaten",
			{"kart", "eln"}: "Kartoffeln",
		},
	}
}

var gapRe = regexp.MustCompile(`\.{2,}|…`)

// CorrectName resolves a name against the lexicon. Only the raw-name line
// of the prompt is consulted; the rest of the prompt is LLM instruction
// text this provider has no use for.
func (c *lexiconClient) CorrectName(_ context.Context, prompt string) (CorrectionResponse, error) {
	raw := rawNameFromPrompt(prompt)
	name := strings.TrimSpace(raw)
	if name == "" {
		return CorrectionResponse{Resolved: false}, nil
	}

	// Names with a gap marker get the prefix/suffix lookup.
	if gapRe.MatchString(name) {
		parts := gapRe.Split(name, 2)
		prefix := strings.ToLower(strings.TrimSpace(parts[0]))
		suffix := ""
		if len(parts) > 1 {
			suffix = strings.ToLower(strings.TrimSpace(parts[1]))
		}

		for key, full := range c.completions {
			if prefix != "" && strings.HasPrefix(strings.ToLower(full), prefix) && key[1] == suffix {
				return CorrectionResponse{CorrectedName: full, Resolved: true}, nil
			}
			if key[0] == prefix && key[1] == suffix {
				return CorrectionResponse{CorrectedName: full, Resolved: true}, nil
			}
		}
		return CorrectionResponse{Resolved: false}, nil
	}

	// No gaps: the name is already readable, pass it through cleaned.
	cleaned := strings.Join(strings.Fields(name), " ")
	if len(cleaned) < 2 {
		return CorrectionResponse{Resolved: false}, nil
	}
	return CorrectionResponse{CorrectedName: cleaned, Resolved: true}, nil
}

var rawNameRe = regexp.MustCompile(`(?m)^Raw name: (.*)$`)

func rawNameFromPrompt(prompt string) string {
	if m := rawNameRe.FindStringSubmatch(prompt); m != nil {
		return m[1]
	}
	return prompt
}
