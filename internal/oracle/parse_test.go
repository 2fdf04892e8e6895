package oracle

import (
	"context"
	"testing"
)

func TestParseCorrectionResponse(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantName     string
		wantResolved bool
		wantErr      bool
	}{
		{
			name:         "resolved name",
			input:        "NAME: Apfel\nRESOLVED: yes",
			wantName:     "Apfel",
			wantResolved: true,
		},
		{
			name:         "unresolved",
			input:        "NAME: \nRESOLVED: no",
			wantName:     "",
			wantResolved: false,
		},
		{
			name:         "case and whitespace tolerated",
			input:        "  name:  Bio Bananen  \n  resolved: YES  ",
			wantName:     "Bio Bananen",
			wantResolved: true,
		},
		{
			name:         "extra chatter around the fields",
			input:        "Sure, here is the result:\nNAME: Milch\nRESOLVED: yes\nHope that helps!",
			wantName:     "Milch",
			wantResolved: true,
		},
		{
			name:    "missing resolved field",
			input:   "NAME: Apfel",
			wantErr: true,
		},
		{
			name:    "freeform answer",
			input:   "The product is probably an apple.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCorrectionResponse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCorrectionResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.CorrectedName != tt.wantName {
				t.Errorf("CorrectedName = %q, want %q", got.CorrectedName, tt.wantName)
			}
			if got.Resolved != tt.wantResolved {
				t.Errorf("Resolved = %v, want %v", got.Resolved, tt.wantResolved)
			}
		})
	}
}

func TestLexiconClient(t *testing.T) {
	client := newLexiconClient()

	tests := []struct {
		raw          string
		wantName     string
		wantResolved bool
	}{
		{raw: "Ap...el", wantName: "Apfel", wantResolved: true},
		{raw: "M..lch", wantName: "Milch", wantResolved: true},
		{raw: "Sc...nken", wantName: "Schinken", wantResolved: true},
		{raw: "BIO  BANANEN", wantName: "BIO BANANEN", wantResolved: true},
		{raw: "Zz...qq", wantResolved: false},
		{raw: "X", wantResolved: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			resp, err := client.CorrectName(context.Background(), buildTestPrompt(tt.raw))
			if err != nil {
				t.Fatalf("CorrectName() error = %v", err)
			}
			if resp.Resolved != tt.wantResolved {
				t.Fatalf("Resolved = %v, want %v", resp.Resolved, tt.wantResolved)
			}
			if resp.Resolved && resp.CorrectedName != tt.wantName {
				t.Errorf("CorrectedName = %q, want %q", resp.CorrectedName, tt.wantName)
			}
		})
	}
}

func buildTestPrompt(raw string) string {
	return "Repair this name.\nRaw name: " + raw + "\nRespond in the format."
}
