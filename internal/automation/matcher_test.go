package automation

import "testing"

func TestMatchKeyword(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		keyword   string
		threshold float64
		want      bool
	}{
		{
			name:    "substring match",
			text:    "Cannot connect to the VPN since this morning",
			keyword: "vpn",
			want:    true,
		},
		{
			name:    "substring is case insensitive",
			text:    "PRINTER is out of toner",
			keyword: "printer",
			want:    true,
		},
		{
			name:    "fuzzy match on close spelling",
			text:    "connexion",
			keyword: "connection",
			want:    true,
		},
		{
			name:    "no match on unrelated words",
			text:    "billing",
			keyword: "network",
			want:    false,
		},
		{
			name:    "keyword absent from long text",
			text:    "Mon imprimante ne fonctionne plus",
			keyword: "facturation",
			want:    false,
		},
		{
			name:    "empty text never matches",
			text:    "",
			keyword: "vpn",
			want:    false,
		},
		{
			name:    "whitespace text never matches",
			text:    "   ",
			keyword: "vpn",
			want:    false,
		},
		{
			name:    "empty keyword never matches",
			text:    "anything",
			keyword: "",
			want:    false,
		},
		{
			name:    "keyword of only commas never matches",
			text:    "anything",
			keyword: " , ,",
			want:    false,
		},
		{
			name:    "second comma segment matches",
			text:    "I have a question about my invoice",
			keyword: "refund, invoice",
			want:    true,
		},
		{
			name:    "segments are trimmed",
			text:    "password reset please",
			keyword: "  password  ,  mfa  ",
			want:    true,
		},
		{
			name:    "no segment matches",
			text:    "my screen is broken",
			keyword: "refund, invoice, vpn",
			want:    false,
		},
		{
			name:      "similarity exactly at threshold matches",
			text:      "abcdefghijk",
			keyword:   "abcdefghxyz",
			threshold: 0.7,
			want:      true,
		},
		{
			name:      "similarity below threshold does not match",
			text:      "abcdefghijk",
			keyword:   "abcdefxyzuv",
			threshold: 0.7,
			want:      false,
		},
		{
			name:      "zero threshold falls back to the default",
			text:      "abcdefghijk",
			keyword:   "abcdefxyzuv",
			threshold: 0,
			want:      false,
		},
		{
			name:      "lower threshold accepts looser matches",
			text:      "abcdefghijk",
			keyword:   "abcdefxyzuv",
			threshold: 0.5,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchKeyword(tt.text, tt.keyword, tt.threshold)
			if got != tt.want {
				t.Errorf("MatchKeyword(%q, %q, %v) = %v, want %v", tt.text, tt.keyword, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("billing", "billing"); got != 1 {
		t.Errorf("expected identical strings to score 1, got %v", got)
	}
	if got := Similarity("Billing", "bilLING"); got != 1 {
		t.Errorf("expected case-folded score 1, got %v", got)
	}
	// 7 shared bigrams out of 10+10
	if got := Similarity("abcdefghijk", "abcdefghxyz"); got < 0.69 || got > 0.71 {
		t.Errorf("expected score close to 0.7, got %v", got)
	}
	if got := Similarity("billing", "network"); got > 0.3 {
		t.Errorf("expected unrelated words to score low, got %v", got)
	}
}
