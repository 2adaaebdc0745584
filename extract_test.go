package pacer_test

import (
	"testing"

	"github.com/hyperengineering/pacer"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "bare object",
			input:  `{"interval": 24}`,
			want:   `{"interval": 24}`,
			wantOK: true,
		},
		{
			name:   "object with prose around it",
			input:  `Sure! Here's the plan: {"interval": 24} Hope that helps.`,
			want:   `{"interval": 24}`,
			wantOK: true,
		},
		{
			name:   "fenced code block",
			input:  "```json\n{\"interval\": 24}\n```",
			want:   `{"interval": 24}`,
			wantOK: true,
		},
		{
			name:   "array",
			input:  `Results: [{"card_id": "a"}, {"card_id": "b"}]`,
			want:   `[{"card_id": "a"}, {"card_id": "b"}]`,
			wantOK: true,
		},
		{
			name:   "nested braces in strings",
			input:  `{"reasoning": "uses {curly} braces and \"quotes\""}`,
			want:   `{"reasoning": "uses {curly} braces and \"quotes\""}`,
			wantOK: true,
		},
		{
			name:   "no JSON at all",
			input:  "I cannot answer that.",
			wantOK: false,
		},
		{
			name:   "unterminated object",
			input:  `{"interval": 24`,
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pacer.ExtractJSON(tt.input)
			if got.OK != tt.wantOK {
				t.Fatalf("ExtractJSON(%q).OK = %v, want %v", tt.input, got.OK, tt.wantOK)
			}
			if tt.wantOK && got.JSON != tt.want {
				t.Errorf("ExtractJSON(%q).JSON = %q, want %q", tt.input, got.JSON, tt.want)
			}
		})
	}
}

func TestExtractJSON_PreservesRaw(t *testing.T) {
	input := "prefix {\"a\": 1} suffix"
	got := pacer.ExtractJSON(input)
	if got.Raw != input {
		t.Errorf("Raw = %q, want original input", got.Raw)
	}
}
