package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeLanguages(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim whitespace",
			input: []string{" English ", "  Hindi"},
			want:  []string{"English", "Hindi"},
		},
		{
			name:  "remove case-insensitive duplicates keeping first spelling",
			input: []string{"English", "english", "ENGLISH"},
			want:  []string{"English"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Tamil", "", "  ", "Kannada"},
			want:  []string{"Tamil", "Kannada"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLanguages(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeLanguages(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
