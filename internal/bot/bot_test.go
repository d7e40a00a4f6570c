package bot

import "testing"

func TestSplitSearchCaption(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    string
		ok      bool
	}{
		{"bare command", "/search", "", true},
		{"command with text", "/search is this real?", "is this real?", true},
		{"mixed case with padding", "  /SEARCH check this  ", "check this", true},
		{"plain caption", "a sunset photo", "", false},
		{"empty caption", "", "", false},
		{"different command", "/complaint", "", false},
		{"prefix but not the command", "/searchable content", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := splitSearchCaption(tt.caption)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("splitSearchCaption(%q) = %q, %v; want %q, %v",
					tt.caption, got, ok, tt.want, tt.ok)
			}
		})
	}
}
