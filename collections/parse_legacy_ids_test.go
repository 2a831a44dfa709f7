package collections

import (
	"reflect"
	"testing"
)

func TestParseLegacyIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"whitespace", "   ", nil, false},
		{"json strings", `["a1", " b2 "]`, []string{"a1", "b2"}, false},
		{"json numbers", `[12, "x"]`, []string{"12", "x"}, false},
		{"comma list", "a1, b2,,c3 ", []string{"a1", "b2", "c3"}, false},
		{"single id", "abc", []string{"abc"}, false},
		{"broken json", `["a1",`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLegacyIDs(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLegacyIDs(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLegacyIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
