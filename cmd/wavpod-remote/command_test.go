package main

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{"play", "!B10", false},
		{"NEXT", "!B20", false},
		{"3", "!B30", false},
		{"shuffle", "!B40", false},
		{"raw !XY0", "!XY0", false},
		{"louder", "", true},
	}

	for _, tt := range tests {
		got, err := parseCommand(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error %v", tt.line, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.line, tt.want, got)
		}
	}
}
