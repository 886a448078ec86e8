package migration

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{input: "1.2.3", want: Version{1, 2, 3}},
		{input: "1.2", want: Version{1, 2, 0}},
		{input: "2", want: Version{2, 0, 0}},
		{input: "", want: Version{0, 0, 0}},
		{input: "  1.5.0 ", want: Version{1, 5, 0}},
		{input: "1.2.3.4", wantErr: true},
		{input: "1.x.0", wantErr: true},
		{input: "-1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2", "1.2.0", 0},
		{"0.0.0", "1.0.0", -1},
		{"1.1.0", "1.0.9", 1},
		{"1.4.0", "1.5.0", -1},
		{"2.0.0", "1.9.9", 1},
	}

	for _, tt := range tests {
		got := MustParseVersion(tt.a).Compare(MustParseVersion(tt.b))
		if got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	if got := MustParseVersion("1.2").String(); got != "1.2.0" {
		t.Errorf("String() = %q, want 1.2.0", got)
	}
}
