package confirmation

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		if got := parseAnswer(tt.input); got != tt.want {
			t.Errorf("parseAnswer(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConfirmAutoApprove(t *testing.T) {
	var out bytes.Buffer
	s := &service{reader: bufio.NewReader(strings.NewReader("")), out: &out}

	ok, err := s.Confirm("this replaces everything", true)
	if err != nil || !ok {
		t.Fatalf("auto-approve should confirm: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(out.String(), "this replaces everything") {
		t.Error("warning was not displayed")
	}
}

func TestConfirmReadsAnswer(t *testing.T) {
	var out bytes.Buffer
	s := &service{reader: bufio.NewReader(strings.NewReader("y\n")), out: &out}

	ok, err := s.Confirm("warning", false)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !ok {
		t.Error("expected a yes answer to confirm")
	}

	s = &service{reader: bufio.NewReader(strings.NewReader("n\n")), out: &out}
	ok, err = s.Confirm("warning", false)
	if err != nil || ok {
		t.Errorf("expected a no answer to refuse: ok=%v err=%v", ok, err)
	}
}
