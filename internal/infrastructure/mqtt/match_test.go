package mqtt

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"a/+/c", "a/b/c", true},
		{"a/#", "a/b/c/d", true},
		{"a/b", "a/b/c", false},
		{"a/b/c", "a/b", false},
		{"a/b", "a/b", true},
		{"a/b", "a/x", false},
		{"+/device/sensor", "AA:BB/device/sensor", true},
		{"+/device/sensor", "AA:BB/device/confirm", false},
		{"+/status", "AA:BB/device/status", false},
		{"#", "anything/at/all", true},
		{"+/+", "a/b", true},
		{"+", "a/b", false},
		{"a/+/#", "a/b/c/d", true},
		{"a/#", "a", false},
		{"x/#", "a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.topic, func(t *testing.T) {
			if got := Match(tt.pattern, tt.topic); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}
