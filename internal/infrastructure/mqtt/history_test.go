package mqtt

import (
	"slices"
	"testing"
)

func TestHistory_Bounded(t *testing.T) {
	const n = DefaultHistorySize

	for _, k := range []int{0, 1, 3, 12} {
		h := NewHistory(n)
		for i := 0; i < n+k; i++ {
			h.Append("AA:BB/status", i)
		}

		got := h.Snapshot("AA:BB/status")
		want := make([]any, 0, n)
		for i := k; i < n+k; i++ {
			want = append(want, i)
		}
		if !slices.Equal(got, want) {
			t.Errorf("after %d messages Snapshot() = %v, want %v", n+k, got, want)
		}

		last, ok := h.Last("AA:BB/status")
		if !ok || last != n+k-1 {
			t.Errorf("after %d messages Last() = %v, %v, want %d, true", n+k, last, ok, n+k-1)
		}
	}
}

func TestHistory_PartialAndPerTopic(t *testing.T) {
	h := NewHistory(3)
	h.Append("a", "a1")
	h.Append("b", "b1")
	h.Append("a", "a2")

	if got := h.Snapshot("a"); !slices.Equal(got, []any{"a1", "a2"}) {
		t.Errorf("Snapshot(a) = %v, want [a1 a2]", got)
	}
	if got := h.Snapshot("b"); !slices.Equal(got, []any{"b1"}) {
		t.Errorf("Snapshot(b) = %v, want [b1]", got)
	}
	if got := h.Snapshot("c"); got != nil {
		t.Errorf("Snapshot(c) = %v, want nil", got)
	}
	if _, ok := h.Last("c"); ok {
		t.Error("Last(c) ok = true, want false")
	}
	if h.Topics() != 2 {
		t.Errorf("Topics() = %d, want 2", h.Topics())
	}
}

func TestNewHistory_DefaultSize(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 10; i++ {
		h.Append("t", i)
	}
	if got := len(h.Snapshot("t")); got != DefaultHistorySize {
		t.Errorf("len(Snapshot()) = %d, want %d", got, DefaultHistorySize)
	}
}
