package domain

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func rankedFixture(n int, frequencies ...int) []RankedAd {
	ranked := make([]RankedAd, n)
	for i := range ranked {
		ad := &Advertisement{ID: fmt.Sprintf("ad-%d", i)}
		if i < len(frequencies) {
			ad.RotationSettings.Frequency = frequencies[i]
		}
		ranked[i] = RankedAd{Ad: ad}
	}
	return ranked
}

func windowIDs(w []RankedAd) []string {
	ids := make([]string, len(w))
	for i, r := range w {
		ids[i] = r.Ad.ID
	}
	return ids
}

func TestRotation_WindowWrapsAround(t *testing.T) {
	// 5 ads, window of 2 -> 4 positions: [0,1] [1,2] [2,3] [3,4] then back to [0,1]
	r := NewRotation(rankedFixture(5), 2, true)

	expected := [][]string{
		{"ad-1", "ad-2"},
		{"ad-2", "ad-3"},
		{"ad-3", "ad-4"},
		{"ad-0", "ad-1"},
		{"ad-1", "ad-2"},
	}

	if got := windowIDs(r.Window()); !reflect.DeepEqual(got, []string{"ad-0", "ad-1"}) {
		t.Fatalf("initial window = %v", got)
	}
	for i, want := range expected {
		got := windowIDs(r.Advance())
		if !reflect.DeepEqual(got, want) {
			t.Errorf("advance %d: window = %v, want %v", i+1, got, want)
		}
	}
}

func TestRotation_NeverExceedsLimit(t *testing.T) {
	r := NewRotation(rankedFixture(7), 3, true)
	for i := 0; i < 20; i++ {
		if n := len(r.Advance()); n != 3 {
			t.Fatalf("advance %d: window size %d, want 3", i, n)
		}
	}
}

func TestRotation_Suspended(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		limit   int
		enabled bool
	}{
		{"disabled", 5, 2, false},
		{"pool equals limit", 3, 3, true},
		{"pool smaller than limit", 2, 4, true},
		{"empty pool", 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRotation(rankedFixture(tt.total), tt.limit, tt.enabled)
			if r.CanRotate() {
				t.Fatal("CanRotate() = true, want false")
			}
			before := windowIDs(r.Window())
			after := windowIDs(r.Advance())
			if !reflect.DeepEqual(before, after) || r.Cursor() != 0 {
				t.Errorf("window moved from %v to %v (cursor %d)", before, after, r.Cursor())
			}
		})
	}
}

func TestRotation_LimitLargerThanPool(t *testing.T) {
	r := NewRotation(rankedFixture(2), 5, true)
	if got := len(r.Window()); got != 2 {
		t.Errorf("window size = %d, want 2", got)
	}
	if r.Positions() != 1 {
		t.Errorf("Positions() = %d, want 1", r.Positions())
	}
}

func TestRotation_ZeroLimitTreatedAsOne(t *testing.T) {
	r := NewRotation(rankedFixture(3), 0, true)
	if r.Limit() != 1 {
		t.Errorf("Limit() = %d, want 1", r.Limit())
	}
}

func TestRotation_Seek(t *testing.T) {
	r := NewRotation(rankedFixture(4), 2, true) // 3 positions

	tests := []struct {
		position int
		cursor   int
	}{
		{0, 0},
		{2, 2},
		{3, 0},
		{7, 1},
		{-1, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.position), func(t *testing.T) {
			r.Seek(tt.position)
			if r.Cursor() != tt.cursor {
				t.Errorf("Seek(%d) cursor = %d, want %d", tt.position, r.Cursor(), tt.cursor)
			}
		})
	}
}

func TestRotation_Interval(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		limit       int
		frequencies []int
		expected    time.Duration
	}{
		{"empty pool uses default", 0, 1, nil, 15 * time.Second},
		{"single ad", 1, 1, []int{10}, 10 * time.Second},
		{"average of window", 3, 2, []int{10, 20, 90}, 15 * time.Second},
		{"unset frequency counts as default", 2, 2, []int{5, 0}, 10 * time.Second},
		{"sample capped at five", 8, 8, []int{10, 10, 10, 10, 10, 100, 100, 100}, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRotation(rankedFixture(tt.total, tt.frequencies...), tt.limit, true)
			if got := r.Interval(); got != tt.expected {
				t.Errorf("Interval() = %v, want %v", got, tt.expected)
			}
		})
	}
}
