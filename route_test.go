package main

import "testing"

func TestRouterIDString(t *testing.T) {
	if got, want := RouterID(12).String(), "12"; got != want {
		t.Errorf("RouterID(12).String() = %q, want %q", got, want)
	}
}

func TestValidRouterID(t *testing.T) {
	tests := []struct {
		name string
		id   RouterID
		want bool
	}{
		{"zero", 0, false},
		{"min", 1, true},
		{"max", 64000, true},
		{"too big", 64001, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validRouterID(tt.id); got != tt.want {
				t.Errorf("validRouterID(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestMetricValid(t *testing.T) {
	tests := []struct {
		name string
		m    Metric
		want bool
	}{
		{"zero", 0, false},
		{"min", 1, true},
		{"infinity", Infinity, true},
		{"too big", Infinity + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.valid(); got != tt.want {
				t.Errorf("Metric(%d).valid() = %v, want %v", tt.m, got, tt.want)
			}
		})
	}
}

func TestRoutePoisoned(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		want   bool
	}{
		{"reachable", 5, false},
		{"infinity", Infinity, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Route{Metric: tt.metric}
			if got := r.poisoned(); got != tt.want {
				t.Errorf("poisoned() = %v, want %v", got, tt.want)
			}
		})
	}
}
