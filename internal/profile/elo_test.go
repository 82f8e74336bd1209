package profile

import "testing"

func TestElo(t *testing.T) {
	cases := []struct {
		name     string
		rating   int
		opponent int
		actual   float64
		want     int
	}{
		{"equal ratings win", 1000, 1000, 1, 1016},
		{"equal ratings loss", 1000, 1000, 0, 984},
		{"equal ratings draw", 1000, 1000, 0.5, 1000},
		{"favorite wins", 1200, 1000, 1, 1208},
		{"underdog loses", 1000, 1200, 0, 992},
		{"underdog wins", 1000, 1200, 1, 1024},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Elo(tc.rating, tc.opponent, tc.actual); got != tc.want {
				t.Fatalf("Elo(%d, %d, %v) = %d, want %d", tc.rating, tc.opponent, tc.actual, got, tc.want)
			}
		})
	}
}
