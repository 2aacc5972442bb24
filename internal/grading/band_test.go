package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandScoreBreakpoints(t *testing.T) {
	cases := []struct {
		correct, total int
		want           float64
	}{
		{20, 20, 9},
		{19, 20, 9},
		{18, 20, 8.5},
		{17, 20, 8},
		{16, 20, 7.5},
		{15, 20, 7},
		{14, 20, 7},
		{13, 20, 6.5},
		{12, 20, 6.5},
		{5, 10, 6},
		{9, 20, 5.5},
		{7, 20, 5},
		{5, 20, 4.5},
		{3, 20, 4},
		{2, 20, 4},
		{1, 20, 3.5},
		{0, 20, 3.5},
		{0, 0, 0},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, BandScore(c.correct, c.total), "BandScore(%d,%d)", c.correct, c.total)
	}
}

func TestBandScoreMonotonic(t *testing.T) {
	for total := 1; total <= 60; total++ {
		prev := BandScore(0, total)
		for correct := 1; correct <= total; correct++ {
			got := BandScore(correct, total)
			if got < prev {
				t.Fatalf("BandScore(%d,%d)=%v dropped below %v", correct, total, got, prev)
			}
			prev = got
		}
	}
}

func TestBandScoreHalfSteps(t *testing.T) {
	for correct := 0; correct <= 40; correct++ {
		band := BandScore(correct, 40)
		assert.Equal(t, band, float64(int(band*2))/2, "band %v is not a multiple of 0.5", band)
		assert.True(t, band >= 3.5 && band <= 9)
	}
}

func TestIsPassed(t *testing.T) {
	assert.True(t, IsPassed(6.5, 6.5))
	assert.True(t, IsPassed(7, 6.5))
	assert.False(t, IsPassed(6, 6.5))
	assert.True(t, IsPassed(0, 0))
}
