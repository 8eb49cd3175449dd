package analytics

// durationStats accumulates count, sum, min and max of durations.
// Min and max start at -1 until the first sample.
type durationStats struct {
	count int
	total float64
	min   float64
	max   float64
}

func newDurationStats() *durationStats {
	return &durationStats{min: -1, max: -1}
}

func (s *durationStats) add(d float64) {
	s.count++
	s.total += d

	if s.min == -1 || d < s.min {
		s.min = d
	}
	if s.max == -1 || d > s.max {
		s.max = d
	}
}

// avg returns the mean duration, or 0 if no samples
func (s *durationStats) avg() float64 {
	if s.count == 0 {
		return 0
	}
	return s.total / float64(s.count)
}

// lo returns the minimum duration, or 0 if no samples
func (s *durationStats) lo() float64 {
	if s.min == -1 {
		return 0
	}
	return s.min
}

// hi returns the maximum duration, or 0 if no samples
func (s *durationStats) hi() float64 {
	if s.max == -1 {
		return 0
	}
	return s.max
}
