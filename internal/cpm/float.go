package cpm

import "math"

// Tolerance returns the absolute comparison tolerance for a project of the
// given duration.
func Tolerance(epsilon, projectDuration float64) float64 {
	if epsilon <= 0 {
		epsilon = Epsilon
	}
	return epsilon * math.Max(1, math.Abs(projectDuration))
}

// Annotate derives total float, free float and criticality for s once the
// passes have run. Floats within tol of zero are reported as exactly zero.
func Annotate(s *Schedule, successors []*Schedule, tol float64) {
	total := s.LS - s.ES
	s.IsCritical = math.Abs(total) < tol
	s.TotalFloat = snap(total, tol)

	if len(successors) == 0 {
		s.FreeFloat = s.TotalFloat
		return
	}
	minES := successors[0].ES
	for _, succ := range successors[1:] {
		if succ.ES < minES {
			minES = succ.ES
		}
	}
	s.FreeFloat = snap(minES-s.EF, tol)
}

func snap(v, tol float64) float64 {
	if math.Abs(v) < tol {
		return 0
	}
	return v
}
