package brackets

// IsPowerOfTwo reports whether n is 1, 2, 4, 8...
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ExpectedQualifiedCount is the bracket size a field of n participants is
// reduced to: the largest power of two not above n.
func ExpectedQualifiedCount(n int) int {
	if n < 1 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// QualificationPlan is one qualification round.
type QualificationPlan struct {
	// Byes advance without playing.
	Byes  []string
	Pairs [][2]string
	// Final is set when byes and winners are qualified outright. Otherwise
	// they stay in the pending pool for another qualification round.
	Final bool
}

// PlanQualification decides who plays in the next qualification round so
// that exactly need more participants end up qualified. Pending is in join
// order; the earliest joiners receive the byes and the rest are paired
// consecutively. When pending holds at least twice what is needed, everyone
// plays (one bye on an odd count) and another round follows.
func PlanQualification(pending []string, need int) QualificationPlan {
	var plan QualificationPlan
	if need <= 0 || len(pending) == 0 {
		return plan
	}
	if len(pending) <= need {
		plan.Byes = append(plan.Byes, pending...)
		plan.Final = true
		return plan
	}

	byeCount := 2*need - len(pending)
	plan.Final = byeCount >= 0
	if !plan.Final {
		byeCount = len(pending) % 2
	}
	plan.Byes = append(plan.Byes, pending[:byeCount]...)
	rest := pending[byeCount:]
	for i := 0; i+1 < len(rest); i += 2 {
		plan.Pairs = append(plan.Pairs, [2]string{rest[i], rest[i+1]})
	}
	return plan
}
