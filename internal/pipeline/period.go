package pipeline

// Period is one fixed-length, clock-aligned reward window. Boundaries fall
// on anchor plus whole multiples of length; with the default weekly length
// and Monday anchor, windows run Monday 00:00 UTC to the next Monday.
type Period struct {
	Seq      int64
	StartsAt int64
	EndsAt   int64
}

// PeriodFor returns the period owning the instant now. Floor division, so
// instants before the anchor land in negative sequence numbers instead of
// rounding toward zero.
func PeriodFor(now, anchor, length int64) Period {
	seq := (now - anchor) / length
	if (now-anchor)%length < 0 {
		seq--
	}
	start := anchor + seq*length
	return Period{Seq: seq, StartsAt: start, EndsAt: start + length}
}
