package domain

// Segment is a half-open range [From, To) of stop sequence numbers: the
// passenger boards at From and alights at To.
type Segment struct {
	From int
	To   int
}

// Valid reports whether the segment covers at least one unit of travel.
func (s Segment) Valid() bool {
	return s.From < s.To
}

// Overlaps reports whether two half-open segments share travel. Adjacent
// segments such as [0,2) and [2,4) do not overlap: a passenger alighting at
// stop 2 frees the seat for one boarding at stop 2.
//
// Every overlap decision in the system goes through this function.
func Overlaps(aFrom, aTo, bFrom, bTo int) bool {
	return aFrom < bTo && bFrom < aTo
}

// OverlapsSegment is Overlaps for two Segment values.
func (s Segment) OverlapsSegment(o Segment) bool {
	return Overlaps(s.From, s.To, o.From, o.To)
}
