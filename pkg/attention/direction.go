package attention

// Direction selects which (query segment, key segment) pairs participate
// in segmented attention. It is a closed enumeration: every case carries
// a fixed triple of pairs, one per query segment, so the cross-modal
// information-flow topology is decided at compile time rather than by
// string comparison.
type Direction int

const (
	// DirectionNone computes independent self-attention per segment:
	// S1<-S1, S2<-S2, S3<-S3.
	DirectionNone Direction = iota
	// DirectionForward routes vision->text, audio->vision, text->audio:
	// S1<-S2, S2<-S3, S3<-S1.
	DirectionForward
	// DirectionBackward routes audio->text, text->vision, vision->audio:
	// S1<-S3, S2<-S1, S3<-S2.
	DirectionBackward
)

// String returns a human-readable name for the direction
func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "none"
	}
}

// keySegments returns, for each query segment index, the index of the key
// segment it attends to. Any value outside the two cross-modal directions
// reduces to per-segment self-attention.
func (d Direction) keySegments() [3]int {
	switch d {
	case DirectionForward:
		return [3]int{1, 2, 0}
	case DirectionBackward:
		return [3]int{2, 0, 1}
	default:
		return [3]int{0, 1, 2}
	}
}
