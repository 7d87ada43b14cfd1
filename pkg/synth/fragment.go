package synth

// Kind identifies a query fragment.
type Kind int

// Fragment kinds, in the order they appear in the assembled query.
const (
	KindPairing Kind = iota
	KindSource
	KindProjection
	KindUnpivot
	KindFilter
	KindOrdering
)

var kindNames = map[Kind]string{
	KindPairing:    "pairing",
	KindSource:     "source",
	KindProjection: "projection",
	KindUnpivot:    "unpivot",
	KindFilter:     "filter",
	KindOrdering:   "ordering",
}

// String returns the fragment kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Fragment is one self-contained piece of the generated query.
type Fragment struct {
	Kind Kind
	Text string
}

func (f Fragment) String() string {
	return f.Text
}
