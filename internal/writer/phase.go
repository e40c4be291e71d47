package writer

// Phase is the writer's position in its lifecycle. Declared carries a
// sub-state while a configuration builder is open.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseDeclared
	PhaseConfigBuilder
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseDeclared:
		return "declared"
	case PhaseConfigBuilder:
		return "configuring builder"
	case PhaseFinalized:
		return "finalized"
	}
	return "unknown"
}

type entryKind int

const (
	entryNone entryKind = iota
	entryConstructor
	entryFactory
)

// Category groups injection points that draw indices from one counter.
type Category int

const (
	// CategoryField numbers field injection points.
	CategoryField Category = iota
	// CategoryMethod numbers setters, injected methods, post-construct and
	// pre-destroy methods together.
	CategoryMethod
	categoryCount
)

// indexAllocator hands out dense indices per category, starting at 0.
type indexAllocator struct {
	next [categoryCount]int
}

func (a *indexAllocator) Next(c Category) int {
	i := a.next[c]
	a.next[c]++
	return i
}

func (a *indexAllocator) Count(c Category) int { return a.next[c] }
