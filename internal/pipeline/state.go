package pipeline

// State is a step of the pipeline state machine. Runs move through the
// states in declaration order and end in StateDone or StateFailed.
type State int

const (
	StateStart State = iota
	StateExtractEntities
	StateFetchMarketData
	StateFetchDocuments
	StateAggregate
	StateSynthesize
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateStart:           "Start",
	StateExtractEntities: "ExtractEntities",
	StateFetchMarketData: "FetchMarketData",
	StateFetchDocuments:  "FetchDocuments",
	StateAggregate:       "Aggregate",
	StateSynthesize:      "Synthesize",
	StateDone:            "Done",
	StateFailed:          "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
