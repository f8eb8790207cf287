package autosave

// State is the persistence status of the live document.
type State int

const (
	// StateSaved means the stored document matches the in-memory one.
	StateSaved State = iota
	// StateUnsaved means a mutation is waiting for the debounce window.
	StateUnsaved
	// StateSaving means a write to the document store is in flight.
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateSaved:
		return "saved"
	case StateUnsaved:
		return "unsaved"
	case StateSaving:
		return "saving"
	}
	return "unknown"
}
