package analyzer

// Unbounded disables viewport culling: every element in the document is
// considered in view.
const Unbounded = -1

// Settings configures one analysis run. Immutable for the run's duration.
type Settings struct {
	// HighlightElements draws numbered overlay boxes over indexed elements.
	HighlightElements bool
	// FocusIndex, when >= 0, draws only the overlay with that index.
	// Indexes are still allocated for every qualifying element.
	FocusIndex int
	// ViewportExpansion is the pixel margin beyond the viewport still
	// treated as in view. Unbounded (-1) covers the whole document.
	ViewportExpansion int
	// DebugMode dumps the final envelope through the logger. It never
	// changes classification outcomes.
	DebugMode bool
	// MaxElements caps the flat map: traversal stops emitting new records
	// once reached. <= 0 means no cap.
	MaxElements int
	// PrioritizeByImportance annotates interactive elements with a
	// priority tier. Ordering is untouched.
	PrioritizeByImportance bool
}

// DefaultSettings returns the defaults documented in the CLI.
func DefaultSettings() Settings {
	return Settings{
		HighlightElements:      true,
		FocusIndex:             -1,
		ViewportExpansion:      0,
		DebugMode:              false,
		MaxElements:            10000,
		PrioritizeByImportance: true,
	}
}
