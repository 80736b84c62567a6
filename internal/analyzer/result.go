package analyzer

// NodeRecord is one emitted DOM node in the flat map. Records reference
// children by id only, so the structure is acyclic and serializes cleanly
// across iframe and shadow boundaries.
type NodeRecord struct {
	ID             string            `json:"id"`
	TagName        string            `json:"tagName"` // "#text" for text nodes
	Attributes     map[string]string `json:"attributes,omitempty"`
	XPath          string            `json:"xpath"`
	Children       []string          `json:"children"`
	Text           string            `json:"text,omitempty"`
	IsVisible      bool              `json:"isVisible"`
	IsTopElement   bool              `json:"isTopElement"`
	IsInteractive  bool              `json:"isInteractive"`
	IsInViewport   bool              `json:"isInViewport"`
	ShadowRoot     bool              `json:"shadowRoot"`
	HighlightIndex *int              `json:"highlightIndex,omitempty"`
}

// InteractiveElement is the assembled view of one highlighted element,
// ordered by highlight index in the envelope.
type InteractiveElement struct {
	HighlightIndex int    `json:"highlightIndex"`
	ID             string `json:"id"`
	TagName        string `json:"tagName"`
	XPath          string `json:"xpath"`
	Selector       string `json:"selector,omitempty"`
	Text           string `json:"text,omitempty"`
	Description    string `json:"description"`
	Priority       string `json:"priority,omitempty"`
}

// Result is the analysis envelope. It round-trips through JSON: ids are
// strings, never live element handles.
type Result struct {
	RootID              string                 `json:"rootId"`
	Map                 map[string]*NodeRecord `json:"map"`
	TotalElements       int                    `json:"totalElements"`
	HighlightedElements int                    `json:"highlightedElements"`
	InteractiveElements []InteractiveElement   `json:"interactiveElements"`
	Timestamp           int64                  `json:"timestamp"`
	URL                 string                 `json:"url"`
	Title               string                 `json:"title"`
}
