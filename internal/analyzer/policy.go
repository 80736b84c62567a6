package analyzer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds the curated classification lists. They are data, not logic:
// a YAML file can override any list for tuning without touching the
// classifier. Empty lists keep their defaults.
type Policy struct {
	// DeniedTags are never emitted into the map.
	DeniedTags []string `yaml:"denied_tags"`
	// StructuralTags are always accepted regardless of other checks.
	StructuralTags []string `yaml:"structural_tags"`
	// InteractiveCursors mark an element interactive by computed cursor.
	InteractiveCursors []string `yaml:"interactive_cursors"`
	// NonInteractiveCursors veto tag-based interactivity.
	NonInteractiveCursors []string `yaml:"non_interactive_cursors"`
	// InteractiveTags are natively interactive elements.
	InteractiveTags []string `yaml:"interactive_tags"`
	// DistinctTags warrant their own highlight inside a highlighted ancestor.
	DistinctTags []string `yaml:"distinct_tags"`
	// InteractiveRoles are ARIA roles treated as interactive.
	InteractiveRoles []string `yaml:"interactive_roles"`
	// MarkerClasses are class names that mark an element interactive.
	MarkerClasses []string `yaml:"marker_classes"`
}

// DefaultPolicy returns the built-in lists.
func DefaultPolicy() Policy {
	return Policy{
		DeniedTags: []string{
			"svg", "script", "style", "link", "meta", "noscript", "template",
		},
		StructuralTags: []string{
			"body", "div", "main", "article", "section", "nav", "header", "footer",
		},
		InteractiveCursors: []string{
			"pointer", "move", "text", "grab", "grabbing", "cell", "copy",
			"alias", "all-scroll", "col-resize", "context-menu", "crosshair",
			"e-resize", "ew-resize", "help", "n-resize", "ne-resize",
			"nesw-resize", "ns-resize", "nw-resize", "nwse-resize",
			"row-resize", "s-resize", "se-resize", "sw-resize",
			"vertical-text", "w-resize", "zoom-in", "zoom-out",
		},
		NonInteractiveCursors: []string{
			"not-allowed", "no-drop", "wait", "progress", "initial", "inherit",
		},
		InteractiveTags: []string{
			"a", "button", "input", "select", "textarea", "details", "summary",
			"label", "option", "optgroup", "fieldset", "legend",
		},
		DistinctTags: []string{
			"a", "button", "input", "select", "textarea", "summary",
			"details", "label", "option",
		},
		InteractiveRoles: []string{
			"button", "link", "menu", "menubar", "menuitem", "menuitemcheckbox",
			"menuitemradio", "checkbox", "radio", "tab", "switch", "slider",
			"spinbutton", "combobox", "searchbox", "textbox", "listbox",
			"option", "scrollbar",
		},
		MarkerClasses: []string{"button", "dropdown-toggle"},
	}
}

// LoadPolicy reads a YAML policy file and overlays it on the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("policy: read %s: %w", path, err)
	}
	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return p, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	p.merge(override)
	return p, nil
}

func (p *Policy) merge(o Policy) {
	if len(o.DeniedTags) > 0 {
		p.DeniedTags = o.DeniedTags
	}
	if len(o.StructuralTags) > 0 {
		p.StructuralTags = o.StructuralTags
	}
	if len(o.InteractiveCursors) > 0 {
		p.InteractiveCursors = o.InteractiveCursors
	}
	if len(o.NonInteractiveCursors) > 0 {
		p.NonInteractiveCursors = o.NonInteractiveCursors
	}
	if len(o.InteractiveTags) > 0 {
		p.InteractiveTags = o.InteractiveTags
	}
	if len(o.DistinctTags) > 0 {
		p.DistinctTags = o.DistinctTags
	}
	if len(o.InteractiveRoles) > 0 {
		p.InteractiveRoles = o.InteractiveRoles
	}
	if len(o.MarkerClasses) > 0 {
		p.MarkerClasses = o.MarkerClasses
	}
}

// policySets is the compiled, set-based form used on the hot path.
type policySets struct {
	denied        map[string]struct{}
	structural    map[string]struct{}
	cursors       map[string]struct{}
	nonCursors    map[string]struct{}
	tags          map[string]struct{}
	distinctTags  map[string]struct{}
	roles         map[string]struct{}
	markerClasses []string
}

func (p Policy) compile() *policySets {
	return &policySets{
		denied:        toSet(p.DeniedTags),
		structural:    toSet(p.StructuralTags),
		cursors:       toSet(p.InteractiveCursors),
		nonCursors:    toSet(p.NonInteractiveCursors),
		tags:          toSet(p.InteractiveTags),
		distinctTags:  toSet(p.DistinctTags),
		roles:         toSet(p.InteractiveRoles),
		markerClasses: p.MarkerClasses,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
