package overlay

import "github.com/foomo/contentgraph-site/service/vo"

type TargetKind string

const (
	TargetInput  TargetKind = "input"
	TargetResult TargetKind = "result"
)

// Target is one focusable element of the overlay. Index is the position of a
// result link in render order and -1 for the input.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Index int        `json:"index"`
	Slug  string     `json:"slug,omitempty"`
}

// FocusRoving moves keyboard focus over the search input followed by the
// rendered result links. Movement is index arithmetic over that list.
type FocusRoving struct {
	targets []Target
	current int
}

func NewFocusRoving() *FocusRoving {
	f := &FocusRoving{}
	f.SetResults(nil)
	return f
}

// SetResults recomputes the targets for a new result list and puts focus
// back on the input.
func (f *FocusRoving) SetResults(results []vo.SearchResult) {
	f.targets = make([]Target, 0, len(results)+1)
	f.targets = append(f.targets, Target{Kind: TargetInput, Index: -1})
	for i, r := range results {
		f.targets = append(f.targets, Target{Kind: TargetResult, Index: i, Slug: r.Slug})
	}
	f.current = 0
}

func (f *FocusRoving) Current() Target {
	return f.targets[f.current]
}

func (f *FocusRoving) links() int {
	return len(f.targets) - 1
}

// Down moves to the next result link, wrapping from the last link to the
// first one. Without links focus stays on the input.
func (f *FocusRoving) Down() {
	links := f.links()
	if links == 0 {
		return
	}
	if f.current == 0 {
		f.current = 1
		return
	}
	f.current = f.current%links + 1
}

// Up moves to the previous result link, wrapping from the first link to the
// last one. It does nothing while the input has focus.
func (f *FocusRoving) Up() {
	links := f.links()
	if f.current == 0 || links == 0 {
		return
	}
	f.current = (f.current-2+links)%links + 1
}
