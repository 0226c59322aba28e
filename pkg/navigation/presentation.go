package navigation

import "fmt"

// Presentation is one unit of content mounted on a Surface.
//
// The surface that begins a presentation owns it until the presentation
// ends. Presenters only keep weak references, so content that a surface
// has let go of is not kept alive by the state that described it.
type Presentation struct {
	id      any
	kind    Kind
	content any

	onDismissed func()
}

// NewPresentation creates a presentation that no presenter owns, for
// surfaces driven directly.
func NewPresentation(kind Kind, id, content any) *Presentation {
	return &Presentation{id: id, kind: kind, content: content}
}

// ID returns the identity the presentation was created for.
func (p *Presentation) ID() any {
	return p.id
}

// Kind returns the presentation style.
func (p *Presentation) Kind() Kind {
	return p.kind
}

// Content returns what the presenter's Build produced.
func (p *Presentation) Content() any {
	return p.content
}

// DismissExternally tells the owner of p that the user dismissed it
// out-of-band, for example with a swipe or the back button. Surfaces call it
// after they have removed p. The owner decides whether the dismissal is
// still current; calling it for a presentation nobody owns is a no-op.
func (p *Presentation) DismissExternally() {
	if p == nil || p.onDismissed == nil {
		return
	}
	p.onDismissed()
}

func (p *Presentation) String() string {
	return fmt.Sprintf("%s(%v)", p.kind, p.id)
}

// Identifiable is implemented by items that carry their own identity.
// Presenters use it to tell a content update (same identity) from a
// replacement (new identity).
type Identifiable interface {
	Identity() any
}
