package environment

import (
	"net/url"
	"strings"
	"sync"
)

// Node is a minimal Element.
type Node struct {
	Tag     string
	Attrs   map[string]string
	Content string
	Up      *Node
}

// NewAnchor returns an A node with the given href.
func NewAnchor(href, text string) *Node {
	return &Node{Tag: "A", Attrs: map[string]string{"href": href}, Content: text}
}

// Child returns a new node of tag nested under n.
func (n *Node) Child(tag, text string) *Node {
	return &Node{Tag: tag, Content: text, Up: n}
}

// TagName implements Element.
func (n *Node) TagName() string {
	return strings.ToUpper(n.Tag)
}

// Attr implements Element.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Parent implements Element.
func (n *Node) Parent() Element {
	if n.Up == nil {
		return nil
	}
	return n.Up
}

// Text implements Element.
func (n *Node) Text() string {
	return n.Content
}

// Synthetic is an Observer driven by explicit calls.
type Synthetic struct {
	mu         sync.Mutex
	nextID     int
	visibility Visibility
	page       *url.URL
	visHandler map[int]func(Visibility)
	actHandler map[int]func(Activity)
	elHandler  map[int]func(Element)
}

// Compile-time interface check.
var _ Observer = (*Synthetic)(nil)

// NewSynthetic creates a visible Synthetic observer for page.
// page may be empty.
func NewSynthetic(page string) *Synthetic {
	s := &Synthetic{
		visHandler: make(map[int]func(Visibility)),
		actHandler: make(map[int]func(Activity)),
		elHandler:  make(map[int]func(Element)),
	}
	if page != "" {
		if u, err := url.Parse(page); err == nil {
			s.page = u
		}
	}
	return s
}

// OnVisibilityChange implements Observer.
func (s *Synthetic) OnVisibilityChange(fn func(Visibility)) func() {
	return attach(s, s.visHandler, fn)
}

// OnUserActivity implements Observer.
func (s *Synthetic) OnUserActivity(fn func(Activity)) func() {
	return attach(s, s.actHandler, fn)
}

// OnElementActivation implements Observer.
func (s *Synthetic) OnElementActivation(fn func(Element)) func() {
	return attach(s, s.elHandler, fn)
}

func attach[T any](s *Synthetic, handlers map[int]func(T), fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	handlers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(handlers, id)
	}
}

func snapshot[T any](s *Synthetic, handlers map[int]func(T)) []func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(T), 0, len(handlers))
	for _, fn := range handlers {
		out = append(out, fn)
	}
	return out
}

// Visibility implements Observer.
func (s *Synthetic) Visibility() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibility
}

// PageURL implements Observer.
func (s *Synthetic) PageURL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetVisibility changes the visibility and notifies handlers.
// Handlers run after the state is updated, and only if it changed.
func (s *Synthetic) SetVisibility(v Visibility) {
	s.mu.Lock()
	if s.visibility == v {
		s.mu.Unlock()
		return
	}
	s.visibility = v
	s.mu.Unlock()
	for _, fn := range snapshot(s, s.visHandler) {
		fn(v)
	}
}

// Activity reports user activity to handlers.
func (s *Synthetic) Activity(a Activity) {
	for _, fn := range snapshot(s, s.actHandler) {
		fn(a)
	}
}

// Activate reports a click on el to handlers.
func (s *Synthetic) Activate(el Element) {
	for _, fn := range snapshot(s, s.elHandler) {
		fn(el)
	}
}

// Handlers returns the number of attached handlers.
func (s *Synthetic) Handlers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visHandler) + len(s.actHandler) + len(s.elHandler)
}
