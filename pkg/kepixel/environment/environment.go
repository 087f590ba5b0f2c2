// Package environment abstracts the host page the tracker observes:
// visibility changes, user activity, and element activation (clicks).
//
// Platform glue implements Observer. Synthetic is an in-memory implementation
// driven by explicit calls, used by tests and by headless hosts.
package environment

import "net/url"

// Visibility is the page visibility state.
type Visibility int

const (
	// Visible means the page is shown to the user.
	Visible Visibility = iota
	// Hidden means the page is in the background or being closed.
	Hidden
)

// String returns the visibility name.
func (v Visibility) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

// Activity is a kind of user activity.
type Activity string

// Activity kinds.
const (
	ActivityPointer Activity = "pointer"
	ActivityKey     Activity = "key"
	ActivityScroll  Activity = "scroll"
	ActivityClick   Activity = "click"
)

// Element is a node of the host document.
type Element interface {
	// TagName returns the upper-case tag name (e.g., "A").
	TagName() string

	// Attr returns an attribute value and whether the attribute is present.
	Attr(name string) (string, bool)

	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// Text returns the element's text content.
	Text() string
}

// Observer exposes the host hooks. Each On method returns a function that
// detaches the handler; detaching twice is a no-op.
type Observer interface {
	OnVisibilityChange(fn func(Visibility)) (detach func())
	OnUserActivity(fn func(Activity)) (detach func())
	OnElementActivation(fn func(Element)) (detach func())

	// Visibility returns the current visibility state.
	Visibility() Visibility

	// PageURL returns the current page URL, or nil if unknown.
	PageURL() *url.URL
}
