// Package surface describes the capabilities the booking flow needs from
// whatever renders the schedule and accepts reservation actions.
package surface

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// WaitPolicy says when a navigation counts as finished.
type WaitPolicy int

const (
	WaitLoad WaitPolicy = iota
	WaitDOMContentLoaded
	WaitNetworkIdle
)

// Locator addresses an element either by CSS selector or by accessible
// role and name. A CSS locator may be scoped to the element of a parent
// locator and narrowed to its nth match.
type Locator struct {
	CSS   string
	Role  string
	Name  string
	Exact bool

	nth    int // 1-based, 0 means first match
	parent *Locator
}

func CSS(selector string) Locator { return Locator{CSS: selector} }

func Role(role, name string) Locator { return Locator{Role: role, Name: name} }

// ExactRole matches the accessible name exactly instead of as a substring.
func ExactRole(role, name string) Locator {
	return Locator{Role: role, Name: name, Exact: true}
}

// Nth returns the i-th (0-based) match of selector.
func Nth(selector string, i int) Locator {
	return CSS(selector).At(i)
}

// At narrows the locator to its i-th (0-based) match.
func (l Locator) At(i int) Locator {
	l.nth = i + 1
	return l
}

// Find addresses the elements matching selector inside the element l
// resolves to.
func (l Locator) Find(selector string) Locator {
	p := l
	return Locator{CSS: selector, parent: &p}
}

// Parent returns the scope set by Find, if any.
func (l Locator) Parent() (Locator, bool) {
	if l.parent == nil {
		return Locator{}, false
	}
	return *l.parent, true
}

// Index returns the 0-based match index, if one was set.
func (l Locator) Index() (int, bool) {
	if l.nth == 0 {
		return 0, false
	}
	return l.nth - 1, true
}

func (l Locator) IsRole() bool { return l.Role != "" }

func (l Locator) String() string {
	if l.IsRole() {
		return fmt.Sprintf("role=%s[name=%q]", l.Role, l.Name)
	}
	s := l.CSS
	if p, ok := l.Parent(); ok {
		s = p.String() + " >> " + s
	}
	if i, ok := l.Index(); ok {
		s = fmt.Sprintf("%s >> nth=%d", s, i)
	}
	return s
}

// Surface is the full set of capabilities used by a run.
type Surface interface {
	Navigate(ctx context.Context, url string, wait WaitPolicy) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, l Locator) error
	// IsVisible never fails; any probe error reads as false.
	IsVisible(ctx context.Context, l Locator) bool
	WaitVisible(ctx context.Context, l Locator, timeout time.Duration) error
	WaitURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) error
	// Count reports how many elements l matches, ignoring its index.
	Count(ctx context.Context, l Locator) (int, error)
	InnerText(ctx context.Context, l Locator) (string, error)
	Reload(ctx context.Context, wait WaitPolicy) error
	Close() error
}
