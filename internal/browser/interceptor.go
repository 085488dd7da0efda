package browser

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// LinkNavigator accepts link-activation intents. *Controller implements it.
type LinkNavigator interface {
	ClickLink(href string) (*Load, bool)
}

// ClickEvent is an activation inside a Document.
type ClickEvent struct {
	Target *html.Node

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault suppresses the surface's native navigation.
func (e *ClickEvent) PreventDefault() { e.defaultPrevented = true }

// StopPropagation keeps the event from reaching other handlers.
func (e *ClickEvent) StopPropagation() { e.propagationStopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *ClickEvent) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *ClickEvent) PropagationStopped() bool { return e.propagationStopped }

// Interceptor turns link clicks inside a Document into navigation intents.
type Interceptor struct {
	nav    LinkNavigator
	logger *zap.Logger
}

// NewInterceptor creates an Interceptor feeding nav.
func NewInterceptor(nav LinkNavigator, logger *zap.Logger) *Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{nav: nav, logger: logger}
}

// Handle inspects ev and, if it activated a navigable link, suppresses the
// default action and issues a ClickLink intent. Clicks on fragments,
// javascript: links, non-links and inaccessible documents are ignored.
func (i *Interceptor) Handle(doc *Document, ev *ClickEvent) (*Load, bool) {
	if ev == nil || !doc.Accessible() {
		return nil, false
	}

	dest, err := linkDestination(doc, ev.Target)
	if err != nil {
		i.logger.Debug("document not readable", zap.String("url", doc.URL()), zap.Error(err))
		return nil, false
	}
	if !followable(dest) {
		return nil, false
	}

	ev.PreventDefault()
	ev.StopPropagation()
	i.logger.Debug("intercepted link", zap.String("from", doc.URL()), zap.String("to", dest))
	return i.nav.ClickLink(dest)
}

// linkDestination finds the closest anchor around target and recovers where
// it points: the marker attribute first, then the live href.
func linkDestination(doc *Document, target *html.Node) (dest string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading document: %v", r)
		}
	}()

	root := doc.Selection()
	if root == nil {
		return "", fmt.Errorf("document %s is closed", doc.URL())
	}
	if target == nil {
		return "", nil
	}

	// FindNodes drops targets that do not belong to this document.
	anchor := root.FindNodes(target).Closest("a")
	if anchor.Length() == 0 {
		return "", nil
	}

	return anchorDestination(anchor.Get(0), doc.Base()), nil
}
