package catalog

// Session is the slice of browser capability the catalog scraper needs from a
// page. The production implementation wraps a stealth browser page; tests use
// an in-memory DOM.
type Session interface {
	// Navigate loads the target URL and waits for the initial document.
	Navigate(url string) error
	// HTML returns the current page source.
	HTML() (string, error)
	// Elements finds elements by CSS selector. No match is ([], nil).
	Elements(selector string) ([]Element, error)
	// ElementsX finds elements by XPath. No match is ([], nil).
	ElementsX(xpath string) ([]Element, error)
	// ScrollTo scrolls the window to an absolute vertical position.
	ScrollTo(y float64) error
	// ScrollToBottom jumps straight to the bottom of the document.
	ScrollToBottom() error
	// PageHeight reports the full document height in pixels.
	PageHeight() (float64, error)
	// ScrollBottom reports the bottom edge of the viewport within the document.
	ScrollBottom() (float64, error)
	// ReadyState reports document.readyState.
	ReadyState() (string, error)
	// FillVisibleInput types value into the first visible text-like input on
	// the page and fires input, change and keyup events. Reports whether an
	// input was found.
	FillVisibleInput(value string) (bool, error)
	// Close releases the page.
	Close() error
}

// Element is a single DOM node handle.
type Element interface {
	// Text returns the rendered text of the element and its descendants.
	Text() (string, error)
	// Attribute returns the value of an attribute and whether it is present.
	Attribute(name string) (string, bool, error)
	// Style returns a computed CSS property value, e.g. "line-through" or "11px".
	Style(prop string) (string, error)
	// ElementsX finds descendant or ancestor elements relative to this node.
	ElementsX(xpath string) ([]Element, error)
	Click() error
	// Input clears the element and types value into it.
	Input(value string) error
	PressEnter() error
	Visible() (bool, error)
	// InViewport reports whether any part of the element is inside the
	// current viewport.
	InViewport() (bool, error)
}

// relatedElements runs a relative XPath query, treating driver failure as no
// match.
func relatedElements(el Element, xpath string) []Element {
	els, err := el.ElementsX(xpath)
	if err != nil {
		return nil
	}
	return els
}

// elementText reads an element's text, treating driver failure as empty.
func elementText(el Element) string {
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

// elementAttr reads an attribute, treating absence and failure alike.
func elementAttr(el Element, name string) string {
	v, ok, err := el.Attribute(name)
	if err != nil || !ok {
		return ""
	}
	return v
}
