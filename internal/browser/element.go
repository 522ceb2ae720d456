package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"ShelfScraper/internal/scraper/catalog"
)

type element struct {
	el *rod.Element
}

func wrapAll(els rod.Elements) []catalog.Element {
	out := make([]catalog.Element, 0, len(els))
	for _, el := range els {
		out = append(out, element{el: el})
	}
	return out
}

func (e element) Text() (string, error) {
	return e.el.Text()
}

func (e element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e element) Style(prop string) (string, error) {
	res, err := e.el.Eval(`(prop) => getComputedStyle(this).getPropertyValue(prop)`, prop)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e element) ElementsX(xpath string) ([]catalog.Element, error) {
	els, err := e.el.ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	return wrapAll(els), nil
}

func (e element) Click() error {
	return e.el.Click("left", 1)
}

// Input replaces the element's current value, the way a user retyping a
// field would.
func (e element) Input(value string) error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Input(value)
}

func (e element) PressEnter() error {
	return e.el.Type(input.Enter)
}

func (e element) Visible() (bool, error) {
	return e.el.Visible()
}

func (e element) InViewport() (bool, error) {
	res, err := e.el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return r.bottom >= 0 && r.top <= window.innerHeight;
	}`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
