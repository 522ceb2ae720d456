package catalog

import (
	"log"
	"time"

	"ShelfScraper/internal/sites"
)

// defaultPostcode is used when a site needs a delivery location but the
// config does not pin one.
const defaultPostcode = "GL52 3DT"

type gateState int

const (
	gateNotRequired gateState = iota
	gateIdle
	gateInputLocated
	gateSubmitted
	gatePopupHandled
	gateDone
	gateFailed
)

func (s gateState) String() string {
	switch s {
	case gateNotRequired:
		return "not_required"
	case gateIdle:
		return "idle"
	case gateInputLocated:
		return "input_located"
	case gateSubmitted:
		return "submitted"
	case gatePopupHandled:
		return "popup_handled"
	case gateDone:
		return "done"
	case gateFailed:
		return "failed"
	}
	return "unknown"
}

type domQuery struct {
	xpath bool
	sel   string
}

var postcodeInputQueries = []domQuery{
	{true, `//input[contains(translate(@placeholder, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "postcode")]`},
	{true, `//input[contains(translate(@placeholder, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "address")]`},
	{false, `input[id*="location"]`},
	{false, `input[id*="search"]`},
	{false, `input[type="text"]`},
}

var submitButtonQueries = []domQuery{
	{false, `button[type="submit"]`},
	{true, `//button[contains(translate(@aria-label, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "find")]`},
	{true, `//button[contains(translate(@aria-label, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "search")]`},
	{true, `//button[contains(text(), "Find")]`},
	{true, `//button[contains(text(), "Search")]`},
	{true, `//button[contains(text(), "Go")]`},
}

var popupCloseQueries = []domQuery{
	{true, `//button[contains(translate(@aria-label, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "close")]`},
	{true, `//button[contains(translate(@aria-label, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "dismiss")]`},
	{false, `button.close`},
	{false, `button[class*="close"]`},
	{true, `//button[contains(text(), "Close")]`},
	{true, `//button[contains(text(), "×")]`},
	{true, `//button[contains(text(), "X")]`},
}

// postcodeGate drives the one-shot location prompt some sites put in front
// of their catalog: find the postcode input, fill it, submit, close whatever
// popup follows. The gate runs at most once and its failure never fails the
// scrape, since the prompt may simply not be there.
type postcodeGate struct {
	session Session
	cfg     sites.Config
	state   gateState
	history []gateState
	sleep   func(time.Duration)
}

func newPostcodeGate(session Session, cfg sites.Config, required bool) *postcodeGate {
	g := &postcodeGate{session: session, cfg: cfg, state: gateIdle, sleep: time.Sleep}
	if !required {
		g.state = gateNotRequired
	}
	return g
}

func (g *postcodeGate) to(s gateState) {
	g.state = s
	g.history = append(g.history, s)
}

// Run walks the gate to completion and returns the final state. Calling it
// again after it has run is a no-op.
func (g *postcodeGate) Run() gateState {
	if g.state != gateIdle {
		return g.state
	}

	postcode := g.cfg.Postcode
	if postcode == "" {
		postcode = defaultPostcode
	}
	log.Printf("Entering postcode: %s", postcode)

	g.sleep(3 * time.Second)

	if !g.fillInput(postcode) {
		log.Printf("Could not find a postcode input, skipping")
		g.to(gateFailed)
		return g.state
	}
	g.to(gateInputLocated)
	g.sleep(2 * time.Second)

	g.submit()
	g.to(gateSubmitted)

	g.closePopups()
	g.to(gatePopupHandled)

	g.to(gateDone)
	return g.state
}

func (g *postcodeGate) find(q domQuery) []Element {
	var (
		els []Element
		err error
	)
	if q.xpath {
		els, err = g.session.ElementsX(q.sel)
	} else {
		els, err = g.session.Elements(q.sel)
	}
	if err != nil {
		return nil
	}
	return els
}

// fillInput types the postcode into the first visible candidate input,
// falling back to script injection when no native fill lands.
func (g *postcodeGate) fillInput(postcode string) bool {
	for _, q := range postcodeInputQueries {
		for _, el := range g.find(q) {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
			if err := el.Click(); err != nil {
				continue
			}
			g.sleep(500 * time.Millisecond)
			if err := el.Input(postcode); err != nil {
				continue
			}
			return true
		}
	}

	ok, err := g.session.FillVisibleInput(postcode)
	if err != nil {
		return false
	}
	return ok
}

func (g *postcodeGate) clickFirstVisible(q domQuery) bool {
	for _, el := range g.find(q) {
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if el.Click() == nil {
			return true
		}
	}
	return false
}

// submit clicks the search button. A site-specific popup button from the
// config wins over the generic candidates; Enter on the input is the last
// resort.
func (g *postcodeGate) submit() {
	if sel := g.cfg.PostcodeSelectors.PopupSearchButton; sel != "" {
		if g.clickFirstVisible(domQuery{xpath: true, sel: sel}) {
			g.sleep(5 * time.Second)
			return
		}
	}

	for _, q := range submitButtonQueries {
		if g.clickFirstVisible(q) {
			g.sleep(5 * time.Second)
			return
		}
	}

	for _, el := range g.find(domQuery{sel: `input[type="text"]`}) {
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if el.PressEnter() == nil {
			g.sleep(5 * time.Second)
		}
		break
	}
}

// closePopups dismisses the modal some sites show after a location search.
func (g *postcodeGate) closePopups() {
	g.sleep(2 * time.Second)
	for _, q := range popupCloseQueries {
		if g.clickFirstVisible(q) {
			g.sleep(2 * time.Second)
			return
		}
	}
}
