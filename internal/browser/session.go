// Package browser adapts a stealth-launched rod page to the driving
// interface the catalog scraper works against.
package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"ShelfScraper/internal/scraper/catalog"
)

const navTimeout = 60 * time.Second

// fillInputJS types a value into the first visible input on the page and
// fires the events frameworks listen for. Returns whether an input was hit.
const fillInputJS = `(value) => {
	const inputs = Array.from(document.querySelectorAll('input'));
	for (const input of inputs) {
		const rect = input.getBoundingClientRect();
		const style = window.getComputedStyle(input);
		const visible = rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden';
		if (!visible) continue;
		input.focus();
		input.click();
		input.value = value;
		input.dispatchEvent(new Event('input', { bubbles: true }));
		input.dispatchEvent(new Event('change', { bubbles: true }));
		input.dispatchEvent(new Event('keyup', { bubbles: true }));
		return true;
	}
	return false;
}`

// Session is a catalog.Session backed by a stealth page on a shared browser.
type Session struct {
	page *rod.Page
}

// NewSession opens a fresh stealth page. The caller owns the browser; the
// session only owns its page.
func NewSession(b *rod.Browser) (*Session, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("opening stealth page: %w", err)
	}
	page.MustSetViewport(1920, 1080, 1.0, false)
	return &Session{page: page}, nil
}

func (s *Session) Navigate(url string) error {
	if err := s.page.Timeout(navTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := s.page.Timeout(navTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}
	return nil
}

func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

func (s *Session) Elements(selector string) ([]catalog.Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(els), nil
}

func (s *Session) ElementsX(xpath string) ([]catalog.Element, error) {
	els, err := s.page.ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	return wrapAll(els), nil
}

func (s *Session) ScrollTo(y float64) error {
	_, err := s.page.Eval(`(y) => window.scrollTo(0, y)`, y)
	return err
}

func (s *Session) ScrollToBottom() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *Session) PageHeight() (float64, error) {
	res, err := s.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (s *Session) ScrollBottom() (float64, error) {
	res, err := s.page.Eval(`() => window.innerHeight + window.pageYOffset`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (s *Session) ReadyState() (string, error) {
	res, err := s.page.Eval(`() => document.readyState`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (s *Session) FillVisibleInput(value string) (bool, error) {
	res, err := s.page.Eval(fillInputJS, value)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (s *Session) Close() error {
	return s.page.Close()
}
