package catalog

import (
	"fmt"
	"log"
	"time"
)

const (
	// defaultScrollPasses bounds the incremental loop when the site config
	// does not set its own limit.
	defaultScrollPasses = 20
	// scrollStep is how far each pass moves down the page, in pixels.
	scrollStep = 800
	// earlyPassCount is how many initial passes get the longer settle time,
	// while the page is still loading its heavier assets.
	earlyPassCount = 10
	// bottomSlack is how close to the document end counts as the bottom.
	bottomSlack = 100
	// maxNoGrowthPasses ends the loop once the page has stopped growing for
	// this many consecutive bottom hits.
	maxNoGrowthPasses = 3
)

// timings groups every pause in a scrape so tests can shrink them. The
// defaults are tuned for slow storefronts that render far behind the
// scrollbar.
type timings struct {
	initialWait   time.Duration
	challengeWait time.Duration
	blockedWait   time.Duration
	postGateWait  time.Duration
	reloadWait    time.Duration
	pollInterval  time.Duration
	earlySettle   time.Duration
	lateSettle    time.Duration
	probePause    time.Duration
	renderWait    time.Duration
	finalWait     time.Duration
}

var defaultTimings = timings{
	initialWait:   3 * time.Second,
	challengeWait: 5 * time.Second,
	blockedWait:   10 * time.Second,
	postGateWait:  5 * time.Second,
	reloadWait:    10 * time.Second,
	pollInterval:  time.Second,
	earlySettle:   4 * time.Second,
	lateSettle:    2500 * time.Millisecond,
	probePause:    500 * time.Millisecond,
	renderWait:    time.Second,
	finalWait:     3 * time.Second,
}

// scrollDriver walks the page down in fixed steps, letting lazy-loaded
// content render and extracting after every step. The loop ends at the pass
// limit or once the page has sat at the bottom without growing for
// maxNoGrowthPasses consecutive checks.
type scrollDriver struct {
	session Session
	passes  int
	step    float64
	timing  timings
	sleep   func(time.Duration)
}

// run drives the scroll loop, calling extract after each settle. extract
// reports how many new products it found, which only feeds logging; growth
// is judged by page height, not yield.
func (d *scrollDriver) run(extract func() int) error {
	lastHeight, err := d.session.PageHeight()
	if err != nil {
		return fmt.Errorf("reading page height: %w", err)
	}

	pos := 0.0
	streak := 0
	for i := 0; i < d.passes; i++ {
		pos += d.step
		if err := d.session.ScrollTo(pos); err != nil {
			return fmt.Errorf("scroll pass %d: %w", i+1, err)
		}

		if i < earlyPassCount {
			d.sleep(d.timing.earlySettle)
		} else {
			d.sleep(d.timing.lateSettle)
		}
		d.sleep(d.timing.probePause)
		// Probe only: a dropped session surfaces on the next real call.
		d.session.ReadyState()
		d.sleep(d.timing.renderWait)

		if added := extract(); added > 0 {
			log.Printf("Scroll pass %d/%d: %d new products", i+1, d.passes, added)
		}

		newHeight, err := d.session.PageHeight()
		if err != nil {
			return fmt.Errorf("scroll pass %d: %w", i+1, err)
		}
		bottom, err := d.session.ScrollBottom()
		if err != nil {
			return fmt.Errorf("scroll pass %d: %w", i+1, err)
		}

		if bottom >= newHeight-bottomSlack {
			if newHeight == lastHeight {
				streak++
				if streak >= maxNoGrowthPasses {
					log.Printf("Reached end of page after %d checks", streak)
					break
				}
			} else {
				lastHeight = newHeight
				streak = 0
			}
		} else {
			streak = 0
		}
	}

	// One last sweep from the absolute bottom: the loop may have ended with
	// the tail of the page never having been in view.
	if err := d.session.ScrollToBottom(); err != nil {
		return fmt.Errorf("final scroll: %w", err)
	}
	d.sleep(d.timing.finalWait)
	extract()
	return nil
}
