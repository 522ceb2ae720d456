package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// fakeSession is an in-memory Session backed by an x/net/html tree. It
// supports exactly the XPath and CSS forms the scraper issues, plus a
// virtual scroll model: elements carry data-y attributes for their vertical
// position and the page grows through the onScroll hook.
type fakeSession struct {
	root  *html.Node
	order map[*html.Node]int

	height    float64
	viewportH float64
	scrollY   float64

	readyState string
	navigated  []string
	navErr     error
	scrollErr  error
	heightErr  error

	// onScroll runs after each ScrollTo so tests can lazy-load content.
	onScroll func(y float64)

	clicks  []string
	inputs  map[string]string
	pressed []string
	filled  []string
	closed  bool
}

func newFakeSession(t interface{ Fatalf(string, ...interface{}) }, doc string) *fakeSession {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsing test document: %v", err)
	}
	s := &fakeSession{
		root:       root,
		height:     2000,
		viewportH:  900,
		readyState: "complete",
		inputs:     map[string]string{},
	}
	s.renumber()
	return s
}

func (s *fakeSession) renumber() {
	s.order = map[*html.Node]int{}
	i := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		s.order[n] = i
		i++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
}

func (s *fakeSession) body() *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil && body == nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
	return body
}

// addBlock appends an HTML fragment to the body, as a lazy loader would.
func (s *fakeSession) addBlock(fragment string) {
	body := s.body()
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		panic(fmt.Sprintf("bad test fragment: %v", err))
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	s.renumber()
}

func (s *fakeSession) Navigate(url string) error {
	if s.navErr != nil {
		return s.navErr
	}
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *fakeSession) HTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, s.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (s *fakeSession) Elements(selector string) ([]Element, error) {
	return s.wrap(s.matchCSS(selector)), nil
}

func (s *fakeSession) ElementsX(xpath string) ([]Element, error) {
	return s.wrap(s.evalXPath(nil, xpath)), nil
}

func (s *fakeSession) ScrollTo(y float64) error {
	if s.scrollErr != nil {
		return s.scrollErr
	}
	max := s.height - s.viewportH
	if max < 0 {
		max = 0
	}
	if y > max {
		y = max
	}
	s.scrollY = y
	if s.onScroll != nil {
		s.onScroll(y)
	}
	return nil
}

func (s *fakeSession) ScrollToBottom() error {
	if s.scrollErr != nil {
		return s.scrollErr
	}
	s.scrollY = s.height - s.viewportH
	if s.scrollY < 0 {
		s.scrollY = 0
	}
	return nil
}

func (s *fakeSession) PageHeight() (float64, error) {
	if s.heightErr != nil {
		return 0, s.heightErr
	}
	return s.height, nil
}

func (s *fakeSession) ScrollBottom() (float64, error) {
	return s.scrollY + s.viewportH, nil
}

func (s *fakeSession) ReadyState() (string, error) {
	return s.readyState, nil
}

func (s *fakeSession) FillVisibleInput(value string) (bool, error) {
	for _, n := range s.matchCSS("input") {
		el := &fakeElement{sess: s, node: n}
		if v, _ := el.Visible(); v {
			s.filled = append(s.filled, value)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSession) wrap(nodes []*html.Node) []Element {
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &fakeElement{sess: s, node: n})
	}
	return els
}

// mustOne returns the single element matched by an XPath, failing the test
// otherwise.
func (s *fakeSession) mustOne(t interface{ Fatalf(string, ...interface{}) }, xpath string) Element {
	els, _ := s.ElementsX(xpath)
	if len(els) != 1 {
		t.Fatalf("expected exactly one match for %q, got %d", xpath, len(els))
	}
	return els[0]
}

type fakeElement struct {
	sess *fakeSession
	node *html.Node
}

func (e *fakeElement) Text() (string, error) {
	return renderText(e.node), nil
}

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *fakeElement) Style(prop string) (string, error) {
	style, _, _ := e.Attribute("style")
	for _, part := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(part, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

func (e *fakeElement) ElementsX(xpath string) ([]Element, error) {
	return e.sess.wrap(e.sess.evalXPath(e.node, xpath)), nil
}

func (e *fakeElement) Click() error {
	e.sess.clicks = append(e.sess.clicks, e.ident())
	return nil
}

func (e *fakeElement) Input(value string) error {
	e.sess.inputs[e.ident()] = value
	return nil
}

func (e *fakeElement) PressEnter() error {
	e.sess.pressed = append(e.sess.pressed, e.ident())
	return nil
}

func (e *fakeElement) Visible() (bool, error) {
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		el := &fakeElement{sess: e.sess, node: n}
		if _, hidden, _ := el.Attribute("hidden"); hidden {
			return false, nil
		}
		if display, _ := el.Style("display"); display == "none" {
			return false, nil
		}
	}
	return true, nil
}

func (e *fakeElement) InViewport() (bool, error) {
	top := e.offsetY() - e.sess.scrollY
	bottom := top + 100
	return bottom >= 0 && top <= e.sess.viewportH, nil
}

// offsetY is the virtual document position: the nearest self-or-ancestor
// data-y attribute, defaulting to the top of the page.
func (e *fakeElement) offsetY() float64 {
	for n := e.node; n != nil; n = n.Parent {
		for _, a := range n.Attr {
			if a.Key == "data-y" {
				y, err := strconv.ParseFloat(a.Val, 64)
				if err == nil {
					return y
				}
			}
		}
	}
	return 0
}

func (e *fakeElement) ident() string {
	for _, a := range e.node.Attr {
		if a.Key == "id" {
			return e.node.Data + "#" + a.Val
		}
	}
	return e.node.Data
}

// ---- text rendering ----

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"section": true, "table": true, "tr": true, "ul": true,
}

// renderText approximates what a browser reports as an element's visible
// text: block boundaries become newlines, runs of whitespace collapse.
func renderText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
			return
		case html.ElementNode:
			switch c.Data {
			case "script", "style":
				return
			case "br":
				sb.WriteString("\n")
				return
			}
			if blockTags[c.Data] {
				sb.WriteString("\n")
			}
		case html.DocumentNode:
		default:
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
		if c.Type == html.ElementNode && blockTags[c.Data] {
			sb.WriteString("\n")
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func directText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// ---- XPath subset ----

var (
	reAncestorStep    = regexp.MustCompile(`^ancestor::\*\[(\d+)\]//(.+)$`)
	rePredAttrEq      = regexp.MustCompile(`^@([\w-]+)='([^']*)'$`)
	rePredAttrPresent = regexp.MustCompile(`^@([\w-]+)$`)
	rePredText        = regexp.MustCompile(`^contains\(text\(\),\s*['"](.+)['"]\)$`)
	rePredAttrContain = regexp.MustCompile(`^contains\(@([\w-]+),\s*['"](.+)['"]\)$`)
	rePredLowerAttr   = regexp.MustCompile(`^contains\(translate\(@([\w-]+),\s*"[^"]*",\s*"[^"]*"\),\s*['"](.+)['"]\)$`)
)

// evalXPath evaluates the XPath subset the scraper issues. ctx nil means the
// document root. Union branches are merged in document order, the way a
// browser reports them.
func (s *fakeSession) evalXPath(ctx *html.Node, expr string) []*html.Node {
	seen := map[*html.Node]bool{}
	var out []*html.Node
	for _, branch := range strings.Split(expr, " | ") {
		for _, n := range s.evalBranch(ctx, strings.TrimSpace(branch)) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i]] < s.order[out[j]] })
	return out
}

func (s *fakeSession) evalBranch(ctx *html.Node, expr string) []*html.Node {
	switch {
	case expr == "..":
		if ctx != nil && ctx.Parent != nil && ctx.Parent.Type == html.ElementNode {
			return []*html.Node{ctx.Parent}
		}
		return nil

	case strings.HasPrefix(expr, "ancestor::"):
		m := reAncestorStep.FindStringSubmatch(expr)
		if m == nil || ctx == nil {
			return nil
		}
		level, _ := strconv.Atoi(m[1])
		anc := ctx
		for i := 0; i < level; i++ {
			anc = anc.Parent
			if anc == nil || anc.Type != html.ElementNode {
				return nil
			}
		}
		return matchDescendants(anc, m[2])

	case strings.HasPrefix(expr, ".//"):
		if ctx == nil {
			return nil
		}
		return matchDescendants(ctx, expr[len(".//"):])

	case strings.HasPrefix(expr, "//"):
		scope := ctx
		if scope == nil {
			scope = s.root
		}
		return matchDescendants(scope, expr[len("//"):])
	}
	return nil
}

// matchDescendants matches a single "tag[pred]" step against the strict
// descendants of scope.
func matchDescendants(scope *html.Node, step string) []*html.Node {
	tag := step
	pred := ""
	if i := strings.IndexByte(step, '['); i >= 0 && strings.HasSuffix(step, "]") {
		tag = step[:i]
		pred = step[i+1 : len(step)-1]
	}

	match := func(n *html.Node) bool {
		if tag != "*" && n.Data != tag {
			return false
		}
		return matchPredicate(n, pred)
	}

	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if match(c) {
					out = append(out, c)
				}
				walk(c)
			}
		}
	}
	walk(scope)
	return out
}

func matchPredicate(n *html.Node, pred string) bool {
	if pred == "" {
		return true
	}
	attr := func(name string) (string, bool) {
		for _, a := range n.Attr {
			if a.Key == name {
				return a.Val, true
			}
		}
		return "", false
	}

	if m := rePredText.FindStringSubmatch(pred); m != nil {
		return strings.Contains(directText(n), m[1])
	}
	if m := rePredLowerAttr.FindStringSubmatch(pred); m != nil {
		v, _ := attr(m[1])
		return strings.Contains(strings.ToLower(v), m[2])
	}
	if m := rePredAttrContain.FindStringSubmatch(pred); m != nil {
		v, _ := attr(m[1])
		return strings.Contains(v, m[2])
	}
	if m := rePredAttrEq.FindStringSubmatch(pred); m != nil {
		v, _ := attr(m[1])
		return v == m[2]
	}
	if m := rePredAttrPresent.FindStringSubmatch(pred); m != nil {
		_, ok := attr(m[1])
		return ok
	}
	return false
}

// ---- CSS subset ----

var reCSS = regexp.MustCompile(`^([a-z]+)(?:\.([\w-]+))?(?:\[([\w-]+)(\*?=)"([^"]*)"\])?$`)

func (s *fakeSession) matchCSS(selector string) []*html.Node {
	m := reCSS.FindStringSubmatch(selector)
	if m == nil {
		return nil
	}
	tag, class, attrName, op, attrVal := m[1], m[2], m[3], m[4], m[5]

	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if cssMatches(c, tag, class, attrName, op, attrVal) {
					out = append(out, c)
				}
				walk(c)
			}
		}
	}
	walk(s.root)
	return out
}

func cssMatches(n *html.Node, tag, class, attrName, op, attrVal string) bool {
	if n.Data != tag {
		return false
	}
	get := func(name string) (string, bool) {
		for _, a := range n.Attr {
			if a.Key == name {
				return a.Val, true
			}
		}
		return "", false
	}
	if class != "" {
		cls, _ := get("class")
		found := false
		for _, c := range strings.Fields(cls) {
			if c == class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if attrName != "" {
		v, ok := get(attrName)
		if !ok {
			return false
		}
		switch op {
		case "=":
			if v != attrVal {
				return false
			}
		case "*=":
			if !strings.Contains(v, attrVal) {
				return false
			}
		}
	}
	return true
}

// noSleep replaces real pauses in tests.
func noSleep(time.Duration) {}
