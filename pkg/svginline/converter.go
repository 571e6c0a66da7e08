// Package svginline replaces external SVG image references in an HTML
// document with the fetched SVG content itself, inlined as <svg> elements.
package svginline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"svginline/internal/config"
	"svginline/internal/css"
	"svginline/internal/dom"
	"svginline/internal/fetch"
	"svginline/internal/geom"
)

// Geometry answers layout queries for inserted graphic roots. The default
// implementation derives boxes from shape attributes; tests substitute a
// fake to pin down exact coordinates.
type Geometry interface {
	BoundingBox(root dom.Node) (geom.Rect, bool)
}

// Converter is the SVG inlining engine. It is stateless across calls apart
// from its configuration; concurrent Process calls on separate documents
// are safe.
type Converter struct {
	cfg      config.Config
	parser   dom.Parser
	fetcher  fetch.Fetcher
	geometry Geometry
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Converter beyond its Config
type Option func(*Converter)

// WithParser substitutes the markup parser
func WithParser(p dom.Parser) Option {
	return func(c *Converter) { c.parser = p }
}

// WithFetcher substitutes the resource fetcher
func WithFetcher(f fetch.Fetcher) Option {
	return func(c *Converter) { c.fetcher = f }
}

// WithGeometry substitutes the layout geometry source
func WithGeometry(g Geometry) Option {
	return func(c *Converter) { c.geometry = g }
}

// WithClock substitutes the time source used for namespacing prefixes
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithLogger attaches a logger; the default discards everything
func WithLogger(log zerolog.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// New creates a new converter with the given configuration
func New(cfg config.Config, opts ...Option) *Converter {
	c := &Converter{
		cfg:      cfg,
		parser:   dom.NewParser(),
		geometry: geom.NewCalculator(),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent, c.log)
	}
	return c
}

// NewWithDefaults creates a converter with the default configuration
func NewWithDefaults(opts ...Option) *Converter {
	return New(config.Default(), opts...)
}

// Result contains the outcome of a batch conversion
type Result struct {
	HTML      string            // Final document with inlined graphics
	Converted int               // Placeholders successfully replaced
	Failed    int               // Placeholders left in place after an error
	Errors    []ConversionError // One entry per failed placeholder
	Stats     ProcessingStats   // Processing statistics
}

// ConversionError records a single failed conversion within a batch
type ConversionError struct {
	URL string // resolved source URL, "" when resolution itself failed
	Err error
}

// ProcessingStats contains counters from the conversion process
type ProcessingStats struct {
	PlaceholdersFound int   // Elements matched by the placeholder selector
	RulesNamespaced   int   // Stylesheet rules rewritten with a unique prefix
	ElementsReclassed int   // Elements whose class was swapped during namespacing
	BytesFetched      int64 // Total size of fetched markup
	ProcessingTimeMs  int64 // Wall time for the whole batch
}

// Process converts every placeholder in the given HTML document. Fetches
// run concurrently up to the configured limit; all document mutation is
// applied sequentially in document order afterwards. A failed conversion
// leaves its placeholder untouched and is recorded in Result.Errors; the
// batch itself still succeeds.
func (c *Converter) Process(ctx context.Context, htmlContent string) (*Result, error) {
	start := time.Now()

	doc, err := c.parser.Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	placeholders := doc.Find(c.cfg.PlaceholderSelector)

	result := &Result{}
	result.Stats.PlaceholdersFound = len(placeholders)

	type fetched struct {
		url    string
		markup string
		err    error
	}
	items := make([]fetched, len(placeholders))

	limit := c.cfg.MaxConcurrentFetches
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, placeholder := range placeholders {
		src, err := c.resolveSource(placeholder)
		if err != nil {
			items[i].err = err
			continue
		}
		items[i].url = src

		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			markup, err := c.fetcher.Fetch(ctx, src)
			if err != nil {
				items[i].err = &FetchError{URL: src, StatusCode: statusOf(err), Err: err}
				return
			}
			items[i].markup = markup
		}(i, src)
	}
	wg.Wait()

	for i, placeholder := range placeholders {
		convErr := items[i].err
		if convErr == nil {
			result.Stats.BytesFetched += int64(len(items[i].markup))
			convErr = c.splice(doc, placeholder, items[i].url, items[i].markup, &result.Stats)
		}
		if convErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, ConversionError{URL: items[i].url, Err: convErr})
			c.log.Error().Err(convErr).Str("url", items[i].url).Msg("conversion failed")
			continue
		}
		result.Converted++
	}

	finalHTML, err := doc.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	result.HTML = finalHTML
	result.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// Convert fetches the SVG referenced by a single placeholder and splices it
// into doc in place of that placeholder. On any error the document is left
// exactly as it was.
func (c *Converter) Convert(ctx context.Context, doc dom.Document, placeholder dom.Node) error {
	src, err := c.resolveSource(placeholder)
	if err != nil {
		return err
	}

	markup, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		return &FetchError{URL: src, StatusCode: statusOf(err), Err: err}
	}

	var stats ProcessingStats
	return c.splice(doc, placeholder, src, markup, &stats)
}

// resolveSource returns the placeholder's source URL: the data attribute
// wins, the plain source attribute is the fallback.
func (c *Converter) resolveSource(placeholder dom.Node) (string, error) {
	src, ok := placeholder.Attr(c.cfg.DataAttribute)
	if !ok || strings.TrimSpace(src) == "" {
		src, ok = placeholder.Attr(c.cfg.SourceAttribute)
	}
	if !ok || strings.TrimSpace(src) == "" {
		return "", &ResolutionError{Placeholder: describe(placeholder)}
	}
	src = strings.TrimSpace(src)

	if c.cfg.BaseURL != "" {
		resolved, err := resolveAgainst(c.cfg.BaseURL, src)
		if err != nil {
			return "", &ResolutionError{Placeholder: describe(placeholder)}
		}
		src = resolved
	}

	return src, nil
}

// splice parses the fetched markup, prepares the root element and swaps it
// in for the placeholder, then runs the post-insertion fixups.
func (c *Converter) splice(doc dom.Document, placeholder dom.Node, srcURL, markup string, stats *ProcessingStats) error {
	frag, err := c.parser.Parse(markup)
	if err != nil {
		return &MalformedInputError{URL: srcURL, Err: err}
	}

	root, ok := frag.First("svg")
	if !ok {
		return &MalformedInputError{URL: srcURL}
	}

	// attribute optimizations, applied before insertion
	if id, defined := placeholder.Attr("id"); defined {
		root.SetAttr("id", id)
	}
	if _, defined := placeholder.Attr("class"); defined {
		root.AddClass(c.cfg.ReplacedClass)
	}
	root.AddClass(c.cfg.FluidClass)
	for _, name := range c.cfg.StripAttributes {
		root.RemoveAttr(name)
	}
	c.ensureViewBox(root)

	if err := placeholder.ReplaceWith(root); err != nil {
		return fmt.Errorf("failed to splice svg into document: %w", err)
	}

	// fixups below depend on the root being part of the live document
	c.namespaceStyles(doc, root, stats)
	if c.cfg.TrimViewBox {
		c.trimViewBox(root)
	}
	if c.cfg.ForceRepaint {
		c.forceRepaint(root)
	}

	return nil
}

// ensureViewBox synthesizes a viewBox from the declared dimensions when the
// source omitted one. Height deliberately precedes width here: downstream
// consumers of the legacy browser-side converter depend on that exact
// string, so the swapped order is kept.
func (c *Converter) ensureViewBox(root dom.Node) {
	if _, ok := root.Attr("viewBox"); ok {
		return
	}
	height, hok := root.Attr("height")
	width, wok := root.Attr("width")
	if hok && wok {
		root.SetAttr("viewBox", fmt.Sprintf("0 0 %s %s", height, width))
	}
}

// namespaceStyles rewrites the class rules of every <style> element owned
// by the inserted root under a fresh unique prefix, and swaps the classes
// on the elements that reference them. Graphics exported by drawing tools
// all ship generic class names (.st0, .a), so inlining two of them without
// this step makes their rules collide. Stylesheets elsewhere in the
// document are never touched.
func (c *Converter) namespaceStyles(doc dom.Document, root dom.Node, stats *ProcessingStats) {
	prefix := css.UniquePrefix(c.now())

	for _, style := range doc.StyleNodes() {
		parent := style.Parent()
		if parent == nil || !parent.Same(root) {
			continue
		}

		rules, err := css.ParseRules(style.Text())
		if err != nil {
			c.log.Warn().Err(err).Msg("skipping unparseable embedded stylesheet")
			continue
		}

		var rebuilt strings.Builder
		for _, rule := range rules {
			selector := rule.Selector
			if rule.Class != "" {
				renamed := css.PrefixClass(prefix, rule.Class)
				selector = "." + renamed
				// a rule matching zero elements is still rewritten
				for _, el := range root.ElementsByClass(rule.Class) {
					el.RemoveClass(rule.Class)
					el.AddClass(renamed)
					stats.ElementsReclassed++
				}
			}
			rebuilt.WriteString(css.Render(selector, rule.Declarations))
			rebuilt.WriteString("\n")
			// the element's content is replaced rule by rule
			style.SetText(rebuilt.String())
			stats.RulesNamespaced++
		}
	}
}

// trimViewBox overwrites the viewBox with the tight content bounding box,
// removing surrounding whitespace baked into the source artwork. When no
// geometry is derivable the existing viewBox stays.
func (c *Converter) trimViewBox(root dom.Node) {
	box, ok := c.geometry.BoundingBox(root)
	if !ok {
		return
	}
	root.SetAttr("viewBox", formatViewBox(box))
}

// forceRepaint toggles the root's display style off and back to an explicit
// value, with a layout read between the two writes. WebKit otherwise keeps
// painting the detached placeholder's box instead of the inserted graphic;
// elsewhere the toggle is a harmless reflow.
func (c *Converter) forceRepaint(root dom.Node) {
	root.SetInlineStyle("display", "none")
	c.geometry.BoundingBox(root)
	root.SetInlineStyle("display", "block")
}

// Inline converts every placeholder in the document using the default
// configuration and returns the rewritten HTML.
func Inline(ctx context.Context, htmlContent string) (string, error) {
	result, err := NewWithDefaults().Process(ctx, htmlContent)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// helpers

func resolveAgainst(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid source URL %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

func describe(n dom.Node) string {
	if id, ok := n.Attr("id"); ok && id != "" {
		return n.TagName() + "#" + id
	}
	return n.TagName()
}

func statusOf(err error) int {
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func formatViewBox(r geom.Rect) string {
	return fmt.Sprintf("%s %s %s %s", fnum(r.X), fnum(r.Y), fnum(r.W), fnum(r.H))
}

func fnum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
