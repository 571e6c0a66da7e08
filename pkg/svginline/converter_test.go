package svginline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svginline/internal/config"
	"svginline/internal/dom"
	"svginline/internal/geom"
)

// mapFetcher serves markup from memory
type mapFetcher struct {
	markup map[string]string
	calls  int
}

func (f *mapFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls++
	markup, ok := f.markup[url]
	if !ok {
		return "", fmt.Errorf("connection refused: %s", url)
	}
	return markup, nil
}

// fixedGeometry always reports the same box
type fixedGeometry struct {
	box geom.Rect
	ok  bool
}

func (g *fixedGeometry) BoundingBox(dom.Node) (geom.Rect, bool) {
	return g.box, g.ok
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PlaceholderSelector = "img"
	return cfg
}

func parseResult(t *testing.T, html string) dom.Document {
	t.Helper()
	doc, err := dom.NewParser().Parse(html)
	require.NoError(t, err)
	return doc
}

func TestProcessReplacesPlaceholder(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/logo.svg": `<svg xmlns:a="http://ns.adobe.com/AdobeSVGViewerExtensions/3.0/">` +
			`<style>.st0{fill:#FFFFFF;}</style>` +
			`<rect class="st0" x="1" y="2" width="3" height="4"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img id="logo" class="style-svg" src="http://assets.test/logo.svg"></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Stats.PlaceholdersFound)

	doc := parseResult(t, result.HTML)
	assert.Empty(t, doc.Find("img"), "placeholder must be gone")

	svgs := doc.Find("svg")
	require.Len(t, svgs, 1, "exactly one graphic root replaces the placeholder")
	root := svgs[0]

	id, ok := root.Attr("id")
	require.True(t, ok)
	assert.Equal(t, "logo", id)

	assert.True(t, root.HasClass("replaced-svg"))
	assert.True(t, root.HasClass("img-fluid"))

	_, ok = root.Attr("xmlns:a")
	assert.False(t, ok, "authoring-tool namespace attribute must be stripped")

	// tight box of the single rect
	vb, ok := root.Attr("viewBox")
	require.True(t, ok)
	assert.Equal(t, "1 2 3 4", vb)

	// repaint toggle leaves the explicit display value behind
	style, ok := root.Attr("style")
	require.True(t, ok)
	assert.Contains(t, style, "display: block")
}

func TestProcessSkipsReplacedClassWithoutClassAttr(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/plain.svg": `<svg><rect width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/plain.svg"></body></html>`)
	require.NoError(t, err)
	require.Equal(t, 1, result.Converted)

	doc := parseResult(t, result.HTML)
	root := doc.Find("svg")[0]

	assert.False(t, root.HasClass("replaced-svg"))
	assert.True(t, root.HasClass("img-fluid"))
}

func TestProcessMarkerClassesIdempotent(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/fluid.svg": `<svg class="img-fluid replaced-svg"><rect width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img class="style-svg" src="http://assets.test/fluid.svg"></body></html>`)
	require.NoError(t, err)
	require.Equal(t, 1, result.Converted)

	doc := parseResult(t, result.HTML)
	classes := doc.Find("svg")[0].Classes()

	counts := map[string]int{}
	for _, c := range classes {
		counts[c]++
	}
	assert.Equal(t, 1, counts["img-fluid"])
	assert.Equal(t, 1, counts["replaced-svg"])
}

func TestSynthesizedViewBoxHeightBeforeWidth(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/dims.svg": `<svg height="100" width="50"><rect width="1" height="1"/></svg>`,
	}}

	cfg := testConfig()
	cfg.TrimViewBox = false
	cfg.ForceRepaint = false
	converter := New(cfg, WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/dims.svg"></body></html>`)
	require.NoError(t, err)
	require.Equal(t, 1, result.Converted)

	doc := parseResult(t, result.HTML)
	vb, ok := doc.Find("svg")[0].Attr("viewBox")
	require.True(t, ok)
	assert.Equal(t, "0 0 100 50", vb, "synthesized viewBox is height-first")
}

func TestTrimOverwritesSynthesizedViewBox(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/dims.svg": `<svg height="100" width="50"><rect width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(),
		WithFetcher(fetcher),
		WithGeometry(&fixedGeometry{box: geom.Rect{X: 2.5, Y: 0, W: 10, H: 20}, ok: true}))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/dims.svg"></body></html>`)
	require.NoError(t, err)

	doc := parseResult(t, result.HTML)
	vb, _ := doc.Find("svg")[0].Attr("viewBox")
	assert.Equal(t, "2.5 0 10 20", vb)
}

func TestTrimKeepsViewBoxWithoutGeometry(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/empty.svg": `<svg viewBox="0 0 9 9"><g/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/empty.svg"></body></html>`)
	require.NoError(t, err)

	doc := parseResult(t, result.HTML)
	vb, _ := doc.Find("svg")[0].Attr("viewBox")
	assert.Equal(t, "0 0 9 9", vb)
}

func TestDataAttributeWinsOverSrc(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/real.svg": `<svg><rect width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img data-src="http://assets.test/real.svg" src="http://assets.test/fallback.png"></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, fetcher.calls)
}

func TestNamespacingAvoidsCollisions(t *testing.T) {
	const icon = `<svg><style>.a { fill: red; }</style><rect class="a" x="0" y="0" width="5" height="5"/></svg>`

	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/one.svg": icon,
		"http://assets.test/two.svg": icon,
	}}

	// distinct instants per conversion give distinct prefixes
	base := time.Unix(1736000000, 0)
	clock := func() time.Time {
		base = base.Add(time.Hour)
		return base
	}

	cfg := testConfig()
	cfg.MaxConcurrentFetches = 1
	converter := New(cfg, WithFetcher(fetcher), WithClock(clock))

	result, err := converter.Process(context.Background(),
		`<html><body>`+
			`<img src="http://assets.test/one.svg">`+
			`<img src="http://assets.test/two.svg">`+
			`</body></html>`)
	require.NoError(t, err)
	require.Equal(t, 2, result.Converted)
	assert.Equal(t, 2, result.Stats.RulesNamespaced)
	assert.Equal(t, 2, result.Stats.ElementsReclassed)

	doc := parseResult(t, result.HTML)
	svgs := doc.Find("svg")
	require.Len(t, svgs, 2)

	var rectClasses, styleClasses []string
	for _, root := range svgs {
		rects := root.Find("rect")
		require.Len(t, rects, 1)
		classes := rects[0].Classes()
		require.Len(t, classes, 1)
		rectClasses = append(rectClasses, classes[0])

		styles := root.Find("style")
		require.Len(t, styles, 1)
		styleClasses = append(styleClasses, styles[0].Text())
	}

	// no graphic still references the generic class
	assert.NotEqual(t, "a", rectClasses[0])
	assert.NotEqual(t, "a", rectClasses[1])
	assert.NotEqual(t, rectClasses[0], rectClasses[1], "prefixes must not collide")

	// each stylesheet references only its own namespaced class
	assert.Contains(t, styleClasses[0], "."+rectClasses[0])
	assert.Contains(t, styleClasses[1], "."+rectClasses[1])
	assert.NotContains(t, styleClasses[0], "."+rectClasses[1])
}

func TestNamespacingLeavesForeignStylesheetsAlone(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/styled.svg": `<svg><style>.a { fill: red; }</style><rect class="a" width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><head><style>.a { color: blue; }</style></head>`+
			`<body><img src="http://assets.test/styled.svg"></body></html>`)
	require.NoError(t, err)

	doc := parseResult(t, result.HTML)
	styles := doc.StyleNodes()
	require.Len(t, styles, 2)
	assert.Contains(t, styles[0].Text(), ".a", "page stylesheet must stay untouched")
}

func TestNamespacingRewritesOrphanRules(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/orphan.svg": `<svg><style>.ghost { fill: red; }</style><rect width="1" height="1"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/orphan.svg"></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.RulesNamespaced)
	assert.Equal(t, 0, result.Stats.ElementsReclassed)

	doc := parseResult(t, result.HTML)
	style := doc.Find("svg")[0].Find("style")[0]
	assert.NotContains(t, style.Text(), ".ghost {")
	assert.Contains(t, style.Text(), "-ghost")
}

func TestFetchFailureLeavesPlaceholder(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{}}

	converter := New(testConfig(), WithFetcher(fetcher))

	input := `<html><body><img class="style-svg" src="http://assets.test/gone.svg"></body></html>`
	result, err := converter.Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Converted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1, "exactly one reported fetch error")

	var fetchErr *FetchError
	require.True(t, errors.As(result.Errors[0].Err, &fetchErr))
	assert.Equal(t, "http://assets.test/gone.svg", fetchErr.URL)

	doc := parseResult(t, result.HTML)
	imgs := doc.Find("img")
	require.Len(t, imgs, 1, "placeholder survives a failed fetch")
	src, _ := imgs[0].Attr("src")
	assert.Equal(t, "http://assets.test/gone.svg", src)
	assert.True(t, imgs[0].HasClass("style-svg"))
	assert.Empty(t, doc.Find("svg"))
}

func TestResolutionFailure(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img alt="no source"></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)

	var resErr *ResolutionError
	assert.True(t, errors.As(result.Errors[0].Err, &resErr))
	assert.Equal(t, 0, fetcher.calls)
}

func TestMalformedInputLeavesPlaceholder(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/not-svg.svg": `<p>definitely not a graphic</p>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="http://assets.test/not-svg.svg"></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)

	var malErr *MalformedInputError
	require.True(t, errors.As(result.Errors[0].Err, &malErr))
	assert.Equal(t, "http://assets.test/not-svg.svg", malErr.URL)

	doc := parseResult(t, result.HTML)
	assert.Len(t, doc.Find("img"), 1)
}

func TestRelativeURLResolution(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/icons/star.svg": `<svg><rect width="1" height="1"/></svg>`,
	}}

	cfg := testConfig()
	cfg.BaseURL = "http://assets.test/page.html"
	converter := New(cfg, WithFetcher(fetcher))

	result, err := converter.Process(context.Background(),
		`<html><body><img src="/icons/star.svg"></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
}

func TestConvertSingle(t *testing.T) {
	fetcher := &mapFetcher{markup: map[string]string{
		"http://assets.test/logo.svg": `<svg><rect width="2" height="2"/></svg>`,
	}}

	converter := New(testConfig(), WithFetcher(fetcher))

	doc, err := dom.NewParser().Parse(`<html><body><img src="http://assets.test/logo.svg"></body></html>`)
	require.NoError(t, err)
	placeholder, ok := doc.First("img")
	require.True(t, ok)

	require.NoError(t, converter.Convert(context.Background(), doc, placeholder))

	assert.Empty(t, doc.Find("img"))
	assert.Len(t, doc.Find("svg"), 1)
}

func TestProcessConcurrentFetches(t *testing.T) {
	markup := map[string]string{}
	var body strings.Builder
	body.WriteString(`<html><body>`)
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("http://assets.test/icon-%d.svg", i)
		markup[url] = `<svg><rect width="1" height="1"/></svg>`
		fmt.Fprintf(&body, `<img src=%q>`, url)
	}
	body.WriteString(`</body></html>`)

	converter := New(testConfig(), WithFetcher(&syncFetcher{markup: markup}))

	result, err := converter.Process(context.Background(), body.String())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Converted)

	doc := parseResult(t, result.HTML)
	assert.Len(t, doc.Find("svg"), 10)
}

// syncFetcher is a goroutine-safe mapFetcher
type syncFetcher struct {
	mu     sync.Mutex
	markup map[string]string
}

func (f *syncFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	markup, ok := f.markup[url]
	if !ok {
		return "", fmt.Errorf("connection refused: %s", url)
	}
	return markup, nil
}
