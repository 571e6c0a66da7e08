package config

import "time"

// Config holds configuration options for the SVG inlining process
type Config struct {
	// PlaceholderSelector matches the <img> elements to convert
	PlaceholderSelector string

	// DataAttribute is the preferred source attribute (checked first)
	DataAttribute string

	// SourceAttribute is the fallback source attribute
	SourceAttribute string

	// ReplacedClass is added to the inlined root when the placeholder
	// carried a class attribute of its own
	ReplacedClass string

	// FluidClass is always added to the inlined root
	FluidClass string

	// StripAttributes are removed from the inlined root by exact name
	StripAttributes []string

	// BaseURL resolves relative placeholder URLs when set
	BaseURL string

	// TrimViewBox overwrites the viewBox with the content bounding box
	TrimViewBox bool

	// ForceRepaint toggles the root's display style after insertion
	ForceRepaint bool

	// FetchTimeout bounds a single SVG fetch
	FetchTimeout time.Duration

	// MaxConcurrentFetches caps in-flight fetches during batch processing
	MaxConcurrentFetches int

	// UserAgent is sent with every fetch
	UserAgent string
}

// Default returns a configuration matching the conventional markup emitted
// by common SVG embedding plugins: img.style-svg placeholders, a data-src
// override, and Bootstrap fluid sizing on the inlined root.
func Default() Config {
	return Config{
		PlaceholderSelector:  "img.style-svg",
		DataAttribute:        "data-src",
		SourceAttribute:      "src",
		ReplacedClass:        "replaced-svg",
		FluidClass:           "img-fluid",
		StripAttributes:      []string{"xmlns:a"}, // Illustrator leftover
		TrimViewBox:          true,
		ForceRepaint:         true,
		FetchTimeout:         20 * time.Second,
		MaxConcurrentFetches: 4,
		UserAgent:            "svginline/1.0",
	}
}
