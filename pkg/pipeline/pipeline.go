// Package pipeline turns graph records into a renderable payload.
//
// This package composes the visualization stages so that the CLI, the HTTP
// server and the TUI behave identically.
//
// # Architecture
//
// A render runs four stages:
//
//  1. Visibility: reduce the full graph to the subset disclosed by the
//     expansion set (package visibility)
//  2. Cap: bound schema graphs to a safe element count (package layout)
//  3. Map: convert nodes and relationships to styled elements (package elements)
//  4. Emit: build the graph, empty-state or error-state document (package payload)
//
// [BuildVisualization] runs stages 2 to 4 on an already visible subset and
// never fails: problems become an error-state payload. [Runner] runs all
// four stages and memoizes payloads in a [cache.Cache].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Render(ctx, g, pipeline.Options{
//	    Layout:   "cose",
//	    Expanded: []string{"4:abc:17"},
//	})
//	if err != nil {
//	    return err
//	}
//	html := res.Payload.HTML
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render/layout"
	"github.com/matzehuels/graphscope/pkg/render/payload"
	"github.com/matzehuels/graphscope/pkg/render/styles"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, server and TUI
// =============================================================================

const (
	// DefaultLayout is the layout used when none is requested.
	DefaultLayout = layout.Default

	// DefaultView is the view mode used when none is requested.
	DefaultView = graph.ViewData

	// DefaultHeight is the payload height in pixels.
	DefaultHeight = payload.DefaultHeight

	// MaxHeight bounds caller-supplied heights.
	MaxHeight = 10000
)

var validate = validator.New()

// =============================================================================
// Options - Render Configuration
// =============================================================================

// Options configures one render. It supports JSON for server requests.
//
// Layout is deliberately unconstrained: unknown names fall back to
// [DefaultLayout] with a logged warning.
type Options struct {
	Layout   string   `json:"layout,omitempty"`
	View     string   `json:"view,omitempty" validate:"omitempty,oneof=data schema"`
	Height   int      `json:"height,omitempty" validate:"gte=0,lte=10000"`
	Expanded []string `json:"expanded,omitempty" validate:"omitempty,dive,required,max=512"`

	// Runtime options (not serialized)
	Colors styles.ColorTable `json:"-"`
	Logger *log.Logger       `json:"-"`
}

// SetDefaults fills unset fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.View == "" {
		o.View = string(DefaultView)
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Colors == nil {
		o.Colors = styles.DefaultPalette
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks caller-supplied options. Hosts call it on untrusted
// input; [BuildVisualization] itself is lenient and treats an unknown
// view as data.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateAndSetDefaults validates o and then applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.Validate(); err != nil {
		return err
	}
	o.SetDefaults()
	return nil
}

// ViewMode returns the view as a [graph.ViewMode]. Unknown values map to data.
func (o *Options) ViewMode() graph.ViewMode {
	if graph.ViewMode(o.View) == graph.ViewSchema {
		return graph.ViewSchema
	}
	return graph.ViewData
}

// ExpansionSet returns the expanded ids as an immutable set.
func (o *Options) ExpansionSet() graph.ExpansionSet {
	return graph.NewExpansionSet(o.Expanded...)
}

// PayloadKeyOpts returns the cache key inputs of a render. It reports false
// when the render must not be cached: a custom color table that does not
// implement [styles.Fingerprinter] cannot be told apart from another table
// of the same type.
func (o *Options) PayloadKeyOpts() (cache.PayloadKeyOpts, bool) {
	expanded := slices.Clone(o.Expanded)
	slices.Sort(expanded)
	expanded = slices.Compact(expanded)

	var palette string
	switch p := o.Colors.(type) {
	case nil:
	case styles.Palette:
		if !maps.Equal(p, styles.DefaultPalette) {
			palette, _ = cache.Fingerprint(p)
		}
	case styles.Fingerprinter:
		palette = fmt.Sprintf("%T:%s", p, p.Fingerprint())
	default:
		return cache.PayloadKeyOpts{}, false
	}
	return cache.PayloadKeyOpts{
		View:     string(o.ViewMode()),
		Layout:   o.Layout,
		Height:   o.Height,
		Expanded: expanded,
		Palette:  palette,
	}, true
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	e := verrs[0]
	field, _, _ := strings.Cut(e.StructField(), "[")
	switch field {
	case "View":
		return errors.New(errors.ErrCodeInvalidViewMode, "invalid view %q (must be one of: data, schema)", e.Value())
	case "Height":
		return errors.New(errors.ErrCodeInvalidHeight, "invalid height %v (must be between 0 and %d)", e.Value(), MaxHeight)
	case "Expanded":
		return errors.New(errors.ErrCodeInvalidElementID, "invalid expanded element id %q", e.Value())
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s: validation failed (%s)", e.Field(), e.Tag())
	}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a render.
type Result struct {
	// Payload is the emitted document.
	Payload payload.Payload

	// Visible is the subset handed to the payload stage, before capping.
	Visible graph.Graph

	// GraphHash fingerprints the full input graph.
	GraphHash string

	// Stats mirrors the counters shown next to the visualization.
	Stats Stats

	// CacheHit reports whether Payload came from the cache.
	CacheHit bool
}

// Stats contains render statistics.
type Stats struct {
	TotalNodes    int           `json:"total_nodes"`
	VisibleNodes  int           `json:"visible_nodes"`
	Relationships int           `json:"relationships"`
	Expanded      int           `json:"expanded"`
	Duration      time.Duration `json:"duration_ns"`
}

// String formats the statistics the way the UI shows them.
func (s Stats) String() string {
	return fmt.Sprintf("%d total nodes, %d visible, %d relationships, %d expanded",
		s.TotalNodes, s.VisibleNodes, s.Relationships, s.Expanded)
}
