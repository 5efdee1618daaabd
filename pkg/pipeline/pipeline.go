// Package pipeline turns recorded traces into artifacts.
//
// The same pipeline backs the CLI and the HTTP server, so both produce
// identical output for the same trace and options.
//
// # Stages
//
//  1. Load: read the node list from a [source.Source] (cached briefly)
//  2. Prepare: derive reverse links and index the nodes ([trace.Build])
//  3. Render: produce one artifact per requested format (cached by content)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	doc, _, err := runner.Load(ctx, src, "file", "trace-42", false)
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Formats: []string{pipeline.FormatFlowchart, pipeline.FormatTimeline},
//	})
//	fmt.Println(string(result.Artifacts[pipeline.FormatFlowchart]))
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/tracetower/pkg/cache"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/layout"
	"github.com/matzehuels/tracetower/pkg/render/flowchart"
	"github.com/matzehuels/tracetower/pkg/render/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// =============================================================================
// Formats
// =============================================================================

// Format constants for output formats.
const (
	FormatLayout    = "layout"
	FormatFlowchart = "flowchart"
	FormatTimeline  = "timeline"
	FormatDOT       = "dot"
	FormatSVG       = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatLayout:    true,
	FormatFlowchart: true,
	FormatTimeline:  true,
	FormatDOT:       true,
	FormatSVG:       true,
}

// ValidDirections is the set of accepted flowchart directions.
var ValidDirections = map[string]bool{
	"TD": true,
	"TB": true,
	"BT": true,
	"LR": true,
	"RL": true,
}

// ContentType returns the media type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatLayout:
		return "application/json"
	case FormatSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames returns the supported formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Options
// =============================================================================

// Options controls a pipeline run. It supports JSON decoding so the HTTP API
// can accept it as a query or body.
type Options struct {
	Formats []string `json:"formats,omitempty"`

	// Labels
	DefaultModel string `json:"default_model,omitempty"`

	// Flowchart
	OutputBudget int    `json:"output_budget,omitempty"`
	Direction    string `json:"direction,omitempty"`

	// Timeline
	ClickHandler string `json:"click_handler,omitempty"`

	// Node-link
	Detailed bool `json:"detailed,omitempty"`

	// DeriveLinks fills in postIds and childIds from preIds and fatherId
	// before indexing. Recorder output needs it.
	DeriveLinks bool `json:"derive_links,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`
}

// SetDefaults fills in zero values.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatFlowchart}
	}
	if o.DefaultModel == "" {
		o.DefaultModel = trace.DefaultModelName
	}
	if o.OutputBudget <= 0 {
		o.OutputBudget = flowchart.DefaultOutputBudget
	}
	if o.Direction == "" {
		o.Direction = flowchart.DefaultDirection
	}
	if o.ClickHandler == "" {
		o.ClickHandler = timeline.DefaultClickHandler
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Direction = strings.ToUpper(o.Direction)
	if !ValidDirections[o.Direction] {
		return fmt.Errorf("invalid direction: %q (must be one of: TD, TB, BT, LR, RL)", o.Direction)
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:       format,
		DefaultModel: o.DefaultModel,
		DeriveLinks:  o.DeriveLinks,
	}
	switch format {
	case FormatFlowchart:
		k.OutputBudget = o.OutputBudget
		k.Direction = o.Direction
	case FormatTimeline:
		k.ClickHandler = o.ClickHandler
	case FormatDOT, FormatSVG:
		k.Detailed = o.Detailed
	}
	return k
}

func (o *Options) layoutOptions() layout.Options {
	return layout.Options{DefaultModel: o.DefaultModel}
}

func (o *Options) flowchartOptions() flowchart.Options {
	return flowchart.Options{
		DefaultModel: o.DefaultModel,
		OutputBudget: o.OutputBudget,
		Direction:    o.Direction,
	}
}

func (o *Options) timelineOptions() timeline.Options {
	return timeline.Options{
		DefaultModel: o.DefaultModel,
		ClickHandler: o.ClickHandler,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// TraceID is the id of the rendered trace, if known.
	TraceID string

	// TraceHash is the content hash of the node list.
	TraceHash string

	// Graph is the indexed trace.
	Graph *trace.Graph

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings lists references to unknown nodes that were skipped.
	Warnings []trace.DanglingReference

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	PrepareTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits per format.
type CacheInfo struct {
	Hits   []string
	Misses []string
}

// TraceHash returns the SHA-256 of the canonical JSON of nodes.
func TraceHash(nodes []trace.Node) (string, error) {
	data, err := traceio.Canonical(nodes)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
