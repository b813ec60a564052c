package table

import "sync"

// Viewport geometry defaults. Units are CSS pixels as reported by the browser.
const (
	DefaultRowHeight = 36
	DefaultHeight    = 500
	DefaultOverscan  = 4

	// FetchThreshold is the remaining scroll distance below which another
	// page is requested.
	FetchThreshold = 400
)

// ScrollMetrics is the geometry reported with each scroll event
type ScrollMetrics struct {
	ScrollHeight float64 `json:"scroll_height"`
	ClientHeight float64 `json:"client_height"`
	ScrollTop    float64 `json:"scroll_top"`
}

// Remaining is the distance left before the bottom of the content
func (m ScrollMetrics) Remaining() float64 {
	return m.ScrollHeight - m.ClientHeight - m.ScrollTop
}

// NearBottom reports whether the remaining distance is under FetchThreshold
func (m ScrollMetrics) NearBottom() bool {
	return m.Remaining() < FetchThreshold
}

// Viewport tracks the scroll position over a list of fixed-height rows and
// decides which rows get realized.
type Viewport struct {
	rowHeight float64
	height    float64
	overscan  int

	mu        sync.Mutex
	scrollTop float64
}

// NewViewport creates a viewport; non-positive arguments take the defaults
func NewViewport(rowHeight, height float64, overscan int) *Viewport {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if overscan < 0 {
		overscan = DefaultOverscan
	}
	return &Viewport{rowHeight: rowHeight, height: height, overscan: overscan}
}

// ScrollTo records the scroll offset reported by the browser
func (v *Viewport) ScrollTo(top float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = max(top, 0)
}

// ScrollToTop resets the offset to the first row
func (v *Viewport) ScrollToTop() {
	v.ScrollTo(0)
}

// ScrollTop returns the current offset
func (v *Viewport) ScrollTop() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

// ContentHeight is the full scrollable height for rowCount rows
func (v *Viewport) ContentHeight(rowCount int) float64 {
	return float64(rowCount) * v.rowHeight
}

// Range returns the half-open row interval to realize for rowCount rows,
// including overscan on both sides. Its size depends only on the viewport
// height, never on rowCount.
func (v *Viewport) Range(rowCount int) (start, end int) {
	if rowCount <= 0 {
		return 0, 0
	}

	top := v.ScrollTop()
	first := int(top / v.rowHeight)
	visible := int(v.height/v.rowHeight) + 1

	start = max(first-v.overscan, 0)
	end = min(first+visible+v.overscan, rowCount)
	if start > end {
		start = end
	}
	return start, end
}
