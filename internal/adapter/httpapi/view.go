// Package httpapi exposes the forecast service over HTTP: the display
// list and row detail, refresh and sync triggers, the last resolved
// location, and the health, readiness, and metrics endpoints.
package httpapi

import (
	"sync"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
)

// ViewState is the HTTP-facing view. The refresh controller pushes
// loading, forecast, and error signals into it; handlers read a
// consistent snapshot back out. It implements refresh.View.
type ViewState struct {
	mu      sync.Mutex
	loading bool
	failed  bool
	rows    []forecast.DisplayRow
}

// ViewSnapshot is one consistent read of the view. At most one of
// Loading and Failed is set; Rows is populated only after a successful
// refresh.
type ViewSnapshot struct {
	Loading bool
	Failed  bool
	Rows    []forecast.DisplayRow
}

func NewViewState() *ViewState {
	return &ViewState{}
}

// ShowLoading marks a refresh in flight. Any previous rows stay visible
// until the refresh completes.
func (v *ViewState) ShowLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = true
	v.failed = false
}

// ShowForecast publishes a completed refresh.
func (v *ViewState) ShowForecast(rows []forecast.DisplayRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	v.failed = false
	v.rows = rows
}

// ShowError marks the last refresh failed and drops any stale rows.
func (v *ViewState) ShowError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	v.failed = true
	v.rows = nil
}

// Snapshot returns a copy of the current view.
func (v *ViewState) Snapshot() ViewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]forecast.DisplayRow, len(v.rows))
	copy(rows, v.rows)
	return ViewSnapshot{Loading: v.loading, Failed: v.failed, Rows: rows}
}
