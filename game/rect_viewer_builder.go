package game

import "log/slog"

// RectViewerBuilderOption is a function that modifies the scene configuration.
type RectViewerBuilderOption func(*rectViewer)

// WithRectCount sets the number of rectangles in the floating grid.
//
// Parameters:
//   - count: the grid size; values below 1 are ignored
//
// Returns:
//   - RectViewerBuilderOption: the option to apply
func WithRectCount(count int) RectViewerBuilderOption {
	return func(v *rectViewer) {
		if count > 0 {
			v.rectCount = count
		}
	}
}

// WithUpdateWorkers sets the worker count for the per-tick instance rebuild.
// Defaults to NumCPU-1.
//
// Parameters:
//   - count: the worker count; values below 1 are ignored
//
// Returns:
//   - RectViewerBuilderOption: the option to apply
func WithUpdateWorkers(count int) RectViewerBuilderOption {
	return func(v *rectViewer) {
		if count > 0 {
			v.workerCount = count
		}
	}
}

// WithRectViewerLogger sets the structured logger for the scene. Defaults to
// slog.Default().
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RectViewerBuilderOption: the option to apply
func WithRectViewerLogger(logger *slog.Logger) RectViewerBuilderOption {
	return func(v *rectViewer) {
		if logger != nil {
			v.logger = logger
		}
	}
}
