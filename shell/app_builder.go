package shell

import "log/slog"

// AppBuilderOption is a function that modifies the app configuration.
type AppBuilderOption func(*App)

// WithAppLogger sets the structured logger used by the app's frame loop.
// Defaults to slog.Default().
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - AppBuilderOption: the option to apply
func WithAppLogger(logger *slog.Logger) AppBuilderOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}
