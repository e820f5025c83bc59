package shell

import "log/slog"

// ShellBuilderOption is a function that modifies the shell configuration
// before negotiation begins.
type ShellBuilderOption func(*xrShell)

// WithAppName sets the application name reported to the native graphics driver.
//
// Parameters:
//   - name: the application name
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithAppName(name string) ShellBuilderOption {
	return func(s *xrShell) {
		s.appName = name
	}
}

// WithAppVersion sets the application version reported to the native graphics
// driver.
//
// Parameters:
//   - version: the packed application version
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithAppVersion(version uint32) ShellBuilderOption {
	return func(s *xrShell) {
		s.appVersion = version
	}
}

// WithVulkanTargetVersion sets the Vulkan API version the shell negotiates
// for. Both the compositor's supported range and the installed driver must
// cover it. Defaults to Vulkan 1.1.
//
// Parameters:
//   - version: the packed Vulkan API version (see vk.MakeVersion)
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithVulkanTargetVersion(version uint32) ShellBuilderOption {
	return func(s *xrShell) {
		s.targetAPIVersion = version
	}
}

// WithLogger sets the structured logger used by the shell and its device
// bridge. Defaults to slog.Default().
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithLogger(logger *slog.Logger) ShellBuilderOption {
	return func(s *xrShell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVulkanAPI replaces the native Vulkan entry points, primarily for tests.
//
// Parameters:
//   - api: the native API implementation
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithVulkanAPI(api VulkanAPI) ShellBuilderOption {
	return func(s *xrShell) {
		s.native = api
	}
}

// WithGPUBinder replaces the GPU backend binder, primarily for tests.
//
// Parameters:
//   - binder: the GPU binder implementation
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithGPUBinder(binder GPUBinder) ShellBuilderOption {
	return func(s *xrShell) {
		s.binder = binder
	}
}

// WithForceFallbackAdapter forces the GPU backend onto a software fallback
// adapter when one is available. Useful on headless CI machines.
//
// Returns:
//   - ShellBuilderOption: the option to apply
func WithForceFallbackAdapter() ShellBuilderOption {
	return func(s *xrShell) {
		s.forceFallbackAdapter = true
	}
}
