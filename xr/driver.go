package xr

import (
	"fmt"
	"sort"
	"sync"
)

// Driver connects to one compositor runtime implementation. Bindings register
// themselves from an init function, usually behind a build tag or cgo, so
// applications select a runtime with a blank import.
type Driver interface {
	// Connect loads the runtime and creates an instance for the application.
	//
	// Parameters:
	//   - appName: the application name reported to the runtime
	//   - appVersion: the application version reported to the runtime
	//
	// Returns:
	//   - Instance: the connected runtime instance
	//   - error: error if the runtime cannot be loaded
	Connect(appName string, appVersion uint32) (Instance, error)
}

var (
	driversMu sync.RWMutex
	drivers   = map[string]Driver{}
)

// Register makes a runtime driver available under the given name. It panics if
// the driver is nil or the name is already taken; registration happens at init
// time where a panic is the only useful report.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("xr: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("xr: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// Drivers lists the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the named runtime driver.
//
// Parameters:
//   - name: the registered driver name
//   - appName: the application name reported to the runtime
//   - appVersion: the application version reported to the runtime
//
// Returns:
//   - Instance: the connected runtime instance
//   - error: error if the driver is unknown or the connection fails
func Open(name, appName string, appVersion uint32) (Instance, error) {
	driversMu.RLock()
	driver, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("xr: unknown driver %q (forgotten import?)", name)
	}
	return driver.Connect(appName, appVersion)
}
