package sandbox

import (
	"errors"
	"time"
)

var (
	ErrPageClosed = errors.New("sandbox page is closed")
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Config defines sandbox configuration
type Config struct {
	MaxMemoryMB   int64         // Maximum heap size in MB
	Timeout       time.Duration // Execution timeout per delivery or event dispatch
	EnableConsole bool          // Allow console.log/warn/error
	EnableDOM     bool          // Enable document API
	// Modules maps import URLs to module source for the emulated import()
	Modules map[string]string
}

// Result holds what happened on a page
type Result struct {
	Value      interface{}       // Value of the last delivered payload
	Console    []LogEntry        // Console output
	DOMChanges []DOMChange       // DOM modifications
	Storage    map[string]string // localStorage contents
	Imports    []string          // Modules imported, in order
	Errors     []string          // Exceptions thrown by event listeners
	Rejections []string          // Unhandled promise rejections
	Duration   time.Duration     // Total execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info, debug
	Message string    // Log message
	Time    time.Time // Timestamp
}

// DOMChange represents a DOM modification
type DOMChange struct {
	Type     string      // append_child, remove_child, set_attribute, set_text
	Selector string      // Target element
	Property string      // Attribute, property or child tag
	Value    interface{} // New value
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MaxMemoryMB:   50,
		Timeout:       5 * time.Second,
		EnableConsole: true,
		EnableDOM:     true,
	}
}
