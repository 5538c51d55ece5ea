package core

// LogLevel orders log severities, lowest first
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the configuration name of the level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "info"
	}
}

// Logger is the structured logger every layer writes to. Fields are flat
// key/value pairs; wallet_id, external_id and error are the common keys.
type Logger interface {
	SetLevel(level LogLevel)
	GetLevel() LogLevel

	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Warn(message string, fields map[string]any)
	Error(message string, fields map[string]any)

	// Flush writes out buffered entries
	Flush() error
}
