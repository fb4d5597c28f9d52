package securexchat

// Logger receives diagnostics the SDK would otherwise swallow, such as
// decrypt failures turned into unreadable messages. internal/logging.Logger
// satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
