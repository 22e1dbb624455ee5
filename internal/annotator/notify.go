package annotator

import "wiki-annotator/internal/domain"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows short status messages to the reader.
type Notifier interface {
	Notify(level Level, message string)
}

// Confirmer asks the reader before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// LogNotifier forwards notices to a logger.
type LogNotifier struct {
	logger domain.Logger
}

func NewLogNotifier(logger domain.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.logger.Error(message, nil)
	case LevelWarning:
		n.logger.Warn(message)
	default:
		n.logger.Info(message, "level", string(level))
	}
}
