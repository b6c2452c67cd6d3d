package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	GoalField    = "goal_id"
	TaskField    = "task"
	AttemptField = "attempt"
	ActionField  = "action"
)

// NewGlobal configures the process-wide zerolog logger. An empty level
// means info.
func NewGlobal(level string, pretty bool) error {
	if level == "" {
		level = "info"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(l)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}
