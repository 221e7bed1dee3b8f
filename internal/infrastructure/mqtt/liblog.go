package mqtt

import (
	"fmt"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// LibraryLogger receives the paho library's internal log lines.
type LibraryLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// pahoLogger adapts one log level to paho's Println/Printf logger.
type pahoLogger struct {
	log func(msg string, args ...any)
}

func (l pahoLogger) Println(v ...any) {
	l.log(strings.TrimSpace(fmt.Sprintln(v...)), "source", "paho")
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.log(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "paho")
}

// EnableLibraryLogging routes paho's package-level loggers to logger.
//
// paho's loggers are process-wide, so this affects every client.
func EnableLibraryLogging(logger LibraryLogger) {
	pahomqtt.CRITICAL = pahoLogger{log: logger.Error}
	pahomqtt.ERROR = pahoLogger{log: logger.Error}
	pahomqtt.WARN = pahoLogger{log: logger.Warn}
	pahomqtt.DEBUG = pahoLogger{log: logger.Debug}
}
