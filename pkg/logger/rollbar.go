package logger

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
)

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person is attached to the rollbar report instead of being printed.
type Person interface {
	RollbarPerson() (id, username, email string)
}

type RollbarLogger struct {
	std *log.Logger
}

var _ Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to rollbar only when a token is set.
func NewRollbarLogger(std *log.Logger, token, env string) *RollbarLogger {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetEnabled(token != "")
	return &RollbarLogger{std: std}
}

// Close waits for queued reports to be sent.
func (l *RollbarLogger) Close() {
	rollbar.Wait()
}

// expected fmt: msg | error, map[string]interface{}, Person
//
// The first Person is attached to this report only, through its context.
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if p, ok := arg.(Person); ok {
			if !personSet {
				id, username, email := p.RollbarPerson()
				ctx := rollbar.NewPersonContext(context.Background(), &rollbar.Person{Id: id, Username: username, Email: email})
				newArgs = append(newArgs, ctx)
				personSet = true
			}
			continue
		}
		newArgs = append(newArgs, arg)
	}
	return newArgs
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		if _, ok := arg.(Person); ok {
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

// Debug output is not reported to rollbar.
func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
