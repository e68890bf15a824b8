package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// fieldLogger adapts logrus to the key/value Logger interface shared by the
// bootloader and sender packages.
type fieldLogger struct {
	entry *logrus.Entry
}

func newFieldLogger(component string) *fieldLogger {
	return &fieldLogger{entry: log.WithField("component", component)}
}

func (l *fieldLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *fieldLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *fieldLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(msg)
}

// fields pairs up keysAndValues. A trailing key without a value is kept
// under its own name.
func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			f[key] = kv[i+1]
		} else {
			f[key] = "(missing)"
		}
	}
	return f
}
