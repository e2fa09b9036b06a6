// Package logrus adapts a logrus entry to tiercache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/tiercache"
)

var _ tiercache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New wraps l and tags every entry with the cache name when one is given.
func New(l *logrus.Logger, cache string) Logger {
	e := logrus.NewEntry(l)
	if cache != "" {
		e = e.WithField("cache", cache)
	}
	return Logger{E: e}
}

func (l Logger) Debug(msg string, f tiercache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f tiercache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f tiercache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f tiercache.Fields) { l.with(f).Error(msg) }

// logrus sorts keys in its formatters; no ordering needed here.
func (l Logger) with(f tiercache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
