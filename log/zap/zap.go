// Package zap adapts a *zap.Logger to tiercache.Logger.
package zap

import (
	"slices"

	"github.com/unkn0wn-root/tiercache"
	"go.uber.org/zap"
)

var _ tiercache.Logger = Logger{}

// Logger writes cache logs through L. The cache name, if set, is attached
// to every entry.
type Logger struct {
	L     *zap.Logger
	Cache string
}

// New returns a Logger over l; a nil l logs nothing.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l}
}

func (z Logger) Debug(msg string, f tiercache.Fields) { z.L.Debug(msg, z.fields(f)...) }
func (z Logger) Info(msg string, f tiercache.Fields)  { z.L.Info(msg, z.fields(f)...) }
func (z Logger) Warn(msg string, f tiercache.Fields)  { z.L.Warn(msg, z.fields(f)...) }
func (z Logger) Error(msg string, f tiercache.Fields) { z.L.Error(msg, z.fields(f)...) }

// fields emits f in key order so output is stable.
func (z Logger) fields(f tiercache.Fields) []zap.Field {
	if len(f) == 0 && z.Cache == "" {
		return nil
	}
	out := make([]zap.Field, 0, len(f)+1)
	if z.Cache != "" {
		out = append(out, zap.String("cache", z.Cache))
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
