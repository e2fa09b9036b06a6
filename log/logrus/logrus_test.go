package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/unkn0wn-root/tiercache"
)

func TestLogrusAdapter(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base, "orders")

	l.Debug("debug", nil)
	l.Info("cache error swallowed", tiercache.Fields{"op": "put", "key": "svc:orders:1"})
	l.Warn("warn", nil)
	l.Error("error", tiercache.Fields{"err": "x"})

	if n := len(hook.AllEntries()); n != 4 {
		t.Fatalf("entries=%d want 4", n)
	}
	e := hook.AllEntries()[1]
	if e.Level != logrus.InfoLevel || e.Message != "cache error swallowed" {
		t.Fatalf("unexpected entry: %v %q", e.Level, e.Message)
	}
	if e.Data["cache"] != "orders" || e.Data["op"] != "put" || e.Data["key"] != "svc:orders:1" {
		t.Fatalf("unexpected data: %v", e.Data)
	}
	if last := hook.LastEntry(); last.Level != logrus.ErrorLevel {
		t.Fatalf("last level=%v", last.Level)
	}
}
