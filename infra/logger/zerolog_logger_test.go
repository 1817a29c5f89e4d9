package logger

import (
	"testing"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatal("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"case_id": "c1"})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestSetLevelIgnoresUnknownNames(t *testing.T) {
	SetLevel("info")
	SetLevel("verbose")
	l := NewZerologLogger("test")
	l.Infof("still usable")
}
