package xlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/gitrdm/abductio/internal/xlog"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	l := xlog.New(xlog.Config{Name: "abductio", Output: &buf})
	l.Debug("should not appear")
	l.Info("should appear")
	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug line to be suppressed at default level, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("expected info line to appear, got: %s", out)
	}
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	var buf bytes.Buffer
	l := xlog.New(xlog.Config{Name: "abductio", Level: "debug", Output: &buf})
	l.Debug("visible at debug")
	if !strings.Contains(buf.String(), "visible at debug") {
		t.Fatal("expected debug line to appear once level is lowered to debug")
	}
}

func TestForPhaseNamesTheLogger(t *testing.T) {
	var buf bytes.Buffer
	root := xlog.New(xlog.Config{Name: "abductio", Level: "info", Output: &buf})
	child := xlog.ForPhase(root, "ilp")
	child.Info("converting")
	if !strings.Contains(buf.String(), "ilp") {
		t.Fatalf("expected phase name in log line, got: %s", buf.String())
	}
	var _ hclog.Logger = child
}
