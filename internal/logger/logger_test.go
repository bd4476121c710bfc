package logger_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/logger"
)

func TestMsgKindString(t *testing.T) {
	cases := map[logger.MsgKind]string{
		logger.Error:    "error",
		logger.Warning:  "warning",
		logger.Debug:    "debug",
		logger.Verbose:  "verbose",
		logger.Internal: "internal error",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("MsgKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestDeferLogHasErrorsOnInternal(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddMsg(logger.Msg{Kind: logger.Internal, Text: "change verifier audit failed"})
	if !log.HasErrors() {
		t.Fatal("expected HasErrors() to be true after an Internal message")
	}
	msgs := log.Done()
	if len(msgs) != 1 || msgs[0].Kind != logger.Internal {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestPossibleWarningIsFlagged(t *testing.T) {
	log := logger.NewDeferLog()
	source := &logger.Source{PrettyPath: "a.js", Contents: "x.y"}
	log.AddPossibleWarning(source, logger.Loc{Start: 0}, logger.MsgID_JS_InexistentProperty, "possibly inexistent property \"y\"")
	msgs := log.Done()
	if len(msgs) != 1 || !msgs[0].Possible || msgs[0].Kind != logger.Warning {
		t.Fatalf("expected one possible warning, got %+v", msgs)
	}
}

func TestMsgSortOrder(t *testing.T) {
	log := logger.NewDeferLog()
	source := &logger.Source{PrettyPath: "b.js", Contents: "1\n2\n3"}
	log.AddError(source, logger.Loc{Start: 4}, logger.MsgID_None, "second")
	log.AddError(source, logger.Loc{Start: 0}, logger.MsgID_None, "first")
	msgs := log.Done()
	if len(msgs) != 2 || msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("expected messages sorted by location, got %+v", msgs)
	}
}
