package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"skull_controller/internal/logger"
)

// recorder returns a handler that records which variant ran.
func recorder(calls *[]string, tag string) Handler {
	return func(r *Responder, tokens []string) error {
		*calls = append(*calls, tag)
		return nil
	}
}

func TestTable_RejectsInvalidDescriptors(t *testing.T) {
	noop := func(*Responder, []string) error { return nil }
	bad := []Command{
		{Name: "", MinTokens: 1, MaxTokens: 1, Handler: noop},
		{Name: "x", MinTokens: 0, MaxTokens: 1, Handler: noop},
		{Name: "x", MinTokens: 3, MaxTokens: 2, Handler: noop},
		{Name: "x", MinTokens: 1, MaxTokens: MaxTokens + 1, Handler: noop},
		{Name: "a b", MinTokens: 1, MaxTokens: 1, Handler: noop},
	}
	for _, c := range bad {
		if err := NewTable().Register(c); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("Register(%+v) err=%v, want ErrInvalidCommand", c, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("MustRegister should panic on an invalid descriptor")
		}
	}()
	NewTable().MustRegister(bad[2])
}

func TestDispatcher_OverloadByArityIgnoresOrder(t *testing.T) {
	for _, getFirst := range []bool{true, false} {
		var calls []string
		get := Command{Name: "limit", MinTokens: 2, MaxTokens: 2, Handler: recorder(&calls, "get")}
		set := Command{Name: "limit", MinTokens: 4, MaxTokens: 4, Handler: recorder(&calls, "set")}
		tbl := NewTable()
		if getFirst {
			tbl.MustRegister(get, set)
		} else {
			tbl.MustRegister(set, get)
		}
		d := NewDispatcher(tbl, logger.Nop())
		r := NewResponder(&bytes.Buffer{}, false)

		if got := d.Dispatch(r, []string{"limit", "rot"}); got != OutcomeOK {
			t.Fatalf("2 tokens outcome=%v", got)
		}
		if got := d.Dispatch(r, []string{"LIMIT", "rot", "1", "2"}); got != OutcomeOK {
			t.Fatalf("4 tokens outcome=%v", got)
		}
		if strings.Join(calls, ",") != "get,set" {
			t.Fatalf("getFirst=%v calls=%v", getFirst, calls)
		}
	}
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	var calls []string
	tbl := NewTable()
	tbl.MustRegister(
		Command{Name: "x", MinTokens: 1, MaxTokens: 3, Handler: recorder(&calls, "first")},
		Command{Name: "x", MinTokens: 2, MaxTokens: 2, Handler: recorder(&calls, "second")},
	)
	d := NewDispatcher(tbl, nil)
	d.Dispatch(NewResponder(&bytes.Buffer{}, false), []string{"x", "1"})
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestDispatcher_UnknownVersusWrongArity(t *testing.T) {
	tbl := NewTable()
	tbl.Section("Calibration")
	tbl.MustRegister(Command{Name: "setAngle", MinTokens: 4, MaxTokens: 4, Handler: func(*Responder, []string) error { return nil }})
	d := NewDispatcher(tbl, logger.Nop())

	var out bytes.Buffer
	r := NewResponder(&out, false)
	if got := d.Dispatch(r, []string{"frobnicate"}); got != OutcomeUnknown {
		t.Fatalf("outcome=%v, want unknown", got)
	}
	unknown := out.String()
	out.Reset()
	if got := d.Dispatch(r, []string{"setAngle", "rot", "10"}); got != OutcomeWrongArity {
		t.Fatalf("outcome=%v, want wrong arity", got)
	}
	arity := out.String()

	if unknown != "Unknown command 'frobnicate'.\r\n*ERR\r\n" {
		t.Fatalf("unknown response %q", unknown)
	}
	if arity != "Wrong number of arguments for 'setAngle' command.\r\n*ERR\r\n" {
		t.Fatalf("arity response %q", arity)
	}
}

func TestDispatcher_DocumentationEntriesNeverMatch(t *testing.T) {
	tbl := NewTable()
	tbl.Section("help")
	d := NewDispatcher(tbl, logger.Nop())
	if got := d.Dispatch(NewResponder(&bytes.Buffer{}, false), []string{"help"}); got != OutcomeUnknown {
		t.Fatalf("outcome=%v, want unknown", got)
	}
}

func TestDispatcher_EmptyTokensDoNothing(t *testing.T) {
	d := NewDispatcher(NewTable(), logger.Nop())
	var out bytes.Buffer
	if got := d.Dispatch(NewResponder(&out, true), nil); got != OutcomeEmpty {
		t.Fatalf("outcome=%v", got)
	}
	if out.Len() != 0 {
		t.Fatalf("blank line produced output %q", out.String())
	}
}

func TestDispatcher_HandlerErrorAndPanic(t *testing.T) {
	tbl := NewTable()
	tbl.MustRegister(
		Command{Name: "fail", MinTokens: 1, MaxTokens: 1, Handler: func(*Responder, []string) error {
			return errors.New("no luck")
		}},
		Command{Name: "boom", MinTokens: 1, MaxTokens: 1, Handler: func(*Responder, []string) error {
			panic("kaboom")
		}},
	)
	d := NewDispatcher(tbl, logger.Nop())
	var out bytes.Buffer
	r := NewResponder(&out, false)

	if got := d.Dispatch(r, []string{"fail"}); got != OutcomeFailed {
		t.Fatalf("outcome=%v", got)
	}
	if out.String() != "no luck\r\n*ERR\r\n" {
		t.Fatalf("fail response %q", out.String())
	}
	out.Reset()
	if got := d.Dispatch(r, []string{"boom"}); got != OutcomeFailed {
		t.Fatalf("outcome=%v", got)
	}
	if !strings.HasSuffix(out.String(), MarkerErr+Newline) {
		t.Fatalf("panic response %q", out.String())
	}
}

func TestTable_WriteHelp(t *testing.T) {
	tbl := NewTable()
	tbl.Section("Motion")
	tbl.MustRegister(Command{Name: "rot", MinTokens: 1, MaxTokens: 2, Help: "<angle> rotate head", Handler: func(*Responder, []string) error { return nil }})
	var out bytes.Buffer
	tbl.WriteHelp(NewResponder(&out, false))
	s := out.String()
	if !strings.Contains(s, "Motion:") || !strings.Contains(s, "rot") || !strings.Contains(s, "rotate head") {
		t.Fatalf("help output %q", s)
	}
}

func TestDispatcher_DoWaitsForRunningCommand(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	tbl := NewTable()
	tbl.MustRegister(Command{Name: "hold", MinTokens: 1, MaxTokens: 1, Handler: func(*Responder, []string) error {
		close(entered)
		<-release
		return nil
	}})
	d := NewDispatcher(tbl, nil)

	go d.Dispatch(NewResponder(&bytes.Buffer{}, false), []string{"hold"})
	<-entered

	ran := make(chan struct{})
	go d.Do(func() { close(ran) })

	select {
	case <-ran:
		t.Fatalf("Do ran while a command held the dispatcher")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("Do never ran after the command finished")
	}
}
