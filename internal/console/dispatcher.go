package console

import (
	"fmt"
	"strings"
	"sync"

	"skull_controller/internal/logger"
)

// Outcome is the result of dispatching one token list.
type Outcome int

const (
	OutcomeEmpty      Outcome = iota // no tokens, nothing dispatched
	OutcomeOK                        // handler ran and succeeded
	OutcomeFailed                    // handler ran and returned an error (or panicked)
	OutcomeUnknown                   // no entry carries this name
	OutcomeWrongArity                // the name exists but no entry accepts the token count
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeWrongArity:
		return "wrong_arity"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// UnknownCommandError and WrongArityError are what the dispatcher reports
// when no entry matches.
type UnknownCommandError struct{ Name string }

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Unknown command '%s'.", e.Name)
}

type WrongArityError struct{ Name string }

func (e *WrongArityError) Error() string {
	return fmt.Sprintf("Wrong number of arguments for '%s' command.", e.Name)
}

// Dispatcher resolves token lists against a Table and runs the matched
// handler. Dispatches from different sessions are serialized.
type Dispatcher struct {
	table *Table
	log   *logger.Logger
	mu    sync.Mutex
}

func NewDispatcher(table *Table, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{table: table, log: log}
}

func (d *Dispatcher) Table() *Table {
	return d.table
}

// Resolve finds the first entry matching tokens by name and arity. When none
// matches, the outcome tells an unknown name from a wrong token count.
func (d *Dispatcher) Resolve(tokens []string) (Command, Outcome) {
	if len(tokens) == 0 || tokens[0] == "" {
		return Command{}, OutcomeEmpty
	}
	n := len(tokens)
	arityMismatch := false
	for _, c := range d.table.cmds {
		if c.Documentation() {
			continue
		}
		if !strings.EqualFold(tokens[0], c.Name) {
			continue
		}
		if !c.Accepts(n) {
			arityMismatch = true
			continue
		}
		return c, OutcomeOK
	}
	if arityMismatch {
		return Command{}, OutcomeWrongArity
	}
	return Command{}, OutcomeUnknown
}

// Dispatch runs the entry matching tokens and writes the terminal marker to r.
func (d *Dispatcher) Dispatch(r *Responder, tokens []string) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd, outcome := d.Resolve(tokens)
	switch outcome {
	case OutcomeEmpty:
		return outcome
	case OutcomeUnknown:
		d.log.Debugw("command_unknown", "command", tokens[0])
		r.Fail(&UnknownCommandError{Name: tokens[0]})
		return outcome
	case OutcomeWrongArity:
		d.log.Debugw("command_wrong_arity", "command", tokens[0], "tokens", len(tokens))
		r.Fail(&WrongArityError{Name: tokens[0]})
		return outcome
	}

	d.log.Debugw("command_dispatched", "command", cmd.Name, "tokens", len(tokens))
	if err := d.run(cmd, r, tokens); err != nil {
		d.log.Infow("command_failed", "command", cmd.Name, "error", err)
		r.Fail(err)
		return OutcomeFailed
	}
	r.OK()
	return OutcomeOK
}

// Do runs fn between dispatches, so fn never observes a command half applied.
func (d *Dispatcher) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

func (d *Dispatcher) run(cmd Command, r *Responder, tokens []string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Errorw("command_panicked", "command", cmd.Name, "panic", rec)
			err = fmt.Errorf("internal error in '%s'", cmd.Name)
		}
	}()
	return cmd.Handler(r, tokens)
}
