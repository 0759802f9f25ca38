package console

import (
	"errors"
	"fmt"
	"strings"
)

// Handler runs a matched command. tokens[0] is the command name as typed.
// A nil error makes the dispatcher write the success marker; a non-nil error
// is written as a line followed by the failure marker.
type Handler func(r *Responder, tokens []string) error

// Command describes one table entry. MinTokens and MaxTokens count the
// command name itself. An entry without a Handler only documents a group of
// commands in the help listing and never matches.
type Command struct {
	Name      string
	MinTokens int
	MaxTokens int
	Handler   Handler
	Help      string
}

// Documentation reports whether the entry is documentation-only.
func (c Command) Documentation() bool {
	return c.Handler == nil
}

// Accepts reports whether n tokens fall inside the entry's arity range.
func (c Command) Accepts(n int) bool {
	return n >= c.MinTokens && n <= c.MaxTokens
}

var ErrInvalidCommand = errors.New("invalid command descriptor")

func (c Command) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidCommand)
	case !c.Documentation() && strings.ContainsAny(c.Name, Separators):
		return fmt.Errorf("%w: %q contains a separator", ErrInvalidCommand, c.Name)
	case c.MinTokens < 1:
		return fmt.Errorf("%w: %q min tokens %d < 1", ErrInvalidCommand, c.Name, c.MinTokens)
	case c.MaxTokens < c.MinTokens:
		return fmt.Errorf("%w: %q max tokens %d < min tokens %d", ErrInvalidCommand, c.Name, c.MaxTokens, c.MinTokens)
	case c.MaxTokens > MaxTokens:
		return fmt.Errorf("%w: %q max tokens %d exceeds tokenizer cap %d", ErrInvalidCommand, c.Name, c.MaxTokens, MaxTokens)
	}
	return nil
}

// Table is the ordered list of commands the dispatcher scans.
// It is built once at startup and read-only afterwards.
type Table struct {
	cmds []Command
}

func NewTable() *Table {
	return &Table{}
}

// Register appends cmd after validating it.
func (t *Table) Register(cmd Command) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	t.cmds = append(t.cmds, cmd)
	return nil
}

// MustRegister appends every cmd and panics on the first invalid one.
func (t *Table) MustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := t.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Section appends a documentation-only entry used as a help header.
func (t *Table) Section(title string) {
	t.MustRegister(Command{Name: title, MinTokens: 1, MaxTokens: 1})
}

// Commands returns a copy of the table in declaration order.
func (t *Table) Commands() []Command {
	out := make([]Command, len(t.cmds))
	copy(out, t.cmds)
	return out
}

// Len is the number of entries, documentation entries included.
func (t *Table) Len() int {
	return len(t.cmds)
}

// WriteHelp lists every entry: documentation entries as headers, commands
// with their help text.
func (t *Table) WriteHelp(r *Responder) {
	for _, c := range t.cmds {
		if c.Documentation() {
			r.Line("")
			r.Linef("%s:", c.Name)
			continue
		}
		if c.Help == "" {
			r.Linef("  %s", c.Name)
			continue
		}
		r.Linef("  %-10s %s", c.Name, c.Help)
	}
}
