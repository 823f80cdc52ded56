package keymap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAction is returned for action strings that cannot be parsed.
var ErrInvalidAction = errors.New("invalid action")

// ActionKind says what an Action does.
type ActionKind int

const (
	// ActionCommand sends a parameterless edit command.
	ActionCommand ActionKind = iota
	// ActionInsert inserts literal text.
	ActionInsert
	// ActionQuit exits the application.
	ActionQuit
)

// insertPrefix introduces a literal insertion in an action string.
const insertPrefix = "insert:"

// Action is what a key does.
type Action struct {
	Kind ActionKind
	// Op is the edit command for ActionCommand.
	Op string
	// Text is the inserted text for ActionInsert.
	Text string
}

// Command returns an action sending op.
func Command(op string) Action {
	return Action{Kind: ActionCommand, Op: op}
}

// Insert returns an action inserting text.
func Insert(text string) Action {
	return Action{Kind: ActionInsert, Text: text}
}

// Quit returns the quit action.
func Quit() Action {
	return Action{Kind: ActionQuit}
}

// ParseAction parses "quit", "insert:<text>" or an edit command name such
// as "move_left". Escapes \t and \n are expanded in inserted text.
func ParseAction(s string) (Action, error) {
	if strings.HasPrefix(s, insertPrefix) {
		text := strings.NewReplacer(`\t`, "\t", `\n`, "\n").Replace(s[len(insertPrefix):])
		if text == "" {
			return Action{}, fmt.Errorf("%w: empty insertion", ErrInvalidAction)
		}
		return Insert(text), nil
	}

	s = strings.TrimSpace(s)
	if s == "quit" {
		return Quit(), nil
	}
	if s == "" {
		return Action{}, fmt.Errorf("%w: empty", ErrInvalidAction)
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return Action{}, fmt.Errorf("%w: %q is not a command name", ErrInvalidAction, s)
		}
	}
	return Command(s), nil
}

// String returns the action in the form ParseAction accepts.
func (a Action) String() string {
	switch a.Kind {
	case ActionInsert:
		return insertPrefix + strings.NewReplacer("\t", `\t`, "\n", `\n`).Replace(a.Text)
	case ActionQuit:
		return "quit"
	default:
		return a.Op
	}
}
