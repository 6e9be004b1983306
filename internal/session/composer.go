package session

import (
	"errors"
	"fmt"
)

// ErrUnknownOp is returned for a text operation the composer does not support.
var ErrUnknownOp = errors.New("unknown text operation")

// Op is an edit applied to the composed text.
type Op string

const (
	OpSpace  Op = "space"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
)

// ParseOp validates a text operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case OpSpace, OpDelete, OpClear:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
	}
}

// Composer accumulates committed letters into text.
type Composer struct {
	text []rune
}

// Append adds a committed letter.
func (c *Composer) Append(r rune) {
	c.text = append(c.text, r)
}

// Apply performs op on the text.
func (c *Composer) Apply(op Op) error {
	switch op {
	case OpSpace:
		c.text = append(c.text, ' ')
	case OpDelete:
		if len(c.text) > 0 {
			c.text = c.text[:len(c.text)-1]
		}
	case OpClear:
		c.text = c.text[:0]
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	return nil
}

// String returns the composed text.
func (c *Composer) String() string {
	return string(c.text)
}
