package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/puppet/internal/value"
	"github.com/roach88/puppet/internal/vars"
)

func (d *Dispatcher) get(_ context.Context, l line) Result {
	args := l.args()
	if len(args) < 1 {
		return d.fail(NotEnoughArguments, "get <name>")
	}
	v, err := d.vars.Get(args[0])
	if err != nil {
		return d.fail(VarDoesNotExist, args[0])
	}
	return success(v)
}

// set stores the rest of the line verbatim (lower-cased): the value is not
// re-tokenized, so it keeps its spaces and punctuation.
func (d *Dispatcher) set(_ context.Context, l line) Result {
	if len(l.tokens) < 2 {
		return d.fail(NotEnoughArguments, "set <name> = <value>")
	}
	name := l.tokens[1]
	if name.end >= len(l.lower) {
		return d.fail(NotEnoughArguments, "set <name> = <value>")
	}
	text := skipRune(l.lower[name.end:])
	text = strings.TrimPrefix(text, "= ")

	d.vars.Set(name.text, value.String(text))
	return success(nil)
}

func (d *Dispatcher) delete(_ context.Context, l line) Result {
	args := l.args()
	if len(args) < 1 {
		return d.fail(NotEnoughArguments, "delete <name>")
	}
	if err := d.vars.Delete(args[0]); err != nil {
		if errors.Is(err, vars.ErrNotFound) {
			return d.fail(VarDoesNotExist, args[0])
		}
		return d.fail(InvalidArgument, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) clear(context.Context, line) Result {
	d.vars.Clear()
	return success(nil)
}

func (d *Dispatcher) exit(context.Context, line) Result {
	return Result{Code: Success, Exit: true}
}

func (d *Dispatcher) clearScreen(context.Context, line) Result {
	if d.console == nil {
		return success(nil)
	}
	if err := d.console.Clear(); err != nil {
		return d.fail(InvalidCommand, err.Error())
	}
	return success(nil)
}

// isAssignment reports whether the line reads "<name> = ...".
func (l line) isAssignment() bool {
	if len(l.tokens) < 2 {
		return false
	}
	gap := l.lower[l.tokens[0].end:l.tokens[1].start]
	return strings.ContainsRune(gap, '=')
}

// assign handles "<name> = <command>" and "<name> = <text>". A value
// command on the right is dispatched and its value stored under name; any
// other text is stored as a string.
func (d *Dispatcher) assign(ctx context.Context, l line) Result {
	name := l.tokens[0].text
	eq := strings.IndexByte(l.lower[l.tokens[0].end:], '=') + l.tokens[0].end
	rhs := strings.TrimPrefix(l.lower[eq+1:], " ")

	if valueCommands[l.tokens[1].text] {
		sub := parseLine(d.caser, l.rawFrom(1))
		r := d.dispatch(ctx, sub)
		if r.Code.Failed() || r.Code == Null {
			return r
		}
		if r.Value == nil {
			return d.fail(Null, fmt.Sprintf("%s returned no value", sub.name()))
		}
		d.vars.Set(name, r.Value)
		return r
	}

	d.vars.Set(name, value.String(rhs))
	return success(nil)
}

func (d *Dispatcher) jobCount(context.Context, line) Result {
	if d.jobs == nil {
		return success(value.Int(0))
	}
	return success(value.Int(d.jobs.Len()))
}

// wait blocks until every queued motion job has finished.
func (d *Dispatcher) wait(ctx context.Context, _ line) Result {
	if d.jobs == nil {
		return success(nil)
	}
	if err := d.jobs.Drain(ctx); err != nil {
		return d.fail(Null, "wait interrupted: "+err.Error())
	}
	return success(nil)
}
