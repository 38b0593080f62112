package command

import "context"

func (d *Dispatcher) show(context.Context, line) Result {
	if d.stage == nil {
		return d.fail(ActorNotCreated, "no stage")
	}
	if err := d.stage.Show(); err != nil {
		return d.fail(ActorNotCreated, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) hide(context.Context, line) Result {
	if d.stage == nil || !d.stage.Created() {
		return d.fail(ActorNotCreated, "")
	}
	if err := d.stage.Hide(); err != nil {
		return d.fail(InvalidArgument, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) say(_ context.Context, l line) Result {
	text := l.rawTail(1)
	if text == "" {
		return d.fail(NotEnoughArguments, "say <text>")
	}
	if d.stage == nil || !d.stage.Created() {
		return d.fail(ActorNotCreated, "")
	}
	if !d.stage.Visible() {
		return d.fail(ActorNotVisible, "")
	}
	if err := d.stage.Say(text); err != nil {
		return d.fail(InvalidArgument, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) notify(_ context.Context, l line) Result {
	text := l.rawTail(1)
	if text == "" {
		return d.fail(NotEnoughArguments, "notify <text>")
	}
	if d.stage == nil || !d.stage.Created() {
		return d.fail(ActorNotCreated, "")
	}
	if err := d.stage.Notify(text); err != nil {
		return d.fail(InvalidArgument, err.Error())
	}
	return success(nil)
}
