package command

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/puppet/internal/motion"
)

// moveTo parses "moveto <x> <y> [<speed>] [<side>]" and enqueues the move.
//
// Arguments are re-cut with a wider delimiter set so "(10, 20)" works. The
// third token is a speed if it parses as a number and a side otherwise; a
// fourth token fills whichever of the two is still unset.
func (d *Dispatcher) moveTo(_ context.Context, l line) Result {
	tokens := split(l.lower, isMoveDelim)
	if len(tokens) < 3 {
		return d.fail(NotEnoughArguments, "moveto <x> <y> [<speed>] [<side>]")
	}

	x, err := parseCoord(tokens[1].text)
	if err != nil {
		return d.fail(InvalidArgument, err.Error())
	}
	y, err := parseCoord(tokens[2].text)
	if err != nil {
		return d.fail(InvalidArgument, err.Error())
	}

	req := motion.Request{TargetX: x, TargetY: y, Side: motion.DefaultSide, OnStep: d.onStep}
	speedSet := false
	if len(tokens) > 3 {
		if s, err := strconv.ParseFloat(tokens[3].text, 64); err == nil {
			req.Speed, speedSet = s, true
		} else {
			req.Side = tokens[3].text
		}
	}
	if len(tokens) > 4 {
		if speedSet {
			req.Side = tokens[4].text
		} else {
			s, err := strconv.ParseFloat(tokens[4].text, 64)
			if err != nil {
				return d.fail(InvalidArgument, fmt.Sprintf("speed %q is not a number", tokens[4].text))
			}
			req.Speed, speedSet = s, true
		}
	}

	if speedSet {
		switch {
		case math.IsNaN(req.Speed) || math.IsInf(req.Speed, 0) || req.Speed < 0:
			return d.fail(InvalidArgument, fmt.Sprintf("speed %v must be a positive number", req.Speed))
		case req.Speed == 0:
			req.Speed = d.defaultSpeed
		}
	} else {
		req.Speed = d.defaultSpeed
	}

	if d.stage == nil || !d.stage.Created() {
		return d.fail(ActorNotCreated, "use show first")
	}
	if d.jobs == nil || d.mover == nil {
		return d.fail(InvalidCommand, "no scheduler")
	}

	job, err := d.jobs.Enqueue("moveto", d.moveJob(req))
	if err != nil {
		return d.fail(InvalidCommand, err.Error())
	}
	d.logger.Debug("move enqueued",
		"seq", job.Seq,
		"target", req.Target().String(),
		"speed", req.Speed,
		"side", req.Side,
	)
	return Result{Code: Success, Job: job}
}

// moveJob returns the job body for req. A side that does not resolve fails
// the job before the actor is touched; the failure is reported, not retried.
func (d *Dispatcher) moveJob(req motion.Request) func(ctx context.Context) error {
	stage := d.stage
	return func(ctx context.Context) error {
		report, err := d.mover.MoveTo(ctx, req, stage)
		if err != nil {
			if motion.IsSideError(err) {
				d.notice("%s: %v", InvalidArgument, err)
			}
			return err
		}
		if report.Forgotten {
			d.logger.Debug("move finished without callback",
				"calls", report.CallbackCalls,
				"skipped", report.Skipped,
			)
		}
		return nil
	}
}

func parseCoord(tok string) (float64, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("coordinate %q is not a number", tok)
	}
	return f, nil
}
