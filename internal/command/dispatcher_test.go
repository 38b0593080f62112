package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/stage"
	"github.com/roach88/puppet/internal/testutil"
	"github.com/roach88/puppet/internal/value"
	"github.com/roach88/puppet/internal/vars"
	"github.com/roach88/puppet/internal/windows"
)

type fixture struct {
	d       *Dispatcher
	stage   *stage.Virtual
	windows *windows.Registry
	sched   *scheduler.Scheduler
	out     *bytes.Buffer
	outMu   *sync.Mutex
}

type syncBuffer struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (s syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	logger := quietLogger()
	sched := scheduler.New(
		scheduler.WithLogger(logger),
		scheduler.WithIDGenerator(testutil.NewSequentialIDs("move")),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sched.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	f := &fixture{
		stage:   stage.NewVirtual(motion.Rect{Width: 10, Height: 10}, stage.WithRecording()),
		windows: windows.NewRegistry("Notepad", "Calculator"),
		sched:   sched,
		out:     &bytes.Buffer{},
		outMu:   &sync.Mutex{},
	}
	engine := motion.New(motion.WithTick(time.Millisecond), motion.WithLogger(logger))

	base := []Option{
		WithStage(f.stage),
		WithWindows(f.windows),
		WithOutput(syncBuffer{mu: f.outMu, buf: f.out}),
		WithLogger(logger),
	}
	f.d = New(vars.New(), sched, engine, append(base, opts...)...)
	return f
}

func (f *fixture) run(line string) Result {
	return f.d.Dispatch(context.Background(), line)
}

func (f *fixture) output() string {
	f.outMu.Lock()
	defer f.outMu.Unlock()
	return f.out.String()
}

func (f *fixture) takeOutput() string {
	f.outMu.Lock()
	defer f.outMu.Unlock()
	s := f.out.String()
	f.out.Reset()
	return s
}

func waitJob(t *testing.T, r Result) error {
	t.Helper()
	require.NotNil(t, r.Job, "expected a job")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Job.Wait(ctx)
}

func TestDispatch_NoCommandGiven(t *testing.T) {
	f := newFixture(t)

	for _, line := range []string{"", "   ", "\t", " = "} {
		r := f.run(line)
		assert.Equal(t, NoCommandGiven, r.Code, "line %q", line)
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	f := newFixture(t)

	r := f.run("frobnicate now")
	assert.Equal(t, InvalidCommand, r.Code)
	assert.Contains(t, f.output(), "Invalid command")
}

func TestDispatch_SetGetRoundTrip(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		value string
	}{
		{"x", "5"},
		{"greeting", "hello world"},
		{"punct", "a, b; (c) 'd' \"e\"!"},
		{"spaces", "  two  leading"},
		{"empty", ""},
		{"eq", "a=b=c"},
		{"unicode", "naïve café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.run("set " + tt.name + "=" + tt.value)
			require.Equal(t, Success, r.Code)

			r = f.run("get " + tt.name)
			require.Equal(t, Success, r.Code)
			assert.Equal(t, value.String(tt.value), r.Value)
		})
	}
}

func TestDispatch_SetForms(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"set x = 5", "5"},
		{"set x=5", "5"},
		{"set x 5", "5"},
		{"set x =5", "=5"},
		{"SET X = Hello There", "hello there"},
		{"set x = = y", "= y"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFixture(t)
			require.Equal(t, Success, f.run(tt.line).Code)

			r := f.run("print x")
			require.Equal(t, Success, r.Code)
			assert.Equal(t, value.String(tt.want), r.Value)
		})
	}
}

func TestDispatch_SetNotEnoughArguments(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, NotEnoughArguments, f.run("set").Code)
	assert.Equal(t, NotEnoughArguments, f.run("set x").Code)
	assert.Equal(t, Success, f.run("set x ").Code, "a trailing delimiter sets an empty value")
}

func TestDispatch_GetMissing(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, VarDoesNotExist, f.run("get missing").Code)
	assert.Equal(t, NotEnoughArguments, f.run("get").Code)
	assert.Contains(t, f.output(), "Variable does not exist: missing")
}

func TestDispatch_DeleteThenGet(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, Success, f.run("set x = 1").Code)
	require.Equal(t, Success, f.run("delete x").Code)
	assert.Equal(t, VarDoesNotExist, f.run("get x").Code)
	assert.Equal(t, VarDoesNotExist, f.run("delete x").Code)
	assert.Equal(t, NotEnoughArguments, f.run("delete").Code)
}

func TestDispatch_ClearAndExit(t *testing.T) {
	f := newFixture(t)

	f.run("set a = 1")
	f.run("set b = 2")
	require.Equal(t, Success, f.run("clear").Code)
	assert.Equal(t, 0, f.d.Vars().Len())

	r := f.run("EXIT")
	assert.Equal(t, Success, r.Code)
	assert.True(t, r.Exit)
}

func TestDispatch_ClearScreen(t *testing.T) {
	console := &fakeConsole{}
	f := newFixture(t, WithConsole(console))
	f.run("set a = 1")

	assert.Equal(t, Success, f.run("cls").Code)
	assert.Equal(t, Success, f.run("clearscreen").Code)
	assert.Equal(t, 2, console.clears)
	assert.Equal(t, 1, f.d.Vars().Len(), "clearing the screen keeps variables")
}

type fakeConsole struct{ clears int }

func (c *fakeConsole) Clear() error {
	c.clears++
	return nil
}

func TestDispatch_NFCNames(t *testing.T) {
	f := newFixture(t)

	// decomposed e + combining acute, read back with the composed form
	require.Equal(t, Success, f.run("set cafe\u0301 = yes").Code)
	r := f.run("get caf\u00e9")
	require.Equal(t, Success, r.Code)
	assert.Equal(t, value.String("yes"), r.Value)
}

func TestMoveTo_RequiresActor(t *testing.T) {
	f := newFixture(t)

	r := f.run("moveto 10 20")
	assert.Equal(t, ActorNotCreated, r.Code)
	assert.Nil(t, r.Job)
}

func TestMoveTo_ArgumentErrors(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	tests := []struct {
		line string
		want ErrorCode
	}{
		{"moveto", NotEnoughArguments},
		{"moveto 10", NotEnoughArguments},
		{"moveto abc 10", InvalidArgument},
		{"moveto 10 abc", InvalidArgument},
		{"moveto nan 10", InvalidArgument},
		{"moveto 10 10 -1", InvalidArgument},
		{"moveto 10 10 inf", InvalidArgument},
		{"moveto 10 10 top fast", InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := f.run(tt.line)
			assert.Equal(t, tt.want, r.Code)
			assert.Nil(t, r.Job)
		})
	}
	assert.Empty(t, f.stage.Placements())
}

func TestMoveTo_ZeroSpeedNormalized(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	// top anchor starts at (5, 0)
	r := f.run("moveto 5 100 0 top")
	require.Equal(t, Success, r.Code)
	require.NoError(t, waitJob(t, r))

	places := f.stage.Placements()
	require.Greater(t, len(places), 2)
	assert.Equal(t, motion.Top, places[0].Anchor)
	assert.InDelta(t, 5.0, places[0].At.Y, 1e-9, "first step advances by the default speed")
	assert.Equal(t, motion.Point{X: 5, Y: 100}, f.stage.Bounds().Anchor(motion.Top))
}

func TestMoveTo_ParenthesizedCoordinatesAndSpeed(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	r := f.run(`moveto (40, 0) 10 "topleft"`)
	require.Equal(t, Success, r.Code)
	require.NoError(t, waitJob(t, r))

	places := f.stage.Placements()
	require.NotEmpty(t, places)
	assert.Equal(t, motion.TopLeft, places[0].Anchor)
	assert.InDelta(t, 10.0, places[0].At.X, 1e-9)
	assert.Equal(t, motion.Point{X: 40, Y: 0}, places[len(places)-1].At)
}

func TestMoveTo_SideThenSpeed(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	r := f.run("moveto 0 50 left 7")
	require.Equal(t, Success, r.Code)
	require.NoError(t, waitJob(t, r))

	places := f.stage.Placements()
	require.NotEmpty(t, places)
	assert.Equal(t, motion.Left, places[0].Anchor)
	// left anchor starts at (0, 5)
	assert.InDelta(t, 12.0, places[0].At.Y, 1e-9)
}

func TestMoveTo_DefaultSideIsClosest(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	r := f.run("moveto 5 1")
	require.NoError(t, waitJob(t, r))

	places := f.stage.Placements()
	require.NotEmpty(t, places)
	assert.Equal(t, motion.Top, places[len(places)-1].Anchor)
}

func TestMoveTo_InvalidSideFailsJobOnly(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	r := f.run("moveto 50 50 sideways")
	require.Equal(t, Success, r.Code, "dispatch does not wait for the job")

	err := waitJob(t, r)
	require.Error(t, err)
	assert.True(t, motion.IsSideError(err))
	assert.Empty(t, f.stage.Placements(), "a bad side never moves the actor")
	assert.Contains(t, f.output(), "invalid side")

	// The scheduler keeps going.
	r = f.run("moveto 20 20 5 center")
	require.Equal(t, Success, r.Code)
	assert.NoError(t, waitJob(t, r))
}

func TestMoveTo_JobsRunInOrder(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Success, f.run("show").Code)

	var last Result
	for _, line := range []string{
		"moveto 30 0 10 topleft",
		"moveto 30 30 10 topleft",
		"moveto 0 30 10 topleft",
	} {
		last = f.run(line)
		require.Equal(t, Success, last.Code)
	}

	require.Equal(t, Success, f.run("wait").Code)
	assert.Equal(t, Integer(0), f.run("jobs").Value)
	require.NoError(t, last.Job.Err())

	// Every snap lands on its target in submission order.
	var snaps []motion.Point
	for _, p := range f.stage.Placements() {
		if p.At == (motion.Point{X: 30, Y: 0}) || p.At == (motion.Point{X: 30, Y: 30}) || p.At == (motion.Point{X: 0, Y: 30}) {
			snaps = append(snaps, p.At)
		}
	}
	assert.Equal(t, []motion.Point{{X: 30, Y: 0}, {X: 30, Y: 30}, {X: 0, Y: 30}}, snaps)
}

// Integer shortens value.Int in expectations.
func Integer(n int64) value.Value { return value.Int(n) }

func TestMoveTo_StepFunc(t *testing.T) {
	var mu sync.Mutex
	var steps int
	f := newFixture(t, WithStepFunc(func(x, y float64) bool {
		mu.Lock()
		steps++
		mu.Unlock()
		return true
	}))
	require.Equal(t, Success, f.run("show").Code)

	require.NoError(t, waitJob(t, f.run("moveto 40 0 5 topleft")))

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, steps, 0)
}

func TestActorCommands(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, ActorNotCreated, f.run("say hi").Code)
	assert.Equal(t, ActorNotCreated, f.run("notify hi").Code)
	assert.Equal(t, ActorNotCreated, f.run("hide").Code)
	assert.Equal(t, NotEnoughArguments, f.run("say").Code)
	assert.Equal(t, NotEnoughArguments, f.run("notify").Code)

	require.Equal(t, Success, f.run("show").Code)
	require.Equal(t, Success, f.run("Say Hello, World").Code)
	require.Equal(t, Success, f.run("talk Again").Code)
	require.Equal(t, Success, f.run("notify Build = Done").Code)
	assert.Equal(t, []string{"Hello, World", "Again"}, f.stage.Speech())
	assert.Equal(t, []string{"Build = Done"}, f.stage.Notices())

	require.Equal(t, Success, f.run("hide").Code)
	assert.Equal(t, ActorNotVisible, f.run("say hi").Code)
	assert.Equal(t, Success, f.run("notify still works").Code)
}

func TestWindowCommands(t *testing.T) {
	f := newFixture(t)

	r := f.run("getwindow Notepad")
	require.Equal(t, Success, r.Code)
	notepad := r.Value.(value.Pointer)

	assert.Equal(t, InvalidHandle, f.run("getwindow Paint").Code)
	assert.Equal(t, NotEnoughArguments, f.run("getwindow").Code)

	r = f.run(fmt.Sprintf("getwindowtitle %d", uint64(notepad)))
	require.Equal(t, Success, r.Code)
	assert.Equal(t, value.String("Notepad"), r.Value)

	r = f.run(fmt.Sprintf("getwindowtitle 0x%X", uint64(notepad)))
	require.Equal(t, Success, r.Code, "hex handles are accepted in any case")

	assert.Equal(t, InvalidHandle, f.run("getwindowtitle 7").Code)
	assert.Equal(t, InvalidArgument, f.run("getwindowtitle nothing").Code)
	assert.Equal(t, NotEnoughArguments, f.run("getwindowtitle").Code)

	h := fmt.Sprint(uint64(notepad))
	require.Equal(t, Success, f.run("disable "+h).Code)
	assert.Equal(t, value.Bool(false), f.run("isenabled "+h).Value)
	require.Equal(t, Success, f.run("enable "+h).Code)
	assert.Equal(t, value.Bool(true), f.run("isenabled "+h).Value)
	assert.Equal(t, value.Bool(false), f.run("isminimized "+h).Value)
	assert.Equal(t, value.Bool(true), f.run("isvisible "+h).Value)
	assert.Equal(t, InvalidHandle, f.run("isvisible 7").Code)

	assert.Equal(t, Success, f.run("bringtotop "+h).Code)
	assert.Equal(t, notepad, f.windows.Topmost())

	r = f.run("getfocus")
	assert.Equal(t, Null, r.Code)
	assert.Equal(t, value.Pointer(0), r.Value)

	require.Equal(t, Success, f.run("setfocus "+h).Code)
	assert.Equal(t, notepad, f.run("getfocus").Value)

	r = f.run("getwindows")
	require.Equal(t, Success, r.Code)
	assert.Len(t, r.Value.(value.PointerSeq), 2)
}

func TestIsWindowNeverInvalidHandle(t *testing.T) {
	f := newFixture(t)

	r := f.run("iswindow 7")
	assert.Equal(t, Success, r.Code)
	assert.Equal(t, value.Bool(false), r.Value)

	assert.Equal(t, InvalidArgument, f.run("iswindow bogus").Code)
	assert.Equal(t, NotEnoughArguments, f.run("iswindow").Code)
}

func TestAssignment(t *testing.T) {
	f := newFixture(t)

	r := f.run("w = getwindow Calculator")
	require.Equal(t, Success, r.Code)
	stored, err := f.d.Vars().Get("w")
	require.NoError(t, err)
	assert.Equal(t, value.KindPointer, stored.Kind())

	r = f.run("getwindowtitle w")
	require.Equal(t, Success, r.Code)
	assert.Equal(t, value.String("Calculator"), r.Value)

	require.Equal(t, Success, f.run("ok = iswindow w").Code)
	assert.Equal(t, value.Bool(true), f.run("get ok").Value)

	require.Equal(t, Success, f.run("n = jobs").Code)
	assert.Equal(t, value.Int(0), f.run("get n").Value)

	require.Equal(t, Success, f.run("s = just some text").Code)
	assert.Equal(t, value.String("just some text"), f.run("get s").Value)

	// A failing right-hand side stores nothing.
	assert.Equal(t, InvalidHandle, f.run("bad = getwindow Paint").Code)
	_, err = f.d.Vars().Get("bad")
	assert.Error(t, err)

	// A null result stores nothing either.
	assert.Equal(t, Null, f.run("f = getfocus").Code)
}

func TestHandleFromNonPointerVariable(t *testing.T) {
	f := newFixture(t)
	f.run("set name = notepad")

	r := f.run("getwindowtitle name")
	assert.Equal(t, InvalidArgument, r.Code)
	assert.Contains(t, r.Message, "string")
}

func TestDispatch_ConcurrentCallers(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("v%d", i)
			f.run("set " + name + " = " + name)
			f.run("get " + name)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, f.d.Vars().Len())
}

func TestDispatch_Recorder(t *testing.T) {
	var lines []string
	var codes []ErrorCode
	f := newFixture(t, WithRecorder(func(line string, r Result) {
		lines = append(lines, line)
		codes = append(codes, r.Code)
	}))

	f.run("set a = 1")
	f.run("get b")

	assert.Equal(t, []string{"set a = 1", "get b"}, lines)
	assert.Equal(t, []ErrorCode{Success, VarDoesNotExist}, codes)
}

func TestDispatch_WithoutCollaborators(t *testing.T) {
	d := New(vars.New(), nil, nil, WithLogger(quietLogger()))
	ctx := context.Background()

	assert.Equal(t, ActorNotCreated, d.Dispatch(ctx, "show").Code)
	assert.Equal(t, InvalidHandle, d.Dispatch(ctx, "getwindow x").Code)
	assert.Equal(t, value.Bool(false), d.Dispatch(ctx, "iswindow 1").Value)
	assert.Equal(t, Success, d.Dispatch(ctx, "wait").Code)
	assert.Equal(t, value.Int(0), d.Dispatch(ctx, "jobs").Value)
	assert.Equal(t, Success, d.Dispatch(ctx, "cls").Code)
}

// transcript renders each dispatched line, its diagnostics and result.
func transcript(f *fixture, lines []string) []byte {
	var b strings.Builder
	for _, line := range lines {
		r := f.run(line)
		fmt.Fprintf(&b, "> %s\n", line)
		for _, msg := range strings.Split(strings.TrimRight(f.takeOutput(), "\n"), "\n") {
			if msg != "" {
				fmt.Fprintf(&b, "! %s\n", msg)
			}
		}
		if r.Value != nil {
			fmt.Fprintf(&b, "= %s %s:%s\n", r.Code.Name(), r.Value.Kind(), r.Value)
		} else {
			fmt.Fprintf(&b, "= %s\n", r.Code.Name())
		}
	}
	return []byte(b.String())
}

func TestDispatch_TranscriptGolden(t *testing.T) {
	f := newFixture(t)

	out := transcript(f, []string{
		"set greeting = Hello World",
		"get greeting",
		"print missing",
		"delete greeting",
		"delete greeting",
		"frobnicate",
		"moveto 1 2",
		"show",
		"say Hi there",
		"hide",
		"say again",
		"getwindow Notepad",
		"w = getwindow notepad",
		"getwindowtitle w",
		"isenabled 0x10000",
		"iswindow 12",
		"getwindows",
		"getfocus",
		"jobs",
		"",
	})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "transcript", out)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		input string
		code  ErrorCode
		name  string
	}{
		{"MoveTo 1 2", Success, "moveto"},
		{"w = getwindow notepad", Success, "w"},
		{"greeting=hello", Success, "greeting"},
		{"frobnicate now", InvalidCommand, "frobnicate"},
		{"   ", NoCommandGiven, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code, name := Check(tt.input)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.name, name)
		})
	}
}
