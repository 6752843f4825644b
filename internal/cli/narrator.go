package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/kisandost/kisandost-go/internal/narration"
	"github.com/kisandost/kisandost-go/internal/playback"
)

const cliScreen = "cli"

const controlsHelp = "Keys: p or space play/pause, r restart, s status, q quit"

// player is the part of *narration.Session driven from the keyboard.
type player interface {
	Play(ctx context.Context, text string) error
	Toggle(ctx context.Context) error
	Restart(ctx context.Context) error
	State() playback.State
	Position() time.Duration
	Duration() time.Duration
}

// narrator runs one narration and maps key presses onto transport
// controls. It returns once the user quits, or once input is exhausted
// and nothing is loading or playing.
type narrator struct {
	player  player
	changes <-chan playback.State
	in      io.Reader
	out     io.Writer
	eol     string
	quiet   bool

	// inflight counts control calls that have not finished yet. They may
	// outlive run.
	inflight sync.WaitGroup
}

// stateChannel returns a listener that forwards state changes to a
// buffered channel without ever blocking the transport.
func stateChannel() (func(playback.State), <-chan playback.State) {
	ch := make(chan playback.State, 64)

	return func(s playback.State) {
		select {
		case ch <- s:
		default:
		}
	}, ch
}

func (n *narrator) run(ctx context.Context, text string) error {
	done := make(chan struct{})
	defer close(done)

	results := make(chan error, 8)
	pending := 0
	start := func(op func(context.Context) error) {
		pending++
		n.inflight.Add(1)
		go func() {
			defer n.inflight.Done()

			err := op(ctx)
			select {
			case results <- err:
			case <-done:
			}
		}()
	}

	start(func(ctx context.Context) error { return n.player.Play(ctx, text) })
	if !n.quiet {
		n.println(controlsHelp)
	}

	keys := readKeys(n.in, done)
	inputDone := false
	var lastErr error

	for {
		if inputDone && pending == 0 && !busy(n.player.State()) {
			n.flush()

			return lastErr
		}

		select {
		case <-ctx.Done():
			return nil
		case st := <-n.changes:
			n.printState(st)
		case err := <-results:
			pending--
			lastErr = n.report(err)
		case k, ok := <-keys:
			if !ok {
				inputDone = true
				keys = nil

				continue
			}
			switch k {
			case 'p', 'P', ' ':
				start(n.player.Toggle)
			case 'r', 'R':
				start(n.player.Restart)
			case 's', 'S':
				n.status()
			case 'q', 'Q', 0x03, 0x04:
				return nil
			}
		}
	}
}

func (n *narrator) printState(st playback.State) {
	if !n.quiet {
		n.println("[" + st.String() + "]")
	}
}

// flush prints state changes that are already queued.
func (n *narrator) flush() {
	for {
		select {
		case st := <-n.changes:
			n.printState(st)
		default:
			return
		}
	}
}

func busy(s playback.State) bool {
	return s == playback.StateLoading || s == playback.StatePlaying
}

func (n *narrator) report(err error) error {
	switch {
	case err == nil, errors.Is(err, narration.ErrSuperseded):
		return nil
	case errors.Is(err, narration.ErrBusy):
		n.println("Still loading, try again once playback starts.")

		return nil
	case narration.IsFailure(err):
		n.println(fmt.Sprintf("Narration failed: %v. Press r to retry.", err))
	default:
		n.println(fmt.Sprintf("Error: %v", err))
	}

	return err
}

func (n *narrator) status() {
	n.println(fmt.Sprintf("%s %s / %s",
		n.player.State(),
		n.player.Position().Round(100*time.Millisecond),
		n.player.Duration().Round(100*time.Millisecond)))
}

func (n *narrator) println(line string) {
	eol := n.eol
	if eol == "" {
		eol = "\n"
	}
	fmt.Fprint(n.out, line+eol)
}

// readKeys delivers input bytes, skipping line endings, until EOF or until
// done is closed.
func readKeys(in io.Reader, done <-chan struct{}) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)

		r := bufio.NewReader(in)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			if b == '\n' || b == '\r' {
				continue
			}
			select {
			case keys <- b:
			case <-done:
				return
			}
		}
	}()

	return keys
}

// rawInput puts a terminal stdin into raw mode so single key presses
// arrive without Enter. The returned eol must be used for output while
// raw mode is active.
func rawInput(in io.Reader) (eol string, restore func()) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "\n", func() {}
	}

	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "\n", func() {}
	}

	return "\r\n", func() { _ = term.Restore(fd, state) }
}

// speak narrates text to completion without keyboard controls.
func speak(ctx context.Context, sessions narration.SessionManager, text string, out io.Writer) error {
	listener, changes := stateChannel()

	lease, err := sessions.Acquire(cliScreen, narration.WithStateListener(listener))
	if err != nil {
		return err
	}
	defer lease.Release()

	n := &narrator{
		player:  lease.Session,
		changes: changes,
		in:      strings.NewReader(""),
		out:     out,
		quiet:   true,
	}

	return n.run(ctx, text)
}
