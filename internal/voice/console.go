package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// ErrRecognitionActive is returned when a recognition session is already running.
var ErrRecognitionActive = errors.New("recognition already active")

// ConsoleEngine is an Engine for terminals. Recognition is fed one line at a
// time through Feed, and each line is a final result. Synthesis runs an
// external TTS command with the text as its last argument, or writes the text
// to out when no command is configured.
type ConsoleEngine struct {
	out     io.Writer
	command []string

	mu          sync.Mutex
	recognizer  RecognitionHandler
	cancelSpeak context.CancelFunc
}

// NewConsoleEngine creates a console engine. ttsCommand is split on
// whitespace, e.g. "espeak-ng -v hi".
func NewConsoleEngine(out io.Writer, ttsCommand string) *ConsoleEngine {
	if out == nil {
		out = io.Discard
	}
	return &ConsoleEngine{
		out:     out,
		command: strings.Fields(ttsCommand),
	}
}

// StartRecognition implements Engine.
func (e *ConsoleEngine) StartRecognition(cfg RecognitionConfig, h RecognitionHandler) error {
	e.mu.Lock()
	if e.recognizer != nil {
		e.mu.Unlock()
		return ErrRecognitionActive
	}
	e.recognizer = h
	e.mu.Unlock()

	h.RecognitionStarted()
	return nil
}

// Listening reports whether a recognition session is waiting for input.
func (e *ConsoleEngine) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recognizer != nil
}

// Feed delivers one spoken line to the active session and ends it. It
// returns false when nothing is listening. A blank line ends the session
// with a "no-speech" error.
func (e *ConsoleEngine) Feed(line string) bool {
	e.mu.Lock()
	h := e.recognizer
	e.recognizer = nil
	e.mu.Unlock()

	if h == nil {
		return false
	}

	if text := strings.TrimSpace(line); text == "" {
		h.RecognitionError("no-speech")
	} else {
		h.RecognitionResult(RecognitionEvent{
			Results: []Result{{Transcript: text, Final: true}},
		})
	}
	h.RecognitionEnded()
	return true
}

// StopRecognition implements Engine.
func (e *ConsoleEngine) StopRecognition() {
	e.mu.Lock()
	h := e.recognizer
	e.recognizer = nil
	e.mu.Unlock()

	if h != nil {
		h.RecognitionEnded()
	}
}

// Synthesize implements Engine.
func (e *ConsoleEngine) Synthesize(u Utterance, h SynthesisHandler) error {
	if len(e.command) == 0 {
		h.SynthesisStarted()
		fmt.Fprintf(e.out, "(speaking) %s\n", u.Text)
		h.SynthesisEnded()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	args := append(append([]string{}, e.command[1:]...), u.Text)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Stdout = e.out
	cmd.Stderr = e.out

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start TTS command: %w", err)
	}

	e.mu.Lock()
	e.cancelSpeak = cancel
	e.mu.Unlock()

	h.SynthesisStarted()

	go func() {
		defer cancel()
		err := cmd.Wait()
		switch {
		case ctx.Err() != nil:
			h.SynthesisError("interrupted")
		case err != nil:
			h.SynthesisError(err.Error())
		default:
			h.SynthesisEnded()
		}
	}()

	return nil
}

// CancelSynthesis kills the running TTS command, if any.
func (e *ConsoleEngine) CancelSynthesis() {
	e.mu.Lock()
	cancel := e.cancelSpeak
	e.cancelSpeak = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
