package alert

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
)

// espeak-ng defaults that Params multipliers scale from.
const (
	baseWordsPerMinute = 175
	basePitch          = 50
)

// ExecSpeaker speaks through a local synthesis command (espeak-ng by
// default). One utterance at a time; the scheduler guarantees that.
type ExecSpeaker struct {
	command string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecSpeaker creates a speaker running the given command. Empty
// means espeak-ng.
func NewExecSpeaker(command string) *ExecSpeaker {
	if command == "" {
		command = "espeak-ng"
	}
	return &ExecSpeaker{command: command}
}

// Play synthesizes text and blocks until playback finishes or ctx is
// cancelled.
func (s *ExecSpeaker) Play(ctx context.Context, text string, p Params) error {
	if p.Rate <= 0 {
		p.Rate = 1
	}
	if p.Pitch <= 0 {
		p.Pitch = 1
	}

	cmd := exec.CommandContext(ctx, s.command,
		"-s", strconv.Itoa(int(baseWordsPerMinute*p.Rate)),
		"-p", strconv.Itoa(int(basePitch*p.Pitch)),
		text,
	)

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	err := cmd.Run()

	s.mu.Lock()
	s.cmd = nil
	s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("alert: speech command failed: %w", err)
	}
	return nil
}

// Stop kills the current utterance, if any.
func (s *ExecSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

// Speaking reports whether an utterance is in flight.
func (s *ExecSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

var _ Speaker = (*ExecSpeaker)(nil)
