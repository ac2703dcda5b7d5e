package stockfish

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// lineChannel is the conversation with one engine process: line out,
// line in, liveness, and teardown. Engine sessions depend on this
// interface so tests can script an engine without spawning one.
type lineChannel interface {
	send(line string) error
	receive(timeout time.Duration) (string, error)
	alive() bool
	terminate(grace time.Duration) error
}

// process owns the engine subprocess and its stdio. A dedicated reader
// goroutine feeds stdout lines into a channel so a blocked receive can
// still observe process exit.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	in    *bufio.Writer
	lines chan string
	done  chan struct{} // closed once the process has been reaped
	log   zerolog.Logger

	writeMu  sync.Mutex
	quitOnce sync.Once
	quitErr  error
}

func startProcess(path string, args []string, log zerolog.Logger) (*process, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{
		cmd:   cmd,
		stdin: stdin,
		in:    bufio.NewWriter(stdin),
		lines: make(chan string, 256),
		done:  make(chan struct{}),
		log:   log,
	}
	p.log.Info().Str("path", path).Int("pid", cmd.Process.Pid).Msg("engine started")

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			p.log.Debug().Str("line", line).Msg("recv")
			p.lines <- line
		}
		close(p.lines)
		_ = cmd.Wait()
		close(p.done)
		p.log.Info().Msg("engine exited")
	}()

	return p, nil
}

// send writes one command line. No write is attempted once the process
// is known to be gone.
func (p *process) send(line string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if !p.alive() {
		return ErrEngineClosed
	}
	if _, err := fmt.Fprintln(p.in, line); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineClosed, err)
	}
	if err := p.in.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineClosed, err)
	}
	p.log.Debug().Str("cmd", line).Msg("send")
	return nil
}

// receive blocks for the next output line. A timeout of zero waits
// until a line arrives or the process exits.
func (p *process) receive(timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrEngineClosed
		}
		return line, nil
	case <-expired:
		return "", ErrEngineUnresponsive
	}
}

func (p *process) alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// terminate asks the engine to quit, waits out the grace period, and
// kills it if still running. Safe to call more than once.
func (p *process) terminate(grace time.Duration) error {
	p.quitOnce.Do(func() {
		// Drain so the reader can reach EOF even if the engine chatters
		// on the way out.
		go func() {
			for range p.lines {
			}
		}()
		_ = p.send("quit")
		select {
		case <-p.done:
		case <-time.After(grace):
			p.log.Warn().Msg("engine ignored quit, killing")
			if err := p.cmd.Process.Kill(); err != nil {
				p.quitErr = err
			}
			<-p.done
		}
		_ = p.stdin.Close()
	})
	return p.quitErr
}
