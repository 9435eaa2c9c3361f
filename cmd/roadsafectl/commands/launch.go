package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	roadsafe "github.com/kailas-cloud/roadsafe/pkg/sdk"
)

var (
	launchServerBin string
	launchURL       string
	launchWait      time.Duration
	launchStopGrace time.Duration
)

const healthPollInterval = time.Second

// NewLaunchCmd creates the launch command.
func NewLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start the API server and wait until it is healthy",
		Long: `Start the roadsafe API server as a child process.

Server output is streamed with a [server] prefix. The command polls /health
until the server reports healthy, prints the access points and keeps running
until interrupted. On SIGINT or SIGTERM the server is asked to stop and is
killed if it has not exited after the grace period.

Examples:
  roadsafectl launch
  roadsafectl launch --server-bin ./bin/roadsafe --wait 60s`,
		Args: cobra.NoArgs,
		RunE: runLaunch,
	}

	cmd.Flags().StringVar(&launchServerBin, "server-bin", "roadsafe", "Server executable")
	cmd.Flags().StringVar(&launchURL, "health-url", "http://127.0.0.1:5000", "Server base URL to poll")
	cmd.Flags().DurationVar(&launchWait, "wait", 30*time.Second, "How long to wait for a healthy server")
	cmd.Flags().DurationVar(&launchStopGrace, "stop-grace", 5*time.Second, "Time between terminate and kill on shutdown")

	return cmd
}

func runLaunch(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	child := exec.Command(launchServerBin) //nolint:gosec // operator-supplied binary
	child.Env = os.Environ()
	pr, pw := io.Pipe()
	child.Stdout = pw
	child.Stderr = pw

	if !quiet {
		fmt.Fprintf(out, "Starting %s...\n", launchServerBin)
	}
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	var streamWG sync.WaitGroup
	streamWG.Add(1)
	go func() {
		defer streamWG.Done()
		prefixLines(out, pr, "server")
	}()

	proc := &childProc{cmd: child, done: make(chan struct{})}
	go func() {
		proc.err = child.Wait()
		_ = pw.Close()
		close(proc.done)
	}()

	client, err := roadsafe.New(launchURL, roadsafe.WithTimeout(2*time.Second))
	if err != nil {
		proc.stop(launchStopGrace)
		return fmt.Errorf("creating client: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "Waiting for %s/health (up to %s)...\n", launchURL, launchWait)
	}
	if err := waitHealthy(ctx, client, launchWait, proc.done); err != nil {
		proc.stop(launchStopGrace)
		streamWG.Wait()
		return err
	}

	fmt.Fprintf(out, "\nServer is healthy.\n")
	fmt.Fprintf(out, "  API:     %s\n", launchURL)
	fmt.Fprintf(out, "  Health:  %s/health\n", launchURL)
	fmt.Fprintf(out, "  Metrics: %s/metrics\n", launchURL)
	fmt.Fprintf(out, "Press Ctrl+C to stop.\n\n")

	select {
	case <-ctx.Done():
		if !quiet {
			fmt.Fprintln(out, "\nStopping server...")
		}
		proc.stop(launchStopGrace)
		streamWG.Wait()
		return nil
	case <-proc.done:
		streamWG.Wait()
		if proc.err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", proc.err)
		}
		return errors.New("server stopped unexpectedly")
	}
}

// healthChecker is the part of the SDK client waitHealthy needs.
type healthChecker interface {
	Health(ctx context.Context) (roadsafe.HealthStatus, error)
}

// waitHealthy polls until the server reports healthy, the child exits, ctx
// is cancelled or timeout elapses.
func waitHealthy(ctx context.Context, hc healthChecker, timeout time.Duration, exited <-chan struct{}) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(healthPollInterval)
	defer tick.Stop()

	for {
		if hs, err := hc.Health(ctx); err == nil && hs.Healthy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("interrupted while waiting for server: %w", ctx.Err())
		case <-exited:
			return errors.New("server exited before becoming healthy")
		case <-deadline.C:
			return fmt.Errorf("server did not become healthy within %s", timeout)
		case <-tick.C:
		}
	}
}

// childProc is a started server process. done is closed once it exits.
type childProc struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// stop sends SIGTERM and kills the process if it has not exited after grace.
func (p *childProc) stop(grace time.Duration) {
	select {
	case <-p.done:
		return
	default:
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

// prefixLines copies r to w line by line, prefixing each with [label].
func prefixLines(w io.Writer, r io.Reader, label string) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		fmt.Fprintf(w, "[%s] %s\n", label, sc.Text())
	}
	// Keep draining so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}
