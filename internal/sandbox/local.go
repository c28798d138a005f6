package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// stderrTailBytes is how much of the end of stderr a RunResult keeps.
const stderrTailBytes = 4096

// LocalEngine runs sandboxes through a local container CLI (docker or
// podman). Pulls are rate-limited so a full concurrent check run does not
// hammer the registry.
//
// Steps share one container filesystem: after each successful step the
// container is committed and the next step starts from the committed
// image, so state a step writes outside the mounts is visible to the
// steps after it.
type LocalEngine struct {
	// CLI is the container binary, "docker" by default.
	CLI string

	// Workdir is where output mount directories are materialized.
	// Defaults to the system temp directory.
	Workdir string

	pulls *rate.Limiter

	// run invokes one container CLI command and reports its exit code.
	// Nil means the real CLI; tests script it.
	run cliRunner
}

// cliRunner executes the container CLI with the given arguments. A
// non-zero exit comes back as the int with a nil error; the error return
// is for invocations that could not run at all.
type cliRunner func(ctx context.Context, stderr *bytes.Buffer, args ...string) (int, error)

// NewLocalEngine constructs an engine around the given container CLI.
// pullsPerMinute bounds image pulls across concurrent runs; zero disables
// the limit.
func NewLocalEngine(cli string, pullsPerMinute int) *LocalEngine {
	if cli == "" {
		cli = "docker"
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if pullsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(pullsPerMinute)), 1)
	}
	return &LocalEngine{CLI: cli, pulls: limiter}
}

// Run implements Engine.
func (e *LocalEngine) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	run := e.run
	if run == nil {
		if _, err := exec.LookPath(e.CLI); err != nil {
			return nil, &ProvisionError{Image: spec.Image, Err: fmt.Errorf("container runtime %q not found: %w", e.CLI, err)}
		}
		run = e.execCLI
	}

	if err := e.pull(ctx, run, spec.Image); err != nil {
		return nil, err
	}

	outputs, hostDirs, err := e.prepareOutputs(spec)
	if err != nil {
		return nil, &ProvisionError{Image: spec.Image, Err: err}
	}

	// Chain steps through committed images so each one sees the
	// filesystem the previous step left behind.
	image := spec.Image
	var committed []string
	defer func() {
		cleanup := context.WithoutCancel(ctx)
		for _, img := range committed {
			var discard bytes.Buffer
			_, _ = run(cleanup, &discard, "rmi", "-f", img)
		}
	}()

	var lastStderr bytes.Buffer
	for i, step := range spec.Steps {
		lastStderr.Reset()
		name := "modcheck-" + uuid.NewString()[:8]
		args := e.runArgs(spec, hostDirs, image, name, step)

		code, err := run(ctx, &lastStderr, args...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &ProvisionError{Image: spec.Image, Err: err}
		}
		if code != 0 {
			e.removeContainer(ctx, run, name)
			return &RunResult{
				ExitCode:   code,
				StderrTail: tail(lastStderr.Bytes()),
			}, nil
		}

		if i < len(spec.Steps)-1 {
			next := "modcheck-step:" + uuid.NewString()[:8]
			var commitErr bytes.Buffer
			if code, err := run(ctx, &commitErr, "commit", name, next); err != nil || code != 0 {
				e.removeContainer(ctx, run, name)
				if err == nil {
					err = fmt.Errorf("commit failed: %s", tail(commitErr.Bytes()))
				}
				return nil, &ProvisionError{Image: spec.Image, Err: err}
			}
			committed = append(committed, next)
			image = next
		}
		e.removeContainer(ctx, run, name)
	}

	return &RunResult{OutputMounts: outputs, StderrTail: tail(lastStderr.Bytes())}, nil
}

// execCLI is the real cliRunner.
func (e *LocalEngine) execCLI(ctx context.Context, stderr *bytes.Buffer, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, e.CLI, args...)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}

// pull fetches the image up front so a pull failure is reported as
// provisioning, never folded into a step's exit status.
func (e *LocalEngine) pull(ctx context.Context, run cliRunner, image string) error {
	if err := e.pulls.Wait(ctx); err != nil {
		return err
	}
	var stderr bytes.Buffer
	code, err := run(ctx, &stderr, "pull", image)
	if err != nil || code != 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = fmt.Errorf("pull failed: %s", tail(stderr.Bytes()))
		}
		return &ProvisionError{Image: image, Err: err}
	}
	return nil
}

// prepareOutputs creates a host directory per requested output mount.
func (e *LocalEngine) prepareOutputs(spec RunSpec) (map[string]workspace.Context, map[string]string, error) {
	outputs := make(map[string]workspace.Context, len(spec.OutputMounts))
	hostDirs := make(map[string]string, len(spec.OutputMounts))
	workdir := e.Workdir
	if workdir == "" {
		workdir = os.TempDir()
	}
	for _, containerPath := range spec.OutputMounts {
		host, err := os.MkdirTemp(workdir, "modcheck-out-"+uuid.NewString()[:8]+"-")
		if err != nil {
			return nil, nil, fmt.Errorf("creating output mount dir: %w", err)
		}
		cctx, err := workspace.New(host)
		if err != nil {
			return nil, nil, err
		}
		hostDirs[containerPath] = host
		outputs[containerPath] = cctx
	}
	return outputs, hostDirs, nil
}

func (e *LocalEngine) runArgs(spec RunSpec, outputDirs map[string]string, image, name string, step []string) []string {
	args := []string{"run", "--name", name}
	for containerPath, cctx := range spec.Mounts {
		args = append(args, "-v", fmt.Sprintf("%s:%s:ro", cctx.Root(), containerPath))
	}
	for containerPath, hostFile := range spec.FileMounts {
		args = append(args, "-v", fmt.Sprintf("%s:%s:ro", hostFile, containerPath))
	}
	for containerPath, hostDir := range outputDirs {
		args = append(args, "-v", fmt.Sprintf("%s:%s", hostDir, containerPath))
	}
	args = append(args, image)
	return append(args, step...)
}

// removeContainer discards a step container, best effort.
func (e *LocalEngine) removeContainer(ctx context.Context, run cliRunner, name string) {
	var discard bytes.Buffer
	_, _ = run(context.WithoutCancel(ctx), &discard, "rm", "-f", name)
}

func tail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
