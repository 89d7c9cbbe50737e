package dates

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// GitRunner runs a git subcommand and returns its trimmed stdout.
// Tests replace it with a canned implementation.
type GitRunner interface {
	Git(ctx context.Context, args ...string) (string, error)
}

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 30 * time.Second

// ExecGit shells out to the git binary in Dir.
type ExecGit struct {
	Dir     string
	Timeout time.Duration
}

// NewExecGit creates an ExecGit rooted at the repository directory.
func NewExecGit(dir string) *ExecGit {
	return &ExecGit{Dir: dir, Timeout: DefaultTimeout}
}

// Git runs git with args.
func (g *ExecGit) Git(ctx context.Context, args ...string) (string, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
