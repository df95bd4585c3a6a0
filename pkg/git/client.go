package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultStaleLock is how old a lock file must be before a waiting writer
// removes it as abandoned.
const DefaultStaleLock = 30 * time.Second

// ErrLocked is returned when the lock cannot be acquired before ctx is done.
var ErrLocked = errors.New("git lock held by another writer")

// Client runs git commands in one working tree. Writers serialise through a
// lock file so that concurrent processes never interleave add and commit.
type Client struct {
	WorkDir   string
	Logger    *slog.Logger
	StaleLock time.Duration
	lockPath  string
}

// NewClient creates a client for workDir. lockName is the lock file created
// inside workDir while a writer holds the lock.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = ".canon.lock"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir:   workDir,
		Logger:    logger,
		StaleLock: DefaultStaleLock,
		lockPath:  filepath.Join(workDir, lockName),
	}
}

// IsInstalled checks if git is available in the system path.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether WorkDir is the root of a git repository.
func (c *Client) IsRepo() bool {
	_, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil
}

// Lock acquires the lock file, polling with backoff until ctx is done.
// A lock file older than StaleLock is treated as left behind by a crashed
// writer and removed.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	wait := 5 * time.Millisecond
	for {
		f, err := os.OpenFile(c.lockPath, os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(c.lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock %s: %w", c.lockPath, err)
		}

		if c.StaleLock > 0 {
			if info, statErr := os.Stat(c.lockPath); statErr == nil && time.Since(info.ModTime()) > c.StaleLock {
				c.Logger.Warn("removing stale git lock", "path", c.lockPath, "age", time.Since(info.ModTime()))
				_ = os.Remove(c.lockPath)
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, 100*time.Millisecond)
	}
}

// Run executes a raw git command in the working directory and returns its
// trimmed combined output. It does not take the lock; writers call Lock first.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return output, nil
}

// Init creates a repository in WorkDir. Re-running it is harmless.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// Rm removes files from the working tree and the index.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"rm", "-f", "--"}, files...)...)
	return err
}

// Commit records the staged changes.
func (c *Client) Commit(ctx context.Context, msg string) error {
	_, err := c.Run(ctx, "commit", "-m", msg)
	return err
}

// CommitIfChanged commits only when the index differs from HEAD, so that
// rewriting a document with identical bytes does not fail.
func (c *Client) CommitIfChanged(ctx context.Context, msg string) error {
	staged, err := c.Run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		// No HEAD yet: every staged file is a change.
		return c.Commit(ctx, msg)
	}
	if staged == "" {
		return nil
	}
	return c.Commit(ctx, msg)
}

// Tag creates an annotated tag at HEAD.
func (c *Client) Tag(ctx context.Context, name, msg string) error {
	_, err := c.Run(ctx, "tag", "-a", name, "-m", msg)
	return err
}

// Status returns the porcelain status of the working tree.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}
