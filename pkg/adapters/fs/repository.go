package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/git"
)

// Repository implements core.Storage on a directory tree, optionally
// recording every write in Git.
type Repository struct {
	Path   string
	git    *git.Client
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastEvent     *time.Time
	stats         counters
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	AutoInit     bool
	Gitless      bool
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	SystemDir    string      // e.g. ".canon"
	ErrorHandler func(error) // receives watcher failures
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = ".canon"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
	}
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("world path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("world path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create world directory: %w", err)
		}
	}

	if !r.config.ReadOnly {
		if n, err := sweepTempFiles(r.Path, staleTempAge); err != nil {
			r.config.Logger.Warn("temp file sweep failed", "path", r.Path, "error", err)
		} else if n > 0 {
			r.config.Logger.Info("removed abandoned temp files", "path", r.Path, "count", n)
		}
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := r.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatCommitMessage(git.CommitTypeChore, "", fmt.Sprintf("configure %s ignore", r.config.SystemDir), "")
		if err := r.git.Commit(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock", TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Repository) fullPath(p string) (string, error) {
	clean, err := core.CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.Path, filepath.FromSlash(clean)), nil
}

// Read loads the raw bytes of a document.
func (r *Repository) Read(ctx context.Context, p string) ([]byte, error) {
	full, err := r.fullPath(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, core.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w: %w", p, core.ErrIO, err)
	}
	return data, nil
}

// Write persists data atomically and, unless gitless, commits it.
//
// Workflow:
//  1. Validate the path and create parent directories.
//  2. Write to a temp file in the same directory and rename over the target.
//  3. (If Git enabled) 'git add' and 'git commit' with the context change reason.
//
// Once step 2 succeeds the document is stored and Write returns nil: a failed
// commit is logged and counted but never reported as a failed write.
func (r *Repository) Write(ctx context.Context, p string, data []byte) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	full, err := r.fullPath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create directories for %s: %w: %w", p, core.ErrIO, err)
	}

	if err := writeFileAtomic(full, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w: %w", p, core.ErrIO, err)
	}
	r.stats.writes.Add(1)

	if !r.config.Gitless {
		r.record(ctx, p, "update", func(ctx context.Context, rel, msg string) error {
			if err := r.git.Add(ctx, rel); err != nil {
				return fmt.Errorf("git add: %w", err)
			}
			return r.git.CommitIfChanged(ctx, msg)
		})
	}
	return nil
}

// errUntracked tells record there was nothing to commit.
var errUntracked = errors.New("path not tracked")

// record commits a change that is already on disk. Failures leave the
// working tree ahead of history; they are logged and counted.
func (r *Repository) record(ctx context.Context, p, verb string, commit func(ctx context.Context, rel, msg string) error) {
	msg := core.ChangeReason(ctx)
	if msg == "" {
		msg = git.FormatCommitMessage(git.CommitTypeDocs, scopeOf(p), verb+" "+p, "")
	}

	err := func() error {
		unlock, err := r.git.Lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
		return commit(ctx, filepath.FromSlash(path.Clean(p)), msg)
	}()
	if errors.Is(err, errUntracked) {
		return
	}
	if err != nil {
		r.stats.uncommitted.Add(1)
		r.config.Logger.Warn("change stored but not committed", "path", p, "error", err)
		return
	}
	r.stats.commits.Add(1)
}

// Exists reports whether a file exists at p.
func (r *Repository) Exists(ctx context.Context, p string) (bool, error) {
	full, err := r.fullPath(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w: %w", p, core.ErrIO, err)
	}
	return !info.IsDir(), nil
}

// Delete removes a document.
func (r *Repository) Delete(ctx context.Context, p string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	full, err := r.fullPath(p)
	if err != nil {
		return err
	}

	if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}

	if r.config.Gitless {
		if err := os.Remove(full); err != nil {
			return fmt.Errorf("remove %s: %w: %w", p, core.ErrIO, err)
		}
		r.stats.deletes.Add(1)
		return nil
	}

	// git rm removes the file and stages the removal in one step; untracked
	// files are removed directly and leave nothing to commit.
	var removeErr error
	r.record(ctx, p, "delete", func(ctx context.Context, rel, msg string) error {
		if err := r.git.Rm(ctx, rel); err != nil {
			removeErr = os.Remove(full)
			return errUntracked
		}
		return r.git.Commit(ctx, msg)
	})
	if _, err := os.Stat(full); err == nil {
		// The lock or git rm never ran; remove the document regardless.
		removeErr = os.Remove(full)
	}
	if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w: %w", p, core.ErrIO, removeErr)
	}
	r.stats.deletes.Add(1)
	return nil
}

// List walks the tree and returns the logical paths under prefix.
// Hidden entries (.git, the system dir, dotfiles) and in-flight temp files
// are skipped.
func (r *Repository) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(r.Path, func(full string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && full == r.Path {
				return filepath.SkipAll
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if full != r.Path && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || strings.HasPrefix(name, TempFilePrefix) || name == r.config.SystemDir+".lock" {
			return nil
		}

		rel, err := filepath.Rel(r.Path, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w: %w", prefix, core.ErrIO, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Tag records a git tag for a sealed snapshot. It is a no-op in gitless mode.
func (r *Repository) Tag(ctx context.Context, name, message string) error {
	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	return r.git.Tag(ctx, name, message)
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

func scopeOf(p string) string {
	if dir := path.Dir(p); dir != "." {
		return strings.SplitN(dir, "/", 2)[0]
	}
	return "world"
}

var (
	_ core.Storage   = (*Repository)(nil)
	_ core.Tagger    = (*Repository)(nil)
	_ core.Watchable = (*Repository)(nil)
)
