package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/canon/pkg/adapters/badger"
	"github.com/aretw0/canon/pkg/adapters/fs"
	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/adapters/postgres"
	"github.com/aretw0/canon/pkg/adapters/s3"
	"github.com/aretw0/canon/pkg/adapters/sqlite"
	"github.com/aretw0/canon/pkg/core"
)

// Adapters lists the storage adapters Init knows how to build.
var Adapters = []string{"fs", "memory", "sqlite", "badger", "postgres", "s3"}

// Init builds and initializes the storage selected by the options.
// The 'uri' argument is adapter-specific: a directory for fs and badger, a
// database file for sqlite, a DSN for postgres and a bucket for s3.
func Init(uri string, opts ...Option) (core.Storage, error) {
	return initStorage(context.Background(), uri, applyOptions(opts))
}

func initStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	// 1. Check for injected storage
	if o.storage != nil {
		if err := o.storage.Initialize(ctx); err != nil {
			return nil, err
		}
		return o.storage, nil
	}

	// 2. Build based on Adapter
	storage, err := buildStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	if readOnly, _ := o.config["read_only"].(bool); readOnly && o.adapter != "fs" {
		storage = readOnlyStorage{Storage: storage}
	}

	// 3. Run Initialization
	if err := storage.Initialize(ctx); err != nil {
		closeQuietly(storage)
		return nil, err
	}

	return storage, nil
}

func buildStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	switch o.adapter {
	case "fs":
		return initFS(uri, o)
	case "memory":
		return memory.New(), nil
	case "sqlite":
		path := uri
		if path == "" {
			path = "canon.db"
		}
		if path != ":memory:" {
			path = resolvePath(path, o)
		}
		return sqlite.Open(path)
	case "badger":
		inMemory, _ := o.config["in_memory"].(bool)
		if inMemory {
			cfg := badger.InMemoryConfig()
			cfg.Logger = o.logger
			return badger.Open(cfg)
		}
		path := uri
		if path == "" {
			path = "canon.badger"
		}
		cfg := badger.DefaultConfig(resolvePath(path, o))
		cfg.Logger = o.logger
		return badger.Open(cfg)
	case "postgres":
		dsn, _ := o.config["dsn"].(string)
		if dsn == "" {
			dsn = uri
		}
		return postgres.Open(ctx, dsn)
	case "s3":
		cfg := s3.Config{Bucket: uri}
		if bucket, _ := o.config["bucket"].(string); bucket != "" {
			cfg.Bucket = bucket
		}
		cfg.Prefix, _ = o.config["prefix"].(string)
		cfg.Region, _ = o.config["region"].(string)
		cfg.Endpoint, _ = o.config["endpoint"].(string)
		cfg.PathStyle = cfg.Endpoint != ""
		cfg.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		cfg.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
		return s3.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown adapter: %s: %w", o.adapter, core.ErrValidation)
	}
}

// resolvePath applies the dev sandbox to file-backed adapters.
func resolvePath(path string, o *options) string {
	useTemp, _ := sandbox(o)
	resolved := ResolveWorldPath(path, useTemp)
	if useTemp && o.logger != nil && resolved != filepath.Clean(path) {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}

// sandbox reports whether paths are re-rooted into the temp dir and whether
// the safety lock was bypassed on purpose.
func sandbox(o *options) (useTemp, bypassed bool) {
	tempDir, _ := o.config["temp_dir"].(bool)
	isReadOnly, _ := o.config["read_only"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypassed = isReadOnly || !devSafety
	return tempDir || (IsDevRun() && !bypassed), bypassed
}

// initFS handles the configuration of the filesystem adapter.
func initFS(path string, o *options) (core.Storage, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	gitless, _ := o.config["gitless"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	isReadOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	if systemDir == "" {
		systemDir = ".canon"
	}

	useTemp, bypassed := sandbox(o)
	resolvedPath := resolvePath(path, o)

	if IsDevRun() && o.logger != nil {
		switch {
		case isReadOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
		case bypassed:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
		default:
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}

	// Versioning detection when not configured explicitly:
	// an existing .git means versioned; a fresh auto-initialized world
	// without a system dir starts versioned; anything else is plain files.
	if _, ok := o.config["gitless"]; !ok {
		if _, err := os.Stat(filepath.Join(resolvedPath, ".git")); err == nil {
			gitless = false
		} else if autoInit {
			_, statErr := os.Stat(filepath.Join(resolvedPath, systemDir))
			gitless = statErr == nil
		} else {
			gitless = true
		}
		if !gitless && !fs.IsGitInstalled() {
			gitless = true
			if o.logger != nil {
				o.logger.Warn("git not installed, versioning disabled", "path", resolvedPath)
			}
		}
		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "path", resolvedPath)
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolvedPath,
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || (!autoInit && !useTemp),
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		ErrorHandler: errorHandler,
	}), nil
}

func closeQuietly(storage core.Storage) {
	if c, ok := storage.(core.Closer); ok {
		_ = c.Close()
	}
}
