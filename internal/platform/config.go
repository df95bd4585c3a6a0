package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/canon/pkg/core"
)

// FileConfig mirrors canon.yaml. Every field is optional; command-line flags
// override whatever the file sets.
type FileConfig struct {
	Adapter            string `yaml:"adapter,omitempty"`
	URI                string `yaml:"uri,omitempty"`
	DSN                string `yaml:"dsn,omitempty"`
	Versioning         *bool  `yaml:"versioning,omitempty"`
	ReadOnly           bool   `yaml:"read_only,omitempty"`
	SystemDir          string `yaml:"system_dir,omitempty"`
	CaptureConcurrency int    `yaml:"capture_concurrency,omitempty"`
	Listen             string `yaml:"listen,omitempty"`

	S3 S3Config `yaml:"s3,omitempty"`

	// Snapshots optionally moves snapshot records to a second storage.
	Snapshots *ArchiveConfig `yaml:"snapshots,omitempty"`
}

// S3Config holds the s3 adapter settings.
type S3Config struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// ArchiveConfig selects the storage that holds snapshot records.
type ArchiveConfig struct {
	Adapter string   `yaml:"adapter"`
	URI     string   `yaml:"uri,omitempty"`
	DSN     string   `yaml:"dsn,omitempty"`
	S3      S3Config `yaml:"s3,omitempty"`
}

// LoadConfig reads canon.yaml from dir. A missing file yields an empty config.
func LoadConfig(dir string) (*FileConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", ConfigFileName, err, core.ErrValidation)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FileConfig) validate() error {
	if err := validAdapter(c.Adapter); err != nil {
		return err
	}
	if c.Snapshots != nil {
		if c.Snapshots.Adapter == "" {
			return fmt.Errorf("%s: snapshots.adapter is required: %w", ConfigFileName, core.ErrValidation)
		}
		if err := validAdapter(c.Snapshots.Adapter); err != nil {
			return err
		}
	}
	if c.CaptureConcurrency < 0 {
		return fmt.Errorf("%s: capture_concurrency must not be negative: %w", ConfigFileName, core.ErrValidation)
	}
	return nil
}

func validAdapter(name string) error {
	if name == "" {
		return nil
	}
	for _, a := range Adapters {
		if a == name {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown adapter %q: %w", ConfigFileName, name, core.ErrValidation)
}

// Options converts the file settings into functional options.
// Options appended after these win.
func (c *FileConfig) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.DSN != "" {
		opts = append(opts, WithDSN(c.DSN))
	}
	if c.Versioning != nil {
		opts = append(opts, WithVersioning(*c.Versioning))
	}
	if c.ReadOnly {
		opts = append(opts, WithReadOnly(true))
	}
	if c.SystemDir != "" {
		opts = append(opts, WithSystemDir(c.SystemDir))
	}
	if c.CaptureConcurrency > 0 {
		opts = append(opts, WithCaptureConcurrency(c.CaptureConcurrency))
	}
	opts = append(opts, c.S3.options()...)
	return opts
}

func (s S3Config) options() []Option {
	var opts []Option
	if s.Bucket != "" {
		opts = append(opts, WithBucket(s.Bucket))
	}
	if s.Prefix != "" {
		opts = append(opts, WithPrefix(s.Prefix))
	}
	if s.Region != "" {
		opts = append(opts, WithRegion(s.Region))
	}
	if s.Endpoint != "" {
		opts = append(opts, WithEndpoint(s.Endpoint))
	}
	return opts
}

// OpenArchive builds the snapshot storage described by the snapshots section.
// It returns nil when snapshots live next to the documents.
func (c *FileConfig) OpenArchive(base ...Option) (core.Storage, error) {
	if c.Snapshots == nil {
		return nil, nil
	}
	a := c.Snapshots
	opts := append([]Option{}, base...)
	opts = append(opts, WithAdapter(a.Adapter), WithVersioning(false), WithAutoInit(true))
	if a.DSN != "" {
		opts = append(opts, WithDSN(a.DSN))
	}
	opts = append(opts, a.S3.options()...)
	return Init(a.URI, opts...)
}
