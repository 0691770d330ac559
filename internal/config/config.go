package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docchunk/internal/pagedims"
	"github.com/dgallion1/docchunk/internal/transform"
)

// EnvPrefix prefixes every environment override, e.g. DOCCHUNK_PORT or
// DOCCHUNK_TRANSFORM_PARA_MAX_CHARS.
const EnvPrefix = "DOCCHUNK"

type Config struct {
	Port string `mapstructure:"port" yaml:"port"`

	// Auth. Empty disables bearer auth on /api routes.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count" yaml:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size" yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"`

	// Page dimensions used when a request brings none. Zero means unknown,
	// which yields null boxes.
	PageWidth  float64 `mapstructure:"page_width" yaml:"page_width"`
	PageHeight float64 `mapstructure:"page_height" yaml:"page_height"`
	PDFDPI     float64 `mapstructure:"pdf_dpi" yaml:"pdf_dpi"`

	Transform TransformConfig `mapstructure:"transform" yaml:"transform"`
}

// TransformConfig mirrors transform.Options.
type TransformConfig struct {
	ExcludeLabels        []string `mapstructure:"exclude_labels" yaml:"exclude_labels"`
	ParaMaxChars         int      `mapstructure:"para_max_chars" yaml:"para_max_chars"`
	FuseFigureAndCaption bool     `mapstructure:"fuse_figure_and_caption" yaml:"fuse_figure_and_caption"`
	TableRowBlockSize    int      `mapstructure:"table_row_block_size" yaml:"table_row_block_size"` // 0 disables
	StrictMode           bool     `mapstructure:"strict_mode" yaml:"strict_mode"`
	OptimizeForRAG       bool     `mapstructure:"optimize_for_rag" yaml:"optimize_for_rag"`
	TargetAvgLength      int      `mapstructure:"target_avg_length" yaml:"target_avg_length"`
	MaxChunkLength       int      `mapstructure:"max_chunk_length" yaml:"max_chunk_length"`
	Reclassify           bool     `mapstructure:"reclassify" yaml:"reclassify"`
	Workers              int      `mapstructure:"workers" yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := transform.DefaultOptions()
	return Config{
		Port: "8090",

		WorkerCount:  4,
		MaxQueueSize: 100,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL: 1 * time.Hour,

		PDFDPI: pagedims.DefaultDPI,

		Transform: TransformConfig{
			ExcludeLabels:        transform.DefaultExcludeLabels,
			ParaMaxChars:         opts.ParaMaxChars,
			FuseFigureAndCaption: opts.FuseFigureAndCaption,
			OptimizeForRAG:       opts.OptimizeForRAG,
			TargetAvgLength:      opts.TargetAvgLength,
			MaxChunkLength:       opts.MaxChunkLength,
		},
	}
}

// Load reads defaults, then the config file, then DOCCHUNK_* environment
// variables. With an empty cfgFile, docchunk.yaml is looked up in the
// working directory and $HOME/.docchunk; a missing file is not an error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docchunk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docchunk")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("job_ttl", d.JobTTL)
	v.SetDefault("page_width", d.PageWidth)
	v.SetDefault("page_height", d.PageHeight)
	v.SetDefault("pdf_dpi", d.PDFDPI)

	t := d.Transform
	v.SetDefault("transform.exclude_labels", t.ExcludeLabels)
	v.SetDefault("transform.para_max_chars", t.ParaMaxChars)
	v.SetDefault("transform.fuse_figure_and_caption", t.FuseFigureAndCaption)
	v.SetDefault("transform.table_row_block_size", t.TableRowBlockSize)
	v.SetDefault("transform.strict_mode", t.StrictMode)
	v.SetDefault("transform.optimize_for_rag", t.OptimizeForRAG)
	v.SetDefault("transform.target_avg_length", t.TargetAvgLength)
	v.SetDefault("transform.max_chunk_length", t.MaxChunkLength)
	v.SetDefault("transform.reclassify", t.Reclassify)
	v.SetDefault("transform.workers", t.Workers)
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if (c.PageWidth > 0) != (c.PageHeight > 0) || c.PageWidth < 0 || c.PageHeight < 0 {
		return fmt.Errorf("page_width and page_height must both be set or both be zero")
	}
	if c.Transform.ParaMaxChars <= 0 {
		return fmt.Errorf("transform.para_max_chars must be positive, got %d", c.Transform.ParaMaxChars)
	}
	if c.Transform.MaxChunkLength <= 0 {
		return fmt.Errorf("transform.max_chunk_length must be positive, got %d", c.Transform.MaxChunkLength)
	}
	if c.Transform.TableRowBlockSize < 0 {
		return fmt.Errorf("transform.table_row_block_size must not be negative")
	}
	return nil
}

// PageDims returns the configured static page size, or nil when unset.
func (c Config) PageDims() pagedims.Provider {
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return nil
	}
	return pagedims.Static(c.PageWidth, c.PageHeight)
}

// Options converts the transform section to transform.Options. DocID,
// PageDims and Logger are left for the caller.
func (t TransformConfig) Options() transform.Options {
	opts := transform.DefaultOptions()
	opts.ExcludeLabels = t.ExcludeLabels
	if opts.ExcludeLabels == nil {
		opts.ExcludeLabels = []string{}
	}
	opts.ParaMaxChars = t.ParaMaxChars
	opts.FuseFigureAndCaption = t.FuseFigureAndCaption
	if t.TableRowBlockSize > 0 {
		size := t.TableRowBlockSize
		opts.TableRowBlockSize = &size
	}
	opts.StrictMode = t.StrictMode
	opts.OptimizeForRAG = t.OptimizeForRAG
	opts.TargetAvgLength = t.TargetAvgLength
	opts.MaxChunkLength = t.MaxChunkLength
	opts.Reclassify = t.Reclassify
	opts.Workers = t.Workers
	return opts
}

// WriteDefault writes the default configuration to path as YAML.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte(`# docchunk configuration
# Every key can be overridden with a DOCCHUNK_ environment variable,
# e.g. DOCCHUNK_PORT=9000 or DOCCHUNK_TRANSFORM_PARA_MAX_CHARS=1000.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
