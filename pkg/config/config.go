// Package config loads falcon.yml with viper.
//
// Every key can be overridden from the environment with the FALCON_ prefix,
// dots replaced by underscores (FALCON_OUTPUT_DIR, FALCON_GENERATE_WORKERS).
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Malformed schema policies
const (
	OnMalformedSkip     = "skip"
	OnMalformedFailFast = "fail_fast"
)

// Config is the falcon.yml document
type Config struct {
	Schema    SchemaConfig    `mapstructure:"schema" yaml:"schema" jsonschema:"description=Schema document and side tables"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Generate  GenerateConfig  `mapstructure:"generate" yaml:"generate"`
	Formatter FormatterConfig `mapstructure:"formatter" yaml:"formatter"`
	Fixups    []Fixup         `mapstructure:"fixups" yaml:"fixups" jsonschema:"description=Edits applied to generated files after a run"`
	Serve     ServeConfig     `mapstructure:"serve" yaml:"serve"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// SchemaConfig locates the CMDB schema document and its side tables
type SchemaConfig struct {
	File              string `mapstructure:"file" yaml:"file" jsonschema:"description=CMDB schema document (JSON)"`
	SpecialAttributes string `mapstructure:"special_attributes" yaml:"special_attributes" jsonschema:"description=Module key to multi-value attribute paths (JSON)"`
	Identifiers       string `mapstructure:"identifiers" yaml:"identifiers" jsonschema:"description=Raw attribute spelling to valid identifier (JSON)"`
	VersionAdded      string `mapstructure:"version_added" yaml:"version_added" jsonschema:"description=Module name to the release that introduced it (JSON)"`
}

// OutputConfig controls where artifacts go
type OutputConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir" jsonschema:"description=Root directory; artifacts land in <dir>/<version>/<path>/"`
	Templates string `mapstructure:"templates" yaml:"templates" jsonschema:"description=Directory whose *.tmpl files replace the built-in templates"`
}

// GenerateConfig tunes the batch driver
type GenerateConfig struct {
	SkipMarkers     []string `mapstructure:"skip_markers" yaml:"skip_markers" jsonschema:"description=Entries whose path contains one of these are not generated"`
	Workers         int      `mapstructure:"workers" yaml:"workers" jsonschema:"minimum=1"`
	OnMalformed     string   `mapstructure:"on_malformed" yaml:"on_malformed" jsonschema:"enum=skip,enum=fail_fast"`
	Tests           bool     `mapstructure:"tests" yaml:"tests" jsonschema:"description=Render a test file per module"`
	BaselineVersion string   `mapstructure:"baseline_version" yaml:"baseline_version" jsonschema:"description=version_added for modules missing from the version-added table"`
	Untestable      []string `mapstructure:"untestable" yaml:"untestable" jsonschema:"description=Glob patterns of generated tests to delete"`
	Selectors       bool     `mapstructure:"selectors" yaml:"selectors" jsonschema:"description=Write fortios_configuration_fact.md"`
	Manifest        bool     `mapstructure:"manifest" yaml:"manifest" jsonschema:"description=Write manifest.json"`
}

// FormatterConfig is the external formatter run over generated files
type FormatterConfig struct {
	Command   []string `mapstructure:"command" yaml:"command" jsonschema:"description=Formatter command and arguments; empty disables formatting"`
	BatchSize int      `mapstructure:"batch_size" yaml:"batch_size" jsonschema:"minimum=1"`
}

// Fixup edits one generated file, relative to <output.dir>/<version>
type Fixup struct {
	File             string        `mapstructure:"file" yaml:"file"`
	Replace          []Replacement `mapstructure:"replace" yaml:"replace"`
	NormalizeNewline bool          `mapstructure:"normalize_newlines" yaml:"normalize_newlines" jsonschema:"description=Convert CRLF line endings to LF"`
}

// Replacement is a literal text substitution
type Replacement struct {
	Old string `mapstructure:"old" yaml:"old"`
	New string `mapstructure:"new" yaml:"new"`
}

// ServeConfig configures the validation API
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=silent"`
}

// DefaultFixups are the edits known to be needed on generated modules
func DefaultFixups() []Fixup {
	hotspot := func(name string) Fixup {
		return Fixup{
			File:             "wireless_controller_hotspot20/fortios_wireless_controller_hotspot20_" + name + ".go",
			NormalizeNewline: true,
		}
	}
	return []Fixup{
		{
			File:    "vpn_ssl/fortios_vpn_ssl_settings.go",
			Replace: []Replacement{{Old: `Encode \2F sequence`, New: "Encode 2F sequence"}},
		},
		hotspot("anqp_ip_address_type"),
		hotspot("anqp_network_auth_type"),
		hotspot("anqp_roaming_consortium"),
		hotspot("h2qp_conn_capability"),
	}
}

// New returns a viper instance with falcon's defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("falcon")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FALCON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("schema.file", "fgt_schema.json")
	v.SetDefault("schema.special_attributes", "special_attributes.json")
	v.SetDefault("schema.identifiers", "valid_identifiers.json")
	v.SetDefault("schema.version_added", "version_added.json")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.templates", "")
	v.SetDefault("generate.skip_markers", []string{"diagnose", "execute"})
	v.SetDefault("generate.workers", runtime.NumCPU())
	v.SetDefault("generate.on_malformed", OnMalformedSkip)
	v.SetDefault("generate.tests", true)
	v.SetDefault("generate.baseline_version", "2.10")
	v.SetDefault("generate.untestable", []string{"fortios_router_bfd*_test.go"})
	v.SetDefault("generate.selectors", true)
	v.SetDefault("generate.manifest", true)
	v.SetDefault("formatter.command", []string{"gofmt", "-w"})
	v.SetDefault("formatter.batch_size", 200)
	v.SetDefault("fixups", DefaultFixups())
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("log.level", "info")

	return v
}

// Load reads the config file into cfg. An explicit file must exist; the
// default falcon.yml is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that viper cannot express
func (c *Config) Validate() error {
	if c.Schema.File == "" {
		return fmt.Errorf("schema.file must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	switch c.Generate.OnMalformed {
	case OnMalformedSkip, OnMalformedFailFast:
	default:
		return fmt.Errorf("generate.on_malformed must be %q or %q, got %q",
			OnMalformedSkip, OnMalformedFailFast, c.Generate.OnMalformed)
	}
	if c.Generate.Workers < 1 {
		return fmt.Errorf("generate.workers must be at least 1")
	}
	for i, f := range c.Fixups {
		if f.File == "" {
			return fmt.Errorf("fixups[%d]: file must be set", i)
		}
	}
	return nil
}
