package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jacoelho/jscan/internal/exit"
	"github.com/jacoelho/jscan/internal/output"
	"github.com/jacoelho/jscan/internal/scan"
	"github.com/jacoelho/jscan/internal/source"
	"github.com/jacoelho/jscan/internal/token"
)

const (
	// DefaultTimeout bounds each HTTP fetch.
	DefaultTimeout = source.DefaultTimeout

	envS3Endpoint  = "JSCAN_S3_ENDPOINT"
	envS3AccessKey = "JSCAN_S3_ACCESS_KEY"
	envS3SecretKey = "JSCAN_S3_SECRET_KEY"
	envS3Region    = "JSCAN_S3_REGION"
)

var (
	ErrNoArguments        = errors.New("no arguments provided")
	ErrEmptyTarget        = errors.New("target name cannot be empty")
	ErrInvalidFieldFormat = errors.New("field must be in format name=key")
	ErrNegative           = errors.New("value cannot be negative")
	ErrWatchStdin         = errors.New("--watch cannot re-read standard input")
	ErrServeSources       = errors.New("--serve takes no sources")
	ErrVerifyDeep         = errors.New("--verify does not support --deep")
)

// Config represents the complete configuration for the jscan tool.
type Config struct {
	// Sources to scan in order; "-" is standard input.
	Sources []string

	// Scan behaviour
	Target   string
	Deep     bool
	Mapping  scan.FieldMapping
	MaxDepth int

	// Record pipeline
	Format    output.Format
	Limit     int
	Dedupe    bool
	RateLimit float64 // Records per second (0 = unlimited)

	Verify  bool
	Debug   bool
	Summary bool

	// Watch re-scans every source at this interval (0 = once).
	Watch time.Duration

	// Serve is the listen address of the HTTP API; empty runs the CLI.
	Serve string

	// Fetching
	Insecure   bool
	CACertFile string
	Timeout    time.Duration
	S3         source.S3Config
}

// TLSConfig returns a TLS configuration based on the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", c.CACertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", c.CACertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// HTTPClient creates the client used for http(s) sources.
func (c *Config) HTTPClient() (*http.Client, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
	}

	return &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		},
	}, nil
}

// SourceOptions bundles what source.Open needs.
func (c *Config) SourceOptions() (source.Options, error) {
	client, err := c.HTTPClient()
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{HTTPClient: client, S3: c.S3}, nil
}

// ScanOptions configures a scan.Scanner.
func (c *Config) ScanOptions() []scan.Option {
	return []scan.Option{
		scan.WithTarget(c.Target),
		scan.WithMapping(c.Mapping),
		scan.WithDeepSearch(c.Deep),
		scan.WithMaxDepth(c.MaxDepth),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrEmptyTarget
	}
	if c.Limit < 0 {
		return fmt.Errorf("--limit: %w", ErrNegative)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("--rate-limit: %w", ErrNegative)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("--max-depth: %w", ErrNegative)
	}
	if c.Watch < 0 {
		return fmt.Errorf("--watch: %w", ErrNegative)
	}
	if c.Serve != "" && len(c.Sources) > 0 {
		return ErrServeSources
	}
	if c.Watch > 0 {
		for _, s := range c.Sources {
			if s == source.Stdin {
				return ErrWatchStdin
			}
		}
	}
	if c.Verify && c.Deep {
		return ErrVerifyDeep
	}
	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}
	return nil
}

// fieldsFlag implements flag.Value for repeated --field flags.
type fieldsFlag []scan.Binding

func (f *fieldsFlag) String() string {
	if f == nil {
		return ""
	}
	pairs := make([]string, len(*f))
	for i, b := range *f {
		pairs[i] = fmt.Sprintf("%s=%s", b.Field, b.Key)
	}
	return strings.Join(pairs, ",")
}

func (f *fieldsFlag) Set(value string) error {
	b, err := parseBinding(value)
	if err != nil {
		return err
	}
	*f = append(*f, b)
	return nil
}

func parseBinding(value string) (scan.Binding, error) {
	name, key, ok := strings.Cut(value, "=")
	if !ok {
		return scan.Binding{}, fmt.Errorf("%w, got: %s", ErrInvalidFieldFormat, value)
	}
	name = strings.TrimSpace(name)
	key = strings.TrimSpace(key)
	if name == "" || key == "" {
		return scan.Binding{}, fmt.Errorf("%w, got: %s", ErrInvalidFieldFormat, value)
	}
	return scan.Binding{Field: name, Key: scan.Key(key)}, nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
//
// Values come from defaults, then the --profile file, then flags given
// explicitly on the command line.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		target     = fs.String("target", scan.DefaultTarget, "Name of the array member to extract")
		deep       = fs.Bool("deep", false, "Search nested objects for the target")
		format     = fs.String("format", string(output.FormatTable), "Output format")
		profile    = fs.String("profile", "", "Path to a YAML profile")
		fields     fieldsFlag
		limit      = fs.Int("limit", 0, "Stop after N records (0 for no limit)")
		dedupe     = fs.Bool("dedupe", false, "Drop repeated records")
		rateLimit  = fs.Float64("rate-limit", 0, "Records per second, or scans per second with --serve (0 for unlimited)")
		maxDepth   = fs.Int("max-depth", token.DefaultMaxDepth, "Maximum nesting depth (0 for unlimited)")
		timeout    = fs.Duration("timeout", DefaultTimeout, "HTTP fetch timeout")
		verify     = fs.Bool("verify", false, "Cross-check records against an in-memory parse")
		debug      = fs.Bool("debug", false, "Enable debug logging")
		summary    = fs.Bool("summary", false, "Print a per-source summary to stderr")
		watch      = fs.Duration("watch", 0, "Re-scan sources at this interval")
		serve      = fs.String("serve", "", "Serve the HTTP API on this address")
		insecure   = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile = fs.String("cacert", "", "Path to CA certificate file for TLS verification")
		s3Endpoint = fs.String("s3-endpoint", os.Getenv(envS3Endpoint), "S3 endpoint")
		s3Access   = fs.String("s3-access-key", os.Getenv(envS3AccessKey), "S3 access key")
		s3Secret   = fs.String("s3-secret-key", os.Getenv(envS3SecretKey), "S3 secret key")
		s3Region   = fs.String("s3-region", os.Getenv(envS3Region), "S3 region")
		s3Plain    = fs.Bool("s3-plain-http", false, "Use plain HTTP for a scheme-less S3 endpoint")
	)

	fs.Var(&fields, "field", "Field binding in format name=key (can be used multiple times)")

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := &Config{
		Sources:    fs.Args(),
		Target:     *target,
		Deep:       *deep,
		MaxDepth:   *maxDepth,
		Limit:      *limit,
		Dedupe:     *dedupe,
		RateLimit:  *rateLimit,
		Verify:     *verify,
		Debug:      *debug,
		Summary:    *summary,
		Watch:      *watch,
		Serve:      *serve,
		Insecure:   *insecure,
		CACertFile: *caCertFile,
		Timeout:    *timeout,
		S3: source.S3Config{
			Endpoint:  *s3Endpoint,
			AccessKey: *s3Access,
			SecretKey: *s3Secret,
			Region:    *s3Region,
			PlainHTTP: *s3Plain,
		},
	}

	bindings := []scan.Binding(fields)
	formatName := *format

	if *profile != "" {
		p, err := LoadProfile(*profile)
		if err != nil {
			return nil, exit.Usagef("Error: failed to load profile: %v\n\n%s", err, Usage())
		}
		if p.Target != "" && !set["target"] {
			cfg.Target = p.Target
		}
		if p.Deep != nil && !set["deep"] {
			cfg.Deep = *p.Deep
		}
		if p.Format != "" && !set["format"] {
			formatName = p.Format
		}
		if p.MaxDepth != nil && !set["max-depth"] {
			cfg.MaxDepth = *p.MaxDepth
		}
		if len(p.Fields) > 0 && !set["field"] {
			bindings = p.Bindings()
		}
	}

	f, err := output.ParseFormat(formatName)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}
	cfg.Format = f

	if len(bindings) == 0 {
		cfg.Mapping = scan.DefaultMapping()
	} else {
		m, err := scan.NewFieldMapping(bindings...)
		if err != nil {
			return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
		}
		cfg.Mapping = m
	}

	if cfg.Serve == "" && len(cfg.Sources) == 0 {
		cfg.Sources = []string{source.Stdin}
	}

	if err := cfg.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	return cfg, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `jscan - selective streaming JSON array extractor

Usage: jscan [options] [source ...]

A source is a file path, "-" for standard input (the default), an
http(s) URL or s3://bucket/key. gzip, zstd and lz4 input is detected
and decompressed.

Options:
  --target NAME           Array member to extract (default: data)
  --deep                  Search nested objects for the target
  --field NAME=KEY        Map document field NAME to output KEY (can be used multiple times)
  --profile FILE          YAML profile with target, deep, format, max_depth and fields
  --format FORMAT         table, csv, ndjson, markdown or html (default: table)
  --limit N               Stop after N records (0 for no limit)
  --dedupe                Drop repeated records
  --rate-limit N          Records per second, or scans per second with --serve (0 for unlimited)
  --max-depth N           Maximum nesting depth (default: 10000, 0 for unlimited)
  --verify                Cross-check records against an in-memory parse
  --summary               Print a per-source summary to stderr
  --watch DURATION        Re-scan sources at this interval
  --serve ADDR            Serve the HTTP API on ADDR instead of scanning
  --timeout DURATION      HTTP fetch timeout (default: 30s)
  --insecure              Skip TLS certificate verification
  --cacert FILE           Path to CA certificate file for TLS verification
  --s3-endpoint HOST      S3 endpoint (env JSCAN_S3_ENDPOINT)
  --s3-access-key KEY     S3 access key (env JSCAN_S3_ACCESS_KEY)
  --s3-secret-key KEY     S3 secret key (env JSCAN_S3_SECRET_KEY)
  --s3-region REGION      S3 region (env JSCAN_S3_REGION)
  --s3-plain-http         Use plain HTTP for a scheme-less S3 endpoint
  --debug                 Enable debug logging
  -h, --help              Show this help message

Examples:
  jscan observations.json                       # Print the observation table
  curl -s $FEED | jscan --format ndjson         # Read from standard input
  jscan --watch 10m https://example.com/obs.json
  jscan --field air_temp=temp --target data obs.json.gz
  jscan --serve :8080`
}
