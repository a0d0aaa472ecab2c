package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jacoelho/jscan/internal/exit"
	"github.com/jacoelho/jscan/internal/output"
	"github.com/jacoelho/jscan/internal/scan"
	"github.com/jacoelho/jscan/internal/token"
)

// generateTestCertificate creates a self-signed PEM certificate.
func generateTestCertificate(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Observations"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		checkFn func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			args: []string{"jscan"},
			checkFn: func(t *testing.T, c *Config) {
				if !reflect.DeepEqual(c.Sources, []string{"-"}) {
					t.Errorf("Sources = %v, want [-]", c.Sources)
				}
				if c.Target != "data" {
					t.Errorf("Target = %q, want data", c.Target)
				}
				if c.Format != output.FormatTable {
					t.Errorf("Format = %q, want table", c.Format)
				}
				if c.MaxDepth != token.DefaultMaxDepth {
					t.Errorf("MaxDepth = %d, want %d", c.MaxDepth, token.DefaultMaxDepth)
				}
				if c.Timeout != DefaultTimeout {
					t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
				}
				if c.Mapping.Len() != 3 {
					t.Errorf("Mapping.Len() = %d, want the default 3", c.Mapping.Len())
				}
			},
		},
		{
			name: "all_scan_flags",
			args: []string{"jscan", "--target", "obs", "--deep", "--format", "csv", "--limit", "5",
				"--dedupe", "--rate-limit", "2.5", "--max-depth", "0", "--summary", "--debug", "a.json", "b.json"},
			checkFn: func(t *testing.T, c *Config) {
				if c.Target != "obs" || !c.Deep || c.Format != output.FormatCSV {
					t.Errorf("got target %q deep %t format %q", c.Target, c.Deep, c.Format)
				}
				if c.Limit != 5 || !c.Dedupe || c.RateLimit != 2.5 || c.MaxDepth != 0 {
					t.Errorf("got limit %d dedupe %t rate %f depth %d", c.Limit, c.Dedupe, c.RateLimit, c.MaxDepth)
				}
				if !c.Summary || !c.Debug {
					t.Error("expected summary and debug")
				}
				if !reflect.DeepEqual(c.Sources, []string{"a.json", "b.json"}) {
					t.Errorf("Sources = %v", c.Sources)
				}
			},
		},
		{
			name: "fields_replace_default_mapping",
			args: []string{"jscan", "--field", "air_temp=temp", "--field", " rel_hum = humidity "},
			checkFn: func(t *testing.T, c *Config) {
				if got := c.Mapping.Keys(); !reflect.DeepEqual(got, []scan.Key{"temp", "humidity"}) {
					t.Errorf("Keys() = %v", got)
				}
				if _, ok := c.Mapping.Lookup("apparent_t"); ok {
					t.Error("default binding survived --field")
				}
			},
		},
		{
			name: "serve_has_no_sources",
			args: []string{"jscan", "--serve", ":8080"},
			checkFn: func(t *testing.T, c *Config) {
				if c.Serve != ":8080" || len(c.Sources) != 0 {
					t.Errorf("Serve = %q, Sources = %v", c.Serve, c.Sources)
				}
			},
		},
		{
			name: "watch",
			args: []string{"jscan", "--watch", "10m", "https://example.com/obs.json"},
			checkFn: func(t *testing.T, c *Config) {
				if c.Watch != 10*time.Minute {
					t.Errorf("Watch = %v", c.Watch)
				}
			},
		},
		{
			name: "s3_flags",
			args: []string{"jscan", "--s3-endpoint", "minio:9000", "--s3-access-key", "ak", "--s3-secret-key", "sk", "--s3-plain-http", "s3://obs/k.json"},
			checkFn: func(t *testing.T, c *Config) {
				if c.S3.Endpoint != "minio:9000" || c.S3.AccessKey != "ak" || c.S3.SecretKey != "sk" || !c.S3.PlainHTTP {
					t.Errorf("S3 = %+v", c.S3)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, result := Parse(tt.args)
			if result != nil {
				t.Fatalf("Parse() result = %+v", result)
			}
			tt.checkFn(t, cfg)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "no_arguments", args: nil, wantMsg: ErrNoArguments.Error()},
		{name: "unknown_flag", args: []string{"jscan", "--nope"}, wantMsg: "failed to parse arguments"},
		{name: "empty_target", args: []string{"jscan", "--target", ""}, wantMsg: ErrEmptyTarget.Error()},
		{name: "bad_format", args: []string{"jscan", "--format", "xml"}, wantMsg: "unknown format"},
		{name: "bad_field", args: []string{"jscan", "--field", "nokey"}, wantMsg: "name=key"},
		{name: "duplicate_field", args: []string{"jscan", "--field", "a=x", "--field", "a=y"}, wantMsg: "bound twice"},
		{name: "negative_limit", args: []string{"jscan", "--limit", "-1"}, wantMsg: "--limit"},
		{name: "negative_depth", args: []string{"jscan", "--max-depth", "-3"}, wantMsg: "--max-depth"},
		{name: "watch_stdin", args: []string{"jscan", "--watch", "1m"}, wantMsg: ErrWatchStdin.Error()},
		{name: "serve_with_sources", args: []string{"jscan", "--serve", ":0", "a.json"}, wantMsg: ErrServeSources.Error()},
		{name: "verify_deep", args: []string{"jscan", "--verify", "--deep"}, wantMsg: ErrVerifyDeep.Error()},
		{name: "missing_cacert", args: []string{"jscan", "--cacert", "/nonexistent/ca.pem"}, wantMsg: "CA certificate"},
		{name: "missing_profile", args: []string{"jscan", "--profile", "/nonexistent/p.yaml"}, wantMsg: "failed to load profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, result := Parse(tt.args)
			if cfg != nil {
				t.Fatalf("Parse() config = %+v, want nil", cfg)
			}
			if result == nil {
				t.Fatal("Parse() result = nil")
			}
			if result.ExitCode != exit.CodeUsage {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, exit.CodeUsage)
			}
			if !strings.Contains(result.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantMsg)
			}
			if !strings.Contains(result.Message, "Usage:") {
				t.Error("Message does not include usage")
			}
		})
	}
}

func TestParseHelpFlag(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		cfg, result := Parse([]string{"jscan", flag})
		if cfg != nil || result == nil {
			t.Fatalf("Parse(%s) = %v, %v", flag, cfg, result)
		}
		if result.ExitCode != exit.CodeOK {
			t.Errorf("ExitCode = %d, want 0", result.ExitCode)
		}
		if result.Message != Usage() {
			t.Error("help did not print usage")
		}
	}
}

func TestParse_Profile(t *testing.T) {
	profile := writeFile(t, "obs.yaml", `target: observations
deep: true
format: ndjson
max_depth: 64
fields:
  - field: air_temp
    key: temp
  - field: local_date_time_full
    key: local_time
`)

	t.Run("profile_over_defaults", func(t *testing.T) {
		cfg, result := Parse([]string{"jscan", "--profile", profile})
		if result != nil {
			t.Fatalf("Parse() result = %+v", result)
		}
		if cfg.Target != "observations" || !cfg.Deep || cfg.Format != output.FormatNDJSON || cfg.MaxDepth != 64 {
			t.Errorf("got target %q deep %t format %q depth %d", cfg.Target, cfg.Deep, cfg.Format, cfg.MaxDepth)
		}
		if got := cfg.Mapping.Keys(); !reflect.DeepEqual(got, []scan.Key{"temp", scan.LocalTime}) {
			t.Errorf("Keys() = %v", got)
		}
	})

	t.Run("flags_over_profile", func(t *testing.T) {
		cfg, result := Parse([]string{"jscan", "--profile", profile, "--target", "data", "--deep=false",
			"--format", "csv", "--max-depth", "8", "--field", "wind_spd_kmh=wind"})
		if result != nil {
			t.Fatalf("Parse() result = %+v", result)
		}
		if cfg.Target != "data" || cfg.Deep || cfg.Format != output.FormatCSV || cfg.MaxDepth != 8 {
			t.Errorf("got target %q deep %t format %q depth %d", cfg.Target, cfg.Deep, cfg.Format, cfg.MaxDepth)
		}
		if got := cfg.Mapping.Keys(); !reflect.DeepEqual(got, []scan.Key{"wind"}) {
			t.Errorf("Keys() = %v", got)
		}
	})
}

func TestLoadProfile(t *testing.T) {
	t.Run("empty_file", func(t *testing.T) {
		p, err := LoadProfile(writeFile(t, "empty.yaml", ""))
		if err != nil {
			t.Fatalf("LoadProfile() error = %v", err)
		}
		if p.Target != "" || p.Deep != nil || p.MaxDepth != nil || len(p.Fields) != 0 {
			t.Errorf("LoadProfile() = %+v, want zero profile", p)
		}
	})

	t.Run("unknown_member", func(t *testing.T) {
		if _, err := LoadProfile(writeFile(t, "bad.yaml", "targett: data\n")); err == nil {
			t.Error("LoadProfile() accepted an unknown member")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("LoadProfile() error = %v, want not exist", err)
		}
	})
}

func TestParse_S3Environment(t *testing.T) {
	t.Setenv(envS3Endpoint, "https://s3.example.com")
	t.Setenv(envS3AccessKey, "env-ak")
	t.Setenv(envS3SecretKey, "env-sk")
	t.Setenv(envS3Region, "ap-southeast-2")

	cfg, result := Parse([]string{"jscan", "--s3-access-key", "flag-ak", "s3://obs/k.json"})
	if result != nil {
		t.Fatalf("Parse() result = %+v", result)
	}
	if cfg.S3.Endpoint != "https://s3.example.com" || cfg.S3.SecretKey != "env-sk" || cfg.S3.Region != "ap-southeast-2" {
		t.Errorf("S3 = %+v, want environment values", cfg.S3)
	}
	if cfg.S3.AccessKey != "flag-ak" {
		t.Errorf("AccessKey = %q, want the flag to win", cfg.S3.AccessKey)
	}
}

func TestFieldsFlag(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []scan.Binding
		wantErr bool
	}{
		{name: "single", values: []string{"apparent_t=temp"}, want: []scan.Binding{{Field: "apparent_t", Key: "temp"}}},
		{name: "value_with_equals", values: []string{"a=b=c"}, want: []scan.Binding{{Field: "a", Key: "b=c"}}},
		{name: "missing_equals", values: []string{"apparent_t"}, wantErr: true},
		{name: "empty_name", values: []string{"=temp"}, wantErr: true},
		{name: "empty_key", values: []string{"apparent_t="}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f fieldsFlag
			var err error
			for _, v := range tt.values {
				if err = f.Set(v); err != nil {
					break
				}
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFieldFormat) {
					t.Errorf("Set() error = %v, want ErrInvalidFieldFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if !reflect.DeepEqual([]scan.Binding(f), tt.want) {
				t.Errorf("bindings = %v, want %v", f, tt.want)
			}
		})
	}

	f := fieldsFlag{{Field: "a", Key: "x"}, {Field: "b", Key: "y"}}
	if got := f.String(); got != "a=x,b=y" {
		t.Errorf("String() = %q", got)
	}
}

func TestConfig_TLSConfig(t *testing.T) {
	validCACert := writeFile(t, "ca.pem", string(generateTestCertificate(t)))
	invalidCACert := writeFile(t, "invalid.pem", "-----BEGIN CERTIFICATE-----\ninvalid\n-----END CERTIFICATE-----\n")

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		checkFn func(*testing.T, *tls.Config)
	}{
		{
			name:   "default_config",
			config: &Config{},
			checkFn: func(t *testing.T, c *tls.Config) {
				if c.InsecureSkipVerify || c.RootCAs != nil {
					t.Error("expected verification with system roots")
				}
			},
		},
		{
			name:   "insecure_config",
			config: &Config{Insecure: true},
			checkFn: func(t *testing.T, c *tls.Config) {
				if !c.InsecureSkipVerify {
					t.Error("expected InsecureSkipVerify")
				}
			},
		},
		{
			name:   "with_valid_ca_cert",
			config: &Config{CACertFile: validCACert},
			checkFn: func(t *testing.T, c *tls.Config) {
				if c.RootCAs == nil {
					t.Error("expected RootCAs")
				}
			},
		},
		{name: "with_nonexistent_ca_cert", config: &Config{CACertFile: "/nonexistent/ca.pem"}, wantErr: true},
		{name: "with_invalid_ca_cert", config: &Config{CACertFile: invalidCACert}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tlsConfig, err := tt.config.TLSConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("TLSConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, tlsConfig)
			}
		})
	}
}

func TestConfig_SourceOptions(t *testing.T) {
	cfg := &Config{Timeout: 5 * time.Second, Insecure: true}
	cfg.S3.Endpoint = "minio:9000"

	opts, err := cfg.SourceOptions()
	if err != nil {
		t.Fatalf("SourceOptions() error = %v", err)
	}
	if opts.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", opts.HTTPClient.Timeout)
	}
	tr, ok := opts.HTTPClient.Transport.(*http.Transport)
	if !ok || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("transport does not carry the TLS settings")
	}
	if opts.S3.Endpoint != "minio:9000" {
		t.Errorf("S3.Endpoint = %q", opts.S3.Endpoint)
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, want := range []string{"Usage: jscan", "--target", "--field", "--profile", "--watch", "--serve", "s3://"} {
		if !strings.Contains(usage, want) {
			t.Errorf("Usage() missing %q", want)
		}
	}
}
