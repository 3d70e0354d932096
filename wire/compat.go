package wire

import (
	"os"
	"strconv"
)

// DefaultMaxDepth bounds how deeply embedded messages may nest.
const DefaultMaxDepth = 64

// Config controls optional decoder/encoder behaviors.
// The zero value is not useful; start from DefaultConfig.
type Config struct {
	// MaxDepth is the deepest embedded-message nesting accepted on encode
	// and decode. The top-level message is depth 0.
	MaxDepth int

	// SkipUTF8Validation: when true, string fields are accepted without
	// checking that they hold valid UTF-8. When false (default), invalid
	// bytes fail the decode with ErrInvalidEncoding.
	SkipUTF8Validation bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

var config = DefaultConfig()

// SetConfig sets the global wire configuration. Call it during startup,
// before any encode or decode runs.
func SetConfig(c Config) {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	config = c
}

// CurrentConfig returns the global wire configuration.
func CurrentConfig() Config { return config }

func init() {
	// Optional env toggles for test harnesses; defaults remain unchanged if unset.
	if v := os.Getenv("ORDERWIRE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxDepth = n
		}
	}
	if v := os.Getenv("ORDERWIRE_SKIP_UTF8_CHECK"); v == "1" || v == "true" {
		config.SkipUTF8Validation = true
	}
}
