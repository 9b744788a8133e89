package hasher

import "strings"

// Config holds the defaults of the hashing commands.
type Config struct {
	// Algorithm is the digest algorithm for new manifests.
	Algorithm string `mapstructure:"algorithm" default:"sha256"`
	// Workers is the worker pool size. Zero uses every CPU.
	Workers int `mapstructure:"workers" default:"0"`
	// Manifest is the manifest file name, relative to the hashed root.
	Manifest string `mapstructure:"manifest" default:".hashes"`
	// Script is the file the reconciliation script is written to.
	Script string `mapstructure:"script" default:"filehasher_script.sh"`
	// Exclude is a comma separated list of glob patterns.
	Exclude string `mapstructure:"exclude" default:""`
}

// ExcludePatterns splits Exclude into trimmed, non-empty patterns.
func (c Config) ExcludePatterns() []string {
	var out []string
	for _, p := range strings.Split(c.Exclude, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
