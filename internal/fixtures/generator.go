// Package fixtures generates .sen work-directory fixtures for tests and
// manual exercising of fsch, adapted from generator.go's
// random-content-file generator -- the checksum-line generator becomes
// a key=value .sen line generator. There is no progress bar and no
// per-file output, since this runs under `go test` rather than an
// interactive CLI.
package fixtures

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Spec describes one .sen file to generate.
type Spec struct {
	Name  string // e.g. "f_10.sen"; caller controls OLDEST_FILE_PRIORITY encoding
	Lines int    // number of key=value lines
	Key   string // if non-empty, one randomly-placed line uses this exact key
}

// Generate writes every fixture described by specs into dir, using rng
// for line content, and returns the full paths written in order.
//
// Grounded on generator.go's GenerateFile: same charPool/checksum-based
// content generation, redirected from a Go source file's hash constants
// to a .sen file's key=value lines.
func Generate(dir string, specs []Spec, rng *rand.Rand) ([]string, error) {
	paths := make([]string, 0, len(specs))

	for _, spec := range specs {
		path := filepath.Join(dir, spec.Name)
		if err := generateOne(path, spec, rng); err != nil {
			return nil, fmt.Errorf("fixtures: generating %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func generateOne(path string, spec Spec, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	keyLine := -1
	if spec.Key != "" && spec.Lines > 0 {
		keyLine = rng.Intn(spec.Lines)
	}

	for i := 0; i < spec.Lines; i++ {
		if i == keyLine {
			if _, err := fmt.Fprintf(f, "%s=%s\n", spec.Key, randomToken(rng)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(f, "field%d=%s\n", i, randomToken(rng)); err != nil {
			return err
		}
	}

	return nil
}

var charPool = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// randomToken mirrors generator.go's buf/computeSHA256 pattern: fill a
// buffer from charPool, then hash it down to a fixed-width token.
func randomToken(rng *rand.Rand) string {
	buf := make([]rune, 16)
	for i := range buf {
		buf[i] = charPool[rng.Intn(len(charPool))]
	}
	h := sha256.Sum256([]byte(string(buf)))
	return hex.EncodeToString(h[:])[:16]
}
