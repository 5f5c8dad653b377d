package env

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var loadOnce sync.Once

// Ensure loads the nearest .env file, searching from the working directory
// up to the filesystem root, so the same binary works from the repo root
// and from a CI workspace subdirectory. Variables already present in the
// process environment win. Subsequent calls are no-ops.
func Ensure() {
	// Keep unit tests hermetic: a developer-local .env must not leak into
	// `go test` runs.
	if strings.HasSuffix(os.Args[0], ".test") {
		return
	}
	loadOnce.Do(func() {
		path := findDotEnv()
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			log.Warn().Err(err).Str("dotenv", path).Msg("panfw: load .env failed")
			return
		}
		log.Debug().Str("dotenv", path).Msg("panfw: loaded .env")
	})
}

func findDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
