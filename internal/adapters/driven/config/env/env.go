// Package env reads configuration overrides from the process environment
// and an optional .env file.
package env

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultDotEnv is the .env file read from the working directory.
const DefaultDotEnv = ".env"

// Bindings maps environment variables to dotted config keys.
// The first block keeps the variable names the original deployment used.
var Bindings = map[string]string{
	"DATA_PATH":          "paths.data_path",
	"VECTOR_DIR":         "paths.vector_dir",
	"INDEX_PATH":         "paths.index_path",
	"HISTORY_FILE":       "paths.history_file",
	"EMBED_MODEL":        "embedding.model",
	"OPENAI_MODEL":       "llm.model",
	"OPENAI_API_KEY":     "llm.api_key",
	"CHUNK_SIZE":         "index.chunk_size",
	"CHUNK_OVERLAP":      "index.chunk_overlap",
	"SHORT_TERM_HISTORY": "chat.short_term_history",

	"EMBED_PROVIDER":    "embedding.provider",
	"EMBED_BASE_URL":    "embedding.base_url",
	"EMBED_API_KEY":     "embedding.api_key",
	"LLM_PROVIDER":      "llm.provider",
	"LLM_BASE_URL":      "llm.base_url",
	"ANTHROPIC_API_KEY": "llm.anthropic_api_key",
	"TOP_K":             "chat.top_k",
	"HTTP_ADDR":         "server.addr",
	"PROMPTS_DIR":       "paths.prompts_dir",
}

// LoadDotEnv loads variables from the given files into the process
// environment. Variables that are already set are not overridden.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultDotEnv}
	}
	for _, p := range paths {
		if err := godotenv.Load(filepath.Clean(p)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Source looks up environment variables. os.LookupEnv satisfies it.
type Source func(key string) (string, bool)

// Overrides returns the dotted config keys set in the environment.
// Empty values count as unset.
func Overrides(lookup Source) map[string]string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	out := make(map[string]string)
	for name, key := range Bindings {
		if v, ok := lookup(name); ok && v != "" {
			out[key] = v
		}
	}
	return out
}
