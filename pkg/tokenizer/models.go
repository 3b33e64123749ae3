package tokenizer

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// modelsFile is the on-disk shape of a model definitions file:
//
//	models:
//	  - pattern: "my-finetune-*"
//	    context_size: 32768
//	    encoding: cl100k_base
type modelsFile struct {
	Models []ModelSpec `yaml:"models"`
}

// LoadModels merges model definitions from a YAML file into the
// registry. Entries replace registered specs with the same pattern;
// the rest of the registry is untouched. Encoding defaults to
// cl100k_base when omitted.
func (t *Tokenizer) LoadModels(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading models file: %w", err)
	}

	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing models file %s: %w", path, err)
	}

	for i, spec := range file.Models {
		if spec.Pattern == "" {
			return fmt.Errorf("model entry %d in %s has no pattern", i, path)
		}
		if spec.ContextSize <= 0 {
			return fmt.Errorf("model entry %q in %s has context size %d", spec.Pattern, path, spec.ContextSize)
		}
		if !doublestar.ValidatePattern(spec.Pattern) {
			return fmt.Errorf("model entry %d in %s has malformed pattern %q", i, path, spec.Pattern)
		}
		if spec.Encoding == "" {
			spec.Encoding = EncodingCL100K
		}
		t.Register(spec)
	}
	return nil
}
