// Package corpus loads evaluation documents from YAML. A document carries
// named annotation sets; which set is the key and which is the response is
// decided by the evaluation config, not here.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tageval/internal/annotation"
)

// ErrNoDocuments reports a corpus path that yielded nothing to evaluate.
var ErrNoDocuments = errors.New("corpus contains no documents")

// Document is one evaluation unit: a name plus its annotation sets.
type Document struct {
	Name string                              `yaml:"name"`
	Sets map[string][]annotation.Annotation `yaml:"sets"`
}

// Set returns the named annotation set. A missing set is an empty one; the
// distinction does not matter to the evaluation.
func (d *Document) Set(name string) []annotation.Annotation {
	return d.Sets[name]
}

// Corpus is an ordered list of documents.
type Corpus struct {
	Documents []Document
}

// Load reads a corpus from path: a directory of YAML files (lexical order)
// or a single file, possibly holding multiple YAML documents.
func Load(path string) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadDir reads every .yaml/.yml file under dir (non-recursive) into one
// corpus, in lexical filename order.
func LoadDir(dir string) (*Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c := &Corpus{}
	for _, name := range names {
		part, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		c.Documents = append(c.Documents, part.Documents...)
	}
	if len(c.Documents) == 0 {
		return nil, fmt.Errorf("corpus dir %s: %w", dir, ErrNoDocuments)
	}
	return c, nil
}

// LoadFile reads one YAML file, decoding every document it holds. Unnamed
// documents are named after the file, with an ordinal when the file holds
// more than one.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus file %s: %w", path, err)
	}
	defer f.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dec := yaml.NewDecoder(f)
	c := &Corpus{}
	for i := 0; ; i++ {
		var d Document
		if err := dec.Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse corpus file %s: %w", path, err)
		}
		if d.Name == "" {
			d.Name = base
			if i > 0 {
				d.Name = fmt.Sprintf("%s#%d", base, i)
			}
		}
		if err := validate(&d); err != nil {
			return nil, fmt.Errorf("corpus file %s: %w", path, err)
		}
		c.Documents = append(c.Documents, d)
	}
	if len(c.Documents) == 0 {
		return nil, fmt.Errorf("corpus file %s: %w", path, ErrNoDocuments)
	}
	return c, nil
}

func validate(d *Document) error {
	for set, anns := range d.Sets {
		for i, a := range anns {
			if a.End < a.Start {
				return fmt.Errorf("document %q set %q annotation %d: span [%d,%d) ends before it starts",
					d.Name, set, i, a.Start, a.End)
			}
		}
	}
	return nil
}
