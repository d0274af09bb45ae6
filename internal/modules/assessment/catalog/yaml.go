package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

// bankFile is the on-disk layout of a question bank:
//
//	questions:
//	  - id: q1
//	    content: ...
//	    options: [...]
//	    correct_answer: ...
//	    metadata: {concepts: [arrays], difficulty: 0.2}
type bankFile struct {
	Questions []types.Question `yaml:"questions"`
}

func DecodeYAML(r io.Reader) ([]types.Question, error) {
	var f bankFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return f.Questions, nil
}

func LoadYAMLFile(path string) (*Static, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer fh.Close()
	qs, err := DecodeYAML(fh)
	if err != nil {
		return nil, err
	}
	return NewStatic(qs)
}
