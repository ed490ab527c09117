package sourcemap

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

type rawMap struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
	Sections       []any     `json:"sections,omitempty"`
}

// Parse decodes a version 3 source map. Names are read but not retained.
func Parse(data []byte) (*Map, error) {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "sourcemap: decode")
	}
	if raw.Version != 3 {
		return nil, errors.Newf("sourcemap: unsupported version %d", raw.Version)
	}
	if len(raw.Sections) > 0 {
		return nil, errors.New("sourcemap: indexed maps are not supported")
	}
	entries, err := decodeMappings(raw.Mappings, len(raw.Sources))
	if err != nil {
		return nil, err
	}
	m := &Map{
		File:       raw.File,
		SourceRoot: raw.SourceRoot,
		Sources:    raw.Sources,
		Entries:    entries,
	}
	for i, c := range raw.SourcesContent {
		if c == nil || i >= len(raw.Sources) {
			continue
		}
		if m.SourcesContent == nil {
			m.SourcesContent = make(map[string]string, len(raw.Sources))
		}
		m.SourcesContent[raw.Sources[i]] = *c
	}
	return m, nil
}

// ParseString is Parse for the string form transformers hand back.
func ParseString(s string) (*Map, error) { return Parse([]byte(s)) }

func (m *Map) MarshalJSON() ([]byte, error) {
	raw := rawMap{
		Version:    3,
		File:       m.File,
		SourceRoot: m.SourceRoot,
		Sources:    m.Sources,
		Names:      []string{},
		Mappings:   encodeMappings(m.Entries),
	}
	if raw.Sources == nil {
		raw.Sources = []string{}
	}
	if len(m.SourcesContent) > 0 {
		raw.SourcesContent = make([]*string, len(m.Sources))
		for i, src := range m.Sources {
			if c, ok := m.SourcesContent[src]; ok {
				raw.SourcesContent[i] = &c
			}
		}
	}
	return json.Marshal(raw)
}

// String renders the map as JSON, or "" if it cannot be encoded.
func (m *Map) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
