package intent

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var defaultCatalog []byte

var (
	// ErrEmptyTag is returned when an intent has no tag.
	ErrEmptyTag = errors.New("intent tag is empty")
	// ErrDuplicateTag is returned when two intents share a tag.
	ErrDuplicateTag = errors.New("duplicate intent tag")
	// ErrNoResponses is returned when an intent has no response templates.
	ErrNoResponses = errors.New("intent has no responses")
)

// Catalog is the immutable, ordered set of intents. It is safe for concurrent
// use; accessors hand out copies.
type Catalog struct {
	intents  []Intent
	byTag    map[string]int
	patterns []Pattern
}

type catalogFile struct {
	Intents []Intent `yaml:"intents"`
}

// Load parses a catalog document. YAML and JSON are both accepted.
// Malformed entries fail the whole load.
func Load(r io.Reader) (*Catalog, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode catalog: empty document")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Intents)
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// New validates intents and builds a catalog preserving their order.
func New(intents []Intent) (*Catalog, error) {
	c := &Catalog{
		intents: make([]Intent, 0, len(intents)),
		byTag:   make(map[string]int, len(intents)),
	}
	for i, in := range intents {
		in.Tag = strings.TrimSpace(in.Tag)
		if in.Tag == "" {
			return nil, fmt.Errorf("intent #%d: %w", i, ErrEmptyTag)
		}
		if _, dup := c.byTag[in.Tag]; dup {
			return nil, fmt.Errorf("intent %q: %w", in.Tag, ErrDuplicateTag)
		}
		if len(in.Responses) == 0 {
			return nil, fmt.Errorf("intent %q: %w", in.Tag, ErrNoResponses)
		}

		in.Patterns = append([]string(nil), in.Patterns...)
		in.Responses = append([]string(nil), in.Responses...)
		c.byTag[in.Tag] = len(c.intents)
		c.intents = append(c.intents, in)

		for _, p := range in.Patterns {
			c.patterns = append(c.patterns, Pattern{Index: len(c.patterns), Tag: in.Tag, Text: p})
		}
	}
	return c, nil
}

// Len returns the number of intents.
func (c *Catalog) Len() int {
	return len(c.intents)
}

// Lookup returns the intent registered under tag.
func (c *Catalog) Lookup(tag string) (Intent, bool) {
	i, ok := c.byTag[tag]
	if !ok {
		return Intent{}, false
	}
	return clone(c.intents[i]), true
}

// Intents returns all intents in catalog order.
func (c *Catalog) Intents() []Intent {
	out := make([]Intent, len(c.intents))
	for i, in := range c.intents {
		out[i] = clone(in)
	}
	return out
}

// Patterns returns every example phrase in corpus iteration order.
func (c *Catalog) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

// Fingerprint identifies the training corpus (tags and patterns in order).
// A model trained against one fingerprint is stale for any other.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	for _, in := range c.intents {
		fmt.Fprintf(h, "tag:%s\n", in.Tag)
		for _, p := range in.Patterns {
			fmt.Fprintf(h, "pattern:%s\n", p)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func clone(in Intent) Intent {
	in.Patterns = append([]string(nil), in.Patterns...)
	in.Responses = append([]string(nil), in.Responses...)
	return in
}
