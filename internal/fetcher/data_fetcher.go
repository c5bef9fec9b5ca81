package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format names a way of decoding a document read from the tree.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decoder turns raw file bytes into the value handed to rules.
type Decoder interface {
	Format() Format
	Decode(b []byte) (any, error)
}

var (
	decoderRegistry = make(map[Format]Decoder)
	decoderMu       sync.RWMutex
)

func RegisterDecoder(d Decoder) {
	if d == nil {
		panic("decoder is nil")
	}
	f := d.Format()
	if f == "" {
		panic("decoder format is empty")
	}

	decoderMu.Lock()
	defer decoderMu.Unlock()
	if _, exists := decoderRegistry[f]; exists {
		panic(fmt.Sprintf("decoder %s already registered", f))
	}
	decoderRegistry[f] = d
}

func ResolveDecoder(f Format) (Decoder, bool) {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	d, ok := decoderRegistry[f]
	return d, ok
}

func ListDecoders() []Decoder {
	decoderMu.RLock()
	defer decoderMu.RUnlock()

	all := make([]Decoder, 0, len(decoderRegistry))
	for _, d := range decoderRegistry {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Format() < all[j].Format()
	})
	return all
}

type textDecoder struct{}

func (textDecoder) Format() Format { return FormatText }

func (textDecoder) Decode(b []byte) (any, error) {
	return string(b), nil
}

type jsonDecoder struct{}

func (jsonDecoder) Format() Format { return FormatJSON }

// Decode keeps numbers as json.Number so expected values compare textually.
func (jsonDecoder) Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

type yamlDecoder struct{}

func (yamlDecoder) Format() Format { return FormatYAML }

func (yamlDecoder) Decode(b []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func init() {
	RegisterDecoder(textDecoder{})
	RegisterDecoder(jsonDecoder{})
	RegisterDecoder(yamlDecoder{})
}
