package units

import (
	"github.com/BurntSushi/toml"
	"go.trai.ch/neja/internal/core/domain"
)

// parseTOML decodes a TOML flags unit. Its top-level keys are provided in document order.
func parseTOML(unit domain.Path, data []byte) (*document, error) {
	var values map[string]any
	md, err := toml.Decode(string(data), &values)
	if err != nil {
		return nil, parseFailed(err, unit)
	}

	var provide []domain.FlagValue
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		provide = append(provide, domain.FlagValue{Key: key[0], Value: values[key[0]]})
	}

	return &document{
		body: func(map[string]any) (*body, error) {
			return &body{provide: provide}, nil
		},
	}, nil
}
