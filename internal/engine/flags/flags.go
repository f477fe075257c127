// Package flags implements the request/provide/consume handshake that lets one unit
// declare the flags it needs before another unit supplies their values.
package flags

import (
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/zerr"
)

type entry struct {
	stage domain.FlagStage
	value any
}

// Exchange holds the handshake state of every flag key in a session.
type Exchange struct {
	entries map[string]*entry
}

// NewExchange creates an empty Exchange.
func NewExchange() *Exchange {
	return &Exchange{entries: make(map[string]*entry)}
}

// Request declares that key is needed. A key that was already requested or consumed is a duplicate.
// Requesting an already provided key keeps its value.
func (e *Exchange) Request(key string) error {
	if ent, ok := e.entries[key]; ok {
		if ent.stage == domain.FlagRequested || ent.stage == domain.FlagConsumed {
			return zerr.With(domain.Mark(domain.ErrDuplicateFlagRequest), "flag", key)
		}
		return nil
	}
	e.entries[key] = &entry{stage: domain.FlagRequested}
	return nil
}

// Provide supplies the value of key.
func (e *Exchange) Provide(key string, value any) error {
	if ent, ok := e.entries[key]; ok {
		if ent.stage == domain.FlagProvided || ent.stage == domain.FlagConsumed {
			return zerr.With(domain.Mark(domain.ErrDuplicateFlagProvision), "flag", key)
		}
	}
	e.entries[key] = &entry{stage: domain.FlagProvided, value: value}
	return nil
}

// Consume resolves spec to its provided value or its default and marks the key consumed.
func (e *Exchange) Consume(spec domain.FlagSpec) (any, error) {
	ent, ok := e.entries[spec.Key]
	if !ok {
		return nil, zerr.With(domain.Mark(domain.ErrFlagNotRequested), "flag", spec.Key)
	}

	var value any
	switch {
	case ent.stage == domain.FlagConsumed:
		return nil, zerr.With(domain.Mark(domain.ErrFlagAlreadyConsumed), "flag", spec.Key)
	case ent.stage == domain.FlagProvided:
		value = ent.value
	case spec.HasDefault:
		value = spec.Default
	default:
		return nil, zerr.With(domain.Mark(domain.ErrRequiredFlagMissing), "flag", spec.Key)
	}

	ent.stage = domain.FlagConsumed
	ent.value = nil
	return value, nil
}

// Stage returns the current stage of key, or zero if the key is unknown.
func (e *Exchange) Stage(key string) domain.FlagStage {
	if ent, ok := e.entries[key]; ok {
		return ent.stage
	}
	return 0
}
