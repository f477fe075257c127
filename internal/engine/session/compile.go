package session

import (
	"context"
	"slices"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/engine/ninja"
)

// LoadRoot loads the main unit and hands it to the regeneration target.
func (s *Session) LoadRoot(ctx context.Context) error {
	if s.generator != nil {
		item, err := s.reg.Declare(domain.KindFile, s.rootUnit)
		if err != nil {
			return err
		}
		if err := s.reg.Attach(ctx, item, s.generator.MainUnit); err != nil {
			return err
		}
	}
	_, err := s.Load(ctx, s.rootUnit)
	return err
}

// Drain settles every outstanding discovery task.
func (s *Session) Drain(ctx context.Context) error {
	return s.sched.Drain(ctx)
}

// RunEffects runs target effects, draining discovery before each one.
func (s *Session) RunEffects(ctx context.Context) error {
	return s.targets.RunEffects(ctx, s.sched.Drain)
}

// Resolve names exported and anonymous targets, interns their rules and returns the graph
// to emit.
func (s *Session) Resolve() (ninja.Graph, error) {
	units := s.Units()
	if s.generator != nil {
		items := make([]*domain.FileItem, len(units))
		for i, p := range units {
			items[i] = s.units[p].item
		}
		s.generator.ImplicitIns.Set(items)
	}

	for _, p := range units {
		s.applyExports(s.units[p].exports)
	}
	s.targets.NameAnonymous()

	if err := s.targets.Resolve(); err != nil {
		return ninja.Graph{}, err
	}
	builds, err := s.targets.Builds()
	if err != nil {
		return ninja.Graph{}, err
	}

	return ninja.Graph{
		Vars:     ninja.HeaderVars(s.reg.NinjaVarItems()),
		Defaults: s.targets.Defaults(),
		Rules:    slices.Clone(s.targets.Rules()),
		Builds:   builds,
	}, nil
}

// applyExports names exported targets after their bindings. Normal exports are applied before
// the default export so that they win the name.
func (s *Session) applyExports(exports domain.Exports) {
	var defaults []domain.Export
	for _, e := range exports {
		if e.Name == domain.DefaultExport {
			defaults = append(defaults, e)
			continue
		}
		if t, ok := e.Value.(domain.Target); ok {
			nameTarget(t, e.Name)
		}
	}

	for _, e := range defaults {
		switch v := e.Value.(type) {
		case domain.Target:
			s.targets.MarkDefault(v)
		case domain.Exports:
			for _, member := range v {
				t, ok := member.Value.(domain.Target)
				if !ok {
					continue
				}
				nameTarget(t, member.Name)
				s.targets.MarkDefault(t)
			}
		}
	}
}

func nameTarget(t domain.Target, name string) {
	if base := t.Base(); base.ExportName == "" {
		base.ExportName = name
	}
}

// Compile runs the whole pipeline and returns the graph to emit.
func (s *Session) Compile(ctx context.Context) (ninja.Graph, error) {
	if err := s.LoadRoot(ctx); err != nil {
		return ninja.Graph{}, err
	}
	if err := s.Drain(ctx); err != nil {
		return ninja.Graph{}, err
	}
	if err := s.RunEffects(ctx); err != nil {
		return ninja.Graph{}, err
	}
	return s.Resolve()
}
