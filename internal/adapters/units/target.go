package units

import (
	"context"
	"fmt"
	"slices"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/zerr"
)

// unitTarget is a target declared by a definition unit. Its kind is the rule kind, its
// fields are the variables the rule declares.
type unitTarget struct {
	domain.TargetBase
	rule  *ruleDecl
	scope scope
	vars  map[string]value
}

func newUnitTarget(rule *ruleDecl, s scope, vars map[string]value) *unitTarget {
	return &unitTarget{TargetBase: domain.NewTargetBase(), rule: rule, scope: s, vars: vars}
}

func (t *unitTarget) Kind() string             { return t.rule.kind }
func (t *unitTarget) Base() *domain.TargetBase { return &t.TargetBase }
func (t *unitTarget) Fields() []string         { return t.rule.vars }

// TypeKey is the rule declaration. Rule kinds are local to their unit.
func (t *unitTarget) TypeKey() any { return t.rule }

// Field evaluates the variable. Errors surface as an undefined value; Command reports them.
func (t *unitTarget) Field(name string) any {
	v, ok := t.vars[name]
	if !ok {
		return nil
	}
	out, err := v.eval(t.scope)
	if err != nil {
		return nil
	}
	if list, ok := out.([]any); ok {
		strs := make([]string, len(list))
		for i, e := range list {
			strs[i] = fmt.Sprint(e)
		}
		return strs
	}
	return out
}

// Command renders the rule templates. Variable errors are reported here so that Field can
// stay silent.
func (t *unitTarget) Command() (domain.Command, error) {
	for _, name := range t.rule.vars {
		v, ok := t.vars[name]
		if !ok {
			continue
		}
		if _, err := v.eval(t.scope); err != nil {
			return domain.Command{}, zerr.With(err, "variable", name)
		}
	}

	cmd := domain.Command{Name: t.rule.name, Generator: t.rule.generator}
	fields := []struct {
		tmpl text
		into *string
	}{
		{t.rule.command, &cmd.Command},
		{t.rule.description, &cmd.Description},
		{t.rule.depfile, &cmd.Depfile},
	}
	for _, f := range fields {
		if f.tmpl == nil {
			continue
		}
		out, err := f.tmpl.render(t.scope)
		if err != nil {
			return domain.Command{}, zerr.With(err, "kind", t.rule.kind)
		}
		*f.into = out
	}
	return cmd, nil
}

// expandTarget replaces each of its inputs with the output of a spawned target of another
// kind. The spawned output lives at the input's out-root counterpart plus suffix.
type expandTarget struct {
	*unitTarget
	d      ports.Declarer
	spawn  *ruleDecl
	suffix string
}

func (t *expandTarget) Effect(_ context.Context) error {
	ins := t.Ins.Items()
	spawned := make([]*domain.FileItem, 0, len(ins))
	for _, in := range ins {
		outPath := domain.Resolve(t.d.OutRoot().Path(), in)
		out, err := t.d.Declare(domain.KindFile, domain.Path(string(outPath)+t.suffix))
		if err != nil {
			return zerr.With(err, "input", in.String())
		}

		child := newUnitTarget(t.spawn, t.scope, t.spawnVars())
		child.Ins.Set([]*domain.FileItem{in})
		child.Outs.Set([]*domain.FileItem{out})
		if err := t.d.AddTarget(child); err != nil {
			return err
		}
		spawned = append(spawned, out)
	}
	t.Ins.Set(spawned)
	return nil
}

// spawnVars keeps the variables the spawned kind declares.
func (t *expandTarget) spawnVars() map[string]value {
	vars := make(map[string]value)
	for name, v := range t.vars {
		if slices.Contains(t.spawn.vars, name) {
			vars[name] = v
		}
	}
	return vars
}
