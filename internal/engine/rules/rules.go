// Package rules turns declared targets into interned Ninja rules and build records.
package rules

import (
	"context"
	"slices"
	"sort"
	"strings"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/zerr"
)

type state uint8

const (
	stateOpen state = iota
	stateResolving
	stateResolved
)

// Binding is one variable assignment inside a build statement.
type Binding struct {
	Key   string
	Value string
}

// Build is one resolved build statement.
type Build struct {
	// Alias is a phony name for Outs, or empty.
	Alias       string
	Outs        []string
	Rule        string
	Ins         []string
	ImplicitIns []string
	Bindings    []Binding
}

// Set holds every target of a session and the rules they resolve to.
type Set struct {
	targets  []domain.Target
	vars     map[any]map[string]domain.RuleVar
	globals  func() []string
	defaults []domain.Target

	ruleNames  *domain.UniqueNames
	anonNames  *domain.UniqueNames
	rules      []*domain.NinjaRule
	byCommand  map[string]*domain.NinjaRule
	targetRule []*domain.NinjaRule

	state state
}

// NewSet creates an empty Set. globals reports the ninja variables bound in the file header.
func NewSet(globals func() []string) *Set {
	return &Set{
		vars:      make(map[any]map[string]domain.RuleVar),
		globals:   globals,
		ruleNames: domain.NewUniqueNames(),
		anonNames: domain.NewUniqueNames(),
		byCommand: make(map[string]*domain.NinjaRule),
	}
}

// Add registers a target. The var table of its type is built from the first target of that type.
func (s *Set) Add(t domain.Target) error {
	if s.state == stateResolved {
		return zerr.With(domain.Mark(domain.ErrTargetsFrozen), "kind", t.Kind())
	}
	for _, field := range t.Fields() {
		if field == domain.VarIn || field == domain.VarOut {
			err := zerr.With(domain.Mark(domain.ErrReservedField), "kind", t.Kind())
			return zerr.With(err, "field", field)
		}
	}
	s.table(t)
	s.targets = append(s.targets, t)
	return nil
}

func (s *Set) table(t domain.Target) map[string]domain.RuleVar {
	key := domain.TypeKey(t)
	table, ok := s.vars[key]
	if !ok {
		table = buildVarTable(t)
		s.vars[key] = table
	}
	return table
}

func buildVarTable(t domain.Target) map[string]domain.RuleVar {
	fields := append(slices.Clone(domain.BaseFields), t.Fields()...)
	table := make(map[string]domain.RuleVar, len(fields))
	for _, field := range fields {
		table[field] = domain.NewRuleVar(domain.VarName(field))
	}
	return table
}

// Var returns the placeholder of a field of t.
func (s *Set) Var(t domain.Target, field string) (domain.RuleVar, error) {
	if v, ok := s.table(t)[field]; ok {
		return v, nil
	}
	err := zerr.With(domain.Mark(domain.ErrUnrecognizedVariable), "kind", t.Kind())
	return domain.RuleVar{}, zerr.With(err, "field", field)
}

// Targets returns the registered targets in declaration order.
func (s *Set) Targets() []domain.Target { return s.targets }

// Rules returns the interned rules in creation order.
func (s *Set) Rules() []*domain.NinjaRule { return s.rules }

// MarkDefault adds t to the default targets, once.
func (s *Set) MarkDefault(t domain.Target) {
	if !slices.Contains(s.defaults, t) {
		s.defaults = append(s.defaults, t)
	}
}

// RunEffects calls Effect on every target that has one, draining discovery before each call.
// Targets added by effects are visited too.
func (s *Set) RunEffects(ctx context.Context, drain func(context.Context) error) error {
	for i := 0; i < len(s.targets); i++ {
		effecter, ok := s.targets[i].(domain.Effecter)
		if !ok {
			continue
		}
		if err := drain(ctx); err != nil {
			return err
		}
		if err := effecter.Effect(ctx); err != nil {
			return zerr.With(err, "target", describe(s.targets[i]))
		}
	}
	return drain(ctx)
}

// NameAnonymous gives every target without outputs and without an export name a unique
// name derived from its kind.
func (s *Set) NameAnonymous() {
	for _, t := range s.targets {
		base := t.Base()
		if base.Outs.Len() == 0 && base.ExportName == "" {
			base.ExportName = s.anonNames.Claim(t.Kind())
		}
	}
}

// Resolve interns the rule of every target. It runs over a fixed snapshot; targets added
// meanwhile fail the run.
func (s *Set) Resolve() error {
	s.state = stateResolving
	count := len(s.targets)

	globals := make(map[string]bool)
	if s.globals != nil {
		for _, g := range s.globals() {
			globals[g] = true
		}
	}

	s.targetRule = make([]*domain.NinjaRule, count)
	for i := range count {
		rule, err := s.resolveOne(s.targets[i], globals)
		if err != nil {
			return zerr.With(err, "target", describe(s.targets[i]))
		}
		s.targetRule[i] = rule
	}

	if len(s.targets) > count {
		return zerr.With(domain.Mark(domain.ErrTargetsGrew), "added", len(s.targets)-count)
	}
	s.state = stateResolved
	return nil
}

func (s *Set) resolveOne(t domain.Target, globals map[string]bool) (*domain.NinjaRule, error) {
	cmd, err := t.Command()
	if err != nil {
		return nil, err
	}

	baseName := cmd.Name
	if baseName == "" {
		baseName = t.Kind()
	}
	if baseName == "" {
		baseName = t.Base().ExportName
	}

	available := s.table(t)
	var used []string
	for _, text := range []string{cmd.Command, cmd.Description, cmd.Depfile} {
		for _, name := range Placeholders(text) {
			if name == domain.VarIn || name == domain.VarOut {
				continue
			}
			if _, ok := available[name]; ok {
				used = append(used, name)
				continue
			}
			if globals[name] {
				continue
			}
			return nil, zerr.With(domain.Mark(domain.ErrUnrecognizedVariable), "variable", "${"+name+"}")
		}
	}
	sort.Strings(used)
	used = slices.Compact(used)

	if rule, ok := s.byCommand[cmd.Command]; ok {
		if err := checkMatch(rule, cmd); err != nil {
			return nil, err
		}
		return rule, nil
	}

	rule := &domain.NinjaRule{
		BaseName:    baseName,
		UniqueName:  s.ruleNames.Claim(baseName),
		Command:     cmd.Command,
		Description: cmd.Description,
		Depfile:     cmd.Depfile,
		Vars:        used,
		Generator:   cmd.Generator,
	}
	s.byCommand[cmd.Command] = rule
	s.rules = append(s.rules, rule)
	return rule, nil
}

func checkMatch(rule *domain.NinjaRule, cmd domain.Command) error {
	var field string
	switch {
	case rule.Description != cmd.Description:
		field = "description"
	case rule.Depfile != cmd.Depfile:
		field = "depfile"
	case rule.Generator != cmd.Generator:
		field = "generator"
	default:
		return nil
	}
	err := zerr.With(domain.Mark(domain.ErrRuleMismatch), "rule", rule.UniqueName)
	return zerr.With(err, "field", field)
}

// Builds returns one build record per target, in declaration order. Resolve must have succeeded.
func (s *Set) Builds() ([]Build, error) {
	builds := make([]Build, 0, len(s.targets))
	for i, t := range s.targets {
		b, err := s.build(t, s.targetRule[i])
		if err != nil {
			return nil, zerr.With(err, "target", describe(t))
		}
		builds = append(builds, b)
	}
	return builds, nil
}

func (s *Set) build(t domain.Target, rule *domain.NinjaRule) (Build, error) {
	base := t.Base()
	b := Build{
		Rule: rule.UniqueName,
		Outs: render(base.Outs.Items()),
		Ins:  render(base.Ins.Items()),
	}

	if name := base.ExportName; name != "" {
		switch {
		case slices.Contains(b.Outs, name):
			if len(b.Outs) > 1 {
				return Build{}, zerr.With(domain.Mark(domain.ErrAmbiguousExportName), "export", name)
			}
		case len(b.Outs) > 0:
			b.Alias = name
		default:
			b.Outs = []string{name}
		}
	}

	if base.AlwaysDirty {
		b.ImplicitIns = append(b.ImplicitIns, domain.AlwaysDirtyTarget)
	}
	b.ImplicitIns = append(b.ImplicitIns, render(base.ImplicitIns.Items())...)

	for _, key := range rule.Vars {
		value, ok := fieldValue(t, key)
		if !ok {
			continue
		}
		b.Bindings = append(b.Bindings, Binding{Key: key, Value: value})
	}
	return b, nil
}

func fieldValue(t domain.Target, field string) (string, bool) {
	if v, ok := t.Base().BaseField(field); ok {
		return domain.FormatValue(v)
	}
	return domain.FormatValue(t.Field(field))
}

// Defaults returns the names of the default targets in the order they were marked.
func (s *Set) Defaults() []string {
	var names []string
	for _, t := range s.defaults {
		base := t.Base()
		if base.ExportName != "" {
			names = append(names, base.ExportName)
			continue
		}
		names = append(names, render(base.Outs.Items())...)
	}
	return slices.Compact(names)
}

func render(items []*domain.FileItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}

func describe(t domain.Target) string {
	if name := t.Base().ExportName; name != "" {
		return t.Kind() + " " + name
	}
	return t.Kind()
}

// Placeholders returns the names of the ${name} placeholders in text, in order.
// "$$" is an escaped dollar sign, so "$${name}" is not a placeholder.
func Placeholders(text string) []string {
	var names []string
	for i := 0; i < len(text); i++ {
		if text[i] != '$' || i+1 >= len(text) {
			continue
		}
		switch text[i+1] {
		case '$':
			i++
		case '{':
			end := strings.IndexByte(text[i+2:], '}')
			if end <= 0 {
				continue
			}
			names = append(names, text[i+2:i+2+end])
			i += 2 + end
		}
	}
	return names
}
