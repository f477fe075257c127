package units

import (
	"maps"
	"slices"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/zerr"
)

// hclHead is decoded before flags are resolved.
type hclHead struct {
	Imports []string  `hcl:"imports,optional"`
	Flags   []hclFlag `hcl:"flag,block"`
	Remain  hcl.Body  `hcl:",remain"`
}

type hclFlag struct {
	Key     string         `hcl:"key,label"`
	Default hcl.Expression `hcl:"default,optional"`
}

type hclBody struct {
	Provide hcl.Expression `hcl:"provide,optional"`
	Rules   []hclRule      `hcl:"rule,block"`
	Targets []hclTarget    `hcl:"target,block"`
	Source  *hclTree       `hcl:"source,block"`
	Out     *hclTree       `hcl:"out,block"`
}

type hclRule struct {
	Kind        string         `hcl:"kind,label"`
	Name        string         `hcl:"name,optional"`
	Command     hcl.Expression `hcl:"command"`
	Description hcl.Expression `hcl:"description,optional"`
	Depfile     hcl.Expression `hcl:"depfile,optional"`
	Generator   bool           `hcl:"generator,optional"`
	Vars        []string       `hcl:"vars,optional"`
}

type hclTarget struct {
	Rule        string         `hcl:"rule,label"`
	Name        string         `hcl:"name,optional"`
	Default     bool           `hcl:"default,optional"`
	AlwaysDirty bool           `hcl:"always_dirty,optional"`
	Params      hcl.Expression `hcl:"params,optional"`
	Vars        *hclRemain     `hcl:"vars,block"`
	Ins         []string       `hcl:"ins,optional"`
	Outs        []string       `hcl:"outs,optional"`
	ImplicitIns []string       `hcl:"implicit_ins,optional"`
	Expand      *hclExpand     `hcl:"expand,block"`
}

type hclRemain struct {
	Body hcl.Body `hcl:",remain"`
}

type hclExpand struct {
	Kind   string `hcl:"kind"`
	Suffix string `hcl:"suffix"`
}

type hclTree struct {
	Entries []hclEntry `hcl:"entry,block"`
}

// hclEntry applies its pipes list first, then its pipe blocks grouped by type.
type hclEntry struct {
	Name     string        `hcl:"name,label"`
	Pipes    []string      `hcl:"pipes,optional"`
	Mkdir    []hclMkdir    `hcl:"mkdir,block"`
	Write    []hclWrite    `hcl:"write,block"`
	Symlink  []hclSymlink  `hcl:"symlink,block"`
	NinjaVar []hclNinjaVar `hcl:"ninja_var,block"`
	Entries  []hclEntry    `hcl:"entry,block"`
}

type hclWrite struct {
	Content       string `hcl:"content"`
	Mode          string `hcl:"mode,optional"`
	Overwrite     bool   `hcl:"overwrite,optional"`
	CreateParents bool   `hcl:"create_parents,optional"`
}

type hclMkdir struct {
	Recursive    bool `hcl:"recursive,optional"`
	FailIfExists bool `hcl:"fail_if_exists,optional"`
}

type hclSymlink struct {
	Target string `hcl:"target"`
}

type hclNinjaVar struct {
	Name      string `hcl:"name"`
	Overwrite bool   `hcl:"overwrite,optional"`
}

// hclFunctions are callable from unit expressions.
var hclFunctions = map[string]function.Function{
	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

// parseHCL decodes an HCL unit. Expressions that may reference param stay unevaluated
// until a target renders them.
func parseHCL(unit domain.Path, data []byte) (*document, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, string(unit))
	if diags.HasErrors() {
		return nil, parseFailed(diags, unit)
	}

	var head hclHead
	if diags := gohcl.DecodeBody(file.Body, nil, &head); diags.HasErrors() {
		return nil, parseFailed(diags, unit)
	}

	doc := &document{imports: head.Imports}
	for _, f := range head.Flags {
		spec := domain.FlagSpec{Key: f.Key}
		if !absent(f.Default) {
			v, diags := f.Default.Value(nil)
			if diags.HasErrors() {
				return nil, parseFailed(diags, unit)
			}
			def, err := fromCty(v)
			if err != nil {
				return nil, parseFailed(err, unit)
			}
			spec.Default, spec.HasDefault = def, true
		}
		doc.flags = append(doc.flags, spec)
	}

	doc.body = func(flags map[string]any) (*body, error) {
		b, err := hclDecodeBody(head.Remain, flags)
		if err != nil {
			return nil, parseFailed(err, unit)
		}
		return b, nil
	}
	return doc, nil
}

func hclDecodeBody(remain hcl.Body, flags map[string]any) (*body, error) {
	s := scope{flag: flags}
	ctx, err := evalContext(s)
	if err != nil {
		return nil, err
	}

	var raw hclBody
	if diags := gohcl.DecodeBody(remain, ctx, &raw); diags.HasErrors() {
		return nil, diags
	}

	b := &body{rules: make(map[string]*ruleDecl)}
	if !absent(raw.Provide) {
		v, diags := raw.Provide.Value(ctx)
		if diags.HasErrors() {
			return nil, diags
		}
		provided, err := fromCty(v)
		if err != nil {
			return nil, err
		}
		m, ok := provided.(map[string]any)
		if !ok {
			return nil, zerr.New("provide must be an object")
		}
		for _, key := range slices.Sorted(maps.Keys(m)) {
			b.provide = append(b.provide, domain.FlagValue{Key: key, Value: m[key]})
		}
	}

	for _, r := range raw.Rules {
		if _, dup := b.rules[r.Kind]; dup {
			return nil, zerr.With(domain.Mark(domain.ErrDuplicateRuleKind), "kind", r.Kind)
		}
		decl := &ruleDecl{kind: r.Kind, name: r.Name, generator: r.Generator, vars: r.Vars, command: hclText{r.Command}}
		if !absent(r.Description) {
			decl.description = hclText{r.Description}
		}
		if !absent(r.Depfile) {
			decl.depfile = hclText{r.Depfile}
		}
		b.rules[r.Kind] = decl
	}

	for _, t := range raw.Targets {
		decl, err := hclTargetDecl(t, ctx)
		if err != nil {
			return nil, err
		}
		b.targets = append(b.targets, decl)
	}

	if raw.Source != nil {
		if b.source, err = hclEntries(raw.Source.Entries); err != nil {
			return nil, err
		}
	}
	if raw.Out != nil {
		if b.out, err = hclEntries(raw.Out.Entries); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func hclTargetDecl(t hclTarget, ctx *hcl.EvalContext) (*targetDecl, error) {
	decl := &targetDecl{
		name:        t.Name,
		rule:        t.Rule,
		isDefault:   t.Default,
		alwaysDirty: t.AlwaysDirty,
		vars:        make(map[string]value),
		ins:         t.Ins,
		outs:        t.Outs,
		implicitIns: t.ImplicitIns,
	}
	if t.Expand != nil {
		decl.expand = &expandDecl{kind: t.Expand.Kind, suffix: t.Expand.Suffix}
	}

	if !absent(t.Params) {
		v, diags := t.Params.Value(ctx)
		if diags.HasErrors() {
			return nil, diags
		}
		params, err := fromCty(v)
		if err != nil {
			return nil, err
		}
		m, ok := params.(map[string]any)
		if !ok {
			return nil, zerr.With(zerr.New("params must be an object"), "rule", t.Rule)
		}
		decl.params = m
	}

	if t.Vars != nil {
		attrs, diags := t.Vars.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		for name, attr := range attrs {
			decl.vars[name] = hclText{attr.Expr}
		}
	}
	return decl, nil
}

func hclEntries(raw []hclEntry) ([]entryDecl, error) {
	entries := make([]entryDecl, 0, len(raw))
	for _, e := range raw {
		entry := entryDecl{name: e.Name}
		for _, ref := range e.Pipes {
			entry.pipes = append(entry.pipes, pipeDecl{ref: ref})
		}
		for _, m := range e.Mkdir {
			entry.pipes = append(entry.pipes, pipeDecl{mkdir: &domain.MkdirSpec{Recursive: m.Recursive, FailIfExists: m.FailIfExists}})
		}
		for _, w := range e.Write {
			var mode int64
			if w.Mode != "" {
				parsed, err := strconv.ParseInt(w.Mode, 8, 64)
				if err != nil {
					return nil, zerr.With(domain.Mark(domain.ErrInvalidFileMode), "mode", w.Mode)
				}
				mode = parsed
			}
			entry.pipes = append(entry.pipes, pipeDecl{write: &domain.WriteSpec{
				Content:       []byte(w.Content),
				Mode:          mode,
				Overwrite:     w.Overwrite,
				CreateParents: w.CreateParents,
			}})
		}
		for _, l := range e.Symlink {
			entry.pipes = append(entry.pipes, pipeDecl{symlink: l.Target})
		}
		for _, nv := range e.NinjaVar {
			entry.pipes = append(entry.pipes, pipeDecl{ninjaVar: &ninjaVarDecl{name: nv.Name, overwrite: nv.Overwrite}})
		}
		if len(e.Entries) > 0 {
			children, err := hclEntries(e.Entries)
			if err != nil {
				return nil, err
			}
			entry.children = children
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// absent reports whether an optional attribute was left out. gohcl fills missing
// expression fields with a static null.
func absent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

func evalContext(s scope) (*hcl.EvalContext, error) {
	flag, err := toCty(s.flag)
	if err != nil {
		return nil, err
	}
	param, err := toCty(s.param)
	if err != nil {
		return nil, err
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"flag": flag, "param": param},
		Functions: hclFunctions,
	}, nil
}

// hclText is an HCL expression rendered with flag and param in scope.
type hclText struct {
	expr hcl.Expression
}

func (t hclText) value(s scope) (cty.Value, error) {
	ctx, err := evalContext(s)
	if err != nil {
		return cty.NilVal, err
	}
	v, diags := t.expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, zerr.Wrap(diags, domain.ErrTemplateFailed.Error())
	}
	return v, nil
}

func (t hclText) render(s scope) (string, error) {
	v, err := t.value(s)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	str, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrTemplateFailed.Error())
	}
	return str.AsString(), nil
}

func (t hclText) eval(s scope) (any, error) {
	v, err := t.value(s)
	if err != nil {
		return nil, err
	}
	return fromCty(v)
}
