package units

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type yamlUnit struct {
	Imports []string     `yaml:"imports"`
	Flags   yaml.Node    `yaml:"flags"`
	Provide yaml.Node    `yaml:"provide"`
	Rules   yaml.Node    `yaml:"rules"`
	Targets []yamlTarget `yaml:"targets"`
	Source  yaml.Node    `yaml:"source"`
	Out     yaml.Node    `yaml:"out"`
}

type yamlRule struct {
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	Description string   `yaml:"description"`
	Depfile     string   `yaml:"depfile"`
	Generator   bool     `yaml:"generator"`
	Vars        []string `yaml:"vars"`
}

type yamlTarget struct {
	Name        string         `yaml:"name"`
	Rule        string         `yaml:"rule"`
	Default     bool           `yaml:"default"`
	AlwaysDirty bool           `yaml:"always_dirty"`
	Params      map[string]any `yaml:"params"`
	Vars        yaml.Node      `yaml:"vars"`
	Ins         []string       `yaml:"ins"`
	Outs        []string       `yaml:"outs"`
	ImplicitIns []string       `yaml:"implicit_ins"`
	Expand      *struct {
		Kind   string `yaml:"kind"`
		Suffix string `yaml:"suffix"`
	} `yaml:"expand"`
}

type yamlWrite struct {
	Content       string `yaml:"content"`
	Mode          int64  `yaml:"mode"`
	Overwrite     bool   `yaml:"overwrite"`
	CreateParents bool   `yaml:"create_parents"`
}

type yamlNinjaVar struct {
	Name      string `yaml:"name"`
	Overwrite bool   `yaml:"overwrite"`
}

type yamlMkdir struct {
	Recursive    bool `yaml:"recursive"`
	FailIfExists bool `yaml:"fail_if_exists"`
}

func parseFailed(err error, unit domain.Path) error {
	return zerr.With(zerr.Wrap(err, domain.ErrUnitParseFailed.Error()), "unit", string(unit))
}

// parseYAML decodes a YAML unit. Mappings are walked as nodes so declaration order survives.
func parseYAML(unit domain.Path, data []byte) (*document, error) {
	var u yamlUnit
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&u); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseFailed(err, unit)
	}

	doc := &document{imports: u.Imports}
	err := eachPair(&u.Flags, func(key string, v *yaml.Node) error {
		spec := domain.FlagSpec{Key: key}
		if v.Tag != "!!null" {
			if err := v.Decode(&spec.Default); err != nil {
				return err
			}
			spec.HasDefault = true
		}
		doc.flags = append(doc.flags, spec)
		return nil
	})
	if err != nil {
		return nil, parseFailed(err, unit)
	}

	doc.body = func(flags map[string]any) (*body, error) {
		b, err := u.body(string(unit), flags)
		if err != nil {
			return nil, parseFailed(err, unit)
		}
		return b, nil
	}
	return doc, nil
}

func (u *yamlUnit) body(name string, flags map[string]any) (*body, error) {
	b := &body{rules: make(map[string]*ruleDecl)}

	err := eachPair(&u.Provide, func(key string, v *yaml.Node) error {
		var val any
		if err := v.Decode(&val); err != nil {
			return err
		}
		b.provide = append(b.provide, domain.FlagValue{Key: key, Value: val})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachPair(&u.Rules, func(kind string, v *yaml.Node) error {
		if _, dup := b.rules[kind]; dup {
			return zerr.With(domain.Mark(domain.ErrDuplicateRuleKind), "kind", kind)
		}
		var r yamlRule
		if err := v.Decode(&r); err != nil {
			return err
		}
		decl := &ruleDecl{kind: kind, name: r.Name, generator: r.Generator, vars: r.Vars}
		for _, f := range []struct {
			src  string
			into *text
		}{
			{r.Command, &decl.command},
			{r.Description, &decl.description},
			{r.Depfile, &decl.depfile},
		} {
			if f.src == "" {
				continue
			}
			tmpl, err := newTextTemplate(name+":"+kind, f.src)
			if err != nil {
				return err
			}
			*f.into = tmpl
		}
		b.rules[kind] = decl
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range u.Targets {
		decl := &targetDecl{
			name:        t.Name,
			rule:        t.Rule,
			isDefault:   t.Default,
			alwaysDirty: t.AlwaysDirty,
			params:      t.Params,
			vars:        make(map[string]value),
			ins:         t.Ins,
			outs:        t.Outs,
			implicitIns: t.ImplicitIns,
		}
		if t.Expand != nil {
			decl.expand = &expandDecl{kind: t.Expand.Kind, suffix: t.Expand.Suffix}
		}
		err := eachPair(&t.Vars, func(key string, v *yaml.Node) error {
			var raw any
			if err := v.Decode(&raw); err != nil {
				return err
			}
			val, err := newYAMLValue(name+":"+key, raw)
			if err != nil {
				return err
			}
			decl.vars[key] = val
			return nil
		})
		if err != nil {
			return nil, err
		}
		b.targets = append(b.targets, decl)
	}

	s := scope{flag: flags}
	if b.source, err = yamlTree(&u.Source, s); err != nil {
		return nil, err
	}
	if b.out, err = yamlTree(&u.Out, s); err != nil {
		return nil, err
	}
	return b, nil
}

// eachPair visits the pairs of a mapping node in document order. A missing or null node
// has no pairs.
func eachPair(n *yaml.Node, fn func(key string, v *yaml.Node) error) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return zerr.With(zerr.New("expected a mapping"), "line", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// yamlTree decodes tree entries. An entry value is empty, a pipe, a list of pipes, or a
// mapping of child entries.
func yamlTree(n *yaml.Node, s scope) ([]entryDecl, error) {
	var entries []entryDecl
	err := eachPair(n, func(name string, v *yaml.Node) error {
		entry := entryDecl{name: name}
		switch v.Kind {
		case yaml.ScalarNode:
			if v.Tag == "!!null" {
				break
			}
			entry.pipes = []pipeDecl{{ref: v.Value}}
		case yaml.SequenceNode:
			for _, item := range v.Content {
				p, err := yamlPipe(item, s)
				if err != nil {
					return err
				}
				entry.pipes = append(entry.pipes, p)
			}
		case yaml.MappingNode:
			children, err := yamlTree(v, s)
			if err != nil {
				return err
			}
			entry.children = children
			if entry.children == nil {
				entry.children = []entryDecl{}
			}
		default:
			err := zerr.With(zerr.New("invalid tree entry"), "entry", name)
			return zerr.With(err, "line", v.Line)
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

func yamlPipe(n *yaml.Node, s scope) (pipeDecl, error) {
	if n.Kind == yaml.ScalarNode {
		return pipeDecl{ref: n.Value}, nil
	}
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return pipeDecl{}, zerr.With(domain.Mark(domain.ErrInvalidPipe), "line", n.Line)
	}

	kind, spec := n.Content[0].Value, n.Content[1]
	switch kind {
	case "write":
		var w yamlWrite
		if err := spec.Decode(&w); err != nil {
			return pipeDecl{}, err
		}
		tmpl, err := newTextTemplate("write", w.Content)
		if err != nil {
			return pipeDecl{}, err
		}
		content, err := tmpl.render(s)
		if err != nil {
			return pipeDecl{}, err
		}
		return pipeDecl{write: &domain.WriteSpec{
			Content:       []byte(content),
			Mode:          w.Mode,
			Overwrite:     w.Overwrite,
			CreateParents: w.CreateParents,
		}}, nil
	case "symlink":
		var target string
		if spec.Kind == yaml.MappingNode {
			var m struct {
				Target string `yaml:"target"`
			}
			if err := spec.Decode(&m); err != nil {
				return pipeDecl{}, err
			}
			target = m.Target
		} else if err := spec.Decode(&target); err != nil {
			return pipeDecl{}, err
		}
		return pipeDecl{symlink: target}, nil
	case "ninjaVar":
		var nv yamlNinjaVar
		if spec.Kind == yaml.ScalarNode {
			nv.Name = spec.Value
		} else if err := spec.Decode(&nv); err != nil {
			return pipeDecl{}, err
		}
		return pipeDecl{ninjaVar: &ninjaVarDecl{name: nv.Name, overwrite: nv.Overwrite}}, nil
	case "mkdir":
		var m yamlMkdir
		if err := spec.Decode(&m); err != nil {
			return pipeDecl{}, err
		}
		return pipeDecl{mkdir: &domain.MkdirSpec{Recursive: m.Recursive, FailIfExists: m.FailIfExists}}, nil
	default:
		return pipeDecl{}, zerr.With(domain.Mark(domain.ErrInvalidPipe), "pipe", kind)
	}
}

// textTemplate renders Go templates with .flag and .param.
type textTemplate struct {
	tmpl *template.Template
}

func newTextTemplate(name, src string) (*textTemplate, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTemplateFailed.Error())
	}
	return &textTemplate{tmpl: tmpl}, nil
}

func (t *textTemplate) render(s scope) (string, error) {
	var buf strings.Builder
	data := map[string]any{"flag": s.flag, "param": s.param}
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", zerr.Wrap(err, domain.ErrTemplateFailed.Error())
	}
	return buf.String(), nil
}

// yamlValue is a target variable. Strings are templates; lists render element-wise.
type yamlValue struct {
	raw   any
	texts []*textTemplate
}

func newYAMLValue(name string, raw any) (*yamlValue, error) {
	v := &yamlValue{raw: raw}
	var srcs []string
	switch r := raw.(type) {
	case string:
		srcs = []string{r}
	case []any:
		if len(r) == 0 {
			v.raw = []string{}
			return v, nil
		}
		for _, item := range r {
			srcs = append(srcs, fmt.Sprint(item))
		}
	default:
		return v, nil
	}
	for _, src := range srcs {
		tmpl, err := newTextTemplate(name, src)
		if err != nil {
			return nil, err
		}
		v.texts = append(v.texts, tmpl)
	}
	return v, nil
}

func (v *yamlValue) eval(s scope) (any, error) {
	if v.texts == nil {
		return v.raw, nil
	}
	out := make([]string, len(v.texts))
	for i, t := range v.texts {
		rendered, err := t.render(s)
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	if _, ok := v.raw.(string); ok {
		return out[0], nil
	}
	return out, nil
}
