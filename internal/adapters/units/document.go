package units

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/zerr"
)

// scope is the data unit templates can reference: resolved flags and the params of the
// target being rendered.
type scope struct {
	flag  map[string]any
	param map[string]any
}

// text renders a command, description or depfile template.
type text interface {
	render(s scope) (string, error)
}

// value evaluates a literal target variable.
type value interface {
	eval(s scope) (any, error)
}

// document is the format-independent content of a definition unit.
type document struct {
	imports []string
	flags   domain.FlagSchema
	// body decodes the rest of the unit once its flags are known.
	body func(flags map[string]any) (*body, error)
}

type body struct {
	provide []domain.FlagValue
	rules   map[string]*ruleDecl
	targets []*targetDecl
	source  []entryDecl
	out     []entryDecl
}

type ruleDecl struct {
	kind        string
	name        string
	command     text
	description text
	depfile     text
	generator   bool
	vars        []string
}

type targetDecl struct {
	name        string
	rule        string
	isDefault   bool
	alwaysDirty bool
	params      map[string]any
	vars        map[string]value
	ins         []string
	outs        []string
	implicitIns []string
	expand      *expandDecl
}

type expandDecl struct {
	kind   string
	suffix string
}

type entryDecl struct {
	name     string
	pipes    []pipeDecl
	children []entryDecl
}

// pipeDecl is one pipe of a tree entry. Exactly one field is set.
type pipeDecl struct {
	ref      string
	write    *domain.WriteSpec
	symlink  string
	ninjaVar *ninjaVarDecl
	mkdir    *domain.MkdirSpec
}

type ninjaVarDecl struct {
	name      string
	overwrite bool
}

// Pipe references accepted in tree entries besides target slots.
const (
	refImport      = "import"
	refVirtualRoot = "virtualRoot"
	refMkdir       = "mkdir"
)

// interpreter runs one document against a Declarer.
type interpreter struct {
	d       ports.Declarer
	unit    domain.Path
	flags   map[string]any
	body    *body
	targets map[string]domain.Target
	srcDir  *domain.FileItem
	outDir  *domain.FileItem
}

func run(ctx context.Context, d ports.Declarer, unit domain.Path, doc *document) (domain.Exports, error) {
	in := &interpreter{d: d, unit: unit, flags: map[string]any{}, targets: map[string]domain.Target{}}

	if len(doc.flags) > 0 {
		resolved, err := d.ResolveFlags(ctx, unit, doc.flags)
		if err != nil {
			return nil, err
		}
		in.flags = resolved
	}

	b, err := doc.body(in.flags)
	if err != nil {
		return nil, err
	}
	in.body = b

	if len(b.provide) > 0 {
		if err := d.ProvideFlags(b.provide); err != nil {
			return nil, err
		}
	}

	if len(b.targets) > 0 || len(b.source) > 0 || len(b.out) > 0 || len(doc.imports) > 0 {
		if in.srcDir, err = d.CurrentSourceDir(unit); err != nil {
			return nil, err
		}
		if in.outDir, err = d.CurrentOutDir(unit); err != nil {
			return nil, err
		}
	}

	exports, err := in.declareTargets(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.tree(ctx, in.srcDir, b.source); err != nil {
		return nil, err
	}
	if err := in.tree(ctx, in.outDir, b.out); err != nil {
		return nil, err
	}
	if err := in.imports(ctx, doc.imports); err != nil {
		return nil, err
	}
	return exports, nil
}

func (in *interpreter) declareTargets(ctx context.Context) (domain.Exports, error) {
	var exports, defaults domain.Exports
	for _, decl := range in.body.targets {
		t, err := in.newTarget(decl)
		if err != nil {
			return nil, err
		}
		if err := in.d.AddTarget(t); err != nil {
			return nil, err
		}

		base := t.Base()
		slots := []struct {
			paths []string
			root  *domain.FileItem
			into  *domain.FileArray
		}{
			{decl.ins, in.srcDir, base.Ins},
			{decl.outs, in.outDir, base.Outs},
			{decl.implicitIns, in.srcDir, base.ImplicitIns},
		}
		for _, slot := range slots {
			for _, p := range slot.paths {
				item, err := in.d.Declare(domain.KindAny, slot.root.Path(), domain.Seg(p))
				if err != nil {
					return nil, zerr.With(err, "target", decl.rule)
				}
				if err := in.d.Pipe(ctx, item, slot.into); err != nil {
					return nil, err
				}
			}
		}

		if decl.name == "" {
			if decl.isDefault {
				defaults = append(defaults, domain.Export{Value: t})
			}
			continue
		}
		if _, dup := in.targets[decl.name]; dup {
			return nil, zerr.With(domain.Mark(domain.ErrDuplicateTarget), "target", decl.name)
		}
		in.targets[decl.name] = t
		exports = append(exports, domain.Export{Name: decl.name, Value: t})
		if decl.isDefault {
			defaults = append(defaults, domain.Export{Name: decl.name, Value: t})
		}
	}

	if len(defaults) > 0 {
		exports = append(exports, domain.Export{Name: domain.DefaultExport, Value: defaults})
	}
	return exports, nil
}

func (in *interpreter) newTarget(decl *targetDecl) (domain.Target, error) {
	rule, err := in.rule(decl.rule)
	if err != nil {
		return nil, err
	}
	var spawn *ruleDecl
	if decl.expand != nil {
		suffix := decl.expand.suffix
		if suffix == "" || strings.Contains(suffix, domain.Sep) {
			return nil, zerr.With(domain.Mark(domain.ErrInvalidExpansion), "suffix", suffix)
		}
		if spawn, err = in.rule(decl.expand.kind); err != nil {
			return nil, err
		}
	}

	for name := range decl.vars {
		if slices.Contains(rule.vars, name) || (spawn != nil && slices.Contains(spawn.vars, name)) {
			continue
		}
		err := zerr.With(domain.Mark(domain.ErrUnrecognizedVariable), "kind", rule.kind)
		return nil, zerr.With(err, "variable", name)
	}

	t := newUnitTarget(rule, scope{flag: in.flags, param: decl.params}, decl.vars)
	t.AlwaysDirty = decl.alwaysDirty
	if spawn == nil {
		return t, nil
	}
	return &expandTarget{unitTarget: t, d: in.d, spawn: spawn, suffix: decl.expand.suffix}, nil
}

func (in *interpreter) rule(kind string) (*ruleDecl, error) {
	rule, ok := in.body.rules[kind]
	if !ok {
		return nil, zerr.With(domain.Mark(domain.ErrUnknownRuleKind), "kind", kind)
	}
	return rule, nil
}

func (in *interpreter) tree(ctx context.Context, root *domain.FileItem, entries []entryDecl) error {
	if len(entries) == 0 {
		return nil
	}
	tree, err := in.buildTree(entries)
	if err != nil {
		return err
	}
	return in.d.Tree(ctx, root, tree)
}

func (in *interpreter) buildTree(entries []entryDecl) (domain.Tree, error) {
	tree := make(domain.Tree, 0, len(entries))
	for _, e := range entries {
		var group domain.Pipes
		for _, p := range e.pipes {
			pipe, err := in.pipe(p)
			if err != nil {
				return nil, zerr.With(err, "entry", e.name)
			}
			group = append(group, pipe)
		}

		entry := domain.TreeEntry{Name: e.name}
		if len(group) > 0 {
			entry.Pipe = group
		}
		if e.children != nil {
			children, err := in.buildTree(e.children)
			if err != nil {
				return nil, err
			}
			entry.Children = children
		}
		tree = append(tree, entry)
	}
	return tree, nil
}

func (in *interpreter) pipe(p pipeDecl) (domain.Pipe, error) {
	switch {
	case p.write != nil:
		return in.d.Write(*p.write), nil
	case p.mkdir != nil:
		return in.d.Mkdir(*p.mkdir), nil
	case p.ninjaVar != nil:
		return in.d.NinjaVar(p.ninjaVar.name, p.ninjaVar.overwrite), nil
	case p.symlink != "":
		target := domain.Resolve(in.srcDir.Path(), domain.Seg(p.symlink))
		return in.d.Symlink(target), nil
	}

	switch p.ref {
	case refImport:
		return in.d.Import(), nil
	case refVirtualRoot:
		return domain.VirtualRoot(), nil
	case refMkdir:
		return in.d.Mkdir(domain.MkdirSpec{}), nil
	case "":
		return nil, domain.ErrInvalidPipe
	}

	name, slot, _ := strings.Cut(p.ref, ".")
	t, ok := in.targets[name]
	if !ok {
		return nil, zerr.With(domain.Mark(domain.ErrUnknownTarget), "target", name)
	}
	base := t.Base()
	switch slot {
	case "", domain.FieldIns:
		return base.Ins, nil
	case domain.FieldOuts:
		return base.Outs, nil
	case domain.FieldImplicitIns:
		return base.ImplicitIns, nil
	default:
		err := zerr.With(domain.Mark(domain.ErrUnknownSlot), "target", name)
		return nil, zerr.With(err, "slot", slot)
	}
}

// imports loads other units. Directory entries go through the import pipe, file entries are
// loaded directly.
func (in *interpreter) imports(ctx context.Context, imports []string) error {
	for _, imp := range imports {
		if domain.IsDirLike(imp) {
			dir, err := in.d.Declare(domain.KindDir, in.srcDir.Path(), domain.Seg(imp))
			if err != nil {
				return err
			}
			if err := in.d.Pipe(ctx, dir, in.d.Import()); err != nil {
				return err
			}
			continue
		}
		if _, err := in.d.Load(ctx, domain.Resolve(in.srcDir.Path(), domain.Seg(imp))); err != nil {
			return err
		}
	}
	return nil
}
