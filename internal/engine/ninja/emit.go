package ninja

import (
	"io"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/engine/rules"
	"go.trai.ch/zerr"
)

// Var is a header variable binding.
type Var struct {
	Name  string
	Value string
}

// Graph is a fully resolved build graph in emission order.
type Graph struct {
	Vars     []Var
	Defaults []string
	Rules    []*domain.NinjaRule
	Builds   []rules.Build
}

// HeaderVars returns the header bindings of items carrying a ninja var. Each value is the
// item's rendering without its own variable.
func HeaderVars(items []*domain.FileItem) []Var {
	vars := make([]Var, 0, len(items))
	for _, item := range items {
		vars = append(vars, Var{Name: item.NinjaVar().Name(), Value: item.Literal()})
	}
	return vars
}

// Emit writes g to w.
func Emit(w io.Writer, g Graph) error {
	nw := NewWriter(w)
	if err := emit(nw, g); err != nil {
		return zerr.Wrap(err, domain.ErrOutputWriteFailed.Error())
	}
	if err := nw.Flush(); err != nil {
		return zerr.Wrap(err, domain.ErrOutputWriteFailed.Error())
	}
	return nil
}

func emit(nw *Writer, g Graph) error {
	if err := nw.Comment("Generated by neja"); err != nil {
		return err
	}
	if err := nw.BlankLine(); err != nil {
		return err
	}
	for _, v := range g.Vars {
		if err := nw.Assign(v.Name, v.Value); err != nil {
			return err
		}
	}
	if err := nw.BlankLine(); err != nil {
		return err
	}

	if len(g.Defaults) > 0 {
		if err := nw.Default(g.Defaults); err != nil {
			return err
		}
		if err := nw.BlankLine(); err != nil {
			return err
		}
	}

	if err := section(nw, "Rules"); err != nil {
		return err
	}
	for _, r := range g.Rules {
		if err := writeRule(nw, r); err != nil {
			return err
		}
	}

	if err := section(nw, "Build statements"); err != nil {
		return err
	}
	if err := nw.Build([]string{domain.AlwaysDirtyTarget}, "phony", nil, nil); err != nil {
		return err
	}
	if err := nw.BlankLine(); err != nil {
		return err
	}
	for i := range g.Builds {
		if err := writeBuild(nw, &g.Builds[i]); err != nil {
			return err
		}
	}
	return nil
}

func section(nw *Writer, title string) error {
	if err := nw.write("### ", title, " ###\n"); err != nil {
		return err
	}
	return nw.BlankLine()
}

func writeRule(nw *Writer, r *domain.NinjaRule) error {
	if err := nw.Rule(r.UniqueName); err != nil {
		return err
	}
	if err := nw.ScopedAssign("command", r.Command); err != nil {
		return err
	}
	if r.Description != "" {
		if err := nw.ScopedAssign("description", r.Description); err != nil {
			return err
		}
	}
	if r.Depfile != "" {
		if err := nw.ScopedAssign("depfile", r.Depfile); err != nil {
			return err
		}
	}
	if r.Generator {
		if err := nw.ScopedAssign("generator", "1"); err != nil {
			return err
		}
	}
	return nw.BlankLine()
}

func writeBuild(nw *Writer, b *rules.Build) error {
	if b.Alias != "" {
		if err := nw.Build([]string{b.Alias}, "phony", b.Outs, nil); err != nil {
			return err
		}
		if err := nw.BlankLine(); err != nil {
			return err
		}
	}
	if err := nw.Build(b.Outs, b.Rule, b.Ins, b.ImplicitIns); err != nil {
		return err
	}
	for _, binding := range b.Bindings {
		if err := nw.ScopedAssign(binding.Key, binding.Value); err != nil {
			return err
		}
	}
	return nw.BlankLine()
}
