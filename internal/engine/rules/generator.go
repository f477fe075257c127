package rules

import (
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/zerr"
)

// GeneratorKind is the kind of the target that reruns neja when a unit changes.
const GeneratorKind = "regenerate"

// Generator reruns neja on the main unit whenever any loaded unit changes.
type Generator struct {
	domain.TargetBase
	// MainUnit receives the unit neja was started with.
	MainUnit *domain.SingleItem
	// Exe is the command prefix that invokes neja.
	Exe string
}

// NewGenerator creates the generator target for the given executable.
func NewGenerator(exe string) *Generator {
	return &Generator{
		TargetBase: domain.NewTargetBase(),
		MainUnit:   domain.NewSingleItem(domain.KindFile),
		Exe:        exe,
	}
}

// Kind implements domain.Target.
func (g *Generator) Kind() string { return GeneratorKind }

// Base implements domain.Target.
func (g *Generator) Base() *domain.TargetBase { return &g.TargetBase }

// Fields implements domain.Target.
func (g *Generator) Fields() []string { return nil }

// Field implements domain.Target.
func (g *Generator) Field(string) any { return nil }

// Command implements domain.Target.
func (g *Generator) Command() (domain.Command, error) {
	unit, err := g.MainUnit.Item()
	if err != nil {
		return domain.Command{}, zerr.Wrap(err, domain.ErrGeneratorIncomplete.Error())
	}
	if g.Exe == "" {
		return domain.Command{}, zerr.With(domain.Mark(domain.ErrGeneratorIncomplete), "missing", "executable")
	}
	g.Ins.Set([]*domain.FileItem{unit})

	return domain.Command{
		Command:     g.Exe + " gen --file ${in} --chdir ${" + domain.BuildDirVar + "}",
		Description: "Rerun neja",
		Generator:   true,
	}, nil
}
