package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/neja/internal/core/domain"
)

func TestUniqueNames_Claim(t *testing.T) {
	names := domain.NewUniqueNames()
	assert.Equal(t, "x", names.Claim("x"))
	assert.Equal(t, "x_1", names.Claim("x"))
	assert.Equal(t, "x_2", names.Claim("x"))
	assert.Equal(t, "y", names.Claim("y"))
}

func TestUniqueNames_SkipsPreclaimedCandidate(t *testing.T) {
	names := domain.NewUniqueNames()
	assert.Equal(t, "x_1", names.Claim("x_1"))
	assert.Equal(t, "x", names.Claim("x"))
	assert.Equal(t, "x_2", names.Claim("x"))
	assert.Equal(t, "x_3", names.Claim("x"))

	// Generated names are claimed too.
	assert.Equal(t, "x_2_1", names.Claim("x_2"))
}

func TestVarName(t *testing.T) {
	assert.Equal(t, "in", domain.VarName(domain.FieldIns))
	assert.Equal(t, "out", domain.VarName(domain.FieldOuts))
	assert.Equal(t, "flags", domain.VarName("flags"))
}

func TestRuleVar(t *testing.T) {
	v := domain.NewRuleVar("in")
	assert.Equal(t, "${in}", v.String())
	assert.Equal(t, domain.NewRuleVar("in"), v)
	assert.Empty(t, domain.RuleVar{}.Name())

	var decoded domain.RuleVar
	text, _ := v.MarshalText()
	_ = decoded.UnmarshalText(text)
	assert.Equal(t, v, decoded)
}

func TestFormatValue(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	a, _ := domain.NewChildItem(root, "/a")
	b, _ := domain.NewChildItem(root, "/b")

	tests := []struct {
		name    string
		value   any
		want    string
		defined bool
	}{
		{"nil", nil, "", false},
		{"nil item", (*domain.FileItem)(nil), "", false},
		{"item", a, "/a", true},
		{"items", []*domain.FileItem{a, b}, "/a /b", true},
		{"string", "-O2", "-O2", true},
		{"empty string is defined", "", "", true},
		{"strings", []string{"-a", "-b"}, "-a -b", true},
		{"bool", true, "true", true},
		{"int", 3, "3", true},
		{"float", 1.5, "1.5", true},
		{"empty single", domain.NewSingleItem(domain.KindAny), "", false},
		{"rule var", domain.NewRuleVar("x"), "${x}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.FormatValue(tt.value)
			assert.Equal(t, tt.defined, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	arr := domain.NewFileArray(domain.KindAny)
	arr.Set([]*domain.FileItem{b, a})
	got, ok := domain.FormatValue(arr)
	assert.True(t, ok)
	assert.Equal(t, "/b /a", got)
}
