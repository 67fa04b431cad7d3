package overrides

import (
	"context"
	"testing"

	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Unit {
	t.Helper()
	unit, err := parser.Parse([]byte(src), "test.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return unit
}

func TestSimpleOverride(t *testing.T) {
	src := `class Base:
    def run(self):
        pass
    def stop(self):
        pass

class Child(Base):
    def run(self):
        pass
    def extra(self):
        pass
`
	findings, err := New().Detect(context.Background(), parse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %+v", findings)
	}
	f := findings[0]
	if f.Kind != models.FindingOverriddenMethod || f.Subject != "run" {
		t.Errorf("finding = %+v", f)
	}
	if f.Location.Line != 8 {
		t.Errorf("primary line = %d, want 8 (subclass method)", f.Location.Line)
	}
	if f.Secondary == nil || f.Secondary.Line != 2 {
		t.Errorf("secondary = %v, want line 2 (base method)", f.Secondary)
	}
	if f.Message != "Method 'run' in class 'Child' overrides 'Base.run'" {
		t.Errorf("Message = %q", f.Message)
	}
}

func TestOnlyBareNameBases(t *testing.T) {
	src := `class Base:
    def run(self): pass

class A(mod.Base):
    def run(self): pass

class B(Unknown):
    def run(self): pass
`
	analysis := New().Analyze(parse(t, src))
	if len(analysis.Overrides) != 0 {
		t.Errorf("overrides = %+v", analysis.Overrides)
	}
	if len(analysis.Classes) != 3 || len(analysis.Classes[1].Bases) != 0 {
		t.Errorf("classes = %+v", analysis.Classes)
	}
}

const collision = `class A:
    def m(self): pass

class B:
    def m(self): pass

class C(A, B):
    def m(self): pass
`

func TestLastBaseWins(t *testing.T) {
	analysis := New().Analyze(parse(t, collision))
	if len(analysis.Overrides) != 1 {
		t.Fatalf("overrides = %+v", analysis.Overrides)
	}
	if o := analysis.Overrides[0]; o.Base != "B" || o.Subclass != "C" {
		t.Errorf("override = %+v, want B -> C", o)
	}
}

func TestFirstBaseWins(t *testing.T) {
	analysis := New(WithPolicy(FirstBaseWins)).Analyze(parse(t, collision))
	if len(analysis.Overrides) != 1 || analysis.Overrides[0].Base != "A" {
		t.Errorf("overrides = %+v, want A -> C", analysis.Overrides)
	}
}

func TestTableKeyedByMethod(t *testing.T) {
	src := `class Base:
    def save(self): pass
    def load(self): pass

class One(Base):
    def save(self): pass

class Two(Base):
    def load(self): pass
    def save(self): pass
`
	analysis := New().Analyze(parse(t, src))
	if len(analysis.Overrides) != 2 {
		t.Fatalf("overrides = %+v", analysis.Overrides)
	}
	// save was inserted first (by One) and later replaced by Two.
	if o := analysis.Overrides[0]; o.Method != "save" || o.Subclass != "Two" {
		t.Errorf("overrides[0] = %+v", o)
	}
	if o := analysis.Overrides[1]; o.Method != "load" || o.Subclass != "Two" {
		t.Errorf("overrides[1] = %+v", o)
	}
}

func TestRedefinedClassReplaces(t *testing.T) {
	src := `class Base:
    def a(self): pass

class Base:
    def b(self): pass

class Child(Base):
    def a(self): pass
    def b(self): pass
`
	analysis := New().Analyze(parse(t, src))
	if len(analysis.Classes) != 2 || analysis.Classes[0].Name != "Base" {
		t.Fatalf("classes = %+v", analysis.Classes)
	}
	if len(analysis.Overrides) != 1 || analysis.Overrides[0].Method != "b" {
		t.Errorf("overrides = %+v, only the second Base should count", analysis.Overrides)
	}
}

func TestNestedClasses(t *testing.T) {
	src := `def factory():
    class Base:
        def go(self): pass
    class Impl(Base):
        def go(self): pass
    return Impl
`
	analysis := New().Analyze(parse(t, src))
	if len(analysis.Overrides) != 1 {
		t.Errorf("overrides = %+v", analysis.Overrides)
	}
}
