package nesting

import (
	"context"
	"testing"

	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

func lines(t *testing.T, src string) []int {
	t.Helper()
	unit, err := parser.Parse([]byte(src), "test.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	findings, err := New().Detect(context.Background(), unit)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]int, len(findings))
	for i, f := range findings {
		if f.Kind != models.FindingNestedLoop || f.Message != "Nested loops detected" {
			t.Errorf("finding = %+v", f)
		}
		out[i] = f.Location.Line
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{"single range loop", "for i in range(3):\n    pass\n", nil},
		{"nested range loops", "for i in range(3):\n    for j in range(3):\n        pass\n", []int{1}},
		{"inner over list", "for i in range(3):\n    for x in xs:\n        pass\n", []int{1}},
		{"outer over list", "for x in xs:\n    for i in range(3):\n        pass\n", nil},
		{"deep nesting", "for i in range(2):\n    if i:\n        for j in range(2):\n            for k in range(2):\n                pass\n", []int{1, 3}},
		{"while inside is not a for", "for i in range(3):\n    while i:\n        break\n", nil},
		{"range attribute is not range", "for i in np.range(3):\n    for j in x:\n        pass\n", nil},
		{"comprehension is not a loop statement", "for i in range(3):\n    ys = [j for j in x]\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(t, tt.src)
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}
