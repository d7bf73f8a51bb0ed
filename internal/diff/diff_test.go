package diff

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
)

// mustParse decodes a JSON literal into the ordered value model.
func mustParse(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonv.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

// drawValue produces an arbitrary JSON-compatible value of bounded depth.
func drawValue(t *rapid.T, depth int, label string) any {
	kind := rapid.IntRange(0, 5).Draw(t, label+"_kind")
	if depth <= 0 && kind >= 4 {
		kind = kind % 4
	}
	switch kind {
	case 0:
		return nil
	case 1:
		return rapid.Bool().Draw(t, label+"_bool")
	case 2:
		return float64(rapid.IntRange(-1000, 1000).Draw(t, label+"_num"))
	case 3:
		return rapid.StringMatching(`[a-z]{0,6}`).Draw(t, label+"_str")
	case 4:
		n := rapid.IntRange(0, 4).Draw(t, label+"_len")
		arr := make([]any, n)
		for i := range arr {
			arr[i] = drawValue(t, depth-1, fmt.Sprintf("%s_%d", label, i))
		}
		return arr
	default:
		obj := jsonv.NewObject()
		n := rapid.IntRange(0, 4).Draw(t, label+"_len")
		for i := 0; i < n; i++ {
			key := rapid.SampledFrom([]string{"id", "name", "localID", "quantity", "xp", "level"}).Draw(t, label+"_key")
			obj.Set(key, drawValue(t, depth-1, label+"_"+key))
		}
		return obj
	}
}

// Feature: idlesnap, Property 1: diff of a value against itself is empty
func TestDiffSelfIsEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := drawValue(t, 3, "v")
		got := Diff(v, jsonv.Clone(v), "")
		if got == nil {
			t.Fatalf("Diff returned nil, want empty slice")
		}
		if len(got) != 0 {
			t.Fatalf("Diff(X, X) = %v, want no changes", got)
		}
	})
}

// Feature: idlesnap, Property 2: diff output is deterministic
func TestDiffDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawValue(t, 3, "a")
		b := drawValue(t, 3, "b")
		first := Diff(a, b, "root")
		second := Diff(jsonv.Clone(a), jsonv.Clone(b), "root")
		if len(first) != len(second) {
			t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].String() != second[i].String() {
				t.Fatalf("change %d differs: %q vs %q", i, first[i], second[i])
			}
		}
	})
}

func TestDiffAddedKey(t *testing.T) {
	got := Diff(mustParse(t, `{"a":1}`), mustParse(t, `{"a":1,"b":2}`), "")
	if len(got) != 1 {
		t.Fatalf("want 1 change, got %d: %v", len(got), got)
	}
	c := got[0]
	if c.Type != Added || c.Path != "b" || c.New != 2.0 {
		t.Errorf("unexpected change: %+v", c)
	}
}

func TestDiffRemovedKey(t *testing.T) {
	got := Diff(mustParse(t, `{"a":1,"b":2}`), mustParse(t, `{"a":1}`), "")
	if len(got) != 1 {
		t.Fatalf("want 1 change, got %d: %v", len(got), got)
	}
	if got[0].Type != Removed || got[0].Path != "b" || got[0].Old != 2.0 {
		t.Errorf("unexpected change: %+v", got[0])
	}
}

func TestDiffPercent(t *testing.T) {
	cases := []struct {
		old, new float64
		want     string
	}{
		{0, 5, ""},
		{10, 1100, ""},
		{10, 15, "+50.00%"},
		{10, 5, "-50.00%"},
		{-10, -5, "+50.00%"},
		{10, 110, "+1000.00%"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v->%v", tc.old, tc.new), func(t *testing.T) {
			got := Diff(tc.old, tc.new, "x")
			if len(got) != 1 {
				t.Fatalf("want 1 change, got %v", got)
			}
			if got[0].Percent != tc.want {
				t.Errorf("percent: want %q, got %q", tc.want, got[0].Percent)
			}
		})
	}
}

func TestDiffStrictScalarEquality(t *testing.T) {
	got := Diff(mustParse(t, `{"a":1}`), mustParse(t, `{"a":"1"}`), "")
	if len(got) != 1 || got[0].Type != Updated {
		t.Fatalf("want one update for number vs string, got %v", got)
	}
	if got[0].Percent != "" {
		t.Errorf("number vs string must not carry a percent, got %q", got[0].Percent)
	}
}

func TestDiffArrayIdentityPairing(t *testing.T) {
	got := Diff(mustParse(t, `[{"id":1,"name":"x"}]`), mustParse(t, `[{"id":1,"name":"y"}]`), "")
	if len(got) != 1 {
		t.Fatalf("want 1 change, got %d: %v", len(got), got)
	}
	if got[0].Type != Updated || got[0].Path != "1.name" {
		t.Errorf("unexpected change: %+v", got[0])
	}
}

func TestDiffArrayReorderIsNotAChange(t *testing.T) {
	prev := mustParse(t, `[{"localID":"a","q":1},{"localID":"b","q":2}]`)
	cur := mustParse(t, `[{"localID":"b","q":2},{"localID":"a","q":1}]`)
	if got := Diff(prev, cur, "bank"); len(got) != 0 {
		t.Errorf("reordered array should not differ, got %v", got)
	}
}

func TestDiffArrayFallsBackToNameThenIndex(t *testing.T) {
	got := Diff(
		mustParse(t, `{"pets":[{"name":"Cat"}]}`),
		mustParse(t, `{"pets":[{"name":"Cat"},{"name":"Dog"}]}`), "")
	if len(got) != 1 || got[0].Type != Added || got[0].Path != "pets.Dog" {
		t.Fatalf("unexpected changes: %v", got)
	}

	got = Diff(mustParse(t, `[1,2]`), mustParse(t, `[1,3,4]`), "n")
	want := []string{"~ n[1]: 2 -> 3 (+50.00%)", "+ n[2]: 4"}
	if len(got) != len(want) {
		t.Fatalf("want %d changes, got %v", len(want), got)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("change %d: want %q, got %q", i, want[i], got[i].String())
		}
	}
}

func TestDiffDuplicateIdentitiesPairByIndex(t *testing.T) {
	prev := mustParse(t, `[{"id":"a","v":1},{"id":"a","v":2}]`)
	cur := mustParse(t, `[{"id":"a","v":1},{"id":"a","v":3}]`)
	got := Diff(prev, cur, "")
	if len(got) != 1 || got[0].Path != "[1].v" {
		t.Fatalf("unexpected changes: %v", got)
	}
}

func TestDiffOrder(t *testing.T) {
	prev := mustParse(t, `{"gone":1,"a":1,"b":{"c":1},"alsoGone":2}`)
	cur := mustParse(t, `{"new":1,"b":{"c":2},"a":2}`)
	var lines []string
	for _, c := range Diff(prev, cur, "") {
		lines = append(lines, c.String())
	}
	want := []string{
		"- gone: 1",
		"- alsoGone: 2",
		"+ new: 1",
		"~ b.c: 1 -> 2 (+100.00%)",
		"~ a: 1 -> 2 (+100.00%)",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("order mismatch:\n got: %q\nwant: %q", lines, want)
	}
}

// An array compared with an object is walked as an index-keyed object. This
// mirrors long-standing behaviour that consumers of the changelog rely on.
func TestDiffArrayVersusObjectQuirk(t *testing.T) {
	got := Diff(mustParse(t, `{"x":[5]}`), mustParse(t, `{"x":{"0":5,"k":1}}`), "")
	if len(got) != 1 || got[0].Type != Added || got[0].Path != "x.k" {
		t.Fatalf("unexpected changes: %v", got)
	}

	got = Diff(mustParse(t, `{"x":[5]}`), mustParse(t, `{"x":5}`), "")
	if len(got) != 1 || got[0].Type != Updated || got[0].Path != "x" {
		t.Fatalf("array vs scalar should be one update, got %v", got)
	}
}

func TestDiffEmptyIsNotNil(t *testing.T) {
	if got := Diff(nil, nil, ""); got == nil || len(got) != 0 {
		t.Errorf("want empty non-nil slice, got %#v", got)
	}
}
