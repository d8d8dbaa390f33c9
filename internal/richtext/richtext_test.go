package richtext

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var errInvalid = errors.New("invalid name")

type fakeNamespace struct {
	callables map[string]bool
	values    map[string]bool
}

func (f fakeNamespace) Intern(raw string) (string, error) {
	if !identRe.MatchString(raw) {
		return "", errInvalid
	}
	return raw, nil
}

func (f fakeNamespace) IsCallable(name string) bool   { return f.callables[name] }
func (f fakeNamespace) IsBoundValue(name string) bool { return f.values[name] }

func newNS() fakeNamespace {
	return fakeNamespace{
		callables: map[string]bool{"foo": true, "render": true, "width": true},
		values:    map[string]bool{"limit": true, "foo": true},
	}
}

func TestParseFunctionRef(t *testing.T) {
	t.Parallel()

	got := Parse("call foo now", nil, Options{Namespace: newNS()})
	want := []Segment{
		Text("call "),
		Tagged(Function, Text("foo")),
		Text(" now"),
	}
	assert.Equal(t, want, got)
}

func TestParseKeywordRef(t *testing.T) {
	t.Parallel()

	got := Parse("lala :lolo", nil, Options{Namespace: newNS()})
	want := []Segment{
		Text("lala "),
		Tagged(Keyword, Text(":lolo")),
	}
	assert.Equal(t, want, got)
}

func TestParseVariableRef(t *testing.T) {
	t.Parallel()

	got := Parse("at most limit, items", nil, Options{Namespace: newNS()})
	want := []Segment{
		Text("at most "),
		Tagged(Variable, Text("limit")),
		Text(", items"),
	}
	assert.Equal(t, want, got)
}

func TestParseArgumentBeatsFunction(t *testing.T) {
	t.Parallel()

	got := Parse("uses foo", []string{"foo"}, Options{Namespace: newNS()})
	require.Len(t, got, 2)
	assert.Equal(t, Argument, got[1].Category)
}

func TestParseFunctionBeatsVariable(t *testing.T) {
	t.Parallel()

	// foo is both callable and bound in the fake namespace.
	got := Parse("foo", nil, Options{Namespace: newNS()})
	require.Len(t, got, 1)
	assert.Equal(t, Function, got[0].Category)
}

func TestParseCaseSensitivity(t *testing.T) {
	t.Parallel()

	args := []string{"WIDTH"}

	insensitive := Parse("the width", args, Options{})
	require.Len(t, insensitive, 2)
	assert.Equal(t, Argument, insensitive[1].Category)

	sensitive := Parse("the width", args, Options{CaseSensitive: true})
	assert.Equal(t, []Segment{Text("the width")}, sensitive)

	exact := Parse("the WIDTH", args, Options{CaseSensitive: true})
	require.Len(t, exact, 2)
	assert.Equal(t, Argument, exact[1].Category)

	// Lower-case argument names still need an upper-case mention.
	lower := []string{"width"}
	assert.Equal(t, []Segment{Text("the width")}, Parse("the width", lower, Options{CaseSensitive: true}))
	assert.Equal(t, Argument, Classify("WIDTH", lower, Options{CaseSensitive: true}))
	assert.Equal(t, Plain, Classify("Width", lower, Options{CaseSensitive: true}))
	assert.Equal(t, Argument, Classify("Width", lower, Options{}))
}

func TestParseInvalidInternFallsThrough(t *testing.T) {
	t.Parallel()

	// "foo-bar" is a single word that the namespace refuses to intern.
	got := Parse("see foo-bar", nil, Options{Namespace: newNS()})
	assert.Equal(t, []Segment{Text("see foo-bar")}, got)
}

func TestParseNilNamespace(t *testing.T) {
	t.Parallel()

	got := Parse("call foo :now", nil, Options{})
	want := []Segment{
		Text("call foo "),
		Tagged(Keyword, Text(":now")),
	}
	assert.Equal(t, want, got)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Parse("", []string{"x"}, Options{Namespace: newNS()}))
}

func TestParseAdjacentTags(t *testing.T) {
	t.Parallel()

	got := Parse("(foo limit)", []string{"x"}, Options{Namespace: newNS()})
	want := []Segment{
		Text("("),
		Tagged(Function, Text("foo")),
		Text(" "),
		Tagged(Variable, Text("limit")),
		Text(")"),
	}
	assert.Equal(t, want, got)
}

func TestParseLossless(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"...",
		"call foo now",
		"  leading and trailing  ",
		"Return WIDTH * 2 for :key (see render).\n\tNext line\r\n",
		"unicode: héllo wörld — foo",
		"foo\x80bar",
		":",
		"a:b:c foo:limit",
	}
	opts := Options{Namespace: newNS()}
	for _, in := range inputs {
		got := Parse(in, []string{"width"}, opts)
		assert.Equal(t, in, PlainText(got), "input %q", in)
	}
}

func TestFoldIdempotent(t *testing.T) {
	t.Parallel()

	opts := Options{Namespace: newNS()}
	for _, in := range []string{"call foo now", "x :k foo limit, y", "", "plain"} {
		once := Parse(in, []string{"x"}, opts)
		assert.Equal(t, once, Fold(once), "input %q", in)
	}
}

func TestFoldPreStructured(t *testing.T) {
	t.Parallel()

	in := []Segment{
		Text("a"),
		Text("b"),
		Tagged(Function, Text("f"), Text("oo")),
		Text(""),
		Tagged(Variable, Text("x"), Tagged(Keyword, Text(":k"), Text("ey")), Text("y")),
		Text("c"),
	}
	want := []Segment{
		Text("ab"),
		Tagged(Function, Text("foo")),
		Tagged(Variable, Text("x"), Tagged(Keyword, Text(":key")), Text("y")),
		Text("c"),
	}
	assert.Equal(t, want, Fold(in))
}

func TestFoldTaggedTextOnly(t *testing.T) {
	t.Parallel()

	in := []Segment{
		Text("see "),
		{Category: Function, Text: "foo"},
		Text(" now"),
		{Category: Variable},
	}
	want := []Segment{
		Text("see "),
		Tagged(Function, Text("foo")),
		Text(" now"),
		{Category: Variable},
	}
	got := Fold(in)
	assert.Equal(t, want, got)
	assert.Equal(t, "see foo now", PlainText(got))
	assert.Equal(t, "see foo now", PlainText(in))
	assert.Equal(t, []Ref{{Category: Function, Text: "foo"}, {Category: Variable}}, Refs(in))
	assert.Equal(t, got, Fold(got))
}

func TestReduce(t *testing.T) {
	t.Parallel()

	got, err := Reduce("call foo now")
	require.NoError(t, err)
	assert.Equal(t, "call foo now", got)

	got, err = Reduce([]Segment{Text("a"), Text("b")})
	require.NoError(t, err)
	assert.Equal(t, []Segment{Text("ab")}, got)

	_, err = Reduce(42)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestRefs(t *testing.T) {
	t.Parallel()

	segs := Parse("call foo with :k", nil, Options{Namespace: newNS()})
	assert.Equal(t, []Ref{
		{Category: Function, Text: "foo"},
		{Category: Keyword, Text: ":k"},
	}, Refs(segs))
}

func TestClassifyOrder(t *testing.T) {
	t.Parallel()

	ns := newNS()
	tests := []struct {
		word string
		args []string
		want Category
	}{
		{"foo", []string{"FOO"}, Argument},
		{"foo", nil, Function},
		{"limit", nil, Variable},
		{":limit", nil, Keyword},
		{"other", nil, Plain},
		{"42", nil, Plain},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.word, tt.args, Options{Namespace: ns}))
		})
	}
}
