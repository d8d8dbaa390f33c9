package docprops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/docmeta/internal/accessor"
	"github.com/phobologic/docmeta/internal/model"
	"github.com/phobologic/docmeta/internal/namespace"
	"github.com/phobologic/docmeta/internal/richtext"
)

func pythonFiles() []model.FileInfo {
	return []model.FileInfo{{
		Path:     "shapes.py",
		Language: "python",
		Symbols: []model.Symbol{
			{
				Name: "scale", Kind: model.Function, File: "shapes.py", Line: 1, Exported: true,
				Doc: "Scale width with resize.",
				Params: []model.Param{
					{Name: "width", Kind: model.Positional},
					{Name: "factor", Kind: model.Optional, Default: "2"},
				},
			},
			{Name: "resize", Kind: model.Function, File: "shapes.py", Line: 5, Exported: true},
			{Name: "_helper", Kind: model.Function, File: "shapes.py", Line: 8},
			{Name: "Box", Kind: model.Class, File: "shapes.py", Line: 10, Superclasses: []string{"Shape"}, Exported: true},
			{Name: "area", Kind: model.Method, Class: "Box", File: "shapes.py", Line: 12, Exported: true,
				Params: []model.Param{{Name: "self", Kind: model.Positional}}},
			{Name: "width", Kind: model.Field, Class: "Box", File: "shapes.py", Line: 15, Exported: true, Doc: "The width."},
			{Name: "_cache", Kind: model.Field, Class: "Box", File: "shapes.py", Line: 20},
		},
		Methods: []model.SlotMethod{
			{Name: model.PlainName("width"), Kind: model.Reader, Class: "Box", Slot: "width", Exported: true, Line: 15},
			{Name: model.SetterName("width.setter", "width"), Kind: model.Writer, Class: "Box", Slot: "width", Exported: true, Line: 18},
		},
	}}
}

func table(t *testing.T, language string, files []model.FileInfo) *namespace.Table {
	t.Helper()
	tbl, err := namespace.Build(language, files)
	require.NoError(t, err)
	return tbl
}

func names(records []Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].QualifiedName()
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	records, err := Build(context.Background(), table(t, "python", pythonFiles()), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"scale", "resize", "Box", "Box.area"}, names(records))

	scale := records[0]
	assert.Equal(t, "python", scale.Language)
	assert.Equal(t, "(width, factor = 2)", scale.Params)
	assert.Equal(t, []richtext.Segment{
		richtext.Text("Scale "),
		richtext.Tagged(richtext.Argument, richtext.Text("width")),
		richtext.Text(" with "),
		richtext.Tagged(richtext.Function, richtext.Text("resize")),
		richtext.Text("."),
	}, scale.Doc)

	assert.Empty(t, records[1].Doc)
	assert.Equal(t, "()", records[1].Params)

	box := records[2]
	assert.Empty(t, box.Params)
	assert.Equal(t, []string{"Shape"}, box.Superclasses)
	assert.Equal(t, []string{"Shape"}, box.Ancestors)
	assert.Equal(t, []string{"area"}, box.Methods)
	require.Len(t, box.Slots, 1)
	assert.Equal(t, "width", box.Slots[0].Name)
	assert.Equal(t, "The width.", richtext.PlainText(box.Slots[0].Doc))
	assert.Equal(t, accessor.Relationship{{Role: accessor.Accessor, Name: "width"}}, box.Slots[0].Access)

	assert.Equal(t, "(self)", records[3].Params)
}

func TestBuildIncludePrivate(t *testing.T) {
	t.Parallel()

	records, err := Build(context.Background(), table(t, "python", pythonFiles()), Options{IncludePrivate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"scale", "resize", "_helper", "Box", "Box.area"}, names(records))

	box := records[3]
	require.Len(t, box.Slots, 2)
	assert.Equal(t, "_cache", box.Slots[1].Name)
	assert.Empty(t, box.Slots[1].Access)
}

func TestBuildUnexportedFieldWithAccessors(t *testing.T) {
	t.Parallel()

	files := []model.FileInfo{{
		Path:     "box.go",
		Language: "go",
		Symbols: []model.Symbol{
			{Name: "Box", Kind: model.Class, File: "box.go", Exported: true},
			{Name: "width", Kind: model.Field, Class: "Box", File: "box.go"},
			{Name: "height", Kind: model.Field, Class: "Box", File: "box.go"},
		},
		Methods: []model.SlotMethod{
			{Name: model.PlainName("Width"), Kind: model.Reader, Class: "Box", Slot: "width", Exported: true},
			{Name: model.PlainName("SetWidth"), Kind: model.Writer, Class: "Box", Slot: "width", Exported: true},
		},
	}}

	records, err := Build(context.Background(), table(t, "go", files), Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Slots, 1, "height has no accessors and is not exported")
	assert.Equal(t, accessor.Relationship{
		{Role: accessor.Reader, Name: "Width"},
		{Role: accessor.Writer, Name: "SetWidth"},
	}, records[0].Slots[0].Access)
}

func TestBuildCaseSensitive(t *testing.T) {
	t.Parallel()

	files := []model.FileInfo{{
		Path:     "a.py",
		Language: "python",
		Symbols: []model.Symbol{{
			Name: "f", Kind: model.Function, Exported: true,
			Doc:    "Uses WIDTH, not width.",
			Params: []model.Param{{Name: "width"}},
		}},
	}}
	tbl := table(t, "python", files)

	records, err := Build(context.Background(), tbl, Options{})
	require.NoError(t, err)
	assert.Equal(t, []richtext.Ref{
		{Category: richtext.Argument, Text: "WIDTH"},
		{Category: richtext.Argument, Text: "width"},
	}, richtext.Refs(records[0].Doc))

	records, err = Build(context.Background(), tbl, Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []richtext.Ref{{Category: richtext.Argument, Text: "WIDTH"}}, richtext.Refs(records[0].Doc))
}

func TestBuildCustomSplitter(t *testing.T) {
	t.Parallel()

	files := []model.FileInfo{{
		Path:     "a.rb",
		Language: "ruby",
		Symbols:  []model.Symbol{{Name: "f", Kind: model.Function, Exported: true, Doc: "Pass :key here."}},
	}}
	tbl := table(t, "ruby", files)

	records, err := Build(context.Background(), tbl, Options{})
	require.NoError(t, err)
	assert.Equal(t, []richtext.Ref{{Category: richtext.Keyword, Text: ":key"}}, richtext.Refs(records[0].Doc))

	records, err = Build(context.Background(), tbl, Options{Splitter: richtext.WordSplitter("")})
	require.NoError(t, err)
	assert.Empty(t, richtext.Refs(records[0].Doc))
	assert.Equal(t, "Pass :key here.", richtext.PlainText(records[0].Doc))
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, table(t, "python", pythonFiles()), Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildAll(t *testing.T) {
	t.Parallel()

	files := append(pythonFiles(), model.FileInfo{
		Path:     "main.go",
		Language: "go",
		Symbols:  []model.Symbol{{Name: "Main", Kind: model.Function, Exported: true}},
	})
	tables, err := namespace.BuildAll(files)
	require.NoError(t, err)

	records, err := BuildAll(context.Background(), tables, Options{Workers: 1})
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "go", records[0].Language)
	assert.Equal(t, "Main", records[0].Name)
	assert.Equal(t, "python", records[1].Language)
}

func TestFormatParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params []model.Param
		want   string
	}{
		{"empty", nil, "()"},
		{"positional", []model.Param{{Name: "a"}, {Name: "b"}}, "(a, b)"},
		{"annotated default", []model.Param{{Name: "n", Kind: model.Optional, Annotation: "int", Default: "1"}}, "(n: int = 1)"},
		{"python splats", []model.Param{
			{Name: "args", Kind: model.Rest},
			{Name: "kwargs", Kind: model.KeywordRest},
		}, "(*args, **kwargs)"},
		{"ruby keywords", []model.Param{
			{Name: "key", Kind: model.Keyword},
			{Name: "mode", Kind: model.Keyword, Default: ":fast"},
			{Name: "blk", Kind: model.Block},
		}, "(key:, mode: :fast, &blk)"},
		{"go variadic", []model.Param{
			{Name: "format", Annotation: "string"},
			{Name: "args", Kind: model.Rest, Annotation: "...any"},
		}, "(format: string, args: ...any)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatParams(tt.params))
		})
	}
}
