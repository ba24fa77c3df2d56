package csi

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func newTestEngine(files map[string]string, opts ...Option) *Engine {
	base := []Option{
		WithEnv(MapEnv{}),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	return NewEngineFS(mapFS(files), append(base, opts...)...)
}

// failEnv fails the test if any lookup reaches the environment.
type failEnv struct{ t *testing.T }

func (p failEnv) LookupEnv(name string) (string, bool) {
	p.t.Errorf("unexpected environment lookup of %q", name)
	return "", false
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, kind, ce.Kind, "error: %v", err)
	return ce
}

func TestCompile_LiteralUnchanged(t *testing.T) {
	e := newTestEngine(nil, WithEnv(failEnv{t}))
	for _, src := range []string{
		"",
		"plain text",
		"<html>\n  <body>&copy; 2019</body>\n</html>\n",
		"closing ] brackets } and { braces",
		"ünïcödé ✓",
	} {
		got, err := e.CompileString("page.html", src)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;&gt;&amp;&quot;&apos;", Escape(`<>&"'`))
	assert.Equal(t, "", Escape(""))
	assert.Equal(t, "this is a test", Escape("this is a test"))
	assert.Equal(t,
		"&lt;hello world /&gt; &quot;123&quot; wow! &amp; stuff&apos; yeah",
		Escape(`<hello world /> "123" wow! & stuff' yeah`))
}

func TestCompile_Var(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "a[var raw x]b"}, WithEnv(MapEnv{"x": "1"}))
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "a1b", got)

	e = newTestEngine(map[string]string{"page.html": "a[var raw x]b"})
	got, err = e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestCompile_VarPrefersLocalOverEnv(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "[var raw x]|[set x local][var raw x]"}, WithEnv(MapEnv{"x": "env"}))
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "env|local", got)
}

func TestCompile_VarHTML(t *testing.T) {
	e := newTestEngine(nil, WithEnv(MapEnv{"x": `<b class="c">Tom & Jerry's</b>`}))
	got, err := e.CompileString("page.html", "[var html x]")
	require.NoError(t, err)
	assert.Equal(t, "&lt;b class=&quot;c&quot;&gt;Tom &amp; Jerry&apos;s&lt;/b&gt;", got)

	got, err = e.CompileString("page.html", "[var raw x]")
	require.NoError(t, err)
	assert.Equal(t, `<b class="c">Tom & Jerry's</b>`, got)
}

func TestCompile_LetMissing(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "before [let raw x] after"})
	got, err := e.CompileFile("page.html")
	assert.Empty(t, got)
	ce := requireKind(t, err, KindMissingVariable)
	assert.True(t, errors.Is(err, ErrMissingVariable))
	assert.Equal(t, "page.html", ce.Path)
	assert.Equal(t, "let raw x", ce.Directive)
	assert.Equal(t, 7, ce.Offset)
}

func TestCompile_LetFound(t *testing.T) {
	e := newTestEngine(nil, WithEnv(MapEnv{"x": "<1>"}))
	got, err := e.CompileString("page.html", "[let raw x][let html x]")
	require.NoError(t, err)
	assert.Equal(t, "<1>&lt;1&gt;", got)
}

func TestCompile_EscapedDirectiveNotLookedUp(t *testing.T) {
	e := newTestEngine(nil, WithEnv(failEnv{t}))
	got, err := e.CompileString("page.html", `\[var raw x]`)
	require.NoError(t, err)
	assert.Equal(t, "[var raw x]", got)
}

func TestCompile_Escapes(t *testing.T) {
	e := newTestEngine(nil, WithEnv(MapEnv{"test": "0", "t]est": "1", `t\est`: "2", "t": "3"}))
	src := "test 1: [var raw test]\n" +
		`test 2: \[var raw test]` + "\n" +
		`test 3: \\\[var raw test]` + "\n" +
		`test 4: \\[var raw test]` + "\n" +
		`test 5: \\\\[var raw test]` + "\n" +
		`test 6: [var raw t\]est]` + "\n" +
		`test 7: [var raw t\\est]` + "\n" +
		`test 8: [var raw t]est]` + "\n"
	want := "test 1: 0\n" +
		"test 2: [var raw test]\n" +
		`test 3: \[var raw test]` + "\n" +
		`test 4: \0` + "\n" +
		`test 5: \\0` + "\n" +
		"test 6: 1\n" +
		"test 7: 2\n" +
		"test 8: 3est]\n"
	got, err := e.CompileString("escapes.txt", src)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCompile_SubstitutionNotRescanned(t *testing.T) {
	e := newTestEngine(nil, WithEnv(MapEnv{"x": "[let raw missing]"}))
	got, err := e.CompileString("page.html", "[var raw x]")
	require.NoError(t, err)
	assert.Equal(t, "[let raw missing]", got)
}

func TestCompile_RequireCycle(t *testing.T) {
	e := newTestEngine(map[string]string{
		"a.html": "A[require raw b.html]",
		"b.html": "B[require raw a.html]",
	})
	got, err := e.CompileFile("a.html")
	assert.Empty(t, got)
	ce := requireKind(t, err, KindCyclicInclude)
	assert.True(t, errors.Is(err, ErrCyclicInclude))
	assert.Equal(t, "b.html", ce.Path)
	assert.Equal(t, "require raw a.html", ce.Directive)
}

func TestCompile_IncludeCycle(t *testing.T) {
	e := newTestEngine(map[string]string{
		"a.html": "A[include raw b.html]a",
		"b.html": "B[include raw a.html]b",
	})
	got, err := e.CompileFile("a.html")
	require.NoError(t, err)
	assert.Equal(t, "ABba", got)
}

func TestCompile_SelfRequire(t *testing.T) {
	e := newTestEngine(map[string]string{"a.html": "[require raw a.html]"})
	_, err := e.CompileFile("a.html")
	requireKind(t, err, KindCyclicInclude)
}

func TestCompile_CycleAcrossSpellings(t *testing.T) {
	e := newTestEngine(map[string]string{
		"dir/a.html": "[require raw ../dir/./a.html]",
	})
	_, err := e.CompileFile("dir/a.html")
	requireKind(t, err, KindCyclicInclude)
}

func TestCompile_SiblingIncludesAreNotCycles(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html": "[require raw part.html][require raw part.html]",
		"part.html": "p",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "pp", got)
}

func TestCompile_ScopeIsolation(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":  "[set y parent][include raw child.html]|[var raw x]|[var raw y]",
		"child.html": "[var raw y]:[set x child][set y child][var raw x]",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "parent:child||parent", got)
}

func TestCompile_ScopeRestoredAfterFailedInclude(t *testing.T) {
	e := newTestEngine(map[string]string{
		"child.html": "[set x child][let raw missing]",
	})
	c := e.NewContext()
	c.SetVar("x", "parent")

	_, err := e.compileContent(c, frame{path: "page.html", dir: "."}, "[require raw child.html]")
	requireKind(t, err, KindMissingVariable)
	assert.Equal(t, map[string]string{"x": "parent"}, c.Vars())
	assert.Empty(t, c.active)
}

func TestCompile_ActiveSetReleasedOnError(t *testing.T) {
	e := newTestEngine(map[string]string{
		"a.html": "[require raw b.html]",
		"b.html": "[require raw c.html]",
		"c.html": "[bogus]",
	})
	c := e.NewContext()
	_, err := e.compilePath(c, "a.html", true, 0)
	requireKind(t, err, KindInvalidDirective)
	assert.Empty(t, c.active)

	// the same context compiles a sound file afterwards
	e2 := newTestEngine(map[string]string{"a.html": "ok"})
	c.fs = e2.fs
	got, err := e2.compilePath(c, "a.html", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestCompile_RequireMissing(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "[require raw missing.txt]"})
	_, err := e.CompileFile("page.html")
	ce := requireKind(t, err, KindIO)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "missing.txt", ce.Path)
}

func TestCompile_IncludeMissingIsEmpty(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "a[include raw missing.txt]b"})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestCompile_TopLevelMissing(t *testing.T) {
	e := newTestEngine(nil)
	_, err := e.CompileFile("nope.html")
	requireKind(t, err, KindIO)
}

func TestCompile_IncludeHTML(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":    "<pre>[include html snippet.html]</pre>[require raw snippet.html]",
		"snippet.html": "<b>[var raw x]</b>",
	}, WithEnv(MapEnv{"x": "&"}))
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "<pre>&lt;b&gt;&amp;&lt;/b&gt;</pre><b>&</b>", got)
}

func TestCompile_RelativeToInnermostFile(t *testing.T) {
	e := newTestEngine(map[string]string{
		"pages/home.html":    "[require raw ../partials/nav.html]",
		"partials/nav.html":  "<nav>[require raw item.html]</nav>",
		"partials/item.html": "item",
		"pages/item.html":    "wrong",
		"item.html":          "wrong",
	})
	got, err := e.CompileFile("pages/home.html")
	require.NoError(t, err)
	assert.Equal(t, "<nav>item</nav>", got)
}

func TestCompile_BaseDirRestoredAfterInclude(t *testing.T) {
	e := newTestEngine(map[string]string{
		"pages/home.html": "[require raw ../partials/a.html]|[require raw b.html]",
		"partials/a.html": "a",
		"partials/b.html": "wrong",
		"pages/b.html":    "b",
	})
	got, err := e.CompileFile("pages/home.html")
	require.NoError(t, err)
	assert.Equal(t, "a|b", got)
}

func TestCompile_Wrapped(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":    "[set title Home]<p>body</p>\n[wrapped raw _layout.html]",
		"_layout.html": "<html><title>[var html title]</title>[var raw content]</html>",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "<html><title>Home</title><p>body</p>\n</html>", got)
}

func TestCompile_WrappedContentScoped(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":    "body[wrapped raw _layout.html]|[var raw content]|",
		"_layout.html": "L([var raw content])",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "L(body)||", got)
}

func TestCompile_WrappedKeepsParentContentVar(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":    "[set content mine]body[wrapped raw _layout.html][var raw content]",
		"_layout.html": "L([var raw content])",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "L(body)mine", got)
}

func TestCompile_WrappedHTML(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":    "<i>x</i>[wrapped html _layout.html]",
		"_layout.html": "[var raw content]",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "&lt;i&gt;x&lt;/i&gt;", got)
}

func TestCompile_WrappedCycleLeavesOutput(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html": "body[wrapped raw page.html]",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "body", got)
}

func TestCompile_WrappedMissingLayout(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "body[wrapped raw nope.html]"})
	_, err := e.CompileFile("page.html")
	requireKind(t, err, KindIO)
}

func TestCompile_NestedLayouts(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html":           "page[wrapped raw _layouts/inner.html]",
		"_layouts/inner.html": "<main>[var raw content]</main>[wrapped raw outer.html]",
		"_layouts/outer.html": "<body>[var raw content]</body>",
	})
	got, err := e.CompileFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "<body><main>page</main></body>", got)
}

func TestCompile_SetAndStash(t *testing.T) {
	e := newTestEngine(nil)
	got, err := e.CompileString("page.html", "[set t Hello World][var raw t]")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got)

	got, err = e.CompileString("page.html", "[set t ][var raw t]|")
	require.NoError(t, err)
	assert.Equal(t, "|", got)

	got, err = e.CompileString("page.html", "head[stash h]body[var raw h]")
	require.NoError(t, err)
	assert.Equal(t, "bodyhead", got)
}

func TestCompile_InvalidDirective(t *testing.T) {
	for _, body := range []string{"bogus", "", "var", "var raw ", "var plain x", "VAR raw x", " var raw x", "set x", "set  x", "stash "} {
		t.Run(fmt.Sprintf("%q", body), func(t *testing.T) {
			e := newTestEngine(nil)
			_, err := e.CompileString("page.html", "a["+body+"]b")
			ce := requireKind(t, err, KindInvalidDirective)
			assert.Equal(t, body, ce.Directive)
			assert.Equal(t, 1, ce.Offset)
		})
	}
}

func TestCompile_Lenient(t *testing.T) {
	e := newTestEngine(nil, WithStrict(false))
	got, err := e.CompileString("page.html", "a[bogus]b")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	// other failures are unaffected
	_, err = e.CompileString("page.html", "[let raw x]")
	requireKind(t, err, KindMissingVariable)
}

func TestCompile_Unterminated(t *testing.T) {
	e := newTestEngine(map[string]string{
		"page.html": "[require raw part.html]",
		"part.html": "text [var raw x",
	})
	_, err := e.CompileFile("page.html")
	ce := requireKind(t, err, KindUnterminatedDirective)
	assert.Equal(t, "part.html", ce.Path)
	assert.Equal(t, 5, ce.Offset)
}

func TestCompile_MaxDepth(t *testing.T) {
	files := map[string]string{}
	for i := range 10 {
		files[fmt.Sprintf("f%d.html", i)] = fmt.Sprintf("[require raw f%d.html]", i+1)
	}
	files["f10.html"] = "end"

	got, err := newTestEngine(files).CompileFile("f0.html")
	require.NoError(t, err)
	assert.Equal(t, "end", got)

	got, err = newTestEngine(files, WithMaxDepth(10)).CompileFile("f0.html")
	require.NoError(t, err)
	assert.Equal(t, "end", got)

	_, err = newTestEngine(files, WithMaxDepth(9)).CompileFile("f0.html")
	ce := requireKind(t, err, KindDepthExceeded)
	assert.True(t, errors.Is(err, ErrDepthExceeded))
	assert.Equal(t, "f10.html", ce.Path)
}

func TestCompileFileWith(t *testing.T) {
	e := newTestEngine(map[string]string{"page.html": "[let html name]"})
	got, err := e.CompileFileWith("page.html", map[string]string{"name": "<me>"})
	require.NoError(t, err)
	assert.Equal(t, "&lt;me&gt;", got)
}
