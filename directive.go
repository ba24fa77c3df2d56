package csi

import (
	"path/filepath"
	"strings"
)

// ContentVar receives the output captured by a wrapped directive while its
// layout compiles.
const ContentVar = "content"

type Keyword string

const (
	KeywordVar     Keyword = "var"
	KeywordLet     Keyword = "let"
	KeywordInclude Keyword = "include"
	KeywordRequire Keyword = "require"
	KeywordWrapped Keyword = "wrapped"
	KeywordSet     Keyword = "set"
	KeywordStash   Keyword = "stash"
)

type Modifier string

const (
	ModifierHTML Modifier = "html"
	ModifierRaw  Modifier = "raw"
)

// keywords that take a modifier, in dispatch order
var modifiedKeywords = []Keyword{KeywordVar, KeywordLet, KeywordInclude, KeywordRequire, KeywordWrapped}

// Directive is one parsed bracket directive.
type Directive struct {
	Keyword  Keyword
	Modifier Modifier
	// Arg is the variable name or file path
	Arg string
	// Value is only used by set
	Value string
}

// ParseDirective matches body against the directive vocabulary by exact
// prefix, e.g. "var html title" or "set title Home". The argument is taken
// verbatim, including any surrounding whitespace past the single separator.
func ParseDirective(body string) (Directive, bool) {
	for _, kw := range modifiedKeywords {
		for _, m := range []Modifier{ModifierHTML, ModifierRaw} {
			arg, ok := strings.CutPrefix(body, string(kw)+" "+string(m)+" ")
			if ok && arg != "" {
				return Directive{Keyword: kw, Modifier: m, Arg: arg}, true
			}
		}
	}
	if rest, ok := strings.CutPrefix(body, string(KeywordSet)+" "); ok {
		name, value, found := strings.Cut(rest, " ")
		if name != "" && found {
			return Directive{Keyword: KeywordSet, Arg: name, Value: value}, true
		}
		return Directive{}, false
	}
	if name, ok := strings.CutPrefix(body, string(KeywordStash)+" "); ok && name != "" {
		return Directive{Keyword: KeywordStash, Arg: name}, true
	}
	return Directive{}, false
}

func (d Directive) apply(s string) string {
	if d.Modifier == ModifierHTML {
		return Escape(s)
	}
	return s
}

// interpret resolves one directive to its substitution text. out is the
// output of the current file so far; wrapped and stash consume it.
func (e *Engine) interpret(c *Context, f frame, seg Segment, out *strings.Builder) (string, error) {
	d, ok := ParseDirective(seg.Text)
	if !ok {
		if !e.strict {
			e.logger.Warn("Ignoring unrecognized directive", "path", f.path, "directive", seg.Text, "offset", seg.Offset)
			return "", nil
		}
		return "", newError(KindInvalidDirective, f.path, seg.Text, seg.Offset, "invalid directive")
	}

	switch d.Keyword {
	case KeywordVar:
		v, _ := c.LookupVar(d.Arg)
		return d.apply(v), nil

	case KeywordLet:
		v, ok := c.LookupVar(d.Arg)
		if !ok {
			return "", newError(KindMissingVariable, f.path, seg.Text, seg.Offset, "cannot find variable %q", d.Arg)
		}
		return d.apply(v), nil

	case KeywordSet:
		c.SetVar(d.Arg, d.Value)
		return "", nil

	case KeywordStash:
		c.SetVar(d.Arg, out.String())
		out.Reset()
		return "", nil
	}

	return e.include(c, f, seg, d, out)
}

// include handles include, require and wrapped. Variables are restored to
// their state before the call whether or not the nested compile succeeds.
func (e *Engine) include(c *Context, f frame, seg Segment, d Directive, out *strings.Builder) (string, error) {
	target := d.Arg
	if !filepath.IsAbs(target) {
		target = filepath.Join(f.dir, target)
	}

	if c.IsActive(target) {
		if d.Keyword == KeywordRequire {
			return "", newError(KindCyclicInclude, f.path, seg.Text, seg.Offset, "cannot require %s due to cycle", target)
		}
		e.logger.Debug("Skipping cyclic include", "path", f.path, "target", target)
		return "", nil
	}

	saved := c.snapshot()
	defer c.restore(saved)

	wrapped := d.Keyword == KeywordWrapped
	if wrapped {
		c.SetVar(ContentVar, out.String())
	}

	result, err := e.compilePath(c, target, d.Keyword != KeywordInclude, f.depth+1)
	if err != nil {
		return "", err
	}
	if wrapped {
		out.Reset()
	}
	return d.apply(result), nil
}
