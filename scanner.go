package csi

import (
	"iter"
	"strings"
)

type SegmentKind int

const (
	LiteralSegment SegmentKind = iota
	DirectiveSegment
)

func (k SegmentKind) String() string {
	if k == DirectiveSegment {
		return "directive"
	}
	return "literal"
}

// Segment is a piece of scanned source. For directives Text is the body
// between the brackets with escapes already resolved.
type Segment struct {
	Kind SegmentKind
	Text string
	// Offset is the byte offset in the source where the segment starts
	Offset int
}

// Scan splits src into literal and directive segments in source order.
// Escapes: outside a directive `\[` and `\\` produce the second character;
// inside a directive `\]` and `\\` do. Any other backslash is literal.
//
// An opening bracket without a closing one yields a final error of kind
// KindUnterminatedDirective; no directive segment is produced for it.
// Each call of the returned sequence scans from the start.
func Scan(src string) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		var lit strings.Builder
		litStart := 0
		i := 0
		for i < len(src) {
			c := src[i]
			switch {
			case c == '\\' && i+1 < len(src) && (src[i+1] == '[' || src[i+1] == '\\'):
				lit.WriteByte(src[i+1])
				i += 2
			case c == '[':
				if lit.Len() > 0 {
					if !yield(Segment{Kind: LiteralSegment, Text: lit.String(), Offset: litStart}, nil) {
						return
					}
					lit.Reset()
				}
				start := i
				body, next, ok := scanDirective(src, i+1)
				if !ok {
					yield(Segment{}, newError(KindUnterminatedDirective, "", body, start, "unterminated directive"))
					return
				}
				if !yield(Segment{Kind: DirectiveSegment, Text: body, Offset: start}, nil) {
					return
				}
				i = next
				litStart = i
			default:
				lit.WriteByte(c)
				i++
			}
		}
		if lit.Len() > 0 {
			yield(Segment{Kind: LiteralSegment, Text: lit.String(), Offset: litStart}, nil)
		}
	}
}

// scanDirective reads a directive body starting just after the opening
// bracket. It returns the body, the index after the closing bracket and
// whether a closing bracket was found.
func scanDirective(src string, i int) (string, int, bool) {
	var body strings.Builder
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && (src[i+1] == ']' || src[i+1] == '\\'):
			body.WriteByte(src[i+1])
			i += 2
		case c == ']':
			return body.String(), i + 1, true
		default:
			body.WriteByte(c)
			i++
		}
	}
	return body.String(), i, false
}
