package engine

import "strings"

// preprocessSource rewrites groom script source into plain zygomys syntax:
//
//   - `:density` becomes the string literal "__kw_density". Hyphens inside
//     keyword names become underscores, so :min-trim and :min_trim match.
//   - Kebab-case symbols become snake_case (trim-tips -> trim_tips), since
//     zygomys reads a hyphen as subtraction.
//   - `;` comments become `//` comments.
//
// String literals pass through untouched and line breaks are preserved, so
// error line numbers still match the script.
func preprocessSource(source string) string {
	r := rewriter{src: source}
	r.out.Grow(len(source) + len(source)/4)
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == '"' || c == '`':
			r.literal(c)
		case c == ';':
			r.comment()
		case c == ':' && r.peek(1) == '=':
			r.emit(2)
		case c == ':' && isLetter(r.peek(1)):
			r.keyword()
		case c == '-' && r.pos > 0 && isIdentChar(r.src[r.pos-1]) && isLetter(r.peek(1)):
			r.out.WriteByte('_')
			r.pos++
		default:
			r.emit(1)
		}
	}
	return r.out.String()
}

type rewriter struct {
	src string
	pos int
	out strings.Builder
}

// peek returns the byte n positions ahead, or 0 past the end.
func (r *rewriter) peek(n int) byte {
	if r.pos+n < len(r.src) {
		return r.src[r.pos+n]
	}
	return 0
}

func (r *rewriter) emit(n int) {
	end := min(r.pos+n, len(r.src))
	r.out.WriteString(r.src[r.pos:end])
	r.pos = end
}

// literal copies a quoted string through its closing quote. Only
// double-quoted strings honour backslash escapes.
func (r *rewriter) literal(quote byte) {
	start := r.pos
	r.pos++
	for r.pos < len(r.src) && r.src[r.pos] != quote {
		if quote == '"' && r.src[r.pos] == '\\' {
			r.pos++
		}
		r.pos++
	}
	r.pos = min(r.pos+1, len(r.src))
	r.out.WriteString(r.src[start:r.pos])
}

// comment turns a run of semicolons into `//` and copies the rest of the
// line.
func (r *rewriter) comment() {
	for r.pos < len(r.src) && r.src[r.pos] == ';' {
		r.pos++
	}
	r.out.WriteString("//")
	end := strings.IndexByte(r.src[r.pos:], '\n')
	if end < 0 {
		end = len(r.src) - r.pos
	}
	r.emit(end)
}

func (r *rewriter) keyword() {
	start := r.pos + 1
	end := start
	for end < len(r.src) && isKWChar(r.src[end]) {
		end++
	}
	r.out.WriteByte('"')
	r.out.WriteString(kwPrefix)
	r.out.WriteString(strings.ReplaceAll(r.src[start:end], "-", "_"))
	r.out.WriteByte('"')
	r.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}
