package engine

// preprocessSource rewrites a placement script into source zygomys reads:
// :name keywords become "__kw_name" strings, kebab-case names become
// snake_case (zygomys splits fence-posts into a subtraction) and ; comments
// become // comments. Strings and comments are copied untouched, and := is
// left alone.
func preprocessSource(source string) string {
	r := rewriter{src: source, out: make([]byte, 0, len(source)+len(source)/4)}
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '"' || c == '`':
			r.quoted(c)
		case c == ';':
			r.lispComment()
		case c == '/' && r.peek(1) == '/':
			r.toEOL()
		case c == ':' && r.peek(1) == '=':
			r.copy(2)
		case c == ':' && isAlpha(r.peek(1)):
			r.keyword()
		case c == '-' && r.joinsName():
			r.out = append(r.out, '_')
			r.pos++
		default:
			r.copy(1)
		}
	}
	return string(r.out)
}

type rewriter struct {
	src string
	pos int
	out []byte
}

// peek returns the byte off positions ahead, or 0 past the end.
func (r *rewriter) peek(off int) byte {
	if i := r.pos + off; i < len(r.src) {
		return r.src[i]
	}
	return 0
}

func (r *rewriter) copy(n int) {
	end := min(r.pos+n, len(r.src))
	r.out = append(r.out, r.src[r.pos:end]...)
	r.pos = end
}

// quoted copies a string literal through its closing quote. Backslash
// escapes only apply inside double quotes.
func (r *rewriter) quoted(q byte) {
	r.copy(1)
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == q:
			r.copy(1)
			return
		case c == '\\' && q == '"':
			r.copy(2)
		default:
			r.copy(1)
		}
	}
}

// lispComment turns a run of semicolons into // and copies the comment text.
func (r *rewriter) lispComment() {
	for r.pos < len(r.src) && r.src[r.pos] == ';' {
		r.pos++
	}
	r.out = append(r.out, '/', '/')
	r.toEOL()
}

func (r *rewriter) toEOL() {
	start := r.pos
	for r.pos < len(r.src) && r.src[r.pos] != '\n' {
		r.pos++
	}
	r.out = append(r.out, r.src[start:r.pos]...)
}

// keyword rewrites :name at the cursor into a prefixed string literal.
func (r *rewriter) keyword() {
	start := r.pos + 1
	end := start
	for end < len(r.src) && isKeywordByte(r.src[end]) {
		end++
	}
	r.out = append(r.out, '"')
	r.out = append(r.out, kwPrefix...)
	r.out = append(r.out, r.src[start:end]...)
	r.out = append(r.out, '"')
	r.pos = end
}

// joinsName reports whether the hyphen at the cursor sits inside a name,
// as in fence-posts, rather than acting as minus in (- a 1) or -2.
func (r *rewriter) joinsName() bool {
	return r.pos > 0 && isNameByte(r.src[r.pos-1]) && isAlpha(r.peek(1))
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isNameByte(c byte) bool { return isAlpha(c) || '0' <= c && c <= '9' || c == '_' }

func isKeywordByte(c byte) bool { return isNameByte(c) || c == '-' }
