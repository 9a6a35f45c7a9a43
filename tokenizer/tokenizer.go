// Package tokenizer turns Oniguruma pattern source into a linear token
// stream. Tokens are emitted in source order; escapes, group openers,
// quantifiers and class punctuation are classified here. Numeric escapes
// and relative references are resolved against the running capture
// count, and unnamed groups are downgraded when a named group exists;
// reference validation and AST construction are left to the parser.
package tokenizer

import (
	"strconv"
	"strings"

	"github.com/onigkit/onigkit/ast"
)

// maxRepeatCount is Oniguruma's bound on interval quantifiers.
const maxRepeatCount = 100000

// Options control tokenization.
type Options struct {
	// Flags is the initial flag string, e.g. "imx".
	Flags string
	// CaptureGroup makes unnamed groups capturing even when named
	// groups are present (ONIG_OPTION_CAPTURE_GROUP).
	CaptureGroup bool
	// Singleline makes `.` match newline and turns `^`/`$` into
	// string anchors (ONIG_OPTION_SINGLELINE).
	Singleline bool
}

// Result is a finished token stream plus the derived flag record.
type Result struct {
	Tokens         []Token
	Flags          *ast.Flags
	HasNumberedRef bool
	HasNamedGroup  bool
}

// ParseFlags parses a flag string into a flag record.
func ParseFlags(flags string) (*ast.Flags, error) {
	f := &ast.Flags{}
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case 'i':
			f.IgnoreCase = true
		case 'm':
			f.DotAll = true
		case 'x':
			f.Extended = true
		case 'D':
			f.DigitIsAscii = true
		case 'S':
			f.SpaceIsAscii = true
		case 'W':
			f.WordIsAscii = true
		case 'P':
			f.PosixIsAscii = true
		case 'y':
			rest := flags[i+1:]
			switch {
			case strings.HasPrefix(rest, "{g}"):
				f.TextSegmentMode = "grapheme"
			case strings.HasPrefix(rest, "{w}"):
				f.TextSegmentMode = "word"
			default:
				return nil, ast.Syntaxf("invalid text segment flag in %q", flags)
			}
			i += 3
		default:
			return nil, ast.Syntaxf("invalid flag %q", string(flags[i]))
		}
	}
	return f, nil
}

type lexer struct {
	src  source
	opts *Options

	flags  *ast.Flags
	tokens []Token

	capCount   int
	classDepth int
	classFresh bool
	// xStack tracks the extended-mode state per open group; flag
	// directives rewrite the top entry.
	xStack []bool

	hasNumberedRef bool
	hasNamedGroup  bool
}

// Tokenize lexes the pattern under the given options.
func Tokenize(pattern string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	flags, err := ParseFlags(opts.Flags)
	if err != nil {
		return nil, err
	}
	if opts.Singleline {
		flags.DotAll = true
	}

	l := &lexer{opts: opts, flags: flags, xStack: []bool{flags.Extended}}
	l.src.init(pattern)

	for !l.src.empty() {
		if l.classDepth == 0 && l.extended() && l.skipExtended() {
			continue
		}
		start := l.src.tell()
		if l.classDepth > 0 {
			err = l.lexClassToken(start)
		} else {
			err = l.lexToken(start)
		}
		if err != nil {
			return nil, err
		}
	}

	if l.classDepth > 0 {
		return nil, ast.Syntaxf("unclosed character class")
	}
	if len(l.xStack) > 1 {
		return nil, ast.Syntaxf("unclosed group")
	}

	// Unnamed groups stop capturing once any named group exists,
	// unless the capture-group rule keeps them.
	if l.hasNamedGroup && !opts.CaptureGroup {
		for i := range l.tokens {
			t := &l.tokens[i]
			if t.Type == TypeGroupOpen && t.GroupKind == GroupCapturing && t.Name == "" {
				t.GroupKind = GroupNonCapturing
			}
		}
	}

	return &Result{
		Tokens:         l.tokens,
		Flags:          l.flags,
		HasNumberedRef: l.hasNumberedRef,
		HasNamedGroup:  l.hasNamedGroup,
	}, nil
}

func (l *lexer) extended() bool {
	return l.xStack[len(l.xStack)-1]
}

func (l *lexer) pushGroup(extended bool) {
	l.xStack = append(l.xStack, extended)
}

func (l *lexer) emit(start int, t Token) {
	t.Raw = l.src.raw(start)
	l.tokens = append(l.tokens, t)
	if l.classDepth > 0 {
		l.classFresh = t.Type == TypeCharacterClassOpen
	}
}

// skipExtended consumes free-spacing whitespace and # comments.
func (l *lexer) skipExtended() bool {
	c, _ := l.src.peek()
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		l.src.read()
		return true
	case '#':
		if !l.src.skipUntil('\n') {
			l.src.cur = ""
		}
		return true
	}
	return false
}

func (l *lexer) lexToken(start int) error {
	c, _ := l.src.read()
	switch c {
	case '\\':
		return l.lexEscape(start, false)
	case '[':
		negate := l.src.match('^')
		l.classDepth++
		l.emit(start, Token{Type: TypeCharacterClassOpen, Negate: negate})
		return nil
	case '(':
		return l.lexGroupOpen(start)
	case ')':
		if len(l.xStack) == 1 {
			return ast.Syntaxf("unmatched )")
		}
		l.xStack = l.xStack[:len(l.xStack)-1]
		l.emit(start, Token{Type: TypeGroupClose})
		return nil
	case '|':
		l.emit(start, Token{Type: TypeAlternator})
		return nil
	case '^':
		kind := ast.AssertLineStart
		if l.opts.Singleline {
			kind = ast.AssertStringStart
		}
		l.emit(start, Token{Type: TypeAssertion, AssertKind: kind})
		return nil
	case '$':
		kind := ast.AssertLineEnd
		if l.opts.Singleline {
			kind = ast.AssertStringEndNewline
		}
		l.emit(start, Token{Type: TypeAssertion, AssertKind: kind})
		return nil
	case '.':
		l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetDot})
		return nil
	case '?':
		l.emitQuantifier(start, 0, 1)
		return nil
	case '*':
		l.emitQuantifier(start, 0, ast.InfinityMax)
		return nil
	case '+':
		l.emitQuantifier(start, 1, ast.InfinityMax)
		return nil
	case '{':
		return l.lexInterval(start)
	default:
		l.emit(start, Token{Type: TypeCharacter, Value: c})
		return nil
	}
}

func (l *lexer) emitQuantifier(start, min, max int) {
	kind := ast.Greedy
	if l.src.match('?') {
		kind = ast.Lazy
	} else if l.src.match('+') {
		kind = ast.Possessive
	}
	l.emit(start, Token{Type: TypeQuantifier, Min: min, Max: max, QuantKind: kind})
}

// lexInterval lexes {n}, {n,}, {n,m} and {,m}. Anything else is a
// literal brace.
func (l *lexer) lexInterval(start int) error {
	saved := l.src.cur
	lo := l.src.nextDigits(6)
	sep := l.src.match(',')
	hi := lo
	if sep {
		hi = l.src.nextDigits(6)
	}
	if (lo == "" && hi == "") || !l.src.match('}') {
		l.src.cur = saved
		l.emit(start, Token{Type: TypeCharacter, Value: '{'})
		return nil
	}

	min := 0
	max := ast.InfinityMax
	if lo != "" {
		n, err := strconv.Atoi(lo)
		if err != nil || n > maxRepeatCount {
			return ast.Syntaxf("repeat count %s too large", lo)
		}
		min = n
	}
	if hi != "" {
		n, err := strconv.Atoi(hi)
		if err != nil || n > maxRepeatCount {
			return ast.Syntaxf("repeat count %s too large", hi)
		}
		max = n
	}
	l.emitQuantifier(start, min, max)
	return nil
}

func (l *lexer) lexClassToken(start int) error {
	c, _ := l.src.read()
	switch c {
	case '\\':
		return l.lexEscape(start, true)
	case '[':
		if tok, ok, err := l.lexPosixBracket(); err != nil {
			return err
		} else if ok {
			l.emit(start, tok)
			return nil
		}
		negate := l.src.match('^')
		l.classDepth++
		l.emit(start, Token{Type: TypeCharacterClassOpen, Negate: negate})
		return nil
	case ']':
		if l.classFresh {
			return ast.Syntaxf("empty character class")
		}
		l.classDepth--
		l.emit(start, Token{Type: TypeCharacterClassClose})
		return nil
	case '&':
		if l.src.match('&') {
			l.emit(start, Token{Type: TypeCharacterClassIntersector})
			return nil
		}
		l.emit(start, Token{Type: TypeCharacter, Value: '&'})
		return nil
	case '-':
		l.emit(start, Token{Type: TypeCharacterClassHyphen, Value: '-'})
		return nil
	default:
		l.emit(start, Token{Type: TypeCharacter, Value: c})
		return nil
	}
}

// lexPosixBracket recognizes [:name:] and [:^name:] after a consumed
// '['. It leaves the cursor untouched when the text is not a POSIX
// bracket, so the '[' can open a nested class instead.
func (l *lexer) lexPosixBracket() (Token, bool, error) {
	rest := l.src.cur
	if !strings.HasPrefix(rest, ":") {
		return Token{}, false, nil
	}
	body := rest[1:]
	negate := strings.HasPrefix(body, "^")
	if negate {
		body = body[1:]
	}
	end := strings.Index(body, ":]")
	if end < 0 {
		return Token{}, false, nil
	}
	name := body[:end]
	for _, r := range name {
		if r < 'a' || r > 'z' {
			return Token{}, false, nil
		}
	}
	if name == "" {
		return Token{}, false, nil
	}
	consumed := 1 + end + 2
	if negate {
		consumed++
	}
	l.src.cur = l.src.cur[consumed:]
	return Token{Type: TypeCharacterSet, SetKind: ast.SetPosix, Name: name, Negate: negate}, true, nil
}

func (l *lexer) lexEscape(start int, inClass bool) error {
	c, ok := l.src.read()
	if !ok {
		return ast.Syntaxf("pattern ends with a trailing backslash")
	}

	if !inClass {
		switch c {
		case 'A':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertStringStart})
			return nil
		case 'z':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertStringEnd})
			return nil
		case 'Z':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertStringEndNewline})
			return nil
		case 'G':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertSearchStart})
			return nil
		case 'b', 'B':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertWordBoundary, Negate: c == 'B'})
			return nil
		case 'y', 'Y':
			l.emit(start, Token{Type: TypeAssertion, AssertKind: ast.AssertGraphemeBoundary, Negate: c == 'Y'})
			return nil
		case 'K':
			l.emit(start, Token{Type: TypeDirective, DirKind: ast.DirectiveKeep})
			return nil
		case 'k':
			return l.lexBackreference(start)
		case 'g':
			return l.lexSubroutine(start)
		case 'R':
			l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetNewline})
			return nil
		case 'N':
			l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetNewline, Negate: true})
			return nil
		case 'O':
			l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetAny})
			return nil
		case 'X':
			l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetGrapheme})
			return nil
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return l.lexNumericEscape(start, c)
		}
	} else {
		switch c {
		case 'b':
			l.emit(start, Token{Type: TypeCharacter, Value: 0x08})
			return nil
		case '1', '2', '3', '4', '5', '6', '7':
			digits := string(c) + l.src.nextOct(2)
			value, _ := strconv.ParseInt(digits, 8, 32)
			l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
			return nil
		case '8', '9':
			return ast.Syntaxf(`invalid escape \%c in character class`, c)
		case 'A', 'z', 'Z', 'G', 'y', 'Y', 'K', 'k', 'g', 'R', 'N', 'O', 'X':
			return ast.Syntaxf(`escape \%c is not valid in a character class`, c)
		}
	}

	switch c {
	case 'd', 'D':
		l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetDigit, Negate: c == 'D'})
	case 'h', 'H':
		l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetHex, Negate: c == 'H'})
	case 's', 'S':
		l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetSpace, Negate: c == 'S'})
	case 'w', 'W':
		l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetWord, Negate: c == 'W'})
	case 'p', 'P':
		return l.lexProperty(start, c == 'P')
	case 'n':
		l.emit(start, Token{Type: TypeCharacter, Value: '\n'})
	case 't':
		l.emit(start, Token{Type: TypeCharacter, Value: '\t'})
	case 'r':
		l.emit(start, Token{Type: TypeCharacter, Value: '\r'})
	case 'f':
		l.emit(start, Token{Type: TypeCharacter, Value: '\f'})
	case 'v':
		l.emit(start, Token{Type: TypeCharacter, Value: '\v'})
	case 'a':
		l.emit(start, Token{Type: TypeCharacter, Value: 0x07})
	case 'e':
		l.emit(start, Token{Type: TypeCharacter, Value: 0x1B})
	case '0':
		digits := "0" + l.src.nextOct(2)
		value, _ := strconv.ParseInt(digits, 8, 32)
		l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
	case 'x':
		return l.lexHexEscape(start)
	case 'u':
		digits := l.src.nextHex(4)
		if len(digits) != 4 {
			return ast.Syntaxf(`invalid \u escape, expected 4 hex digits`)
		}
		value, _ := strconv.ParseInt(digits, 16, 32)
		l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
	case 'o':
		if !l.src.match('{') {
			return ast.Syntaxf(`expected { after \o`)
		}
		digits := l.src.nextOct(7)
		if digits == "" || !l.src.match('}') {
			return ast.Syntaxf(`invalid \o{...} escape`)
		}
		value, err := strconv.ParseInt(digits, 8, 32)
		if err != nil || value > 0x13FFFF {
			return ast.Syntaxf("octal code point %s out of range", digits)
		}
		l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
	case 'c', 'C':
		return l.lexControlEscape(start, c)
	case 'M':
		return ast.Featuref("meta escapes are not supported")
	case 'Q', 'E':
		return ast.Featuref(`quoting with \Q...\E is not supported`)
	default:
		if isWordChar(c) {
			return ast.Syntaxf(`invalid escape \%c`, c)
		}
		l.emit(start, Token{Type: TypeCharacter, Value: c})
	}
	return nil
}

func isWordChar(c rune) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func (l *lexer) lexHexEscape(start int) error {
	if l.src.match('{') {
		digits := l.src.nextHex(6)
		if digits == "" || !l.src.match('}') {
			return ast.Syntaxf(`invalid \x{...} escape`)
		}
		value, err := strconv.ParseInt(digits, 16, 32)
		if err != nil || value > 0x13FFFF {
			return ast.Syntaxf("code point %s out of range", digits)
		}
		l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
		return nil
	}
	digits := l.src.nextHex(2)
	if digits == "" {
		return ast.Syntaxf(`invalid \x escape, expected hex digits`)
	}
	value, _ := strconv.ParseInt(digits, 16, 32)
	l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
	return nil
}

func (l *lexer) lexControlEscape(start int, c rune) error {
	if c == 'C' && !l.src.match('-') {
		return ast.Syntaxf(`expected - after \C`)
	}
	target, ok := l.src.read()
	if !ok {
		return ast.Syntaxf("unterminated control escape")
	}
	if target == '\\' {
		target, ok = l.src.read()
		if !ok {
			return ast.Syntaxf("unterminated control escape")
		}
	}
	l.emit(start, Token{Type: TypeCharacter, Value: target & 0x1F})
	return nil
}

func (l *lexer) lexProperty(start int, negate bool) error {
	if !l.src.match('{') {
		return ast.Syntaxf(`expected { after \p`)
	}
	if l.src.match('^') {
		negate = !negate
	}
	name, ok := l.src.getUntil('}')
	if !ok {
		return ast.Syntaxf("unterminated Unicode property name")
	}
	if name == "" {
		return ast.Syntaxf("empty Unicode property name")
	}
	l.emit(start, Token{Type: TypeCharacterSet, SetKind: ast.SetProperty, Name: name, Negate: negate})
	return nil
}

// lexNumericEscape resolves \n..\nnn to a backreference when that many
// capturing groups were opened to its left, falling back to an octal
// character escape.
func (l *lexer) lexNumericEscape(start int, first rune) error {
	digits := string(first) + l.src.nextDigits(2)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return ast.Syntaxf(`invalid numeric escape \%s`, digits)
	}
	if n <= l.capCount {
		l.hasNumberedRef = true
		l.emit(start, Token{Type: TypeBackreference, Ref: n})
		return nil
	}
	if strings.ContainsAny(digits, "89") {
		return ast.Syntaxf(`invalid escape \%s: group %d is not defined`, digits, n)
	}
	value, _ := strconv.ParseInt(digits, 8, 32)
	l.emit(start, Token{Type: TypeCharacter, Value: rune(value)})
	return nil
}

// refBody reads the <...> or '...' body of a \k or \g form.
func (l *lexer) refBody(kind string) (string, error) {
	var end rune
	switch {
	case l.src.match('<'):
		end = '>'
	case l.src.match('\''):
		end = '\''
	default:
		return "", ast.Syntaxf(`expected <...> or '...' after \%s`, kind)
	}
	body, ok := l.src.getUntil(end)
	if !ok {
		return "", ast.Syntaxf(`unterminated \%s reference`, kind)
	}
	if body == "" {
		return "", ast.Syntaxf(`empty \%s reference`, kind)
	}
	return body, nil
}

func (l *lexer) lexBackreference(start int) error {
	body, err := l.refBody("k")
	if err != nil {
		return err
	}
	if isAllDigits(body) {
		n, err := strconv.Atoi(body)
		if err != nil || n < 1 {
			return ast.Syntaxf("invalid backreference number %q", body)
		}
		l.hasNumberedRef = true
		l.emit(start, Token{Type: TypeBackreference, Ref: n})
		return nil
	}
	if strings.HasPrefix(body, "-") && isAllDigits(body[1:]) {
		rel, err := strconv.Atoi(body[1:])
		if err != nil || rel < 1 {
			return ast.Syntaxf("invalid relative backreference %q", body)
		}
		n := l.capCount - rel + 1
		if n < 1 {
			return ast.Referencef("relative backreference %q resolves before group 1", body)
		}
		l.hasNumberedRef = true
		l.emit(start, Token{Type: TypeBackreference, Ref: n})
		return nil
	}
	if strings.HasPrefix(body, "+") {
		return ast.Featuref("forward relative backreferences are not supported")
	}
	if strings.ContainsAny(body, "+-") {
		return ast.Featuref("backreferences with recursion levels are not supported")
	}
	l.emit(start, Token{Type: TypeBackreference, Name: body, ByName: true})
	return nil
}

func (l *lexer) lexSubroutine(start int) error {
	body, err := l.refBody("g")
	if err != nil {
		return err
	}
	switch {
	case isAllDigits(body):
		n, _ := strconv.Atoi(body)
		l.emit(start, Token{Type: TypeSubroutine, Ref: n})
	case strings.HasPrefix(body, "+") && isAllDigits(body[1:]):
		rel, err := strconv.Atoi(body[1:])
		if err != nil || rel < 1 {
			return ast.Syntaxf("invalid relative subroutine %q", body)
		}
		l.emit(start, Token{Type: TypeSubroutine, Ref: l.capCount + rel})
	case strings.HasPrefix(body, "-") && isAllDigits(body[1:]):
		rel, err := strconv.Atoi(body[1:])
		if err != nil || rel < 1 {
			return ast.Syntaxf("invalid relative subroutine %q", body)
		}
		n := l.capCount - rel + 1
		if n < 1 {
			return ast.Referencef("relative subroutine %q resolves before group 1", body)
		}
		l.emit(start, Token{Type: TypeSubroutine, Ref: n})
	case strings.ContainsAny(body, "+-"):
		return ast.Featuref("invalid subroutine name %q", body)
	default:
		l.emit(start, Token{Type: TypeSubroutine, Name: body, ByName: true})
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func (l *lexer) lexGroupOpen(start int) error {
	if !l.src.match('?') {
		l.capCount++
		l.pushGroup(l.extended())
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupCapturing})
		return nil
	}

	c, ok := l.src.read()
	if !ok {
		return ast.Syntaxf("unterminated group")
	}
	switch c {
	case '#':
		return l.skipComment()
	case ':':
		l.pushGroup(l.extended())
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupNonCapturing})
		return nil
	case '>':
		l.pushGroup(l.extended())
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupAtomic})
		return nil
	case '=', '!':
		l.pushGroup(l.extended())
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupLookahead, Negate: c == '!'})
		return nil
	case '<':
		if l.src.match('=') {
			l.pushGroup(l.extended())
			l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupLookbehind})
			return nil
		}
		if l.src.match('!') {
			l.pushGroup(l.extended())
			l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupLookbehind, Negate: true})
			return nil
		}
		return l.lexNamedGroup(start, '>')
	case '\'':
		return l.lexNamedGroup(start, '\'')
	case '~':
		if next, _ := l.src.peek(); next == '|' {
			return ast.Featuref("absent functions other than the repeater form are not supported")
		}
		l.pushGroup(l.extended())
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupAbsentRepeater})
		return nil
	default:
		return l.lexFlagGroup(start, c)
	}
}

func (l *lexer) lexNamedGroup(start int, end rune) error {
	name, ok := l.src.getUntil(end)
	if !ok {
		return ast.Syntaxf("unterminated group name")
	}
	if name == "" {
		return ast.Syntaxf("empty group name")
	}
	l.capCount++
	l.hasNamedGroup = true
	l.pushGroup(l.extended())
	l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupCapturing, Name: name})
	return nil
}

func (l *lexer) skipComment() error {
	for {
		c, ok := l.src.read()
		if !ok {
			return ast.Syntaxf("unterminated comment group")
		}
		switch c {
		case '\\':
			l.src.read()
		case ')':
			return nil
		}
	}
}

// lexFlagGroup lexes (?flags) directives and (?flags:...) groups, with
// `first` being the character after "(?".
func (l *lexer) lexFlagGroup(start int, first rune) error {
	enable := &ast.FlagSet{}
	disable := &ast.FlagSet{}
	target := enable

	c := first
	for {
		switch c {
		case 'i':
			target.IgnoreCase = true
		case 'm':
			target.DotAll = true
		case 'x':
			target.Extended = true
		case 'D':
			target.DigitIsAscii = true
		case 'S':
			target.SpaceIsAscii = true
		case 'W':
			target.WordIsAscii = true
		case 'P':
			target.PosixIsAscii = true
		case '-':
			if target == disable {
				return ast.Syntaxf("repeated - in group options")
			}
			target = disable
		case ':', ')':
			return l.finishFlagGroup(start, enable, disable, c)
		default:
			return ast.Syntaxf("invalid group option %q", string(c))
		}
		var ok bool
		c, ok = l.src.read()
		if !ok {
			return ast.Syntaxf("unterminated group options")
		}
	}
}

func (l *lexer) finishFlagGroup(start int, enable, disable *ast.FlagSet, terminator rune) error {
	if enable.IsZero() {
		enable = nil
	}
	if disable.IsZero() {
		disable = nil
	}
	mods := &ast.FlagGroupModifiers{Enable: enable, Disable: disable}

	extended := l.extended()
	if enable != nil && enable.Extended {
		extended = true
	}
	if disable != nil && disable.Extended {
		extended = false
	}

	if terminator == ':' {
		l.pushGroup(extended)
		l.emit(start, Token{Type: TypeGroupOpen, GroupKind: GroupNonCapturing, Flags: mods})
		return nil
	}
	if mods.IsZero() {
		return ast.Syntaxf("empty group options")
	}
	l.xStack[len(l.xStack)-1] = extended
	l.emit(start, Token{Type: TypeDirective, DirKind: ast.DirectiveFlags, Flags: mods})
	return nil
}
