package internal

import (
	"bufio"
	"io"
	"unicode"

	"github.com/xiaobogaga/tickc/util"
)

// A simple Tokenizer for tick.

// Tick language has those elements:
// * KeyWord: template, module, init, every, on, if, else, while, for, from, to, step, break,
// 			continue, return, delay, until, start, stop, set, read, sleep, usleep, true, false
// 			and the type names (Int, Float, String, Bool, Time, Void, pins ...).
// * Symbol: {, }, (, ), [, ], ,, ;, +, -, *, /, %, !, <, >, =, ==, !=, <=, >=, &&, ||, +=, -=,
// 			*=, /=, %=.
// * Constant: integer, float, string ("xxx"), time (1000ms, 1.5s), pin (D13, A0).
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: /**/, //.

type TokenType int

const (
	TemplateTP                 TokenType = iota // template
	ModuleTP                                    // module
	InitTP                                      // init
	EveryTP                                     // every
	OnTP                                        // on
	IfTP                                        // if
	ElseTP                                      // else
	WhileTP                                     // while
	ForTP                                       // for
	FromTP                                      // from
	ToTP                                        // to
	StepTP                                      // step
	BreakTP                                     // break
	ContinueTP                                  // continue
	ReturnTP                                    // return
	DelayTP                                     // delay
	UntilTP                                     // until
	StartTP                                     // start
	StopTP                                      // stop
	SetTP                                       // set
	ReadTP                                      // read
	SleepTP                                     // sleep
	USleepTP                                    // usleep
	TrueTP                                      // true
	FalseTP                                     // false
	TypeNameTP                                  // Int, Float, DigitalOutputPin ...
	LeftBraceTP                                 // {
	RightBraceTP                                // }
	LeftParentThesesTP                          // (
	RightParentThesesTP                         // )
	LeftSquareBracketTP                         // [
	RightSquareBracketTP                        // ]
	CommaTP                                     // ,
	SemiColonTP                                 // ;
	AddTP                                       // +
	MinusTP                                     // -
	MultiplyTP                                  // *
	DivideTP                                    // /
	ModTP                                       // %
	AndTP                                       // &&
	OrTP                                        // ||
	GreaterTP                                   // >
	GreaterEqualTP                              // >=
	LessTP                                      // <
	LessEqualTP                                 // <=
	AssignTP                                    // =
	EqualTP                                     // ==
	NotEqualTP                                  // !=
	BooleanNegativeTP                           // !
	AddAssignTP                                 // +=
	MinusAssignTP                               // -=
	MultiplyAssignTP                            // *=
	DivideAssignTP                              // /=
	ModAssignTP                                 // %=
	IntegerTP                                   // 1010
	FloatTP                                     // 3.14
	TimeTP                                      // 1000ms
	PinTP                                       // D13
	StringTP                                    // "xxx"
	IdentifierTP                                // varA
	MultipleLineOpenCommentTP                   // /*
	SingleLineCommentTP                         // //
)

// keyWordTokenTPMap is the mapping from identifier to the corresponding TokenTP.
var keyWordTokenTPMap = map[string]TokenType{
	"template": TemplateTP,
	"module":   ModuleTP,
	"init":     InitTP,
	"every":    EveryTP,
	"on":       OnTP,
	"if":       IfTP,
	"else":     ElseTP,
	"while":    WhileTP,
	"for":      ForTP,
	"from":     FromTP,
	"to":       ToTP,
	"step":     StepTP,
	"break":    BreakTP,
	"continue": ContinueTP,
	"return":   ReturnTP,
	"delay":    DelayTP,
	"until":    UntilTP,
	"start":    StartTP,
	"stop":     StopTP,
	"set":      SetTP,
	"read":     ReadTP,
	"sleep":    SleepTP,
	"usleep":   USleepTP,
	"true":     TrueTP,
	"false":    FalseTP,
}

// simpleSymbolTokenTPMap is the mapping from single character symbols to the corresponding TokenTP.
var simpleSymbolTokenTPMap = map[string]TokenType{
	"{": LeftBraceTP,
	"}": RightBraceTP,
	"(": LeftParentThesesTP,
	")": RightParentThesesTP,
	"[": LeftSquareBracketTP,
	"]": RightSquareBracketTP,
	",": CommaTP,
	";": SemiColonTP,
	"+": AddTP,
	"-": MinusTP,
	"*": MultiplyTP,
	"/": DivideTP,
	"%": ModTP,
	">": GreaterTP,
	"<": LessTP,
	"=": AssignTP,
	"!": BooleanNegativeTP,
}

// doubleSymbolTokenTPMap holds the two character symbols, they are tried first.
var doubleSymbolTokenTPMap = map[string]TokenType{
	"&&": AndTP,
	"||": OrTP,
	">=": GreaterEqualTP,
	"<=": LessEqualTP,
	"==": EqualTP,
	"!=": NotEqualTP,
	"+=": AddAssignTP,
	"-=": MinusAssignTP,
	"*=": MultiplyAssignTP,
	"/=": DivideAssignTP,
	"%=": ModAssignTP,
}

// timeUnits are the suffixes a time literal may carry, longest first.
var timeUnits = []string{"ms", "h", "m", "s"}

type Token struct {
	content  string
	line     int
	startPos int
	endPos   int
	tp       TokenType
}

// Pos returns the 1-based position of the token.
func (t *Token) Pos() Pos {
	return Pos{Line: t.line, Col: t.startPos + 1}
}

type Tokenizer struct {
	currentPos  int
	currentLine int
	tokens      []*Token
	// openComment is where the last /* started.
	openComment Pos
}

// getNextToken returns the next token from line.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) {
		return nil, nil
	}
	switch c := line[tokenizer.currentPos]; {
	case c == '/' && tokenizer.peek(line, 1) == '/':
		return tokenizer.tokenSingleLineComment(line)
	case c == '/' && tokenizer.peek(line, 1) == '*':
		return tokenizer.tokenMultipleLineOpenComment(line)
	case c == '"':
		return tokenizer.tokenString(line)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line)
	case util.IsLetterOrUnderscore(c):
		return tokenizer.toKeywordOrIdentifier(line)
	default:
		return tokenizer.tokenSymbol(line)
	}
}

func (tokenizer *Tokenizer) peek(line []byte, offset int) byte {
	if tokenizer.currentPos+offset >= len(line) {
		return 0
	}
	return line[tokenizer.currentPos+offset]
}

// trimSpace will step forward through line and skip all continuous space.
func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) {
		l := line[tokenizer.currentPos]
		if unicode.IsSpace(rune(l)) {
			tokenizer.currentPos++
			continue
		}
		break
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

func (tokenizer *Tokenizer) tokenSymbol(line []byte) (*Token, error) {
	if tokenizer.currentPos+1 < len(line) {
		symbol := string(line[tokenizer.currentPos : tokenizer.currentPos+2])
		if tp, ok := doubleSymbolTokenTPMap[symbol]; ok {
			return tokenizer.makeToken(symbol, tp, 2), nil
		}
	}
	symbol := string(line[tokenizer.currentPos])
	tp, ok := simpleSymbolTokenTPMap[symbol]
	if !ok {
		return nil, tokenizer.makeError("unexpected character %q", symbol)
	}
	return tokenizer.makeToken(symbol, tp, 1), nil
}

func (tokenizer *Tokenizer) makeToken(content string, tp TokenType, width int) *Token {
	token := &Token{
		content:  content,
		line:     tokenizer.currentLine,
		tp:       tp,
		startPos: tokenizer.currentPos,
		endPos:   tokenizer.currentPos + width,
	}
	tokenizer.currentPos += width
	return token
}

func (tokenizer *Tokenizer) tokenSingleLineComment(line []byte) (*Token, error) {
	return tokenizer.makeToken(string(line[tokenizer.currentPos:]), SingleLineCommentTP,
		len(line)-tokenizer.currentPos), nil
}

func (tokenizer *Tokenizer) tokenMultipleLineOpenComment(line []byte) (*Token, error) {
	return tokenizer.makeToken("/*", MultipleLineOpenCommentTP, 2), nil
}

func (tokenizer *Tokenizer) tokenString(line []byte) (*Token, error) {
	// Looking forward through line to find a closing quote.
	startPos := tokenizer.currentPos
	tokenizer.currentPos++
	foundClosingQuote := false
	for tokenizer.currentPos < len(line) {
		if line[tokenizer.currentPos] == '\\' {
			tokenizer.currentPos += 2
			continue
		}
		if line[tokenizer.currentPos] == '"' {
			tokenizer.currentPos++
			foundClosingQuote = true
			break
		}
		tokenizer.currentPos++
	}
	// If cannot find an closing quote, then string format is not correct.
	if !foundClosingQuote {
		tokenizer.currentPos = startPos
		return nil, tokenizer.makeError("incorrect string format")
	}
	return &Token{
		content:  string(line[startPos+1 : tokenizer.currentPos-1]),
		line:     tokenizer.currentLine,
		startPos: startPos,
		endPos:   tokenizer.currentPos,
		tp:       StringTP,
	}, nil
}

// tokenNumber reads an integer, a float or a time literal such as 1.5s.
func (tokenizer *Tokenizer) tokenNumber(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	tp := IntegerTP
	for tokenizer.currentPos < len(line) {
		c := line[tokenizer.currentPos]
		if util.IsNumber(c) {
			tokenizer.currentPos++
			continue
		}
		if c == '.' && tp == IntegerTP && util.IsNumber(tokenizer.peek(line, 1)) {
			tp = FloatTP
			tokenizer.currentPos++
			continue
		}
		break
	}
	for _, unit := range timeUnits {
		end := tokenizer.currentPos + len(unit)
		if end > len(line) || string(line[tokenizer.currentPos:end]) != unit {
			continue
		}
		// 5min is not a time literal.
		if end < len(line) && util.IsLetterOrUnderscoreOrNumber(line[end]) {
			continue
		}
		tokenizer.currentPos, tp = end, TimeTP
		break
	}
	if tokenizer.currentPos < len(line) && util.IsLetterOrUnderscore(line[tokenizer.currentPos]) {
		tokenizer.currentPos = startPos
		return nil, tokenizer.makeError("incorrect number format")
	}
	return &Token{
		content:  string(line[startPos:tokenizer.currentPos]),
		line:     tokenizer.currentLine,
		tp:       tp,
		startPos: startPos,
		endPos:   tokenizer.currentPos,
	}, nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) (*Token, error) {
	// Look forward to find a continuous characters.
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) {
		if util.IsLetterOrUnderscoreOrNumber(line[tokenizer.currentPos]) {
			tokenizer.currentPos++
			continue
		}
		break
	}
	content := string(line[startPos:tokenizer.currentPos])
	token := &Token{
		content:  content,
		line:     tokenizer.currentLine,
		tp:       IdentifierTP,
		startPos: startPos,
		endPos:   tokenizer.currentPos,
	}
	if keyWordTP, isKeyWord := keyWordTokenTPMap[content]; isKeyWord {
		token.tp = keyWordTP
	} else if _, isType := typeKeywords[content]; isType {
		token.tp = TypeNameTP
	} else if isPinLiteral(content) {
		token.tp = PinTP
	}
	return token, nil
}

func isPinLiteral(content string) bool {
	return len(content) > 1 && (content[0] == 'D' || content[0] == 'A') && util.IsAllNumber(content[1:])
}

func (tokenizer *Tokenizer) makeError(format string, args ...interface{}) error {
	return newDiagnostic(SyntaxError, Pos{Line: tokenizer.currentLine, Col: tokenizer.currentPos + 1},
		"tokenizer: "+format, args...)
}

// Tokenize accepts a source `rd` and tokenizes its content according to tick language rules.
// This method is the main method of this tokenizer.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) (tokens []*Token, err error) {
	bfReader := bufio.NewReader(rd)
	tokenizer.currentLine = 0
	for {
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		line, readErr := bfReader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, readErr
		}
		for tokenizer.currentPos < len(line) {
			match, err := tokenizer.parseLine(line)
			if err != nil {
				return nil, err
			}
			line, err = tokenizer.lookForwardForMatchingMultipleLineComment(bfReader, line, !match)
			if err != nil {
				return nil, err
			}
		}
		if readErr == io.EOF {
			return tokenizer.tokens, nil
		}
	}
}

func (tokenizer *Tokenizer) parseLine(line []byte) (bool, error) {
	for {
		token, err := tokenizer.getNextToken(line)
		if err != nil {
			return true, err
		}
		if token == nil {
			return true, nil
		}
		switch token.tp {
		case MultipleLineOpenCommentTP:
			tokenizer.openComment = token.Pos()
			match := tokenizer.lookForwardForMatchingMultipleLineCommentAtCurrentLine(line)
			if !match {
				return false, nil
			}
			continue
		case SingleLineCommentTP:
			return true, nil
		default:
			tokenizer.tokens = append(tokenizer.tokens, token)
		}
	}
}

// lookForwardForMatchingMultipleLineComment reads lines until the open comment is closed. It
// returns the line holding the closing */ with currentPos right after it.
func (tokenizer *Tokenizer) lookForwardForMatchingMultipleLineComment(bfReader *bufio.Reader, line []byte, needFindMatch bool) ([]byte, error) {
	if !needFindMatch {
		return line, nil
	}
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		if tokenizer.lookForwardForMatchingMultipleLineCommentAtCurrentLine(line) {
			return line, nil
		}
		if err == io.EOF {
			return nil, newDiagnostic(SyntaxError, tokenizer.openComment, "tokenizer: incorrect comment format")
		}
	}
}

func (tokenizer *Tokenizer) lookForwardForMatchingMultipleLineCommentAtCurrentLine(line []byte) bool {
	for tokenizer.currentPos < len(line) {
		// If it's */
		if tokenizer.currentPos < len(line)-1 && line[tokenizer.currentPos] == '*' &&
			line[tokenizer.currentPos+1] == '/' {
			tokenizer.currentPos += 2
			return true
		}
		// Otherwise we look forward.
		tokenizer.currentPos++
	}
	return false
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine = 0, 0
	tokenizer.tokens = nil
}
