package syntax

// ErrorCode describes a failure to parse a regular expression.
type ErrorCode string

const (
	ErrInvalidFlags          ErrorCode = "invalid flags"
	ErrMissingParen          ErrorCode = "missing closing )"
	ErrUnexpectedParen       ErrorCode = "unexpected )"
	ErrMissingBracket        ErrorCode = "missing closing ]"
	ErrInvalidRange          ErrorCode = "invalid character class range"
	ErrInvalidRepeatSize     ErrorCode = "numbers out of order in {} quantifier"
	ErrNothingToRepeat       ErrorCode = "nothing to repeat"
	ErrInvalidEscape         ErrorCode = "invalid escape sequence"
	ErrTrailingBackslash     ErrorCode = "trailing backslash at end of expression"
	ErrInvalidGroup          ErrorCode = "invalid group"
	ErrInvalidGroupName      ErrorCode = "invalid capture group name"
	ErrDuplicateGroupName    ErrorCode = "duplicate capture group name"
	ErrInvalidBackReference  ErrorCode = "invalid named reference"
	ErrInvalidModifiers      ErrorCode = "invalid regular expression modifiers"
	ErrLoneBracket           ErrorCode = "lone quantifier brackets"
	ErrNestingDepth          ErrorCode = "expression nests too deeply"
)

func (e ErrorCode) String() string {
	return string(e)
}

// Error describes a failure to parse a regular expression and gives the
// offending expression.
type Error struct {
	Code ErrorCode
	Expr string
}

func (e *Error) Error() string {
	return "error parsing regexp: " + e.Code.String() + ": `" + e.Expr + "`"
}
