package ast

// Operator is a binary, boolean, unary or comparison operator.
type Operator uint8

const (
	OpNone Operator = iota

	// Binary arithmetic.
	OpAdd
	OpSub
	OpMult
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpMatMult
	OpLShift
	OpRShift
	OpBitOr
	OpBitXor
	OpBitAnd

	// Boolean.
	OpAnd
	OpOr

	// Unary.
	OpNot
	OpInvert
	OpUAdd
	OpUSub

	// Comparison.
	OpEq
	OpNotEq
	OpLt
	OpLtE
	OpGt
	OpGtE
	OpIs
	OpIsNot
	OpIn
	OpNotIn

	opCount
)

var opNames = [opCount]string{
	OpNone:     "",
	OpAdd:      "Add",
	OpSub:      "Sub",
	OpMult:     "Mult",
	OpDiv:      "Div",
	OpFloorDiv: "FloorDiv",
	OpMod:      "Mod",
	OpPow:      "Pow",
	OpMatMult:  "MatMult",
	OpLShift:   "LShift",
	OpRShift:   "RShift",
	OpBitOr:    "BitOr",
	OpBitXor:   "BitXor",
	OpBitAnd:   "BitAnd",
	OpAnd:      "And",
	OpOr:       "Or",
	OpNot:      "Not",
	OpInvert:   "Invert",
	OpUAdd:     "UAdd",
	OpUSub:     "USub",
	OpEq:       "Eq",
	OpNotEq:    "NotEq",
	OpLt:       "Lt",
	OpLtE:      "LtE",
	OpGt:       "Gt",
	OpGtE:      "GtE",
	OpIs:       "Is",
	OpIsNot:    "IsNot",
	OpIn:       "In",
	OpNotIn:    "NotIn",
}

func (o Operator) String() string {
	if o >= opCount {
		return "Invalid"
	}
	return opNames[o]
}

// IsArithmetic reports whether o is one of the four basic arithmetic
// operators: +, -, * or /.
func (o Operator) IsArithmetic() bool {
	return o == OpAdd || o == OpSub || o == OpMult || o == OpDiv
}

var binaryTokens = map[string]Operator{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMult,
	"/":  OpDiv,
	"//": OpFloorDiv,
	"%":  OpMod,
	"**": OpPow,
	"@":  OpMatMult,
	"<<": OpLShift,
	">>": OpRShift,
	"|":  OpBitOr,
	"^":  OpBitXor,
	"&":  OpBitAnd,
}

var compareTokens = map[string]Operator{
	"==":     OpEq,
	"!=":     OpNotEq,
	"<>":     OpNotEq,
	"<":      OpLt,
	"<=":     OpLtE,
	">":      OpGt,
	">=":     OpGtE,
	"is":     OpIs,
	"is not": OpIsNot,
	"in":     OpIn,
	"not in": OpNotIn,
}

var unaryTokens = map[string]Operator{
	"not": OpNot,
	"~":   OpInvert,
	"+":   OpUAdd,
	"-":   OpUSub,
}

// BinaryOperator maps a binary or augmented-assignment token ("+", "+=")
// to its operator.
func BinaryOperator(tok string) (Operator, bool) {
	if len(tok) > 1 && tok[len(tok)-1] == '=' {
		if op, ok := binaryTokens[tok[:len(tok)-1]]; ok {
			return op, true
		}
	}
	op, ok := binaryTokens[tok]
	return op, ok
}

// CompareOperator maps a comparison token to its operator.
func CompareOperator(tok string) (Operator, bool) {
	op, ok := compareTokens[tok]
	return op, ok
}

// UnaryOperator maps a unary token to its operator.
func UnaryOperator(tok string) (Operator, bool) {
	op, ok := unaryTokens[tok]
	return op, ok
}
