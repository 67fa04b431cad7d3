package ast

// Kind tags the variant a Node represents.
type Kind uint8

const (
	KindOther Kind = iota

	// Module and statements.
	KindModule
	KindFunctionDef
	KindAsyncFunctionDef
	KindClassDef
	KindReturn
	KindDelete
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindFor
	KindAsyncFor
	KindWhile
	KindIf
	KindWith
	KindAsyncWith
	KindMatch
	KindRaise
	KindTry
	KindAssert
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindExpr
	KindPass
	KindBreak
	KindContinue

	// Expressions.
	KindBoolOp
	KindNamedExpr
	KindBinOp
	KindUnaryOp
	KindLambda
	KindIfExp
	KindDict
	KindSet
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindAwait
	KindYield
	KindYieldFrom
	KindCompare
	KindCall
	KindFormattedValue
	KindJoinedStr
	KindConstant
	KindAttribute
	KindSubscript
	KindStarred
	KindName
	KindList
	KindTuple
	KindSlice

	// Auxiliary nodes.
	KindExceptHandler
	KindArguments
	KindArg
	KindKeyword
	KindAlias
	KindWithItem
	KindComprehension
	KindMatchCase

	kindCount
)

var kindNames = [kindCount]string{
	KindOther:            "Other",
	KindModule:           "Module",
	KindFunctionDef:      "FunctionDef",
	KindAsyncFunctionDef: "AsyncFunctionDef",
	KindClassDef:         "ClassDef",
	KindReturn:           "Return",
	KindDelete:           "Delete",
	KindAssign:           "Assign",
	KindAugAssign:        "AugAssign",
	KindAnnAssign:        "AnnAssign",
	KindFor:              "For",
	KindAsyncFor:         "AsyncFor",
	KindWhile:            "While",
	KindIf:               "If",
	KindWith:             "With",
	KindAsyncWith:        "AsyncWith",
	KindMatch:            "Match",
	KindRaise:            "Raise",
	KindTry:              "Try",
	KindAssert:           "Assert",
	KindImport:           "Import",
	KindImportFrom:       "ImportFrom",
	KindGlobal:           "Global",
	KindNonlocal:         "Nonlocal",
	KindExpr:             "Expr",
	KindPass:             "Pass",
	KindBreak:            "Break",
	KindContinue:         "Continue",
	KindBoolOp:           "BoolOp",
	KindNamedExpr:        "NamedExpr",
	KindBinOp:            "BinOp",
	KindUnaryOp:          "UnaryOp",
	KindLambda:           "Lambda",
	KindIfExp:            "IfExp",
	KindDict:             "Dict",
	KindSet:              "Set",
	KindListComp:         "ListComp",
	KindSetComp:          "SetComp",
	KindDictComp:         "DictComp",
	KindGeneratorExp:     "GeneratorExp",
	KindAwait:            "Await",
	KindYield:            "Yield",
	KindYieldFrom:        "YieldFrom",
	KindCompare:          "Compare",
	KindCall:             "Call",
	KindFormattedValue:   "FormattedValue",
	KindJoinedStr:        "JoinedStr",
	KindConstant:         "Constant",
	KindAttribute:        "Attribute",
	KindSubscript:        "Subscript",
	KindStarred:          "Starred",
	KindName:             "Name",
	KindList:             "List",
	KindTuple:            "Tuple",
	KindSlice:            "Slice",
	KindExceptHandler:    "ExceptHandler",
	KindArguments:        "Arguments",
	KindArg:              "Arg",
	KindKeyword:          "Keyword",
	KindAlias:            "Alias",
	KindWithItem:         "WithItem",
	KindComprehension:    "Comprehension",
	KindMatchCase:        "MatchCase",
}

// String returns the kind label, e.g. "FunctionDef".
func (k Kind) String() string {
	if k >= kindCount {
		return "Invalid"
	}
	return kindNames[k]
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := KindOther; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsFunction reports whether k is a function definition (sync or async).
func (k Kind) IsFunction() bool {
	return k == KindFunctionDef || k == KindAsyncFunctionDef
}

// IsLoop reports whether k is an iteration statement.
func (k Kind) IsLoop() bool {
	return k == KindFor || k == KindAsyncFor || k == KindWhile
}

// IsLiteralContainer reports whether k is a list, set or dict display.
func (k Kind) IsLiteralContainer() bool {
	return k == KindList || k == KindSet || k == KindDict
}
