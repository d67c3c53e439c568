package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezrec/boneless/translate"
)

var f = translate.From

var (
	// Instruction table errors
	ErrFormatConflict = errors.New(f("format conflict"))

	// Operand and instruction errors
	ErrIllegalOperand      = errors.New(f("illegal operand"))
	ErrUnknownMnemonic     = errors.New(f("unknown mnemonic"))
	ErrUnknownEncoding     = errors.New(f("unknown encoding"))
	ErrUnresolvedReference = errors.New(f("unresolved reference"))

	// Assembler errors
	ErrUnknownDirective  = errors.New(f("unknown directive"))
	ErrDirectiveSyntax   = errors.New(f("directive syntax"))
	ErrDuplicateLabel    = errors.New(f("label duplicated"))
	ErrDuplicateConstant = errors.New(f("constant duplicated"))
	ErrLineSyntax        = errors.New(f("unrecognized line"))
	ErrUnrecognizedItem  = errors.New(f("unrecognized item"))
)

// ErrFormat reports a defect in the declaration of an instruction format.
type ErrFormat struct {
	Name string
	Err  error
}

func (err *ErrFormat) Error() string {
	return f("instruction %v: %v", err.Name, err.Err)
}

func (err *ErrFormat) Unwrap() error {
	return err.Err
}

// ErrConflict reports two templates or two leaves claiming the same bits.
type ErrConflict string

func (err ErrConflict) Error() string {
	return string(err)
}

func (err ErrConflict) Is(target error) bool {
	return target == ErrFormatConflict
}

// ErrOperand is an illegal operand value or operand text.
type ErrOperand struct {
	Text     string
	Expected string
}

func (err *ErrOperand) Error() string {
	if len(err.Expected) == 0 {
		return f("illegal operand '%v'", err.Text)
	}
	return f("illegal operand '%v'; expected %v", err.Text, err.Expected)
}

func (err *ErrOperand) Is(target error) bool {
	return target == ErrIllegalOperand
}

// ErrOperands is a mismatch between an instruction and its operand list.
type ErrOperands struct {
	Mnemonic string
	Operands string
	Syntax   string
	Err      error
}

func (err *ErrOperands) Error() string {
	text := f("illegal operands '%v' for instruction %v; expected '%v'", err.Operands, err.Mnemonic, err.Syntax)
	if err.Err != nil {
		text += ": " + err.Err.Error()
	}
	return text
}

func (err *ErrOperands) Unwrap() error {
	if err.Err == nil {
		return ErrIllegalOperand
	}
	return err.Err
}

// ErrMnemonic is an instruction name not present in the table.
type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("unknown mnemonic '%v'", string(err))
}

func (err ErrMnemonic) Is(target error) bool {
	return target == ErrUnknownMnemonic
}

// ErrEncoding is an instruction word that matches no table entry.
type ErrEncoding uint16

func (err ErrEncoding) Error() string {
	return f("unknown encoding 0b%016b", uint16(err))
}

func (err ErrEncoding) Is(target error) bool {
	return target == ErrUnknownEncoding
}

// ErrUnresolved is a reference to a symbol that has no value (yet).
type ErrUnresolved string

func (err ErrUnresolved) Error() string {
	return f("unresolved reference '%v'", string(err))
}

func (err ErrUnresolved) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// ErrSyntax indicates the source line of a parse error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrDuplicate is a label or constant defined a second time.
type ErrDuplicate struct {
	Name string
	New  Location
	Old  Location
	Err  error // ErrDuplicateLabel or ErrDuplicateConstant
}

func (err *ErrDuplicate) Error() string {
	what := f("label")
	if err.Err == ErrDuplicateConstant {
		what = f("constant")
	}
	return f("%v '%v' at %v has the same name as the %v at %v", what, err.Name, err.New, what, err.Old)
}

func (err *ErrDuplicate) Unwrap() error {
	return err.Err
}

// ErrTranslation indicates the location of an assembly error in the item tree.
type ErrTranslation struct {
	Loc Location
	Err error
}

func (err *ErrTranslation) Error() string {
	return f("%v at %v", err.Err, err.Loc)
}

func (err *ErrTranslation) Unwrap() error {
	return err.Err
}

// Location of an item, either as a source line or as a path in the item tree.
type Location struct {
	LineNo int  // Source line, if known.
	Path   Path // Structural path of the item.
}

func (loc Location) String() string {
	if loc.LineNo > 0 {
		return f("line %d", loc.LineNo)
	}
	return f("indexes %v", loc.Path.String())
}

// Path is the structural index of an item inside a nested item tree.
type Path []int

// String renders the path as "[i][j]...".
func (path Path) String() string {
	var sb strings.Builder
	for _, index := range path {
		fmt.Fprintf(&sb, "[%d]", index)
	}
	return sb.String()
}

func (path Path) key() string {
	return path.String()
}

func (path Path) child(index int) Path {
	out := make(Path, len(path)+1)
	copy(out, path)
	out[len(path)] = index
	return out
}

// ErrUndefined is a symbol still unresolved once assembly has converged.
type ErrUndefined string

func (err ErrUndefined) Error() string {
	return f("undefined symbol '%v'", string(err))
}

func (err ErrUndefined) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// ErrDirective is an assembler directive that is not known.
type ErrDirective string

func (err ErrDirective) Error() string {
	return f("unknown directive '%v'", string(err))
}

func (err ErrDirective) Is(target error) bool {
	return target == ErrUnknownDirective
}

// ErrExpression is a constant expression that does not evaluate to an integer.
type ErrExpression struct {
	Expr string
	Err  error
}

func (err *ErrExpression) Error() string {
	if err.Err != nil {
		return f("'%v' is not a valid expression: %v", err.Expr, err.Err)
	}
	return f("'%v' is not a valid expression", err.Expr)
}

func (err *ErrExpression) Is(target error) bool {
	return target == ErrDirectiveSyntax
}

func (err *ErrExpression) Unwrap() error {
	return err.Err
}
