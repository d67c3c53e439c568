package cpu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// A line is: optional label, then an instruction or a directive, then an
// optional comment.
var reLine = regexp.MustCompile(`(?i)^\s*(?:([a-z_][a-z0-9_]*)\s*:)?\s*(?:(\.[a-z][a-z0-9]*)(?:\s+((?:"(?:[^"\\]|\\.)*"|'(?:\\.|[^'\\])'|[^;"'])*?))?|([a-z](?:'(?:\\.|[^'\\])'|[^;'])*?))?\s*(?:;.*)?$`)

var reChar = regexp.MustCompile(`'(?:\\.|[^'\\])'`)
var reEval = regexp.MustCompile(`\$\([^\$]*\)`)

// directive expands the arguments of a directive into items.
type directive func(asm *Assembler, args string, lineno int) (items Items, err error)

var directives = map[string]directive{
	".word":   (*Assembler).dirWord,
	".equ":    (*Assembler).dirEquate,
	".const":  (*Assembler).dirEquate,
	".alloc":  (*Assembler).dirAlloc,
	".window": (*Assembler).dirWindow,
	".string": (*Assembler).dirString,
	".asciz":  (*Assembler).dirAsciz,

	".jumptable": (*Assembler).dirJumpTable,
}

// parseLine parses a single line of source into items.
func (asm *Assembler) parseLine(line string, lineno int) (items Items, err error) {
	asm.equate["LINENO"] = lineno
	defer delete(asm.equate, "LINENO")

	match := reLine.FindStringSubmatch(line)
	if match == nil {
		err = ErrLineSyntax
		return
	}

	label, name, args, text := match[1], match[2], match[3], match[4]

	if len(label) != 0 {
		items = append(items, Label(label))
	}

	switch {
	case len(name) != 0:
		dir, ok := directives[strings.ToLower(name)]
		if !ok {
			err = ErrDirective(name)
			return
		}
		var more Items
		more, err = dir(asm, args, lineno)
		if err != nil {
			return
		}
		items = append(items, more...)
	case len(text) != 0:
		text, err = asm.expand(text)
		if err != nil {
			return
		}
		var in *Instr
		in, err = asm.table().ParseInstr(text)
		if err != nil {
			return
		}
		asm.substitute(in)
		items = append(items, in)
	}

	return
}

// expand replaces character literals and $(...) expressions by their values.
func (asm *Assembler) expand(text string) (out string, err error) {
	out = reChar.ReplaceAllStringFunc(text, func(word string) string {
		value, ok := charValue(word[1 : len(word)-1])
		if !ok {
			return word
		}
		return strconv.Itoa(value)
	})

	out = reEval.ReplaceAllStringFunc(out, func(str string) string {
		value, eerr := asm.evaluate(str[2 : len(str)-1])
		if eerr != nil {
			err = eerr
		}
		return strconv.Itoa(value)
	})

	return
}

func charValue(str string) (value int, ok bool) {
	if str[0] == '\\' {
		switch str[1:] {
		case "\\":
			return '\\', true
		case "'":
			return '\'', true
		case "n":
			return '\n', true
		case "r":
			return '\r', true
		case "t":
			return '\t', true
		case "e":
			return '\033', true
		case "0":
			return 0, true
		}
		return
	}

	if len(str) != 1 {
		return
	}

	return int(str[0]), true
}

// substitute replaces references to known constants by their value.
func (asm *Assembler) substitute(in *Instr) {
	for n, op := range in.Operands {
		if op.Resolved() {
			continue
		}
		value, ok := asm.equate[op.Symbol]
		if !ok {
			continue
		}
		resolved, err := op.Kind.Make(value)
		if err != nil {
			// Out of range: leave it for the assembler to report.
			continue
		}
		in.Operands[n] = resolved
	}
}

// evaluate computes a constant expression. Constants defined so far are
// visible as variables.
func (asm *Assembler) evaluate(expr string) (value int, err error) {
	thread := starlark.Thread{Name: "equ"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, val := range asm.equate {
		pred[key] = starlark.MakeInt(val)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = &ErrExpression{Expr: expr, Err: err}
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = &ErrExpression{Expr: expr}
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = &ErrExpression{Expr: expr}
		return
	}

	value = int(st_int64)
	return
}

// splitArgs splits a comma separated argument list.
func splitArgs(args string) (list []string) {
	args = strings.TrimSpace(args)
	if len(args) == 0 {
		return
	}
	for _, arg := range strings.Split(args, ",") {
		list = append(list, strings.TrimSpace(arg))
	}
	return
}

// .word VALUE[, VALUE...]
//
// Each value is a literal, a constant, an expression, or a label, which
// emits the address of the label.
func (asm *Assembler) dirWord(args string, lineno int) (items Items, err error) {
	args, err = asm.expand(args)
	if err != nil {
		return
	}

	list := splitArgs(args)
	if len(list) == 0 {
		err = ErrDirectiveSyntax
		return
	}

	for _, arg := range list {
		if reSymbol.MatchString(arg) {
			if value, ok := asm.equate[arg]; ok {
				items = append(items, Word(uint16(value)))
			} else {
				items = append(items, WordTable{arg})
			}
			continue
		}

		var value int64
		value, err = strconv.ParseInt(arg, 0, 64)
		if err != nil || value < -1<<15 || value >= 1<<16 {
			err = &ErrOperand{Text: arg, Expected: f("a 16-bit value or a label")}
			return
		}
		items = append(items, Word(uint16(value)))
	}

	return
}

// .equ NAME, EXPR
func (asm *Assembler) dirEquate(args string, lineno int) (items Items, err error) {
	name, expr, ok := strings.Cut(args, ",")
	name = strings.TrimSpace(name)
	if !ok || !reSymbol.MatchString(name) {
		err = ErrDirectiveSyntax
		return
	}

	if old, dup := asm.equateAt[name]; dup {
		err = &ErrDuplicate{
			Name: name,
			New:  Location{LineNo: lineno},
			Old:  Location{LineNo: old},
			Err:  ErrDuplicateConstant,
		}
		return
	}

	expr, err = asm.expand(strings.TrimSpace(expr))
	if err != nil {
		return
	}

	value, err := asm.evaluate(expr)
	if err != nil {
		return
	}

	asm.equate[name] = value
	asm.equateAt[name] = lineno
	items = Items{Constant{Name: name, Value: value}}

	return
}

// .alloc COUNT
func (asm *Assembler) dirAlloc(args string, lineno int) (items Items, err error) {
	args, err = asm.expand(strings.TrimSpace(args))
	if err != nil {
		return
	}

	count, err := asm.evaluate(args)
	if err != nil {
		return
	}
	if count < 0 || count >= 1<<16 {
		err = &ErrOperand{Text: fmt.Sprint(count), Expected: f("a word count")}
		return
	}

	items = make(Items, count)
	for n := range items {
		items[n] = Word(0)
	}

	return
}

// .window
//
// Allocates a register window: eight zero words.
func (asm *Assembler) dirWindow(args string, lineno int) (items Items, err error) {
	if len(strings.TrimSpace(args)) != 0 {
		err = ErrDirectiveSyntax
		return
	}

	items = make(Items, 8)
	for n := range items {
		items[n] = Word(0)
	}

	return
}

// .string "TEXT"
//
// One word per character.
func (asm *Assembler) dirString(args string, lineno int) (items Items, err error) {
	text, err := strconv.Unquote(strings.TrimSpace(args))
	if err != nil {
		err = &ErrOperand{Text: args, Expected: f("a quoted string")}
		return
	}

	for _, r := range text {
		if r > 0xffff {
			err = &ErrOperand{Text: string(r), Expected: f("a 16-bit character")}
			return
		}
		items = append(items, Word(uint16(r)))
	}

	return
}

// .asciz "TEXT"
//
// As .string, plus a terminating zero word.
func (asm *Assembler) dirAsciz(args string, lineno int) (items Items, err error) {
	items, err = asm.dirString(args, lineno)
	if err != nil {
		return
	}

	items = append(items, Word(0))
	return
}

// .jumptable LABEL[, LABEL...]
//
// One word per label: its offset from the start of the table.
func (asm *Assembler) dirJumpTable(args string, lineno int) (items Items, err error) {
	list := splitArgs(args)
	if len(list) == 0 {
		err = ErrDirectiveSyntax
		return
	}

	for _, arg := range list {
		if !reSymbol.MatchString(arg) {
			err = &ErrOperand{Text: arg, Expected: f("a label")}
			return
		}
	}

	items = Items{JumpTable(list)}
	return
}
