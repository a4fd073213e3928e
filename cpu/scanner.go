package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// endOfLine is the sentinel token appended after each instruction
// line, so downstream parsers can recognise the first token of a line.
const endOfLine = "\n"

// MAIN_LABEL is the mandatory entry label, rotated to image offset 0.
const MAIN_LABEL = ".main"

// Predefined system equates. Tokens are lowercased, so equate names
// are effectively case-insensitive.
var sysEquate = map[string]string{
	"lineno": "0",
}

// SourceLabel is one label block: its name, the raw tokens gathered
// until the next label, and the instructions parsed from them.
type SourceLabel struct {
	Name         string
	Offset       uint16 // Image offset, assigned during emission.
	Tokens       []string
	Lines        []int // Source line of each token.
	Instructions []Instruction
}

var parenRe = regexp.MustCompile(`\$\([^$]*\)`)

// parseLine expands compile-time constructs in one source line and
// splits it into tokens.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["lineno"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// parenEval does compile-time $(...) evaluations. Equates with
// integer values are in scope as predeclared bindings.
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value16, verr := valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 || st_int64 > 0xFFFF {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// scan tokenizes the source text: comments stripped, tokens
// lowercased, label blocks gathered in source order, and an endOfLine
// sentinel appended after each non-empty instruction line. Equates
// and $() expressions are expanded per line.
func (asm *Assembler) scan(input io.Reader) (labels []*SourceLabel, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	var current *SourceLabel

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		// Comments run from ';' to end of line. Operands may be
		// separated by commas as well as spaces.
		line = strings.SplitN(text, ";", 2)[0]
		line = strings.ToLower(strings.ReplaceAll(line, ",", " "))
		line = strings.TrimSpace(line)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}

		if strings.HasSuffix(words[0], ":") {
			if len(words) != 1 {
				err = ErrLabelSyntax
				return
			}
			name := strings.TrimSuffix(words[0], ":")
			if len(name) == 0 {
				err = ErrLabelSyntax
				return
			}
			if slices.ContainsFunc(labels, func(l *SourceLabel) bool { return l.Name == name }) {
				err = ErrLabelDuplicate
				return
			}
			current = &SourceLabel{Name: name}
			labels = append(labels, current)
			continue
		}

		if current == nil {
			err = ErrNoLabel
			return
		}

		for _, word := range words {
			current.Tokens = append(current.Tokens, word)
			current.Lines = append(current.Lines, lineno)
		}
		current.Tokens = append(current.Tokens, endOfLine)
		current.Lines = append(current.Lines, lineno)
	}

	err = scanner.Err()
	return
}
