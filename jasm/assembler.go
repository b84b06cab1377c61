// Package jasm assembles the textual jasm dialect into class descriptions.
//
// A source file declares one class:
//
//	.class public super Foo extends java/lang/Object
//	.source Foo.jasm
//	.field public static count I
//	.method public static add (II)I
//	    iload_0
//	    iload_1
//	    iadd
//	    ireturn
//	.end-method
//
// Inside methods, `name:` declares a label, `.var name slot` names a local
// and lines starting with `#` are macros.
package jasm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blacknovatech/jvmasm/classbuilder"
	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
	"github.com/blacknovatech/jvmasm/opconf"
)

var (
	regexVariableName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	regexLabel        = regexp.MustCompile(`^([a-zA-Z_$][a-zA-Z0-9_$-]*):\s*(.*)$`)
)

var accessFlags = map[string]uint16{
	"public":    classfile.AccPublic,
	"private":   classfile.AccPrivate,
	"protected": classfile.AccProtected,
	"static":    classfile.AccStatic,
	"final":     classfile.AccFinal,
	"super":     classfile.AccSuper,
	"abstract":  classfile.AccAbstract,
}

// Assembler represents the main state of the assembler, housing all internal
// information related to assembling a single class.
type Assembler struct {
	opconf *opconf.OpConfig
	opts   classbuilder.Options

	fileName string
	scanner  *bufio.Scanner
	line     uint32

	class     *classbuilder.ClassBuilder
	className string
	result    *classfile.Classfile

	errs   []string
	failed bool
}

// NewAssembler returns an Assembler reading the program from r. fileName is
// only used in messages.
func NewAssembler(r io.Reader, fileName string, opts classbuilder.Options) *Assembler {
	return &Assembler{
		opconf:   opconf.Default(),
		opts:     opts,
		fileName: fileName,
		scanner:  bufio.NewScanner(r),
	}
}

// Line represents a single line in a jasm program.
type Line struct {
	Text string
	N    uint32
}

// Assemble reads a whole program and returns the class it declares.
func Assemble(r io.Reader, fileName string, opts classbuilder.Options) (*classfile.Classfile, error) {
	asm := NewAssembler(r, fileName, opts)
	ok, err := asm.Parse()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("assembly failed with %d errors, first: %s", len(asm.errs), asm.errs[0])
	}
	return asm.Class(), nil
}

// Parse parses the loaded program and builds the class.
// Returns ok iff the parsing was successful.
// Returns an error iff an unignorable error is triggered and parsing has to terminate prematurely.
func (asm *Assembler) Parse() (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case string:
				err = errors.New(x)
			case error:
				err = x
			default:
				err = errors.New("Unknown assembly failure")
			}
		}
		ok = !asm.failed
	}()

	for token := asm.next(); token != nil; token = asm.next() {
		if token.Text == "" {
			continue
		}
		logrus.Debug(asm.Sprintf(token.Text))

		directive, rest := splitFirst(token.Text)
		switch directive {
		case JASClass:
			asm.classDirective(rest)
		case JASSource:
			asm.sourceDirective(rest)
		case JASField:
			asm.fieldDirective(rest)
		case JASMethod:
			asm.methodBlock(rest)
		default:
			asm.Errorf("Unexpected `%s` outside of a method", token.Text)
		}
	}
	if err := asm.scanner.Err(); err != nil {
		asm.Panicf("read error: %v", err)
	}

	if asm.class == nil {
		asm.Panicf("No %s declared", JASClass)
	}
	if asm.failed {
		return
	}
	cf, err := asm.class.Done()
	if err != nil {
		asm.abort(err)
	}
	asm.result = cf
	return
}

// Class returns the assembled class after a successful Parse, nil otherwise.
func (asm *Assembler) Class() *classfile.Classfile {
	return asm.result
}

// ClassName returns the internal name declared by .class.
func (asm *Assembler) ClassName() string {
	return asm.className
}

// Errors returns every non-fatal error reported so far.
func (asm *Assembler) Errors() []string {
	return asm.errs
}

// Parses `.class [flags] Name [extends Super]`
func (asm *Assembler) classDirective(decl string) {
	if asm.class != nil {
		asm.Errorf("Class `%s` was already declared", asm.className)
		return
	}

	flags, parts := asm.parseFlags(decl)
	super := DefaultSuper
	switch {
	case len(parts) == 3 && parts[1] == JASExtends:
		super = parts[2]
	case len(parts) != 1:
		asm.Panicf("Invalid class declaration `%s`", decl)
	}

	cb, err := classbuilder.NewWithOptions(asm.opts, flags, parts[0], super)
	if err != nil {
		asm.abort(err)
	}
	asm.class = cb
	asm.className = parts[0]
	logrus.Infof("Declared class %s extends %s", parts[0], super)
}

func (asm *Assembler) sourceDirective(name string) {
	if !asm.requireClass(JASSource) {
		return
	}
	if name == "" {
		asm.Errorf("%s without a file name", JASSource)
		return
	}
	if err := asm.class.SetSourceFile(name); err != nil {
		asm.abort(err)
	}
}

// Parses `.field [flags] name descriptor`
func (asm *Assembler) fieldDirective(decl string) {
	if !asm.requireClass(JASField) {
		return
	}

	flags, parts := asm.parseFlags(decl)
	if len(parts) != 2 {
		asm.Errorf("Invalid field declaration `%s`", decl)
		return
	}
	typ, err := descriptor.Parse(parts[1])
	if err != nil {
		asm.Errorf("field %s: %v", parts[0], err)
		return
	}
	if err := asm.class.DefineField(flags, parts[0], typ); err != nil {
		asm.abort(err)
	}
	logrus.Infof("Registered field: %s %s", parts[0], parts[1])
}

func (asm *Assembler) requireClass(directive string) bool {
	if asm.class == nil {
		asm.Errorf("%s before %s", directive, JASClass)
		return false
	}
	return true
}

// parseFlags splits leading access flags from the remaining words.
func (asm *Assembler) parseFlags(decl string) (uint16, []string) {
	words := strings.Fields(decl)
	var flags uint16
	for len(words) > 0 {
		flag, ok := accessFlags[words[0]]
		if !ok {
			break
		}
		flags |= flag
		words = words[1:]
	}
	return flags, words
}

// Get the next token from the scanner, nil if no tokens are remaining.
// Comments are stripped unless the marker sits inside a string literal.
func (asm *Assembler) next() *Line {
	if asm.scanner.Scan() {
		asm.line++
		return &Line{
			N:    asm.line,
			Text: strings.TrimSpace(stripComment(asm.scanner.Text())),
		}
	}
	return nil
}

func stripComment(s string) string {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && strings.HasPrefix(s[i:], JASComment):
			return s[:i]
		}
	}
	return s
}

func splitFirst(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// Sprintf formats given arguments, but prepends filename and line number.
func (asm *Assembler) Sprintf(format string, args ...interface{}) string {
	vars := append([]interface{}{asm.fileName, asm.line}, args...)

	return fmt.Sprintf("%s:%d > "+format, vars...)
}

// Errorf sets the failed flag of the assembler, and then logs an error
// using Assembler#Sprintf
func (asm *Assembler) Errorf(format string, args ...interface{}) {
	asm.failed = true
	msg := asm.Sprintf(format, args...)
	asm.errs = append(asm.errs, msg)
	logrus.Error(msg)
}

// Panicf sets the failed flag of the assembler, and panics an error
// using Assembler#Sprintf
func (asm *Assembler) Panicf(format string, args ...interface{}) {
	asm.failed = true
	panic(errors.New(asm.Sprintf(format, args...)))
}

// abort stops assembly with an error from the class builder, keeping it
// available to errors.Is.
func (asm *Assembler) abort(err error) {
	asm.failed = true
	panic(fmt.Errorf("%s:%d > %w", asm.fileName, asm.line, err))
}

// Skips lines until given string
func (asm *Assembler) skipUntil(pattern string) {
	for token := asm.next(); token != nil; token = asm.next() {
		logrus.Warning(asm.Sprintf("|skip| %s", token.Text))
		if token.Text == pattern {
			return
		}
	}
}
