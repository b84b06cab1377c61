package jasm

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blacknovatech/jvmasm/classbuilder"
	"github.com/blacknovatech/jvmasm/descriptor"
	"github.com/blacknovatech/jvmasm/parsers"
)

// Method represents a single method being assembled.
type Method struct {
	name string
	desc string
	mb   *classbuilder.MethodBuilder
	vars map[string]uint8

	N uint32
}

// VarIndex fetches the local slot of the given variable name or number.
// Returns ok iff the variable is found.
func (m *Method) VarIndex(str string) (uint8, bool) {
	if idx, ok := m.vars[str]; ok {
		return idx, true
	}
	idx, err := parsers.ParseUint8(str)
	return idx, err == nil
}

// Parses `.method [flags] name descriptor` up to the matching .end-method
func (asm *Assembler) methodBlock(decl string) {
	if !asm.requireClass(JASMethod) {
		asm.skipUntil(JASMethodEnd)
		return
	}

	flags, parts := asm.parseFlags(decl)
	if len(parts) != 2 {
		asm.Errorf("Invalid method declaration `%s`", decl)
		asm.skipUntil(JASMethodEnd)
		return
	}
	args, ret, err := descriptor.ParseMethod(parts[1])
	if err != nil {
		asm.Errorf("method %s: %v", parts[0], err)
		asm.skipUntil(JASMethodEnd)
		return
	}

	mb, err := asm.class.DefineMethod(flags, parts[0], args, ret)
	if err != nil {
		asm.abort(err)
	}
	method := &Method{
		name: parts[0],
		desc: parts[1],
		mb:   mb,
		vars: make(map[string]uint8),
		N:    asm.line,
	}
	logrus.Debugf("[.%s] Entering method", method.name)

	for token := asm.next(); token != nil; token = asm.next() {
		switch token.Text {
		case JASMethodEnd:
			if err := mb.Done(); err != nil {
				asm.abort(err)
			}
			logrus.Infof("Registered method: %s%s", method.name, method.desc)
			return
		case "":
			continue
		}

		instr := token.Text
		if directive, rest := splitFirst(instr); directive == JASVar {
			asm.parseVar(method, rest)
			continue
		}

		if match := regexLabel.FindStringSubmatch(instr); match != nil {
			if err := mb.Label(match[1]); err != nil {
				asm.abort(err)
			}
			logrus.Infof("[.%s] Registered label: %s@%d (env %d)", method.name, match[1], mb.Offset(), mb.Env())
			instr = strings.TrimSpace(match[2])
		}

		if strings.HasPrefix(instr, "#") {
			asm.executeMacro(method, instr)
		} else if instr != "" {
			asm.parseInstruction(method, instr)
		}
	}
	asm.Panicf("Unexpected end of file in method %s", method.name)
}

// Parses `.var name slot`
func (asm *Assembler) parseVar(method *Method, decl string) {
	parts := strings.Fields(decl)
	if len(parts) != 2 {
		asm.Errorf("Invalid variable declaration `%s`", decl)
		return
	}
	name := parts[0]
	if !regexVariableName.MatchString(name) {
		asm.Errorf("Invalid variable name `%s`", name)
		return
	}
	if _, exists := method.vars[name]; exists {
		asm.Errorf("Redefinition of variable `%s`", name)
		return
	}
	slot, err := parsers.ParseUint8(parts[1])
	if err != nil {
		asm.Errorf("variable %s: %v", name, err)
		return
	}

	method.vars[name] = slot
	logrus.Infof("[.%s] Registered variable: %s = %d", method.name, name, slot)
}
