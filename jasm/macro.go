package jasm

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blacknovatech/jvmasm/descriptor"
	"github.com/blacknovatech/jvmasm/parsers"
)

var (
	printStream = descriptor.Object("java/io/PrintStream")
	stringType  = descriptor.Object("java/lang/String")
)

func (asm *Assembler) executeMacro(method *Method, line string) {
	name, param := splitFirst(line)
	m := method.mb

	switch name {
	case MacroEnv:
		if param == "" {
			env := m.SetNewEnv()
			logrus.Debugf("[.%s] Entered fresh environment %d", method.name, env)
			return
		}
		env, err := parsers.ParseUint16(param)
		if err != nil {
			asm.Errorf("%s: %v", MacroEnv, err)
			return
		}
		m.SetEnv(env)

	case MacroLine:
		n, err := parsers.ParseUint16(param)
		if err != nil {
			asm.Errorf("%s: %v", MacroLine, err)
			return
		}
		m.LineNumber(n)

	case MacroPrint:
		if param == "" {
			asm.Errorf("#print called without arguments")
			return
		}
		textToPrint, err := strconv.Unquote(param)
		if err != nil {
			asm.Errorf("error unquoting #print param `%s`: %+v", param, err)
			return
		}

		logrus.WithField("text", textToPrint).Infof("[.%s] Evaluating macro #print", method.name)

		asm.check(m.GetStatic("java/lang/System", "out", printStream))
		asm.check(m.Ldc(textToPrint))
		asm.check(m.InvokeVirtual(printStream.ClassName(), "println", []descriptor.Type{stringType}, descriptor.Void))

	default:
		if strings.TrimSpace(name) == "" {
			return
		}
		asm.Errorf("Unknown macro `%s`", name)
	}
}
