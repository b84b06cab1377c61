package jasm

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blacknovatech/jvmasm/classbuilder"
	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
	"github.com/blacknovatech/jvmasm/opconf"
	"github.com/blacknovatech/jvmasm/parsers"
)

type mb = classbuilder.MethodBuilder

var plainOps = map[classfile.Opcode]func(*mb){
	classfile.Nop:         (*mb).Nop,
	classfile.AconstNull:  (*mb).AconstNull,
	classfile.IconstM1:    (*mb).IconstM1,
	classfile.Iconst0:     (*mb).Iconst0,
	classfile.Iconst1:     (*mb).Iconst1,
	classfile.Iconst2:     (*mb).Iconst2,
	classfile.Iconst3:     (*mb).Iconst3,
	classfile.Iconst4:     (*mb).Iconst4,
	classfile.Iconst5:     (*mb).Iconst5,
	classfile.Fconst0:     (*mb).Fconst0,
	classfile.Fconst1:     (*mb).Fconst1,
	classfile.Fconst2:     (*mb).Fconst2,
	classfile.Iload0:      (*mb).Iload0,
	classfile.Iload1:      (*mb).Iload1,
	classfile.Iload2:      (*mb).Iload2,
	classfile.Iload3:      (*mb).Iload3,
	classfile.Fload0:      (*mb).Fload0,
	classfile.Fload1:      (*mb).Fload1,
	classfile.Fload2:      (*mb).Fload2,
	classfile.Fload3:      (*mb).Fload3,
	classfile.Aload0:      (*mb).Aload0,
	classfile.Aload1:      (*mb).Aload1,
	classfile.Aload2:      (*mb).Aload2,
	classfile.Aload3:      (*mb).Aload3,
	classfile.Istore0:     (*mb).Istore0,
	classfile.Istore1:     (*mb).Istore1,
	classfile.Istore2:     (*mb).Istore2,
	classfile.Istore3:     (*mb).Istore3,
	classfile.Fstore0:     (*mb).Fstore0,
	classfile.Fstore1:     (*mb).Fstore1,
	classfile.Fstore2:     (*mb).Fstore2,
	classfile.Fstore3:     (*mb).Fstore3,
	classfile.Astore0:     (*mb).Astore0,
	classfile.Astore1:     (*mb).Astore1,
	classfile.Astore2:     (*mb).Astore2,
	classfile.Astore3:     (*mb).Astore3,
	classfile.Pop:         (*mb).Pop,
	classfile.Dup:         (*mb).Dup,
	classfile.Iadd:        (*mb).Iadd,
	classfile.Isub:        (*mb).Isub,
	classfile.Imul:        (*mb).Imul,
	classfile.Idiv:        (*mb).Idiv,
	classfile.Irem:        (*mb).Irem,
	classfile.Ineg:        (*mb).Ineg,
	classfile.Fadd:        (*mb).Fadd,
	classfile.Fsub:        (*mb).Fsub,
	classfile.Fmul:        (*mb).Fmul,
	classfile.Fdiv:        (*mb).Fdiv,
	classfile.Frem:        (*mb).Frem,
	classfile.Fneg:        (*mb).Fneg,
	classfile.I2F:         (*mb).I2F,
	classfile.F2I:         (*mb).F2I,
	classfile.I2C:         (*mb).I2C,
	classfile.Fcmpl:       (*mb).Fcmpl,
	classfile.Fcmpg:       (*mb).Fcmpg,
	classfile.Ireturn:     (*mb).Ireturn,
	classfile.Freturn:     (*mb).Freturn,
	classfile.Areturn:     (*mb).Areturn,
	classfile.Return:      (*mb).Return,
	classfile.ArrayLength: (*mb).ArrayLength,
}

var varOps = map[classfile.Opcode]func(*mb, uint8){
	classfile.Iload:  (*mb).Iload,
	classfile.Fload:  (*mb).Fload,
	classfile.Aload:  (*mb).Aload,
	classfile.Istore: (*mb).Istore,
	classfile.Fstore: (*mb).Fstore,
	classfile.Astore: (*mb).Astore,
}

var branchOps = map[classfile.Opcode]func(*mb, string){
	classfile.IfEq:     (*mb).IfEq,
	classfile.IfNe:     (*mb).IfNe,
	classfile.IfLt:     (*mb).IfLt,
	classfile.IfGe:     (*mb).IfGe,
	classfile.IfGt:     (*mb).IfGt,
	classfile.IfLe:     (*mb).IfLe,
	classfile.IfIcmpEq: (*mb).IfIcmpEq,
	classfile.IfIcmpNe: (*mb).IfIcmpNe,
	classfile.IfIcmpLt: (*mb).IfIcmpLt,
	classfile.IfIcmpGe: (*mb).IfIcmpGe,
	classfile.IfIcmpGt: (*mb).IfIcmpGt,
	classfile.IfIcmpLe: (*mb).IfIcmpLe,
	classfile.Goto:     (*mb).Goto,
}

var fieldOps = map[classfile.Opcode]func(*mb, string, string, descriptor.Type) error{
	classfile.GetStatic: (*mb).GetStatic,
	classfile.PutStatic: (*mb).PutStatic,
	classfile.GetField:  (*mb).GetField,
	classfile.PutField:  (*mb).PutField,
}

var invokeOps = map[classfile.Opcode]func(*mb, string, string, []descriptor.Type, descriptor.Type) error{
	classfile.InvokeVirtual: (*mb).InvokeVirtual,
	classfile.InvokeSpecial: (*mb).InvokeSpecial,
	classfile.InvokeStatic:  (*mb).InvokeStatic,
}

// Parses a single instruction string for the given method
func (asm *Assembler) parseInstruction(method *Method, instr string) {
	opname, operand := splitFirst(instr)
	op := asm.opconf.GetOp(opname)
	if op == nil {
		asm.Errorf("Undefined instruction `%s`", instr)
		return
	}
	opcode := classfile.Opcode(op.Opcode)
	m := method.mb

	if len(op.Args) == 0 {
		if operand != "" {
			asm.Errorf("Mismatched argument count, %s takes no arguments", op.Name)
			return
		}
		switch {
		case opcode == classfile.Aaload:
			asm.check(m.Aaload())
		case plainOps[opcode] != nil:
			plainOps[opcode](m)
		default:
			asm.Errorf("Not implemented: %s", op.Name)
			return
		}
		logrus.Debugf("[.%s] Registered instruction: %s", method.name, op.Name)
		return
	}

	if operand == "" {
		asm.Errorf("Mismatched argument count, %s takes a %s argument", op.Name, op.Args[0])
		return
	}

	switch op.Args[0] {
	case opconf.ArgByte:
		var val int8
		var err error
		if strings.HasPrefix(operand, "'") {
			val, err = parsers.ParseChar(operand)
		} else {
			val, err = parsers.ParseInt8(operand)
		}
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return
		}
		m.Bipush(val)
	case opconf.ArgShort:
		val, err := parsers.ParseInt16(operand)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return
		}
		m.Sipush(val)
	case opconf.ArgVar:
		idx, ok := method.VarIndex(operand)
		if !ok {
			asm.Errorf("argument: Variable not found: `%s`", operand)
			return
		}
		varOps[opcode](m, idx)
	case opconf.ArgConst:
		if !asm.loadConstant(m, operand) {
			return
		}
	case opconf.ArgLabel:
		if strings.ContainsAny(operand, " \t") {
			asm.Errorf("argument: Invalid label `%s`", operand)
			return
		}
		branchOps[opcode](m, operand)
	case opconf.ArgRef:
		if !asm.reference(m, opcode, operand) {
			return
		}
	default:
		asm.Errorf("Not implemented: %s", op.Name)
		return
	}
	logrus.Debugf("[.%s] Registered instruction: %s %s", method.name, op.Name, operand)
}

// loadConstant emits ldc for a string, float or int literal.
func (asm *Assembler) loadConstant(m *mb, operand string) bool {
	switch {
	case strings.HasPrefix(operand, `"`):
		s, err := parsers.ParseString(operand)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return false
		}
		asm.check(m.Ldc(s))
	case strings.HasPrefix(operand, "'"):
		c, err := parsers.ParseChar(operand)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return false
		}
		asm.check(m.LdcInt(int32(c)))
	case parsers.IsFloatLiteral(operand):
		f, err := parsers.ParseFloat32(operand)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return false
		}
		asm.check(m.LdcFloat(f))
	default:
		n, err := parsers.ParseInt32(operand)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return false
		}
		asm.check(m.LdcInt(n))
	}
	return true
}

// reference emits new, a field access or an invocation.
func (asm *Assembler) reference(m *mb, opcode classfile.Opcode, operand string) bool {
	parts := strings.Fields(operand)
	if opcode == classfile.New {
		if len(parts) != 1 {
			asm.Errorf("Mismatched argument count, new takes a class name")
			return false
		}
		asm.check(m.New(parts[0]))
		return true
	}

	if len(parts) != 3 {
		asm.Errorf("Mismatched argument count, expected `class name descriptor`, got `%s`", operand)
		return false
	}
	class, name, desc := parts[0], parts[1], parts[2]

	if emit, ok := fieldOps[opcode]; ok {
		typ, err := descriptor.Parse(desc)
		if err != nil {
			asm.Errorf("argument: %s", err.Error())
			return false
		}
		asm.check(emit(m, class, name, typ))
		return true
	}

	emit, ok := invokeOps[opcode]
	if !ok {
		asm.Errorf("Not implemented: %s", opcode)
		return false
	}
	args, ret, err := descriptor.ParseMethod(desc)
	if err != nil {
		asm.Errorf("argument: %s", err.Error())
		return false
	}
	asm.check(emit(m, class, name, args, ret))
	return true
}

// check aborts on class builder errors, which are never recoverable.
func (asm *Assembler) check(err error) {
	if err != nil {
		asm.abort(err)
	}
}
