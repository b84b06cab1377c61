package classbuilder

import (
	"fmt"
	"math"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

var (
	intType   = classfile.IntegerType
	floatType = classfile.FloatType
)

// Nop emits nop. AconstNull pushes null.
func (m *MethodBuilder) Nop()        { m.emit(classfile.Nop, 0, 0) }
func (m *MethodBuilder) AconstNull() { m.emit(classfile.AconstNull, 0, 0, classfile.NullType) }

// IconstM1 through Iconst5 push the int constants -1 to 5.
func (m *MethodBuilder) IconstM1() { m.emit(classfile.IconstM1, 0, 0, intType) }
func (m *MethodBuilder) Iconst0()  { m.emit(classfile.Iconst0, 0, 0, intType) }
func (m *MethodBuilder) Iconst1()  { m.emit(classfile.Iconst1, 0, 0, intType) }
func (m *MethodBuilder) Iconst2()  { m.emit(classfile.Iconst2, 0, 0, intType) }
func (m *MethodBuilder) Iconst3()  { m.emit(classfile.Iconst3, 0, 0, intType) }
func (m *MethodBuilder) Iconst4()  { m.emit(classfile.Iconst4, 0, 0, intType) }
func (m *MethodBuilder) Iconst5()  { m.emit(classfile.Iconst5, 0, 0, intType) }

// Fconst0 through Fconst2 push the float constants 0, 1 and 2.
func (m *MethodBuilder) Fconst0() { m.emit(classfile.Fconst0, 0, 0, floatType) }
func (m *MethodBuilder) Fconst1() { m.emit(classfile.Fconst1, 0, 0, floatType) }
func (m *MethodBuilder) Fconst2() { m.emit(classfile.Fconst2, 0, 0, floatType) }

// Bipush and Sipush push a sign-extended byte or short immediate.
func (m *MethodBuilder) Bipush(n int8)  { m.emit(classfile.Bipush, int32(n), 0, intType) }
func (m *MethodBuilder) Sipush(n int16) { m.emit(classfile.Sipush, int32(n), 0, intType) }

// ldc emits a load of the pool entry at index, which must fit in one byte.
func (m *MethodBuilder) ldc(index uint16, vt classfile.VerificationType) error {
	if index > math.MaxUint8 {
		return m.fail(fmt.Errorf("%w: ldc of constant #%d", ErrConstantPoolOverflow, index))
	}
	m.emit(classfile.Ldc, int32(index), 0, vt)
	return nil
}

// Ldc pushes a string constant.
func (m *MethodBuilder) Ldc(s string) error {
	index, err := m.intern("ldc", func(p *constantPool) (uint16, error) { return p.string(s) })
	if err != nil {
		return err
	}
	vt := classfile.TopType
	if m.tracked() {
		if vt, err = m.verificationType(descriptor.Object("java/lang/String")); err != nil {
			return m.fail(err)
		}
	}
	return m.ldc(index, vt)
}

// LdcInt pushes an int constant through the pool.
func (m *MethodBuilder) LdcInt(n int32) error {
	index, err := m.intern("ldc", func(p *constantPool) (uint16, error) { return p.integer(n) })
	if err != nil {
		return err
	}
	return m.ldc(index, intType)
}

// LdcFloat pushes a float constant through the pool.
func (m *MethodBuilder) LdcFloat(n float32) error {
	index, err := m.intern("ldc", func(p *constantPool) (uint16, error) { return p.float(n) })
	if err != nil {
		return err
	}
	return m.ldc(index, floatType)
}

// load pushes local slot. A TopType vt takes the slot's recorded type.
func (m *MethodBuilder) load(op classfile.Opcode, operand int32, slot int, vt classfile.VerificationType) {
	m.checkOpen()
	if vt == classfile.TopType {
		if known, ok := m.locals[slot]; ok {
			vt = known
		}
	}
	m.emit(op, operand, 0, vt)
	m.touch(slot, vt.Slots())
}

// store pops into local slot. A TopType vt takes the popped value's type.
func (m *MethodBuilder) store(op classfile.Opcode, operand int32, slot int, vt classfile.VerificationType) {
	popped := m.emit(op, operand, 1)
	if m.tracked() {
		if vt == classfile.TopType && len(popped) == 1 {
			vt = popped[0]
		}
		m.locals[slot] = vt
	}
	m.stored(slot, vt.Slots())
}

// Iload pushes the int in local index. Iload0 to Iload3 are the short forms.
func (m *MethodBuilder) Iload(index uint8) { m.load(classfile.Iload, int32(index), int(index), intType) }
func (m *MethodBuilder) Iload0()           { m.load(classfile.Iload0, 0, 0, intType) }
func (m *MethodBuilder) Iload1()           { m.load(classfile.Iload1, 0, 1, intType) }
func (m *MethodBuilder) Iload2()           { m.load(classfile.Iload2, 0, 2, intType) }
func (m *MethodBuilder) Iload3()           { m.load(classfile.Iload3, 0, 3, intType) }

// Fload pushes the float in local index.
func (m *MethodBuilder) Fload(index uint8) { m.load(classfile.Fload, int32(index), int(index), floatType) }
func (m *MethodBuilder) Fload0()           { m.load(classfile.Fload0, 0, 0, floatType) }
func (m *MethodBuilder) Fload1()           { m.load(classfile.Fload1, 0, 1, floatType) }
func (m *MethodBuilder) Fload2()           { m.load(classfile.Fload2, 0, 2, floatType) }
func (m *MethodBuilder) Fload3()           { m.load(classfile.Fload3, 0, 3, floatType) }

// Aload pushes the reference in local index, typed as last stored.
func (m *MethodBuilder) Aload(index uint8) { m.load(classfile.Aload, int32(index), int(index), classfile.TopType) }
func (m *MethodBuilder) Aload0()           { m.load(classfile.Aload0, 0, 0, classfile.TopType) }
func (m *MethodBuilder) Aload1()           { m.load(classfile.Aload1, 0, 1, classfile.TopType) }
func (m *MethodBuilder) Aload2()           { m.load(classfile.Aload2, 0, 2, classfile.TopType) }
func (m *MethodBuilder) Aload3()           { m.load(classfile.Aload3, 0, 3, classfile.TopType) }

// Istore pops an int into local index. Istore0 to Istore3 are the short forms.
func (m *MethodBuilder) Istore(index uint8) { m.store(classfile.Istore, int32(index), int(index), intType) }
func (m *MethodBuilder) Istore0()           { m.store(classfile.Istore0, 0, 0, intType) }
func (m *MethodBuilder) Istore1()           { m.store(classfile.Istore1, 0, 1, intType) }
func (m *MethodBuilder) Istore2()           { m.store(classfile.Istore2, 0, 2, intType) }
func (m *MethodBuilder) Istore3()           { m.store(classfile.Istore3, 0, 3, intType) }

// Fstore pops a float into local index.
func (m *MethodBuilder) Fstore(index uint8) { m.store(classfile.Fstore, int32(index), int(index), floatType) }
func (m *MethodBuilder) Fstore0()           { m.store(classfile.Fstore0, 0, 0, floatType) }
func (m *MethodBuilder) Fstore1()           { m.store(classfile.Fstore1, 0, 1, floatType) }
func (m *MethodBuilder) Fstore2()           { m.store(classfile.Fstore2, 0, 2, floatType) }
func (m *MethodBuilder) Fstore3()           { m.store(classfile.Fstore3, 0, 3, floatType) }

// Astore pops a reference into local index.
func (m *MethodBuilder) Astore(index uint8) { m.store(classfile.Astore, int32(index), int(index), classfile.TopType) }
func (m *MethodBuilder) Astore0()           { m.store(classfile.Astore0, 0, 0, classfile.TopType) }
func (m *MethodBuilder) Astore1()           { m.store(classfile.Astore1, 0, 1, classfile.TopType) }
func (m *MethodBuilder) Astore2()           { m.store(classfile.Astore2, 0, 2, classfile.TopType) }
func (m *MethodBuilder) Astore3()           { m.store(classfile.Astore3, 0, 3, classfile.TopType) }

// Aaload loads an element of a reference array. The element class may need
// interning.
func (m *MethodBuilder) Aaload() error {
	m.checkOpen()
	if !m.tracked() {
		m.emit(classfile.Aaload, 0, 2)
		return nil
	}

	array := classfile.TopType
	if n := len(m.stack); n >= 2 {
		array = m.stack[n-2]
	}
	elem, err := m.elementType(array)
	if err != nil {
		return m.fail(err)
	}
	m.emit(classfile.Aaload, 0, 2, elem)
	return nil
}

// Pop discards the top of the stack.
func (m *MethodBuilder) Pop() { m.emit(classfile.Pop, 0, 1) }

// Dup duplicates the top of the stack.
func (m *MethodBuilder) Dup() {
	m.checkOpen()
	vt, _ := m.top()
	m.emit(classfile.Dup, 0, 0, vt)
}

// Iadd, Isub, Imul, Idiv and Irem pop two ints and push the result. Ineg negates one.
func (m *MethodBuilder) Iadd() { m.emit(classfile.Iadd, 0, 2, intType) }
func (m *MethodBuilder) Isub() { m.emit(classfile.Isub, 0, 2, intType) }
func (m *MethodBuilder) Imul() { m.emit(classfile.Imul, 0, 2, intType) }
func (m *MethodBuilder) Idiv() { m.emit(classfile.Idiv, 0, 2, intType) }
func (m *MethodBuilder) Irem() { m.emit(classfile.Irem, 0, 2, intType) }
func (m *MethodBuilder) Ineg() { m.emit(classfile.Ineg, 0, 1, intType) }

// Fadd through Fneg are the float forms of the int arithmetic.
func (m *MethodBuilder) Fadd() { m.emit(classfile.Fadd, 0, 2, floatType) }
func (m *MethodBuilder) Fsub() { m.emit(classfile.Fsub, 0, 2, floatType) }
func (m *MethodBuilder) Fmul() { m.emit(classfile.Fmul, 0, 2, floatType) }
func (m *MethodBuilder) Fdiv() { m.emit(classfile.Fdiv, 0, 2, floatType) }
func (m *MethodBuilder) Frem() { m.emit(classfile.Frem, 0, 2, floatType) }
func (m *MethodBuilder) Fneg() { m.emit(classfile.Fneg, 0, 1, floatType) }

// I2F, F2I and I2C convert the top of the stack.
func (m *MethodBuilder) I2F() { m.emit(classfile.I2F, 0, 1, floatType) }
func (m *MethodBuilder) F2I() { m.emit(classfile.F2I, 0, 1, intType) }
func (m *MethodBuilder) I2C() { m.emit(classfile.I2C, 0, 1, intType) }

// Fcmpl and Fcmpg compare two floats, differing only on NaN.
func (m *MethodBuilder) Fcmpl() { m.emit(classfile.Fcmpl, 0, 2, intType) }
func (m *MethodBuilder) Fcmpg() { m.emit(classfile.Fcmpg, 0, 2, intType) }

// IfEq to IfLe compare the popped int against zero and branch to label.
func (m *MethodBuilder) IfEq(label string) { m.branch(classfile.IfEq, label, 1) }
func (m *MethodBuilder) IfNe(label string) { m.branch(classfile.IfNe, label, 1) }
func (m *MethodBuilder) IfLt(label string) { m.branch(classfile.IfLt, label, 1) }
func (m *MethodBuilder) IfGe(label string) { m.branch(classfile.IfGe, label, 1) }
func (m *MethodBuilder) IfGt(label string) { m.branch(classfile.IfGt, label, 1) }
func (m *MethodBuilder) IfLe(label string) { m.branch(classfile.IfLe, label, 1) }

// IfIcmpEq to IfIcmpLe compare two popped ints and branch to label.
func (m *MethodBuilder) IfIcmpEq(label string) { m.branch(classfile.IfIcmpEq, label, 2) }
func (m *MethodBuilder) IfIcmpNe(label string) { m.branch(classfile.IfIcmpNe, label, 2) }
func (m *MethodBuilder) IfIcmpLt(label string) { m.branch(classfile.IfIcmpLt, label, 2) }
func (m *MethodBuilder) IfIcmpGe(label string) { m.branch(classfile.IfIcmpGe, label, 2) }
func (m *MethodBuilder) IfIcmpGt(label string) { m.branch(classfile.IfIcmpGt, label, 2) }
func (m *MethodBuilder) IfIcmpLe(label string) { m.branch(classfile.IfIcmpLe, label, 2) }

// Goto branches to label unconditionally. The label may come later.
func (m *MethodBuilder) Goto(label string) { m.branch(classfile.Goto, label, 0) }

// Ireturn, Freturn and Areturn return the popped value. Return returns void.
func (m *MethodBuilder) Ireturn() { m.emit(classfile.Ireturn, 0, 1) }
func (m *MethodBuilder) Freturn() { m.emit(classfile.Freturn, 0, 1) }
func (m *MethodBuilder) Areturn() { m.emit(classfile.Areturn, 0, 1) }
func (m *MethodBuilder) Return()  { m.emit(classfile.Return, 0, 0) }

// field emits a field access. pops counts the receiver and the stored value.
func (m *MethodBuilder) field(op classfile.Opcode, class, name string, typ descriptor.Type, pops int, pushes bool) error {
	index, err := m.intern(op.String(), func(p *constantPool) (uint16, error) { return p.fieldref(class, name, typ) })
	if err != nil {
		return err
	}
	var results []classfile.VerificationType
	if pushes {
		if results, err = m.results(typ); err != nil {
			return m.fail(err)
		}
	}
	m.emit(op, int32(index), pops, results...)
	return nil
}

// GetStatic pushes the static field class.name of type typ.
func (m *MethodBuilder) GetStatic(class, name string, typ descriptor.Type) error {
	return m.field(classfile.GetStatic, class, name, typ, 0, true)
}

// PutStatic pops into the static field class.name.
func (m *MethodBuilder) PutStatic(class, name string, typ descriptor.Type) error {
	return m.field(classfile.PutStatic, class, name, typ, 1, false)
}

// GetField pops an object and pushes its field class.name.
func (m *MethodBuilder) GetField(class, name string, typ descriptor.Type) error {
	return m.field(classfile.GetField, class, name, typ, 1, true)
}

// PutField pops an object and a value, storing the value in the field.
func (m *MethodBuilder) PutField(class, name string, typ descriptor.Type) error {
	return m.field(classfile.PutField, class, name, typ, 2, false)
}

// invoke emits a method call. Instance calls also pop the receiver.
func (m *MethodBuilder) invoke(op classfile.Opcode, class, name string, args []descriptor.Type, ret descriptor.Type) error {
	index, err := m.intern(op.String(), func(p *constantPool) (uint16, error) { return p.methodref(class, name, args, ret) })
	if err != nil {
		return err
	}
	results, err := m.results(ret)
	if err != nil {
		return m.fail(err)
	}

	pops := len(args)
	if op != classfile.InvokeStatic {
		pops++
	}
	popped := m.emit(op, int32(index), pops, results...)
	if op == classfile.InvokeSpecial && name == "<init>" && len(popped) == pops {
		m.initialize(popped[0])
	}
	return nil
}

// InvokeVirtual calls an instance method, popping the receiver and arguments.
func (m *MethodBuilder) InvokeVirtual(class, name string, args []descriptor.Type, ret descriptor.Type) error {
	return m.invoke(classfile.InvokeVirtual, class, name, args, ret)
}

// InvokeSpecial calls a constructor or a private or super method. Calling <init>
// marks the receiver initialized.
func (m *MethodBuilder) InvokeSpecial(class, name string, args []descriptor.Type, ret descriptor.Type) error {
	return m.invoke(classfile.InvokeSpecial, class, name, args, ret)
}

// InvokeStatic calls a static method.
func (m *MethodBuilder) InvokeStatic(class, name string, args []descriptor.Type, ret descriptor.Type) error {
	return m.invoke(classfile.InvokeStatic, class, name, args, ret)
}

// New allocates an uninitialized instance of class.
func (m *MethodBuilder) New(class string) error {
	index, err := m.intern("new", func(p *constantPool) (uint16, error) { return p.class(class) })
	if err != nil {
		return err
	}
	pos := m.cursor
	vt := classfile.UninitializedType(uint16(pos))
	if pos <= math.MaxUint16 {
		m.allocations[uint16(pos)] = index
	}
	m.emit(classfile.New, int32(index), 0, vt)
	return nil
}

// ArrayLength pops an array and pushes its length.
func (m *MethodBuilder) ArrayLength() { m.emit(classfile.ArrayLength, 0, 1, intType) }
