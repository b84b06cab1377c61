package classbuilder

import (
	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

// legacyTyped lists the opcodes whose int result the legacy stack mode records.
var legacyTyped = map[classfile.Opcode]bool{
	classfile.IconstM1: true,
	classfile.Iconst0:  true,
	classfile.Iconst1:  true,
	classfile.Iconst2:  true,
	classfile.Iconst3:  true,
	classfile.Iconst4:  true,
	classfile.Iconst5:  true,
	classfile.Bipush:   true,
	classfile.Sipush:   true,
	classfile.Ldc:      true,
	classfile.Iload:    true,
	classfile.Iload0:   true,
	classfile.Iload1:   true,
	classfile.Iload2:   true,
	classfile.Iload3:   true,
}

func (m *MethodBuilder) tracked() bool {
	return m.cb.opts.Stack == StackTracked
}

// effect applies an instruction's operand stack effect: pops values are
// removed, then pushes are added in order.
func (m *MethodBuilder) effect(op classfile.Opcode, pops int, pushes ...classfile.VerificationType) []classfile.VerificationType {
	if !m.tracked() {
		if legacyTyped[op] && len(pushes) == 1 && pushes[0] == classfile.IntegerType {
			m.stack = append(m.stack, classfile.IntegerType)
		}
		return nil
	}

	popped := m.pop(op, pops)
	for _, vt := range pushes {
		m.push(vt)
	}
	return popped
}

func (m *MethodBuilder) pop(op classfile.Opcode, n int) []classfile.VerificationType {
	if n > len(m.stack) {
		log.Warningf("%s: %s (instruction %d) pops %d values from a stack of %d", m.name, op, len(m.code)-1, n, len(m.stack))
		n = len(m.stack)
	}
	cut := len(m.stack) - n
	popped := make([]classfile.VerificationType, n)
	copy(popped, m.stack[cut:])
	m.stack = m.stack[:cut]
	for _, vt := range popped {
		m.depth -= vt.Slots()
	}
	return popped
}

func (m *MethodBuilder) push(vt classfile.VerificationType) {
	m.stack = append(m.stack, vt)
	m.depth += vt.Slots()
	if m.depth > m.maxDepth {
		m.maxDepth = m.depth
	}
}

// top returns the type on top of the operand stack.
func (m *MethodBuilder) top() (classfile.VerificationType, bool) {
	if len(m.stack) == 0 {
		return classfile.TopType, false
	}
	return m.stack[len(m.stack)-1], true
}

// touch records that slot through slot+width-1 are in use.
func (m *MethodBuilder) touch(slot, width int) {
	if m.cb.opts.Locals == LocalsHighWater && slot+width > m.maxLocals {
		m.maxLocals = slot + width
	}
}

// stored records a store into slot.
func (m *MethodBuilder) stored(slot, width int) {
	if m.cb.opts.Locals == LocalsPerStore {
		m.maxLocals++
		return
	}
	m.touch(slot, width)
}

// seedLocals gives the receiver and the arguments their slots.
func (m *MethodBuilder) seedLocals(args []descriptor.Type) error {
	slot := 0
	if !m.static {
		if m.name == "<init>" {
			m.locals[0] = classfile.UninitializedThisType
		} else {
			m.locals[0] = classfile.ObjectType(m.cb.thisClass)
		}
		slot = 1
	}
	for _, a := range args {
		if m.tracked() {
			vt, err := m.verificationType(a)
			if err != nil {
				return err
			}
			m.locals[slot] = vt
		}
		slot += a.Slots()
	}

	if m.cb.opts.Locals == LocalsPerStore {
		m.maxLocals = len(args)
	} else {
		m.maxLocals = slot
	}
	return nil
}

// verificationType maps a descriptor type to its verification type, interning
// the class of reference types.
func (m *MethodBuilder) verificationType(t descriptor.Type) (classfile.VerificationType, error) {
	switch t.Kind() {
	case descriptor.KindBoolean, descriptor.KindByte, descriptor.KindChar, descriptor.KindShort, descriptor.KindInt:
		return classfile.IntegerType, nil
	case descriptor.KindFloat:
		return classfile.FloatType, nil
	case descriptor.KindLong:
		return classfile.LongType, nil
	case descriptor.KindDouble:
		return classfile.DoubleType, nil
	case descriptor.KindVoid:
		return classfile.TopType, nil
	}

	name := t.ClassName()
	if t.Kind() == descriptor.KindArray {
		name = t.Descriptor()
	}
	index, err := m.cb.pool.class(name)
	if err != nil {
		return classfile.TopType, err
	}
	return classfile.ObjectType(index), nil
}

// results is what an instruction producing a value of type t pushes in
// tracked mode. Nothing is interned in legacy mode.
func (m *MethodBuilder) results(t descriptor.Type) ([]classfile.VerificationType, error) {
	if !m.tracked() || t.Kind() == descriptor.KindVoid {
		return nil, nil
	}
	vt, err := m.verificationType(t)
	if err != nil {
		return nil, err
	}
	return []classfile.VerificationType{vt}, nil
}

// elementType is the type aaload pushes for an array of the given type.
func (m *MethodBuilder) elementType(array classfile.VerificationType) (classfile.VerificationType, error) {
	if array.Tag != classfile.VObject {
		return classfile.TopType, nil
	}
	cls, ok := m.cb.pool.get(array.Index).(classfile.ConstantClass)
	if !ok {
		return classfile.TopType, nil
	}
	name, ok := m.cb.pool.get(cls.NameIndex).(classfile.ConstantUtf8)
	if !ok {
		return classfile.TopType, nil
	}
	t, err := descriptor.Parse(name.Value)
	if err != nil {
		return classfile.TopType, nil
	}
	elem, ok := t.Elem()
	if !ok || !elem.IsReference() {
		return classfile.TopType, nil
	}
	return m.verificationType(elem)
}

// initialize replaces every copy of an uninitialized receiver once its
// constructor has been invoked.
func (m *MethodBuilder) initialize(receiver classfile.VerificationType) {
	var to classfile.VerificationType
	switch receiver.Tag {
	case classfile.VUninitializedThis:
		to = classfile.ObjectType(m.cb.thisClass)
	case classfile.VUninitialized:
		class, ok := m.allocations[receiver.Index]
		if !ok {
			return
		}
		to = classfile.ObjectType(class)
	default:
		return
	}

	for i, vt := range m.stack {
		if vt == receiver {
			m.stack[i] = to
		}
	}
	for slot, vt := range m.locals {
		if vt == receiver {
			m.locals[slot] = to
		}
	}
}
