// Package classfile holds the in-memory description of a JVM class file as
// produced by the assembler, and the serializer that encodes it.
package classfile

import "fmt"

const (
	// Magic is the fixed class file header.
	Magic uint32 = 0xCAFEBABE
	// MajorVersion is the default class file version (Java 8).
	MajorVersion uint16 = 52
	// MinorVersion is the default minor version.
	MinorVersion uint16 = 0
)

// Access flags used by the assembler.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccAbstract  uint16 = 0x0400
)

// Classfile is a complete class description ready for serialization.
type Classfile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []Constant
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Field
	Methods      []Method
	Attributes   []Attribute
}

// Field is a field declaration.
type Field struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Method is a method declaration. Assembled methods carry exactly one
// CodeAttribute.
type Method struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// NewClassfile returns a class description with the default header.
func NewClassfile(constants []Constant, accessFlags, thisClass, superClass uint16, methods []Method) *Classfile {
	return &Classfile{
		Magic:        Magic,
		MinorVersion: MinorVersion,
		MajorVersion: MajorVersion,
		ConstantPool: constants,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   []uint16{},
		Fields:       []Field{},
		Methods:      methods,
		Attributes:   []Attribute{},
	}
}

// LookupConstant returns the pool entry at the 1-based index, or nil when the
// index is out of range.
func (cf *Classfile) LookupConstant(index uint16) Constant {
	if index == 0 || int(index) > len(cf.ConstantPool) {
		return nil
	}
	return cf.ConstantPool[index-1]
}

// LookupString returns the text of the Utf8 entry at index.
func (cf *Classfile) LookupString(index uint16) (string, error) {
	c := cf.LookupConstant(index)
	u, ok := c.(ConstantUtf8)
	if !ok {
		return "", fmt.Errorf("constant #%d: wanted Utf8, found %v", index, c)
	}
	return u.Value, nil
}

// ClassName resolves a Class entry to its internal name.
func (cf *Classfile) ClassName(index uint16) (string, error) {
	c := cf.LookupConstant(index)
	cls, ok := c.(ConstantClass)
	if !ok {
		return "", fmt.Errorf("constant #%d: wanted Class, found %v", index, c)
	}
	return cf.LookupString(cls.NameIndex)
}

// FindMethod returns the method with the given name and descriptor.
func (cf *Classfile) FindMethod(name, desc string) *Method {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		n, err := cf.LookupString(m.NameIndex)
		if err != nil || n != name {
			continue
		}
		if d, err := cf.LookupString(m.DescriptorIndex); err == nil && d == desc {
			return m
		}
	}
	return nil
}

// Code returns the method's Code attribute, or nil.
func (m *Method) Code() *CodeAttribute {
	for _, a := range m.Attributes {
		if c, ok := a.(*CodeAttribute); ok {
			return c
		}
	}
	return nil
}
