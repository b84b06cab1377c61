package classfile

import "fmt"

// ConstantTag is the one byte tag of a constant pool entry.
type ConstantTag uint8

const (
	ConstantUtf8Tag        ConstantTag = 1
	ConstantIntegerTag     ConstantTag = 3
	ConstantFloatTag       ConstantTag = 4
	ConstantClassTag       ConstantTag = 7
	ConstantStringTag      ConstantTag = 8
	ConstantFieldrefTag    ConstantTag = 9
	ConstantMethodrefTag   ConstantTag = 10
	ConstantNameAndTypeTag ConstantTag = 12
)

// Constant is a constant pool entry. Every variant is a comparable value, so
// two entries are structurally equal iff they compare equal with ==.
type Constant interface {
	Tag() ConstantTag
}

type ConstantUtf8 struct {
	Value string
}

func (ConstantUtf8) Tag() ConstantTag { return ConstantUtf8Tag }
func (c ConstantUtf8) String() string { return fmt.Sprintf("Utf8 %q", c.Value) }

type ConstantInteger struct {
	Value int32
}

func (ConstantInteger) Tag() ConstantTag { return ConstantIntegerTag }
func (c ConstantInteger) String() string { return fmt.Sprintf("Integer %d", c.Value) }

type ConstantFloat struct {
	Value float32
}

func (ConstantFloat) Tag() ConstantTag { return ConstantFloatTag }
func (c ConstantFloat) String() string { return fmt.Sprintf("Float %g", c.Value) }

type ConstantClass struct {
	NameIndex uint16
}

func (ConstantClass) Tag() ConstantTag { return ConstantClassTag }
func (c ConstantClass) String() string { return fmt.Sprintf("Class #%d", c.NameIndex) }

type ConstantString struct {
	StringIndex uint16
}

func (ConstantString) Tag() ConstantTag { return ConstantStringTag }
func (c ConstantString) String() string { return fmt.Sprintf("String #%d", c.StringIndex) }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (ConstantFieldref) Tag() ConstantTag { return ConstantFieldrefTag }
func (c ConstantFieldref) String() string {
	return fmt.Sprintf("Fieldref #%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
}

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (ConstantMethodref) Tag() ConstantTag { return ConstantMethodrefTag }
func (c ConstantMethodref) String() string {
	return fmt.Sprintf("Methodref #%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
}

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (ConstantNameAndType) Tag() ConstantTag { return ConstantNameAndTypeTag }
func (c ConstantNameAndType) String() string {
	return fmt.Sprintf("NameAndType #%d:#%d", c.NameIndex, c.DescriptorIndex)
}
