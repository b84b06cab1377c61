package classbuilder

import (
	"fmt"
	"math"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

// floatKey stands in for a ConstantFloat in the lookup map so that entries are
// matched by bit pattern: NaN deduplicates and -0.0 stays distinct from 0.0.
type floatKey struct {
	bits uint32
}

// constantPool is the 1-indexed, deduplicated table shared by one class.
// Composite entries always reference entries interned before them.
type constantPool struct {
	entries []classfile.Constant
	lookup  map[interface{}]uint16
}

func newConstantPool() constantPool {
	return constantPool{lookup: make(map[interface{}]uint16)}
}

func keyOf(c classfile.Constant) interface{} {
	if f, ok := c.(classfile.ConstantFloat); ok {
		return floatKey{math.Float32bits(f.Value)}
	}
	return c
}

// maxEntries keeps the written pool count (entries + 1) within a u2.
const maxEntries = math.MaxUint16 - 1

// intern returns the index of c, appending it if no equal entry exists.
func (p *constantPool) intern(c classfile.Constant) (uint16, error) {
	k := keyOf(c)
	if index, ok := p.lookup[k]; ok {
		return index, nil
	}

	if len(p.entries) >= maxEntries {
		return 0, fmt.Errorf("%w: %v would need index %d", ErrConstantPoolOverflow, c, len(p.entries)+1)
	}

	p.entries = append(p.entries, c)
	index := uint16(len(p.entries))
	p.lookup[k] = index
	return index, nil
}

// find returns the index of an entry equal to c without interning it.
func (p *constantPool) find(c classfile.Constant) (uint16, bool) {
	index, ok := p.lookup[keyOf(c)]
	return index, ok
}

func (p *constantPool) get(index uint16) classfile.Constant {
	if index == 0 || int(index) > len(p.entries) {
		return nil
	}
	return p.entries[index-1]
}

func (p *constantPool) len() int {
	return len(p.entries)
}

func (p *constantPool) utf8(s string) (uint16, error) {
	return p.intern(classfile.ConstantUtf8{Value: s})
}

func (p *constantPool) integer(n int32) (uint16, error) {
	return p.intern(classfile.ConstantInteger{Value: n})
}

func (p *constantPool) float(n float32) (uint16, error) {
	return p.intern(classfile.ConstantFloat{Value: n})
}

func (p *constantPool) class(name string) (uint16, error) {
	nameIndex, err := p.utf8(name)
	if err != nil {
		return 0, err
	}
	return p.intern(classfile.ConstantClass{NameIndex: nameIndex})
}

func (p *constantPool) string(value string) (uint16, error) {
	stringIndex, err := p.utf8(value)
	if err != nil {
		return 0, err
	}
	return p.intern(classfile.ConstantString{StringIndex: stringIndex})
}

func (p *constantPool) nameAndType(name, desc string) (uint16, error) {
	nameIndex, err := p.utf8(name)
	if err != nil {
		return 0, err
	}
	descIndex, err := p.utf8(desc)
	if err != nil {
		return 0, err
	}
	return p.intern(classfile.ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex})
}

func (p *constantPool) fieldref(class, name string, typ descriptor.Type) (uint16, error) {
	classIndex, err := p.class(class)
	if err != nil {
		return 0, err
	}
	natIndex, err := p.nameAndType(name, typ.Descriptor())
	if err != nil {
		return 0, err
	}
	return p.intern(classfile.ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
}

func (p *constantPool) methodref(class, name string, args []descriptor.Type, ret descriptor.Type) (uint16, error) {
	classIndex, err := p.class(class)
	if err != nil {
		return 0, err
	}
	natIndex, err := p.nameAndType(name, descriptor.Method(args, ret))
	if err != nil {
		return 0, err
	}
	return p.intern(classfile.ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
}

// snapshot copies the entries so the finished class does not alias the pool.
func (p *constantPool) snapshot() []classfile.Constant {
	out := make([]classfile.Constant, len(p.entries))
	copy(out, p.entries)
	return out
}
