// Package classbuilder assembles JVM class files programmatically: a
// ClassBuilder owns the constant pool and the finished methods, and hands out
// one MethodBuilder at a time to emit instructions, labels and branches.
package classbuilder

import (
	"fmt"

	"github.com/op/go-logging"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

var log = logging.MustGetLogger("classbuilder")

// ClassBuilder accumulates the constant pool, fields and methods of one class.
// It is not safe for concurrent use.
type ClassBuilder struct {
	opts Options

	accessFlags uint16
	thisClass   uint16
	superClass  uint16
	thisName    string

	pool       constantPool
	fields     []classfile.Field
	methods    []classfile.Method
	sourceFile uint16

	open *MethodBuilder
	err  error
	done bool
}

// New starts a class with the default options. this and super are internal
// class names such as "java/lang/Object".
func New(accessFlags uint16, this, super string) (*ClassBuilder, error) {
	return NewWithOptions(DefaultOptions(), accessFlags, this, super)
}

// NewWithOptions starts a class; the this and super classes are interned first.
func NewWithOptions(opts Options, accessFlags uint16, this, super string) (*ClassBuilder, error) {
	cb := &ClassBuilder{
		opts:        opts,
		accessFlags: accessFlags,
		thisName:    this,
		pool:        newConstantPool(),
	}

	var err error
	if cb.thisClass, err = cb.pool.class(this); err != nil {
		return nil, err
	}
	if cb.superClass, err = cb.pool.class(super); err != nil {
		return nil, err
	}
	return cb, nil
}

// Options returns the options the builder was created with.
func (cb *ClassBuilder) Options() Options {
	return cb.opts
}

// ConstantCount is the number of pool entries interned so far.
func (cb *ClassBuilder) ConstantCount() int {
	return cb.pool.len()
}

// Constant returns the pool entry at index, or nil.
func (cb *ClassBuilder) Constant(index uint16) classfile.Constant {
	return cb.pool.get(index)
}

// usable reports why the builder cannot be used right now.
func (cb *ClassBuilder) usable() error {
	switch {
	case cb.done:
		return ErrBuilderClosed
	case cb.open != nil:
		return fmt.Errorf("%w: %s", ErrMethodOpen, cb.open.name)
	case cb.err != nil:
		return fmt.Errorf("class build aborted: %w", cb.err)
	}
	return nil
}

// fail records the first fatal error; every later operation reports it.
func (cb *ClassBuilder) fail(err error) error {
	if cb.err == nil {
		cb.err = err
		log.Errorf("%s: %v", cb.thisName, err)
	}
	return err
}

// define guards a public pool operation.
func (cb *ClassBuilder) define(intern func() (uint16, error)) (uint16, error) {
	if err := cb.usable(); err != nil {
		return 0, err
	}
	index, err := intern()
	if err != nil {
		return 0, cb.fail(err)
	}
	return index, nil
}

func (cb *ClassBuilder) DefineUtf8(s string) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.utf8(s) })
}

func (cb *ClassBuilder) DefineInteger(n int32) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.integer(n) })
}

// DefineFloat interns a float; entries are matched by bit pattern.
func (cb *ClassBuilder) DefineFloat(n float32) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.float(n) })
}

func (cb *ClassBuilder) DefineClass(name string) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.class(name) })
}

func (cb *ClassBuilder) DefineString(value string) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.string(value) })
}

func (cb *ClassBuilder) DefineNameAndType(name, desc string) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.nameAndType(name, desc) })
}

func (cb *ClassBuilder) DefineFieldref(class, name string, typ descriptor.Type) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.fieldref(class, name, typ) })
}

func (cb *ClassBuilder) DefineMethodref(class, name string, args []descriptor.Type, ret descriptor.Type) (uint16, error) {
	return cb.define(func() (uint16, error) { return cb.pool.methodref(class, name, args, ret) })
}

// DefineField declares a field of this class.
func (cb *ClassBuilder) DefineField(accessFlags uint16, name string, typ descriptor.Type) error {
	if err := cb.usable(); err != nil {
		return err
	}
	nameIndex, err := cb.pool.utf8(name)
	if err != nil {
		return cb.fail(err)
	}
	descIndex, err := cb.pool.utf8(typ.Descriptor())
	if err != nil {
		return cb.fail(err)
	}

	cb.fields = append(cb.fields, classfile.Field{
		AccessFlags:     accessFlags,
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
		Attributes:      []classfile.Attribute{},
	})
	log.Debugf("Registered field: %s %s", name, typ)
	return nil
}

// SetSourceFile attaches a SourceFile attribute naming the source.
func (cb *ClassBuilder) SetSourceFile(name string) error {
	if err := cb.usable(); err != nil {
		return err
	}
	if _, err := cb.pool.utf8(classfile.AttrSourceFile); err != nil {
		return cb.fail(err)
	}
	index, err := cb.pool.utf8(name)
	if err != nil {
		return cb.fail(err)
	}
	cb.sourceFile = index
	return nil
}

// DefineMethod opens a method body. The class builder cannot be used again
// until the returned MethodBuilder is finished with Done.
func (cb *ClassBuilder) DefineMethod(accessFlags uint16, name string, args []descriptor.Type, ret descriptor.Type) (*MethodBuilder, error) {
	if err := cb.usable(); err != nil {
		return nil, err
	}

	m, err := newMethodBuilder(cb, accessFlags, name, args, ret)
	if err != nil {
		return nil, cb.fail(err)
	}
	cb.open = m
	log.Debugf("Opened method: %s%s", name, descriptor.Method(args, ret))
	return m, nil
}

// Done finishes the class. The builder cannot be used afterwards.
func (cb *ClassBuilder) Done() (*classfile.Classfile, error) {
	if err := cb.usable(); err != nil {
		if cb.open == nil {
			cb.done = true
		}
		return nil, err
	}
	cb.done = true

	var attrs []classfile.Attribute
	if cb.sourceFile != 0 {
		nameIndex, _ := cb.pool.find(classfile.ConstantUtf8{Value: classfile.AttrSourceFile})
		attrs = append(attrs, &classfile.SourceFileAttribute{NameIndex: nameIndex, SourceFileIndex: cb.sourceFile})
	}

	cf := classfile.NewClassfile(cb.pool.snapshot(), cb.accessFlags, cb.thisClass, cb.superClass, cb.methods)
	cf.MajorVersion = cb.opts.MajorVersion
	cf.MinorVersion = cb.opts.MinorVersion
	if cb.fields != nil {
		cf.Fields = cb.fields
	}
	if attrs != nil {
		cf.Attributes = attrs
	}
	if cf.Methods == nil {
		cf.Methods = []classfile.Method{}
	}

	log.Infof("Built %s: %d constants, %d fields, %d methods", cb.thisName, len(cf.ConstantPool), len(cf.Fields), len(cf.Methods))
	return cf, nil
}
