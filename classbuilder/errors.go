package classbuilder

import "errors"

// All of these abort the class build. They are returned wrapped with context;
// test for them with errors.Is.
var (
	// ErrUnresolvedLabel is returned by MethodBuilder.Done when a branch names a
	// label that was never declared in the branch's environment.
	ErrUnresolvedLabel = errors.New("unresolved label")

	// ErrConstantPoolOverflow is returned when interning needs an index past
	// 65534, the last index whose pool count still fits the class file, or
	// when ldc needs a pool index past 255.
	ErrConstantPoolOverflow = errors.New("constant pool overflow")

	// ErrUnpatchableInstruction means a branch offset was written into an
	// instruction that has no branch operand.
	ErrUnpatchableInstruction = errors.New("instruction has no branch offset")

	ErrDuplicateLabel   = errors.New("duplicate label")
	ErrBranchOutOfRange = errors.New("branch offset out of range")
	ErrCodeTooLarge     = errors.New("method code exceeds 65535 bytes")

	// ErrMethodOpen is returned when the class builder is used while a
	// MethodBuilder still has it checked out.
	ErrMethodOpen = errors.New("a method builder is still open")

	// ErrBuilderClosed is returned by builders that were already finished.
	ErrBuilderClosed = errors.New("builder already finished")
)
