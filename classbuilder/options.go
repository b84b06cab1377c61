package classbuilder

import (
	"fmt"

	"github.com/blacknovatech/jvmasm/classfile"
)

// StackMode selects how operand stack depth and types are tracked.
type StackMode int

const (
	// StackTracked follows every instruction's stack effect, producing a real
	// max stack and the actual top-of-stack type for frames.
	StackTracked StackMode = iota
	// StackLegacy reproduces the historical output: max stack stays 0 and
	// only int constants and int loads record a type, which is never popped.
	StackLegacy
)

func (s StackMode) String() string {
	switch s {
	case StackTracked:
		return "tracked"
	case StackLegacy:
		return "legacy"
	}
	return fmt.Sprintf("StackMode(%d)", int(s))
}

// ParseStackMode parses "tracked" or "legacy".
func ParseStackMode(s string) (StackMode, error) {
	switch s {
	case "", "tracked":
		return StackTracked, nil
	case "legacy":
		return StackLegacy, nil
	}
	return 0, fmt.Errorf("unknown stack mode %q", s)
}

// LocalsMode selects how max locals is computed.
type LocalsMode int

const (
	// LocalsHighWater counts the highest slot touched, including the receiver
	// of instance methods and two-slot arguments.
	LocalsHighWater LocalsMode = iota
	// LocalsPerStore starts at the argument count and adds one per store,
	// whether or not the slot was used before.
	LocalsPerStore
)

func (l LocalsMode) String() string {
	switch l {
	case LocalsHighWater:
		return "high-water"
	case LocalsPerStore:
		return "per-store"
	}
	return fmt.Sprintf("LocalsMode(%d)", int(l))
}

// ParseLocalsMode parses "high-water" or "per-store".
func ParseLocalsMode(s string) (LocalsMode, error) {
	switch s {
	case "", "high-water":
		return LocalsHighWater, nil
	case "per-store":
		return LocalsPerStore, nil
	}
	return 0, fmt.Errorf("unknown locals mode %q", s)
}

// Options tune the produced class.
type Options struct {
	MajorVersion uint16
	MinorVersion uint16
	Stack        StackMode
	Locals       LocalsMode
}

// DefaultOptions targets class file version 52.0 with tracked stack and
// high-water locals.
func DefaultOptions() Options {
	return Options{
		MajorVersion: classfile.MajorVersion,
		MinorVersion: classfile.MinorVersion,
		Stack:        StackTracked,
		Locals:       LocalsHighWater,
	}
}

// LegacyOptions reproduces the historical max stack, max locals and frame type
// choices. Per-store locals also count reference stores, and frame offsets are
// encoded as the class file format requires.
func LegacyOptions() Options {
	o := DefaultOptions()
	o.Stack = StackLegacy
	o.Locals = LocalsPerStore
	return o
}
