package vm

import "errors"

var (
	// ErrNoSuchMethod is the structural failure generated handlers recover from.
	ErrNoSuchMethod   = errors.New("no such method")
	ErrNoSuchField    = errors.New("no such field")
	ErrNoSuchClass    = errors.New("no such class")
	ErrNoSuchUnit     = errors.New("no such unit")
	ErrNoSuchBean     = errors.New("no such bean")
	ErrValueNotFound  = errors.New("value not found")
	ErrClassCast      = errors.New("class cast")
	ErrNullReceiver   = errors.New("null receiver")
	ErrBadInstruction = errors.New("bad instruction")
)
