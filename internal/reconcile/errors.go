package reconcile

import "errors"

var (
	ErrUnknownField = errors.New("unknown field")
	ErrFieldType    = errors.New("wrong value type for field")
	ErrNotEditable  = errors.New("field does not accept direct entry")
	ErrNoSession    = errors.New("no edit session for field")
	ErrEditLocked   = errors.New("field is being edited by another operator")
	ErrInvalidInput = errors.New("input is not a finite number")
)
