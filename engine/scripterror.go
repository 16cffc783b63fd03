package engine

import "fmt"

// ScriptError is the decoded, owned snapshot of a runtime error value:
// the script produced an error condition (division by zero, unknown
// word, malformed source) and the trap protocol captured it. It holds
// no runtime handle and stays valid after the engine is closed.
//
// Near, Where, and Line are reserved: the runtime carries them but this
// layer does not decode them yet. They are kept in the type so future
// decoding fills them without a schema change.
type ScriptError struct {
	Type    string
	ID      string
	Message string
	File    string
	Near    string
	Where   string
	Line    int
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("ren error, type: %s, id: %s, message: %s", e.Type, e.ID, e.Message)
}

// decodeScriptError consumes a value known to satisfy the runtime's
// error? predicate, extracting the structured fields. The quoting
// distinction matters: type/id/file are identifier-like and use the
// quoted spelling, message is free text and uses the literal one. The
// value is released on every path.
func (e *Engine) decodeScriptError(v *Value) (*ScriptError, error) {
	defer v.Release()

	typ, err := e.MapField(v, "type", (*Value).UnboxStringQ)
	if err != nil {
		return nil, err
	}
	id, err := e.MapField(v, "id", (*Value).UnboxStringQ)
	if err != nil {
		return nil, err
	}
	message, err := e.MapField(v, "message", (*Value).UnboxString)
	if err != nil {
		return nil, err
	}
	file, err := e.MapField(v, "file", (*Value).UnboxStringQ)
	if err != nil {
		return nil, err
	}

	return &ScriptError{
		Type:    typ,
		ID:      id,
		Message: message,
		File:    file,
	}, nil
}
