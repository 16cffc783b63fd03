package libr3

import (
	"github.com/go-playground/validator/v10"

	"github.com/hostilefork/ren-go/errors"
)

var validate = validator.New()

// Config describes where the libr3 wasm build comes from and how much
// room it gets.
type Config struct {
	// WasmPath is the filesystem location of the libr3 core module.
	// Exactly one of WasmPath and WasmBytes must be set.
	WasmPath string `validate:"required_without=WasmBytes,excluded_with=WasmBytes"`

	// WasmBytes is the libr3 core module loaded by the caller.
	WasmBytes []byte `validate:"required_without=WasmPath"`

	// MemoryLimitPages caps the instance's linear memory in 64KB pages.
	// 0 means the wazero default (4GB).
	MemoryLimitPages uint32 `validate:"max=65536"`
}

func (c *Config) check() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("invalid runtime configuration").
			Cause(err).
			Build()
	}
	return nil
}
