package check

import (
	"bytes"
	"fmt"

	"github.com/jacoelho/xsd"
	"github.com/jacoelho/xsd/xsderrors"
)

// XSDValidator adapts the pure Go XSD engine to the Validator contract.
// The schema is compiled once into a reusable engine; validation draws a
// pooled session per document and is safe for concurrent use.
type XSDValidator struct {
	engine *xsd.Engine
}

// NewXSDValidator compiles the schema at path. Includes and imports resolve
// relative to the schema's directory.
func NewXSDValidator(path string) (*XSDValidator, error) {
	engine, err := xsd.Compile(xsd.File(path))
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", path, err)
	}
	return &XSDValidator{engine: engine}, nil
}

// Validate implements Validator.
func (v *XSDValidator) Validate(xmlData []byte) (bool, []string) {
	err := v.engine.Validate(bytes.NewReader(xmlData))
	if err == nil {
		return true, nil
	}

	if list := xsderrors.Flatten(err); len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for i := range list {
			msgs = append(msgs, list[i].Error())
		}
		return false, msgs
	}
	return false, []string{err.Error()}
}
