package http

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce sync.Once
	specDoc  *openapi3.T
	specErr  error
)

// Spec returns the parsed and validated API document.
func Spec() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		specDoc, specErr = loader.LoadFromData(rawSpec)
		if specErr != nil {
			return
		}
		specErr = specDoc.Validate(loader.Context)
	})
	return specDoc, specErr
}

// validateParams checks decoded RPC params against a component schema.
func validateParams(name string, params map[string]any) error {
	doc, err := Spec()
	if err != nil {
		return err
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %s is not defined", name)
	}
	return ref.Value.VisitJSON(params)
}
