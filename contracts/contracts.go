// Package contracts embeds the OpenAPI documents served and enforced by the API.
package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// SlugAliasesName is the public documentation name of the slug aliases contract.
const SlugAliasesName = "slug-aliases"

//go:embed slug-aliases.yaml
var slugAliasesYAML []byte

var documents = map[string][]byte{
	SlugAliasesName: slugAliasesYAML,
}

// Names returns the embedded contract names.
func Names() []string {
	return []string{SlugAliasesName}
}

// Load parses and validates the named contract. Every call returns a fresh document, so callers may mutate it.
func Load(ctx context.Context, name string) (*openapi3.T, error) {
	raw, ok := documents[name]
	if !ok {
		return nil, fmt.Errorf("unknown contract %q", name)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("load contract %s: %w", name, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate contract %s: %w", name, err)
	}
	return doc, nil
}

// GetSwagger loads the slug aliases contract.
func GetSwagger() (*openapi3.T, error) {
	return Load(context.Background(), SlugAliasesName)
}
