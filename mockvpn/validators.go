package mockvpn

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// BodyValidator checks a parsed JSON request body. The body has the form produced by
// encoding/json when decoding into an interface{}.
type BodyValidator interface {
	ValidateBody(body interface{}) error
}

// BodyValidatorFunc adapts a plain function to BodyValidator.
type BodyValidatorFunc func(body interface{}) error

func (f BodyValidatorFunc) ValidateBody(body interface{}) error { return f(body) }

// SchemaValidator validates bodies against a compiled JSON Schema (draft 2020-12).
type SchemaValidator struct {
	name   string
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles a schema document.
func NewSchemaValidator(name string, schemaJSON []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema %q: %w", name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %q: %w", name, err)
	}
	return &SchemaValidator{name: name, schema: schema}, nil
}

func (v *SchemaValidator) ValidateBody(body interface{}) error {
	err := v.schema.Validate(body)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	var problems []string
	collectSchemaProblems(verr, &problems)
	return fmt.Errorf("body does not match %s schema: %s", v.name, strings.Join(problems, "; "))
}

func (v *SchemaValidator) String() string {
	return v.name
}

func collectSchemaProblems(err *jsonschema.ValidationError, into *[]string) {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		*into = append(*into, location+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaProblems(cause, into)
	}
}

func mustSchemaValidator(name string) *SchemaValidator {
	data, err := schemaFiles.ReadFile("schemas/" + name + ".json")
	if err != nil {
		panic(err)
	}
	v, err := NewSchemaValidator(name, data)
	if err != nil {
		panic(err)
	}
	return v
}

// Validators for the request bodies the VPN client sends.
var (
	GuardianDeviceValidator      = mustSchemaValidator("guardian_device")       //nolint:gochecknoglobals
	GuardianLoginVerifyValidator = mustSchemaValidator("guardian_login_verify") //nolint:gochecknoglobals
	FxALoginValidator            = mustSchemaValidator("fxa_login")             //nolint:gochecknoglobals
	FxAVerifyTotpValidator       = mustSchemaValidator("fxa_verify_totp")       //nolint:gochecknoglobals
)
