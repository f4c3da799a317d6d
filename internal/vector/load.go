package vector

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE []byte

// envelope is the shared {test_vectors: [...]} shape of both fixture files.
type envelope[V any] struct {
	TestVectors []V `json:"test_vectors"`
}

// Load reads the fixture files from dir and returns the suite.
//
// judgments.json and fusion-tests.json are independently optional; a .yaml
// sibling is accepted when the .json file is absent. A missing file yields
// zero vectors for that category. A file that exists but fails to parse or
// to satisfy the embedded schema returns a *LoadError, which is fatal for
// the run: no probe executes against a half-loaded suite.
func Load(dir string) (*Suite, error) {
	suite := &Suite{}

	path, data, err := readFixture(dir, "judgments")
	if err != nil {
		return nil, err
	}
	if data != nil {
		var env envelope[JudgmentVector]
		if err := decodeFixture(path, data, "#JudgmentSuite", &env); err != nil {
			return nil, err
		}
		if err := validateJudgmentVectors(path, env.TestVectors); err != nil {
			return nil, err
		}
		suite.Judgments = env.TestVectors
	}

	path, data, err = readFixture(dir, "fusion-tests")
	if err != nil {
		return nil, err
	}
	if data != nil {
		var env envelope[FusionVector]
		if err := decodeFixture(path, data, "#FusionSuite", &env); err != nil {
			return nil, err
		}
		if err := validateFusionVectors(path, env.TestVectors); err != nil {
			return nil, err
		}
		suite.Fusion = env.TestVectors
	}

	return suite, nil
}

// readFixture returns the path and JSON content of the fixture named base
// in dir, or nil data if no variant of the file exists. YAML variants are
// converted to JSON so that a single schema-validation path handles both.
func readFixture(dir, base string) (string, []byte, error) {
	jsonPath := filepath.Join(dir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err == nil {
		return jsonPath, data, nil
	}
	if !os.IsNotExist(err) {
		return "", nil, &LoadError{Path: jsonPath, Reason: "cannot read file", Err: err}
	}

	yamlPath := filepath.Join(dir, base+".yaml")
	data, err = os.ReadFile(yamlPath)
	if os.IsNotExist(err) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, &LoadError{Path: yamlPath, Reason: "cannot read file", Err: err}
	}

	converted, err := yamlToJSON(data)
	if err != nil {
		return "", nil, &LoadError{Path: yamlPath, Reason: "invalid YAML", Err: err}
	}
	return yamlPath, converted, nil
}

// yamlToJSON re-encodes a YAML document as JSON. Unknown fields are not
// filtered here; the closed CUE definitions reject them during validation.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// decodeFixture validates the JSON document against the named schema
// definition, then decodes it into out. Schema validation runs first so
// malformed fixtures fail with field paths rather than partial decodes.
func decodeFixture(path string, data []byte, definition string, out any) error {
	schema, err := compileSchema(definition)
	if err != nil {
		return &LoadError{Path: path, Reason: "internal schema error", Err: err}
	}

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return &LoadError{Path: path, Reason: "invalid JSON", Err: err}
	}

	val := schema.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &LoadError{Path: path, Reason: "invalid JSON", Err: err}
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{
			Path:   path,
			Reason: fmt.Sprintf("schema violation:\n%s", cueerrors.Details(err, nil)),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &LoadError{Path: path, Reason: "cannot decode file", Err: err}
	}
	return nil
}

// compileSchema compiles the embedded schema and looks up one definition.
func compileSchema(definition string) (cue.Value, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, err
	}
	def := schema.LookupPath(cue.ParsePath(definition))
	if err := def.Err(); err != nil {
		return cue.Value{}, err
	}
	return def, nil
}
