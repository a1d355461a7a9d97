package manifest

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleManifest = `{
  "name": "@acme/web",
  "version": "1.0.0",
  "private": true,
  "scripts": {
    "build": "tsc -p ."
  },
  "dependencies": {
    "react": "^17.0.2",
    "@types/node": "^18.0.0"
  },
  "devDependencies": {
    "typescript": "^4.9.0"
  },
  "resolveModules": [
    "lodash"
  ],
  "resolutions": {
    "**/lodash": "4.17.20"
  },
  "workspaces": [
    "packages/*"
  ]
}
`

func TestParse(t *testing.T) {
	m, err := Parse("package.json", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Name != "@acme/web" {
		t.Errorf("expected name @acme/web, got %s", m.Name)
	}
	if got := m.Dependencies.Keys(); !reflect.DeepEqual(got, []string{"react", "@types/node"}) {
		t.Errorf("dependencies out of order: %v", got)
	}
	if spec, ok := m.DevDependencies.Get("typescript"); !ok || spec != "^4.9.0" {
		t.Errorf("expected typescript ^4.9.0, got %q (ok=%v)", spec, ok)
	}
	if m.PeerDependencies != nil || m.OptionalDependencies != nil {
		t.Error("absent categories should stay nil")
	}
	if !reflect.DeepEqual(m.ResolveModules, []string{"lodash"}) {
		t.Errorf("unexpected resolveModules %v", m.ResolveModules)
	}
	if spec, _ := m.Resolutions.Get("**/lodash"); spec != "4.17.20" {
		t.Errorf("unexpected resolution %q", spec)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty file", data: ""},
		{name: "not JSON", data: "name: web\n"},
		{name: "array at top level", data: "[]\n"},
		{name: "null at top level", data: "null\n"},
		{name: "trailing garbage", data: "{} {}\n"},
		{name: "numeric version spec", data: `{"dependencies": {"react": 17}}`},
		{name: "dependencies as array", data: `{"dependencies": ["react"]}`},
		{name: "resolveModules as string", data: `{"resolveModules": "lodash"}`},
		{name: "resolveModules with numbers", data: `{"resolveModules": [1]}`},
		{name: "numeric name", data: `{"name": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("broken/package.json", []byte(tt.data))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Path != "broken/package.json" {
				t.Errorf("expected path in error, got %s", parseErr.Path)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m, err := Parse("package.json", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rendered, err := m.Render(LineEndingLF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rendered) != sampleManifest {
		t.Errorf("round trip changed the manifest:\n%s", rendered)
	}
}

func TestMarshalReflectsChanges(t *testing.T) {
	m, err := Parse("package.json", []byte(`{
  "name": "app",
  "dependencies": {
    "a": "^1.0.0",
    "b": "^1.0.0"
  },
  "license": "MIT"
}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Dependencies.Set("a", "^2.0.0")
	m.Resolutions = NewDependencyMap()
	m.Resolutions.Set("**/c", "3.0.0")

	out, err := m.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{
  "name": "app",
  "dependencies": {
    "a": "^2.0.0",
    "b": "^1.0.0"
  },
  "license": "MIT",
  "resolutions": {
    "**/c": "3.0.0"
  }
}`
	if string(out) != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestMarshalKeepsUnknownFieldsAndEscapes(t *testing.T) {
	input := `{"name":"x","description":"a <b> & c","nested":{"deep":[1,2.50,{"k":null}]},"empty":{},"list":[]}`
	m, err := Parse("package.json", []byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := m.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, fragment := range []string{
		`"description": "a <b> & c"`,
		`2.50`,
		`"k": null`,
		`"empty": {}`,
		`"list": []`,
	} {
		if !strings.Contains(string(out), fragment) {
			t.Errorf("expected output to contain %s:\n%s", fragment, out)
		}
	}
}

func TestDuplicateKeysKeepLastValue(t *testing.T) {
	m, err := Parse("package.json", []byte(`{"dependencies":{"a":"1.0.0","a":"2.0.0"},"name":"first","name":"second"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec, _ := m.Dependencies.Get("a"); spec != "2.0.0" {
		t.Errorf("expected last value for a, got %s", spec)
	}
	if m.Dependencies.Len() != 1 {
		t.Errorf("expected one dependency, got %d", m.Dependencies.Len())
	}
	if m.Name != "second" {
		t.Errorf("expected last name, got %s", m.Name)
	}
}
