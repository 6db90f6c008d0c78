package internal

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	code, err := Compile("Int a = 0; every 1000ms { a += 1; }", CompileOptions{Logger: logger})
	require.Nil(t, err)
	assert.Contains(t, code, "int g__a;")
	assert.Equal(t, "compiler: start parser\n"+
		"compiler: start building symbol table\n"+
		"compiler: start constraint checker\n"+
		"compiler: start type checker\n"+
		"compiler: start generate codes\n", buf.String())
}

func TestCompile_StopsAtFirstError(t *testing.T) {
	testData := []struct {
		Content  string
		Kind     DiagnosticKind
		LastStep string
	}{
		{Content: "Int a = ;", Kind: SyntaxError, LastStep: "compiler: start parser\n"},
		{Content: "Int a = b;", Kind: DeclarationError, LastStep: "compiler: start building symbol table\n"},
		{Content: "init { } init { }", Kind: ContextError, LastStep: "compiler: start constraint checker\n"},
		{Content: "Int a = 5.5;", Kind: TypeError, LastStep: "compiler: start type checker\n"},
	}
	for _, data := range testData {
		var buf bytes.Buffer
		code, err := Compile(data.Content, CompileOptions{Logger: log.New(&buf, "", 0)})
		assert.Equal(t, "", code, data.Content)
		diag, ok := AsDiagnostic(err)
		if assert.True(t, ok, data.Content) {
			assert.Equal(t, data.Kind, diag.Kind, data.Content)
		}
		assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte(data.LastStep)), data.Content)
	}
}

func TestCompile_NilLogger(t *testing.T) {
	code, err := Compile(`every 1s { println("tick"); }`, CompileOptions{Generate: GenerateOptions{SerialBaud: 9600}})
	require.Nil(t, err)
	assert.Contains(t, code, "  Serial.begin(9600);\n")
	assert.Contains(t, code, "    Serial.println(\"tick\");\n")
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	config := "output: out/blink.ino\nserial_baud: 115200\nincludes: [Servo.h]\n"
	require.Nil(t, os.WriteFile(filepath.Join(dir, "tickc.yaml"), []byte(config), 0o644))
	source := filepath.Join(dir, "blink.tick")
	require.Nil(t, os.WriteFile(source, []byte(`every 1s { println("tick"); }`), 0o644))

	var buf bytes.Buffer
	result, err := CompileFile(source, nil, log.New(&buf, "", 0))
	require.Nil(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "blink.ino"), result.OutputPath)
	assert.Contains(t, result.Code, "#include <Servo.h>\n")
	assert.Contains(t, result.Code, "Serial.begin(115200);")
	assert.Contains(t, buf.String(), "compiler: compiling "+source)

	require.Nil(t, WriteSketch(result.OutputPath, result.Code))
	written, err := os.ReadFile(result.OutputPath)
	require.Nil(t, err)
	assert.Equal(t, result.Code, string(written))
}

func TestCompileFile_Errors(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "broken.tick")
	require.Nil(t, os.WriteFile(source, []byte("every 1s { break; }"), 0o644))

	result, err := CompileFile(source, DefaultConfig(), nil)
	require.NotNil(t, result)
	assert.Equal(t, "every 1s { break; }", result.Source)
	assert.Equal(t, filepath.Join(dir, "broken.ino"), result.OutputPath)
	diag, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ContextError, diag.Kind)

	result, err = CompileFile(filepath.Join(dir, "missing.tick"), DefaultConfig(), nil)
	assert.Nil(t, result)
	assert.NotNil(t, err)
	_, ok = AsDiagnostic(err)
	assert.False(t, ok)
}
