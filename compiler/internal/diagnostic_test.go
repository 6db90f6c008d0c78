package internal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostic_Error(t *testing.T) {
	d := newDiagnostic(DeclarationError, Pos{Line: 3, Col: 9}, "identifier %s used before declaration", "c")
	assert.Equal(t, "3:9: declaration error: identifier c used before declaration", d.Error())
	d = newDiagnostic(TypeError, Pos{}, "boom")
	assert.Equal(t, "type error: boom", d.Error())

	wrapped := fmt.Errorf("compiling: %w", newDiagnostic(ContextError, Pos{Line: 1, Col: 1}, "x"))
	unwrapped, ok := AsDiagnostic(wrapped)
	require.True(t, ok)
	assert.Equal(t, ContextError, unwrapped.Kind)
	_, ok = AsDiagnostic(errors.New("plain"))
	assert.False(t, ok)
}

func TestRenderDiagnostic(t *testing.T) {
	testData := []struct {
		Source       string
		Err          error
		ContextLines int
		Expect       string
	}{
		{
			Source:       "Int a = 1;\n\nInt b = c;",
			Err:          newDiagnostic(DeclarationError, Pos{Line: 3, Col: 9}, "identifier c used before declaration"),
			ContextLines: 3,
			Expect: "3:9\n" +
				"1 | Int a = 1;\n" +
				"3 | Int b = c;\n" +
				"  |         ^\n" +
				"declaration error: identifier c used before declaration\n",
		},
		{
			Source:       "Int a = 1;\nInt b = 2;\nInt c = d;",
			Err:          newDiagnostic(DeclarationError, Pos{Line: 3, Col: 9}, "identifier d used before declaration"),
			ContextLines: 1,
			Expect: "3:9\n" +
				"2 | Int b = 2;\n" +
				"3 | Int c = d;\n" +
				"  |         ^\n" +
				"declaration error: identifier d used before declaration\n",
		},
		{
			Source: "Int a;\nFloat a;",
			Err: newDiagnostic(DeclarationError, Pos{Line: 2, Col: 1}, "identifier a already declared").
				withOther(Pos{Line: 1, Col: 1}, "a is first declared here"),
			ContextLines: 3,
			Expect: "2:1\n" +
				"1 | Int a;\n" +
				"2 | Float a;\n" +
				"  | ^\n" +
				"declaration error: identifier a already declared\n" +
				"1:1\n" +
				"1 | Int a;\n" +
				"  | ^\n" +
				"note: a is first declared here\n",
		},
		{
			Source:       "every 1s {\n\tbreak;\n}",
			Err:          newDiagnostic(ContextError, Pos{Line: 2, Col: 2}, "attempted to break but was not inside a loop"),
			ContextLines: 0,
			Expect: "2:2\n" +
				"2 | \tbreak;\n" +
				"  | \t^\n" +
				"context error: attempted to break but was not inside a loop\n",
		},
		{
			Source:       "Int a;",
			Err:          newDiagnostic(TypeError, Pos{}, "boom"),
			ContextLines: 3,
			Expect:       "position unavailable\ntype error: boom\n",
		},
		{
			Source:       "Int a;",
			Err:          errors.New("reading source: no such file"),
			ContextLines: 3,
			Expect:       "error: reading source: no such file\n",
		},
	}
	for _, data := range testData {
		var buf bytes.Buffer
		RenderDiagnostic(&buf, data.Source, data.Err, RenderOptions{ContextLines: data.ContextLines, Color: ColorNever})
		assert.Equal(t, data.Expect, buf.String())
	}
}

func TestRenderDiagnostic_Color(t *testing.T) {
	var buf bytes.Buffer
	err := newDiagnostic(TypeError, Pos{Line: 1, Col: 5}, "boom")
	RenderDiagnostic(&buf, "Int a;", err, RenderOptions{ContextLines: 3, Color: ColorAlways})
	assert.Contains(t, buf.String(), ansiRed+"^"+ansiReset)
	assert.Contains(t, buf.String(), ansiCyan+"1:5"+ansiReset)

	buf.Reset()
	RenderDiagnostic(&buf, "Int a;", err, RenderOptions{ContextLines: 3, Color: ColorAuto})
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestColorMode_UseColor(t *testing.T) {
	assert.True(t, ColorAlways.UseColor(os.Stderr))
	assert.False(t, ColorNever.UseColor(os.Stderr))
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorAuto.UseColor(os.Stderr))
}

func TestInternalError(t *testing.T) {
	assert.PanicsWithError(t, "internal compiler error: scope 3 is still open", func() {
		internalError("scope %d is still open", 3)
	})
}
