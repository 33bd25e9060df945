package hcl

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type endpoint struct {
	Host string `arg:"host,required"`
	Port int    `arg:"port"`
}

type requestArgs struct {
	URL      string            `arg:"url,required"`
	Retries  int               `arg:"retries"`
	Timeout  time.Duration     `arg:"timeout"`
	Tags     []string          `arg:"tags"`
	Headers  map[string]string `arg:"headers"`
	Payload  any               `arg:"payload"`
	Raw      cty.Value         `arg:"raw"`
	Endpoint endpoint          `arg:"endpoint"`
	Verbose  bool              `arg:"verbose"`
}

func parseArgs(t *testing.T, src map[string]string) map[string]hcl.Expression {
	t.Helper()
	out := make(map[string]hcl.Expression, len(src))
	for name, expr := range src {
		e, diags := hclsyntax.ParseExpression([]byte(expr), name+".hcl", hcl.Pos{Line: 1, Column: 1})
		require.False(t, diags.HasErrors(), diags.Error())
		out[name] = e
	}
	return out
}

func testConverter() *Converter {
	return &Converter{environ: func() []string {
		return []string{"HOME=/home/steve", "BROKEN", "EMPTY="}
	}}
}

func TestConverter_DecodeArguments(t *testing.T) {
	c := testConverter()
	evalCtx, err := c.EvalContext("1.20.1")
	require.NoError(t, err)

	args := parseArgs(t, map[string]string{
		"url":      `"https://example.invalid/${input}.json"`,
		"retries":  `3`,
		"timeout":  `"1500ms"`,
		"tags":     `["a", "b"]`,
		"headers":  `{ Accept = "application/json" }`,
		"payload":  `{ n = 1, ok = true, list = [env.HOME] }`,
		"raw":      `"kept"`,
		"endpoint": `{ host = "localhost", port = "8080" }`,
	})

	var got requestArgs
	require.NoError(t, c.DecodeArguments(context.Background(), &got, args, evalCtx))

	assert.Equal(t, "https://example.invalid/1.20.1.json", got.URL)
	assert.Equal(t, 3, got.Retries)
	assert.Equal(t, 1500*time.Millisecond, got.Timeout)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, got.Headers)
	assert.Equal(t, map[string]any{"n": 1.0, "ok": true, "list": []any{"/home/steve"}}, got.Payload)
	assert.True(t, got.Raw.Equals(cty.StringVal("kept")).True())
	assert.Equal(t, endpoint{Host: "localhost", Port: 8080}, got.Endpoint)
	assert.False(t, got.Verbose)
}

func TestConverter_DecodeArguments_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    map[string]string
		wantErr string
	}{
		{"missing required", map[string]string{"retries": `1`}, `missing required argument "url"`},
		{"unknown argument", map[string]string{"url": `"x"`, "color": `"red"`, "bogus": `1`}, "unsupported argument(s): bogus, color"},
		{"type mismatch", map[string]string{"url": `"x"`, "retries": `"many"`}, `failed to decode argument "retries"`},
		{"bad duration", map[string]string{"url": `"x"`, "timeout": `"later"`}, `failed to decode argument "timeout"`},
		{"null required", map[string]string{"url": `null`}, `required argument "url" must not be null`},
		{"undefined variable", map[string]string{"url": `nope`}, `argument "url"`},
		{"nested required", map[string]string{"url": `"x"`, "endpoint": `{ port = 1 }`}, `missing required attribute "host"`},
	}

	c := testConverter()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evalCtx, err := c.EvalContext(nil)
			require.NoError(t, err)

			var got requestArgs
			err = c.DecodeArguments(context.Background(), &got, parseArgs(t, tc.args), evalCtx)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConverter_DecodeArguments_RejectsNonStructTarget(t *testing.T) {
	var s string
	err := testConverter().DecodeArguments(context.Background(), &s, nil, nil)
	assert.ErrorContains(t, err, "non-nil pointer to a struct")
}

func TestConverter_EvalContext(t *testing.T) {
	evalCtx, err := testConverter().EvalContext(map[string]any{"version": "1.20.1"})
	require.NoError(t, err)

	env := evalCtx.Variables["env"]
	assert.True(t, env.GetAttr("HOME").Equals(cty.StringVal("/home/steve")).True())
	assert.True(t, env.GetAttr("EMPTY").Equals(cty.StringVal("")).True())
	assert.False(t, env.Type().HasAttribute("BROKEN"))

	in := evalCtx.Variables["input"]
	assert.True(t, in.GetAttr("version").Equals(cty.StringVal("1.20.1")).True())

	empty, err := testConverter().EvalContext(nil)
	require.NoError(t, err)
	assert.True(t, empty.Variables["input"].IsNull())
}

func TestConverter_RoundTrip(t *testing.T) {
	c := NewConverter()
	native := map[string]any{
		"name":  "steve",
		"ok":    true,
		"count": 2.5,
		"items": []any{"a", 1.0, nil},
	}

	v, err := c.ToCtyValue(native)
	require.NoError(t, err)
	back, err := c.FromCtyValue(v)
	require.NoError(t, err)

	assert.Equal(t, native, back)
}

func TestConverter_ToCtyValue_ImpliedTypes(t *testing.T) {
	c := NewConverter()

	v, err := c.ToCtyValue(42)
	require.NoError(t, err)
	assert.True(t, v.Equals(cty.NumberIntVal(42)).True())

	v, err = c.ToCtyValue([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, cty.List(cty.String), v.Type())

	v, err = c.ToCtyValue(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = c.ToCtyValue(make(chan int))
	assert.Error(t, err)

	_, err = c.FromCtyValue(cty.UnknownVal(cty.String))
	assert.Error(t, err)
}

func TestConverter_DecodeArguments_Functions(t *testing.T) {
	c := testConverter()
	evalCtx, err := c.EvalContext(map[string]any{"version": "v1.20.1", "parts": []any{"a", "b"}})
	require.NoError(t, err)

	args := parseArgs(t, map[string]string{
		"url":  `format("https://%s/%s", "example.invalid", upper(input.version))`,
		"tags": `split(",", join(",", input.parts))`,
	})

	var got requestArgs
	require.NoError(t, c.DecodeArguments(context.Background(), &got, args, evalCtx))

	assert.Equal(t, "https://example.invalid/V1.20.1", got.URL)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}
