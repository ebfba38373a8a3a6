package answer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{"nil", nil, nil},
		{"bare string", "Paris", "Paris"},
		{"json string", `"Paris"`, "Paris"},
		{"empty string", "", ""},
		{"broken json", `{"left":`, `{"left":`},
		{"json list", `["a","b"]`, []any{"a", "b"}},
		{"number keeps text", "1e3", json.Number("1e3")},
		{"trailing garbage", `"a" "b"`, `"a" "b"`},
		{"structured passthrough", map[string]any{"a": "b"}, map[string]any{"a": "b"}},
		{"column json string", json.RawMessage(`"Paris"`), "Paris"},
		{"column double encoded", json.RawMessage(`"[\"x\",\"y\"]"`), []any{"x", "y"}},
		{"column raw literal", []byte("Paris"), "Paris"},
		{"column null", json.RawMessage(`null`), nil},
		{"column empty", json.RawMessage(``), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decode(tc.raw))
		})
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{"", " ", "{", "}", "[", `"`, `'`, "null", "nul", "\x00", `{"a":}`, "[1,2", "true false"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Decode(in) }, "input %q", in)
		assert.NotPanics(t, func() { Decode([]byte(in)) }, "bytes %q", in)
	}
}

func TestCleanLiteral(t *testing.T) {
	tests := map[string]string{
		"  Paris  ":      "Paris",
		`"Paris"`:        "Paris",
		`'Paris'`:        "Paris",
		`""Paris""`:      "Paris",
		`" Paris "`:      "Paris",
		`"Paris'`:        `"Paris'`,
		`"`:              `"`,
		`""`:             "",
		`it's`:           "it's",
		`"a" and "b"`:    `a" and "b`,
		"":               "",
		"\t'quoted'\n":   "quoted",
		`"'mixed'"`:      "mixed",
		"no quotes here": "no quotes here",
	}
	for in, want := range tests {
		got := CleanLiteral(in)
		assert.Equal(t, want, got, "CleanLiteral(%q)", in)
		assert.Equal(t, got, CleanLiteral(got), "not idempotent for %q", in)
	}
}

func TestNormalizeForCompare(t *testing.T) {
	assert.Equal(t, "paris", NormalizeForCompare(`  "PARIS" `))
	assert.Equal(t, "tokyo", NormalizeForCompare("Tokyo"))
	assert.Equal(t, "", NormalizeForCompare(`''`))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "42", Text(json.Number("42")))
	assert.Equal(t, "2.5", Text(2.5))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "", Text(map[string]any{"a": 1}))
	assert.Equal(t, "", Text([]any{"a"}))
}

func TestPairs(t *testing.T) {
	v := Decode(`[{"left":"Capital of France","right":"Paris"},"junk",{"left":"Capital of Japan","right":"Tokyo"}]`)
	pairs, ok := Pairs(v)
	require.True(t, ok)
	assert.Equal(t, []Pair{
		{Left: "Capital of France", Right: "Paris"},
		{Left: "Capital of Japan", Right: "Tokyo"},
	}, pairs)

	pairs, ok = Pairs(map[string]any{"b": "2", "a": "1"})
	require.True(t, ok)
	assert.Equal(t, []Pair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}, pairs)

	_, ok = Pairs("not pairs")
	assert.False(t, ok)
}

func TestStrings(t *testing.T) {
	got, ok := Strings(Decode(`["Paris", 3, true]`))
	require.True(t, ok)
	assert.Equal(t, []string{"Paris", "3", "true"}, got)

	_, ok = Strings("Paris")
	assert.False(t, ok)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "Paris", Encode("Paris"))
	assert.Nil(t, Encode(nil))
	assert.Equal(t, `{"Capital of France":"Paris"}`, Encode(map[string]any{"Capital of France": "Paris"}))
	assert.Equal(t, `["a","b"]`, Encode([]any{"a", "b"}))

	// the stored form decodes back to the submitted structure
	stored := Encode(map[string]any{"k": "v"})
	assert.Equal(t, map[string]any{"k": "v"}, Decode(stored))
}
