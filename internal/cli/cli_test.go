package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fakeProvider(t *testing.T, answer string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(server.Close)

	t.Setenv("LLM_PROVIDER", "http")
	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "error")
	return server, &bodies
}

func TestFormatsCommand(t *testing.T) {
	out, err := run(t, "", "formats")
	require.NoError(t, err)

	assert.Contains(t, out, "auto (default)")
	assert.Contains(t, out, "100mmH x 100mmW x 100mmD")
	assert.Contains(t, out, `12 1/2" H x 12 1/2" W x 12 1/2" D`)
	assert.Contains(t, out, "Modes: auto, metric, imperial")
}

func TestConvertCommandFromArgs(t *testing.T) {
	_, bodies := fakeProvider(t, `3 15/16" H x 2" W x 1" D`)

	out, err := run(t, "", "convert", "--format", "format3", "100H x 50W x 25D")
	require.NoError(t, err)
	assert.Contains(t, out, `3 15/16" H x 2" W x 1" D`)

	require.Len(t, *bodies, 1)
	body := (*bodies)[0]
	assert.Equal(t, "gpt-4", body["model"])
	assert.EqualValues(t, 0, body["temperature"])
	assert.EqualValues(t, 150, body["max_tokens"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Input: 100H x 50W x 25D\n")
	assert.Contains(t, user, `Target Format: 12 1/2" H x 12 1/2" W x 12 1/2" D`)
}

func TestConvertCommandFromStdinWithMode(t *testing.T) {
	_, bodies := fakeProvider(t, "305H x 152W x 76D (mm)")

	out, err := run(t, "12\" H x 6\" W x 3\" D\n", "convert", "--mode", "metric", "--model", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Contains(t, out, "305H x 152W x 76D (mm)")

	require.Len(t, *bodies, 1)
	assert.Equal(t, "gpt-4o-mini", (*bodies)[0]["model"])
	user := (*bodies)[0]["messages"].([]any)[1].(map[string]any)["content"].(string)
	// Без --format берётся первый формат режима.
	assert.Contains(t, user, "Target Format: 100mmH x 100mmW x 100mmD")
}

func TestConvertCommandErrors(t *testing.T) {
	_, bodies := fakeProvider(t, "unused")

	_, err := run(t, "", "convert")
	assert.ErrorContains(t, err, "no dimension text")

	_, err = run(t, "", "convert", "--mode", "nautical", "1 x 2")
	assert.ErrorContains(t, err, "unknown mode")

	_, err = run(t, "", "convert", "--mode", "imperial", "--format", "format1", "1 x 2")
	assert.Error(t, err)

	assert.Empty(t, *bodies)
}

func TestConvertWithoutAPIKeyGetsProviderError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"You didn't provide an API key.","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(server.Close)

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "", "convert", "100H x 50W x 25D")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "init llm client")
	assert.Equal(t, 1, calls)
}
