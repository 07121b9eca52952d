package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/infrastructure/ai"
)

func fakeAnthropic(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "claude-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		resp, _ := json.Marshal(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
		_, _ = w.Write(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSuggestSinglePhase_ParsesMarkdownJSON(t *testing.T) {
	text := "Segue:\n```json\n" + `{"suggestions": [
		{"description": "IPA artesanal 500ml", "category": "Cerveja", "keyword": "IPA", "confidence": 1.4, "reasoning": "estilo de cerveja"},
		{"description": "Vinho tinto", "category": "vinho", "keyword": "vinho", "confidence": 0.8}
	]}` + "\n```"
	srv := fakeAnthropic(t, http.StatusOK, text)

	svc := ai.NewAnthropicService("test-key", "claude-test").WithBaseURL(srv.URL)
	out, err := svc.SuggestSinglePhase(context.Background(), []string{"IPA artesanal 500ml", "Vinho tinto"}, []string{"cerveja"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "cerveja", out[0].Category)
	assert.Equal(t, "ipa", out[0].Keyword)
	assert.Equal(t, 1.0, out[0].Confidence)
	assert.Empty(t, out[1].Category, "categoría fuera de la lista")
}

func TestSuggestSinglePhase_Errors(t *testing.T) {
	_, err := ai.NewAnthropicService("", "claude-test").SuggestSinglePhase(context.Background(), []string{"x"}, nil)
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")

	srv := fakeAnthropic(t, http.StatusServiceUnavailable, "")
	_, err = ai.NewAnthropicService("test-key", "claude-test").WithBaseURL(srv.URL).
		SuggestSinglePhase(context.Background(), []string{"x"}, []string{"cerveja"})
	assert.ErrorContains(t, err, "Overloaded")

	bad := fakeAnthropic(t, http.StatusOK, "não sei")
	_, err = ai.NewAnthropicService("test-key", "claude-test").WithBaseURL(bad.URL).
		SuggestSinglePhase(context.Background(), []string{"x"}, []string{"cerveja"})
	assert.ErrorContains(t, err, "JSON")
}
