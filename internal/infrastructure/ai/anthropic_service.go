package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
)

// Verificar en tiempo de compilación que AnthropicService implementa LLMService.
var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	anthropicSystemPrompt = `Você é um especialista tributário brasileiro em PIS/COFINS monofásico (Lei 10.147/2000, Lei 10.485/2002, Lei 13.097/2015).
Para cada descrição de produto recebida, diga se ela pertence a uma das categorias monofásicas listadas.
Devolva SOMENTE um objeto JSON válido (sem markdown, sem blocos de código` + " ```json" + `) com esta estrutura exata:
{
  "suggestions": [
    {
      "description": "<descrição recebida, sem alterar>",
      "category": "<uma das categorias listadas ou \"\" se não for monofásico>",
      "keyword": "<palavra-chave curta, em minúsculas e sem acentos, que identificaria o produto>",
      "confidence": <número decimal entre 0.0 e 1.0>,
      "reasoning": "<justificativa curta em português, máximo 200 caracteres>"
    }
  ]
}

Regras:
- Use somente as categorias listadas; nunca invente categorias.
- keyword deve ser uma marca ou termo que não gere falsos positivos (evite palavras genéricas como "lata" ou "garrafa").
- confidence: 0.9–1.0 = alta certeza, 0.7–0.89 = provável, <0.7 = estimado.
- Uma entrada em "suggestions" por descrição, na mesma ordem.`
)

// AnthropicService adaptador que implementa LLMService usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// model suele ser "claude-3-5-haiku-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicMessagesURL,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además un context.WithTimeout de 30 s.
			Timeout: 25 * time.Second,
		},
	}
}

// WithBaseURL cambia el endpoint de Messages (proxies, tests).
func (s *AnthropicService) WithBaseURL(url string) *AnthropicService {
	s.baseURL = url
	return s
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// respuesta esperada del modelo
type llmSuggestionPayload struct {
	Suggestions []struct {
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Keyword     string  `json:"keyword"`
		Confidence  float64 `json:"confidence"`
		Reasoning   string  `json:"reasoning"`
	} `json:"suggestions"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
// Captura desde el primer '{' hasta el último '}' coincidente.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// SuggestSinglePhase envía las descripciones sin categoría a Claude y devuelve una
// sugerencia por descripción. Las categorías que no están en categories se descartan.
func (s *AnthropicService) SuggestSinglePhase(
	ctx context.Context,
	descriptions []string,
	categories []string,
) ([]dto.SuggestionDTO, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}
	if len(descriptions) == 0 {
		return []dto.SuggestionDTO{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Categorias monofásicas: %s\n\nDescrições:\n", strings.Join(categories, ", "))
	for i, d := range descriptions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d)
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 2048,
		System:    anthropicSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: b.String()},
		},
	}

	rawText, err := s.send(ctx, payload)
	if err != nil {
		return nil, err
	}

	// Parseo seguro: extraer solo el bloque JSON aunque Claude añada texto adicional.
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var parsed llmSuggestionPayload
	if err := json.Unmarshal([]byte(cleanJSON), &parsed); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de sugerencias: %w (JSON extraído: %s)", err, cleanJSON)
	}

	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	out := make([]dto.SuggestionDTO, 0, len(parsed.Suggestions))
	for _, sg := range parsed.Suggestions {
		category := strings.ToLower(strings.TrimSpace(sg.Category))
		if !allowed[category] {
			category = ""
		}
		confidence := sg.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
		out = append(out, dto.SuggestionDTO{
			Description: sg.Description,
			Category:    category,
			Keyword:     strings.ToLower(strings.TrimSpace(sg.Keyword)),
			Confidence:  confidence,
			Reasoning:   sg.Reasoning,
		})
	}
	return out, nil
}

// send hace la llamada HTTP y devuelve el texto del primer bloque de contenido.
func (s *AnthropicService) send(ctx context.Context, payload anthropicRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return "", fmt.Errorf("AI: leer respuesta: %w", err)
	}

	// Manejar errores HTTP de la API de Anthropic
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}
	for _, c := range anthResp.Content {
		if c.Type == "text" || c.Type == "" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("AI: Claude devolvió respuesta vacía")
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Primero quita los bloques de código markdown y, si no queda un objeto, usa la regex.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		// Quitar la línea de apertura (```json o ```)
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}

	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}
