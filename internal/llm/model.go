// Package llm оборачивает langchaingo для вызовов языковой модели.
//
// Провайдер и модель задаются переменными окружения; executors
// зависят только от узкого интерфейса генерации.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Поддерживаемые провайдеры.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

const defaultModel = "gpt-4o-mini"

// Model — обёртка над langchaingo LLM.
type Model struct {
	llm         llms.Model
	modelName   string
	temperature float64
}

// NewFromEnv создаёт модель из переменных окружения:
//
//	LLM_PROVIDER    — openai (по умолчанию), ollama, anthropic
//	LLM_MODEL       — имя модели (по умолчанию gpt-4o-mini)
//	OPENAI_API_KEY  — ключ для openai
//	OPENAI_BASE_URL — необязательный кастомный endpoint
//	OLLAMA_HOST     — адрес сервера ollama
//	ANTHROPIC_API_KEY — ключ для anthropic
func NewFromEnv() (*Model, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = ProviderOpenAI
	}

	modelName := os.Getenv("LLM_MODEL")
	if modelName == "" {
		modelName = defaultModel
	}

	var model llms.Model
	var err error

	switch provider {
	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(modelName),
		}
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		model, err = ollama.New(
			ollama.WithModel(modelName),
			ollama.WithServerURL(host),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case ProviderAnthropic:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(apiKey),
			anthropic.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return &Model{
		llm:         model,
		modelName:   modelName,
		temperature: 0.1,
	}, nil
}

// Generate выполняет один вызов модели с текстовым промптом.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt,
		llms.WithTemperature(m.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// Tag возвращает тег модели для ключей кэша.
//
// Тег включает версию промптов: изменение промпта инвалидирует
// закэшированные результаты так же, как смена модели.
func (m *Model) Tag() string {
	return m.modelName + "/" + PromptVersion
}

// ExtractJSON вырезает JSON-объект из ответа модели.
// Модели нередко оборачивают JSON в markdown-ограждения или
// сопровождают пояснением; берём содержимое от первой '{' до последней '}'.
func ExtractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return ""
	}
	return response[start : end+1]
}
