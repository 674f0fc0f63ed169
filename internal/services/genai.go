package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GenAIResponder produces free-form replies for messages the scripted flow
// has no answer for. It is optional: enabled with GENERATIVE_FALLBACK=true
// and an OPENAI_API_KEY. The state machine stays authoritative; this only
// replaces the static "unknown command" reminders.
type GenAIResponder struct {
	client openai.Client
	model  openai.ChatModel
}

const genaiSystemPrompt = `Eres el asistente de Musuq Delivery, una plataforma de pedidos de comida por WhatsApp en Perú. Responde en español, en una o dos frases amables. Si el cliente quiere pedir comida, recuérdale que puede escribir "hola" para empezar un pedido y "estado" para consultar su pedido activo. No inventes restaurantes, precios ni tiempos de entrega.`

// NewGenAIResponder initializes the responder from environment variables.
// Returns nil (not an error) when the fallback is disabled.
func NewGenAIResponder() (*GenAIResponder, error) {
	if os.Getenv("GENERATIVE_FALLBACK") != "true" {
		return nil, nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GENERATIVE_FALLBACK enabled but OPENAI_API_KEY not set")
	}

	return &GenAIResponder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Reply generates a short conversational answer to the customer message
func (g *GenAIResponder) Reply(message string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(genaiSystemPrompt),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
