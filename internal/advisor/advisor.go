// Package advisor is the LLM-backed portfolio chat. It keeps a bounded
// conversation window so token usage stays flat over long sessions.
package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tradepulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

const systemPrompt = `You are a trading assistant for a crypto bot dashboard.
You can discuss the user's bots, open positions, market conditions and the
EMA/RSI strategy the bots run. Be concise. Never invent balances or fills;
rely only on the portfolio context provided.`

// ConversationStore persists chat turns.
type ConversationStore interface {
	AppendMessage(ctx context.Context, msg domain.ConversationMessage) error
	RecentMessages(ctx context.Context, n int) ([]domain.ConversationMessage, error)
}

// Completer produces one assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, system string, history []domain.ConversationMessage, question string) (string, error)
}

// ContextFunc supplies the current portfolio summary injected into the
// system prompt. May be nil.
type ContextFunc func() string

type Advisor struct {
	tracer     trace.Tracer
	completer  Completer
	store      ConversationStore
	portfolio  ContextFunc
	maxHistory int
}

func New(tracer trace.Tracer, completer Completer, store ConversationStore, portfolio ContextFunc, maxHistory int) *Advisor {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Advisor{
		tracer:     tracer,
		completer:  completer,
		store:      store,
		portfolio:  portfolio,
		maxHistory: maxHistory,
	}
}

// Ask answers one user question with the recent history as context. The
// turn is persisted only after a successful completion.
func (a *Advisor) Ask(ctx context.Context, question string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	var history []domain.ConversationMessage
	if a.store != nil {
		var err error
		history, err = a.store.RecentMessages(ctx, a.maxHistory)
		if err != nil {
			log.Printf("conversation history load failed: %v", err)
			history = nil
		}
	}

	system := systemPrompt
	if a.portfolio != nil {
		if summary := a.portfolio(); summary != "" {
			system += "\n\nCurrent portfolio:\n" + summary
		}
	}

	answer, err := a.completer.Complete(ctx, system, history, question)
	if err != nil {
		return "", fmt.Errorf("advisor completion: %w", err)
	}

	if a.store != nil {
		now := time.Now().UTC()
		for _, msg := range []domain.ConversationMessage{
			{Role: "user", Content: question, CreatedAt: now},
			{Role: "assistant", Content: answer, CreatedAt: now},
		} {
			if err := a.store.AppendMessage(ctx, msg); err != nil {
				log.Printf("conversation append failed: %v", err)
			}
		}
	}
	return answer, nil
}

// OpenAIClient is the production Completer.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, history []domain.ConversationMessage, question string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(system))
	for _, msg := range history {
		switch msg.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(question))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
