package alert

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tradepulse/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type TickerQuerier interface {
	Ticker(ctx context.Context, symbol string) (*domain.Ticker, error)
}

type StatusLister interface {
	ListStatuses(ctx context.Context) ([]BotStatusView, error)
}

// BotStatusView is the subset of bot state the Telegram surface shows.
type BotStatusView struct {
	ID       string
	Symbol   string
	State    domain.BotState
	Balance  float64
	Position *domain.Position
}

type AdvisorQuerier interface {
	Ask(ctx context.Context, message string) (string, error)
}

// StartTelegramBot wires the chat commands and returns the dispatcher
// used for proactive fill and kill alerts. Returns nil when no token is
// configured.
func StartTelegramBot(token string, market TickerQuerier, statuses StatusLister, advisorService AdvisorQuerier) *AlertDispatcher {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC/USDT\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !strings.Contains(symbol, "/") {
			symbol += "/USDT"
		}
		if !domain.IsSupportedSymbol(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		tk, err := market.Ticker(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			symbol, tk.Price, tk.Change24h, tk.Volume24h,
		)
		if tk.Stale {
			msg += "\n(stale, provider unreachable)"
		}
		return c.Send(msg)
	})

	b.Handle("/status", func(c tele.Context) error {
		if statuses == nil {
			return c.Send("Status service unavailable")
		}
		views, err := statuses.ListStatuses(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching statuses: %v", err))
		}
		if len(views) == 0 {
			return c.Send("No bots configured.")
		}
		lines := make([]string, 0, len(views))
		for _, v := range views {
			line := fmt.Sprintf("%s %s [%s] balance $%.2f", v.ID, v.Symbol, v.State, v.Balance)
			if v.Position != nil {
				line += fmt.Sprintf(", holding %.6f @ %.2f", v.Position.Size, v.Position.EntryPrice)
			}
			lines = append(lines, line)
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Fill and kill alerts enabled for this chat.")
			}
			return c.Send("Alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Alerts disabled for this chat.")
			}
			return c.Send("Alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	b.Handle("/ask", func(c tele.Context) error {
		if advisorService == nil {
			return c.Send("Advisor not configured. Set OPENAI_API_KEY to enable.")
		}
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" {
			return c.Send("Usage: /ask <question>\nExample: /ask should I trim my BTC position?")
		}
		return handleAdvisorQuery(c, advisorService, question)
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func handleAdvisorQuery(c tele.Context, adv AdvisorQuerier, question string) error {
	_ = c.Notify(tele.Typing)

	reply, err := adv.Ask(context.Background(), question)
	if err != nil {
		log.Printf("advisor error for chat %d: %v", c.Chat().ID, err)
		return c.Send("Sorry, I'm having trouble right now. Try /price or /status for raw data.")
	}

	if len(reply) > 4000 {
		reply = reply[:4000] + "\n\n[truncated]"
	}

	return c.Send(reply)
}
