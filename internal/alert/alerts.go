package alert

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"tradepulse/internal/domain"
	"tradepulse/internal/ledger"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AlertDispatcher broadcasts fills and kill events to subscribed chats.
type AlertDispatcher struct {
	sender messageSender

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		subscribers: make(map[int64]struct{}),
	}
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; exists {
		return false
	}
	d.subscribers[chatID] = struct{}{}
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// NotifyFill pushes one applied fill to every subscriber.
func (d *AlertDispatcher) NotifyFill(bot domain.Bot, res ledger.FillResult) {
	if d == nil || !res.Applied {
		return
	}
	d.broadcast(formatFillMessage(bot, res))
}

// NotifyKill pushes the kill-switch event to every subscriber.
func (d *AlertDispatcher) NotifyKill(bot domain.Bot) {
	if d == nil {
		return
	}
	d.broadcast(fmt.Sprintf("Kill switch engaged on bot %s (%s). No further orders will be placed.", bot.ID, bot.Symbol))
}

func (d *AlertDispatcher) broadcast(msg string) {
	if d.sender == nil {
		return
	}
	for _, chatID := range d.snapshotSubscribers() {
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			log.Printf("alert send failed for chat %d: %v", chatID, err)
		}
	}
}

func (d *AlertDispatcher) snapshotSubscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chatIDs := make([]int64, 0, len(d.subscribers))
	for chatID := range d.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

func formatFillMessage(bot domain.Bot, res ledger.FillResult) string {
	mode := "paper"
	if bot.IsLiveMode {
		mode = "LIVE"
	}
	switch res.Direction {
	case domain.DirectionBuy:
		return fmt.Sprintf("[%s] bot %s opened %s: %.6f @ %.2f", mode, bot.ID, res.Symbol, res.Size, res.Price)
	case domain.DirectionSell:
		return fmt.Sprintf("[%s] bot %s closed %s: %.6f @ %.2f, pnl %+.2f", mode, bot.ID, res.Symbol, res.Size, res.Price, res.PnL)
	default:
		return fmt.Sprintf("[%s] bot %s fill on %s", mode, bot.ID, res.Symbol)
	}
}
