package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier posts new content to a Telegram chat via bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier registers bot token and chat identifier.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Broadcast posts a short Markdown message describing the item.
func (n *TelegramNotifier) Broadcast(ctx context.Context, _ string, item domain.ContentItem) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return errors.New("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatTelegramMessage(item))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// formatTelegramMessage renders item for Telegram's HTML parse mode.
// Every interpolated value is escaped so titles and links cannot break the markup.
func formatTelegramMessage(item domain.ContentItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(item.Title))
	fmt.Fprintf(&b, "%s · %s · %d min read\n", html.EscapeString(item.Source), item.Difficulty, item.ReadingTime)
	if len(item.Tags) > 0 {
		b.WriteString(html.EscapeString("#"+strings.Join(item.Tags, " #")) + "\n")
	}
	link := html.EscapeString(item.Link)
	fmt.Fprintf(&b, `<a href="%s">%s</a>`, link, link)
	return b.String()
}
