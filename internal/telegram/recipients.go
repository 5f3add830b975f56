package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// searchCommand - префикс команды поиска по объявлениям.
const searchCommand = "/search"

// RecipientManager подписывает пользователей и собирает поисковые
// запросы из входящих сообщений. Бот живёт только во время запуска
// пайплайна, поэтому всё взаимодействие с пользователями сводится
// к разбору накопившихся getUpdates.
type RecipientManager struct {
	client        TelegramClient
	autoSubscribe bool
}

// NewRecipientManager создаёт менеджер.
func NewRecipientManager(client TelegramClient, auto bool) *RecipientManager {
	return &RecipientManager{
		client:        client,
		autoSubscribe: auto,
	}
}

// Resolve обновляет состояние и возвращает актуальный список
// получателей вместе с накопившимися поисковыми запросами.
// Любое входящее сообщение подписывает отправителя; сообщение вида
// "/search <query>" дополнительно ставит запрос в очередь.
func (m *RecipientManager) Resolve(ctx context.Context, state announce.State) (announce.State, []announce.RecipientBinding, []announce.SearchRequest, error) {
	if m.client == nil {
		return state, nil, nil, fmt.Errorf("telegram client not configured")
	}

	recipients := map[string]announce.RecipientBinding{}
	for _, r := range state.Recipients {
		if r.ChatID == "" {
			continue
		}
		recipients[r.ChatID] = r
	}

	var searches []announce.SearchRequest
	if m.autoSubscribe {
		updates, err := m.client.GetUpdates(ctx, state.Telegram.LastUpdateID+1, 0)
		if err != nil {
			return state, nil, nil, fmt.Errorf("get updates: %w", err)
		}

		maxUpdateID := state.Telegram.LastUpdateID
		for _, upd := range updates {
			if upd.UpdateID > maxUpdateID {
				maxUpdateID = upd.UpdateID
			}
			if upd.Message == nil || upd.Message.Chat.ID == 0 {
				continue
			}

			chatID := strconv.FormatInt(upd.Message.Chat.ID, 10)

			// Подписываем без приветствия: бот работает только во
			// время запуска, и ответ спустя сутки выглядел бы странно.
			recipients[chatID] = announce.RecipientBinding{
				Name:      deriveRecipientName(upd.Message),
				ChatID:    chatID,
				UpdatedAt: time.Now(),
			}

			if query, ok := parseSearchCommand(upd.Message.Text); ok {
				searches = append(searches, announce.SearchRequest{ChatID: chatID, Query: query})
			}
		}

		state.Telegram.LastUpdateID = maxUpdateID
	}

	res := make([]announce.RecipientBinding, 0, len(recipients))
	for _, r := range recipients {
		res = append(res, r)
	}

	sort.Slice(res, func(i, j int) bool {
		return strings.Compare(res[i].Name, res[j].Name) < 0
	})

	state.Recipients = res
	return state, res, searches, nil
}

func parseSearchCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, searchCommand) {
		return "", false
	}
	query := strings.TrimSpace(strings.TrimPrefix(text, searchCommand))
	return query, query != ""
}

func deriveRecipientName(msg *Message) string {
	if msg.Chat.Username != "" {
		return msg.Chat.Username
	}
	if msg.From != nil && msg.From.Username != "" {
		return msg.From.Username
	}
	if msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	if msg.Chat.FirstName != "" || msg.Chat.LastName != "" {
		return strings.TrimSpace(msg.Chat.FirstName + " " + msg.Chat.LastName)
	}
	return fmt.Sprintf("chat-%d", msg.Chat.ID)
}
