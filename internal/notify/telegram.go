// Package notify отправляет исходящие уведомления в Telegram: опасные
// инциденты, решения в очереди на подтверждение, аварийная остановка.
// Команд бот не принимает, канал строго односторонний.
package notify

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// Notifier отправляет уведомления в Telegram-чат. Нулевой *Notifier
// безопасен: все методы молча ничего не делают, так что вызывающим не
// нужно проверять, настроен ли канал.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *utils.Logger
}

// New создает нотификатор. Возвращает ошибку при невалидном токене.
func New(token string, chatID int64, logger *utils.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	return &Notifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Send отправляет сообщение, разбивая длинный текст на части
func (n *Notifier) Send(text string) {
	if n == nil || n.api == nil {
		return
	}

	const maxLength = 4096
	messages := splitMessage(text, maxLength)

	for _, msg := range messages {
		message := tgbotapi.NewMessage(n.chatID, msg)
		message.ParseMode = "Markdown"
		if _, err := n.api.Send(message); err != nil {
			n.logger.Error("Failed to send telegram message: %v", err)
		}
	}
}

// IncidentRaised уведомляет об инциденте. Отправляются только danger —
// warning и info остаются в журнале инцидентов.
func (n *Notifier) IncidentRaised(incident *domain.Incident) {
	if n == nil || incident == nil {
		return
	}
	if incident.Severity != domain.SeverityDanger {
		return
	}
	n.Send(FormatIncident(incident))
}

// PendingDecisionQueued уведомляет о решении, ожидающем подтверждения
func (n *Notifier) PendingDecisionQueued(model *domain.Model, decision *domain.PendingDecision) {
	if n == nil || decision == nil {
		return
	}
	n.Send(FormatPendingDecision(model, decision))
}

// EmergencyStopped уведомляет об аварийной остановке всех моделей
func (n *Notifier) EmergencyStopped(stopped int) {
	if n == nil {
		return
	}
	n.Send(FormatEmergencyStop(stopped))
}

// splitMessage разбивает длинное сообщение на части
func splitMessage(text string, maxLength int) []string {
	if len(text) <= maxLength {
		return []string{text}
	}

	var messages []string
	lines := strings.Split(text, "\n")
	currentMessage := ""

	for _, line := range lines {
		if len(currentMessage)+len(line)+1 > maxLength {
			messages = append(messages, currentMessage)
			currentMessage = line
		} else {
			if currentMessage != "" {
				currentMessage += "\n"
			}
			currentMessage += line
		}
	}

	if currentMessage != "" {
		messages = append(messages, currentMessage)
	}

	return messages
}
