// telegram 通知模块，发送消息到运营群
package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNotConfigured 未配置 bot token 或 chat id
var ErrNotConfigured = errors.New("telegram token or chatId is empty")

// Sender 发送消息的最小接口，*tgbotapi.BotAPI 满足该接口
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram 向固定会话推送文本消息
type Telegram struct {
	sender Sender
	chatID int64
}

// New 创建通知器；sender 可与领奖机器人共用同一个 BotAPI
func New(sender Sender, chatID int64) *Telegram {
	return &Telegram{
		sender: sender,
		chatID: chatID,
	}
}

// NewBotAPI 根据 token 创建 BotAPI
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, ErrNotConfigured
	}
	return tgbotapi.NewBotAPI(token)
}

// SendText 发送纯文本消息
func (t *Telegram) SendText(ctx context.Context, txtMsg string) error {
	if t == nil || t.sender == nil || t.chatID == 0 {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, txtMsg)
	if _, err := t.sender.Send(msg); err != nil {
		return err
	}

	return nil
}
