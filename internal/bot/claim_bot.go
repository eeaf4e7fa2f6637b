// Package bot 领奖机器人：处理领奖深链 /start <code> 并核销兑换码
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bonus-wheel/internal/dto"
)

// API 机器人所需的 Telegram 接口，*tgbotapi.BotAPI 满足该接口
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Redeemer 核销兑换码，由 service.WheelService 实现
type Redeemer interface {
	Redeem(ctx context.Context, code, redeemedBy string) (*dto.RedeemResult, error)
}

// ClaimBot 长轮询接收消息的领奖机器人
type ClaimBot struct {
	api         API
	redeemer    Redeemer
	pollTimeout int
	logger      *zap.Logger
}

// NewClaimBot 创建领奖机器人
func NewClaimBot(api API, redeemer Redeemer, pollTimeout int, logger *zap.Logger) *ClaimBot {
	return &ClaimBot{
		api:         api,
		redeemer:    redeemer,
		pollTimeout: pollTimeout,
		logger:      logger.Named("claim_bot"),
	}
}

// Run 阻塞处理消息，直到 ctx 取消或更新通道关闭
func (b *ClaimBot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("领奖机器人已启动")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("领奖机器人已停止")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *ClaimBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	var text string
	switch {
	case !msg.IsCommand():
		text = helpText
	case msg.Command() == "start" || msg.Command() == "claim":
		text = b.claim(ctx, msg)
	default:
		text = helpText
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Warn("回复消息失败", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func (b *ClaimBot) claim(ctx context.Context, msg *tgbotapi.Message) string {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		return welcomeText
	}

	result, err := b.redeemer.Redeem(ctx, code, claimantRef(msg))
	if err != nil {
		b.logger.Error("核销兑换码失败", zap.Error(err))
		return unavailableText
	}
	return ReplyText(result)
}

// claimantRef 领取人标识：tg:<user id>，无发送者时退回会话 ID
func claimantRef(msg *tgbotapi.Message) string {
	if msg.From != nil {
		return fmt.Sprintf("tg:%d", msg.From.ID)
	}
	return fmt.Sprintf("tg:chat:%d", msg.Chat.ID)
}

const (
	welcomeText     = "欢迎使用幸运转盘领奖机器人！请通过抽奖结果中的领奖链接打开本机器人。"
	helpText        = "发送 /claim <兑换码> 领取奖励，或直接点击抽奖结果中的领奖链接。"
	unavailableText = "服务暂时不可用，请稍后再试。"
)

// ReplyText 根据核销结果生成回复文本
func ReplyText(result *dto.RedeemResult) string {
	switch result.Status {
	case dto.RedeemStatusRedeemed:
		return fmt.Sprintf("🎉 领取成功！\n奖品：%s（%s）", result.Prize.Name, result.Prize.Amount.StringFixed(2))
	case dto.RedeemStatusAlreadyUsed:
		text := "该兑换码已被使用。"
		if result.Prize != nil {
			text += fmt.Sprintf("\n奖品：%s", result.Prize.Name)
		}
		if result.UsedAt != nil {
			text += fmt.Sprintf("\n领取时间：%s", result.UsedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
		}
		return text
	default:
		return "兑换码无效，请检查后重试。"
	}
}
