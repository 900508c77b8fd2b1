package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppChannel реализует DeliveryChannelPort через Twilio WhatsApp API.
// Получатель - номер телефона в формате E.164.
type WhatsAppChannel struct {
	client *twilio.RestClient
	from   string
}

func NewWhatsAppChannel(accountSID, authToken, from string) (*WhatsAppChannel, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("whatsapp channel: account SID, auth token and sender number are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &WhatsAppChannel{client: client, from: from}, nil
}

func (c *WhatsAppChannel) Channel() domain.Channel {
	return domain.ChannelWhatsApp
}

func (c *WhatsAppChannel) Send(ctx context.Context, recipient string, msg domain.OutgoingMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(whatsAppAddress(recipient))
	params.SetFrom(whatsAppAddress(c.from))
	params.SetBody(renderWhatsAppBody(msg))

	resp, err := c.client.Api.CreateMessage(params)
	observeDelivery(domain.ChannelWhatsApp, err)
	if err != nil {
		return "", &domain.DeliveryError{
			Channel:   domain.ChannelWhatsApp,
			Transient: isTwilioTransient(err),
			Err:       err,
		}
	}

	messageID := ""
	if resp.Sid != nil {
		messageID = *resp.Sid
	}
	return messageID, nil
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func renderWhatsAppBody(msg domain.OutgoingMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", msg.Title)
	b.WriteString(msg.Body)
	if msg.URL != "" {
		fmt.Fprintf(&b, "\n%s", msg.URL)
	}
	return b.String()
}

// isTwilioTransient распознает сбои, которые имеет смысл ретраить.
// 429 и 5xx приходят текстом внутри ошибки REST-клиента.
func isTwilioTransient(err error) bool {
	text := err.Error()
	return strings.Contains(text, "429") ||
		strings.Contains(text, "500") ||
		strings.Contains(text, "503") ||
		strings.Contains(text, "timeout")
}
