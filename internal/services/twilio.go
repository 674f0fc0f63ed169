package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var twilioServiceInstance *TwilioService

// SetTwilioService sets the global twilio service instance
func SetTwilioService(ts *TwilioService) {
	twilioServiceInstance = ts
}

// GetTwilioService returns the global twilio service instance
func GetTwilioService() *TwilioService {
	return twilioServiceInstance
}

type TwilioService struct {
	client *twilio.RestClient
	from   string // Twilio WhatsApp number, "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}, nil
}

// SendWhatsAppMessage sends a WhatsApp text message via Twilio.
// Delivery is fire-and-forget from the bot's perspective: failures are
// logged by the caller, never retried.
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendWhatsAppTemplate sends a WhatsApp content template (quick replies)
func (t *TwilioService) SendWhatsAppTemplate(to string, templateSID string, contentVariables map[string]string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetContentSid(templateSID)

	// SetContentVariables expects a JSON string
	if len(contentVariables) > 0 {
		variablesJSON, err := json.Marshal(contentVariables)
		if err != nil {
			log.Printf("❌ Failed to marshal content variables: %v", err)
			return err
		}
		params.SetContentVariables(string(variablesJSON))
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp template: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp template sent! SID: %s, Template: %s", *resp.Sid, templateSID)
	return nil
}
