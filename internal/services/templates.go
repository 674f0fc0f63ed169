package services

import (
	"fmt"
)

// TemplateConfig holds template configuration
type TemplateConfig struct {
	SID         string
	Description string
	Parameters  []string
	ButtonType  string // "quick_reply", "call_to_action", "none"
}

// WhatsAppTemplates maps template names to their Twilio Content SIDs.
// Quick-reply templates carry at most 3 buttons; anything larger falls
// back to a numbered text prompt.
var WhatsAppTemplates = map[string]TemplateConfig{
	"cart_confirm": {
		SID:         "HX8d41a2e07cb1f5c3a96407d2b12ce904",
		Description: "Confirm cart before the address step",
		Parameters:  []string{"restaurant", "subtotal"},
		ButtonType:  "quick_reply",
	},
	"order_followup": {
		SID:         "HX2f73c00e9ab64d1185efdd01c4a7b356",
		Description: "Order moved to preparation",
		Parameters:  []string{"order_number", "eta"},
		ButtonType:  "quick_reply",
	},
}

// TemplateService sends registered WhatsApp content templates
type TemplateService struct {
	twilioService *TwilioService
}

// NewTemplateService creates a new template service
func NewTemplateService(twilioService *TwilioService) *TemplateService {
	return &TemplateService{
		twilioService: twilioService,
	}
}

// SendTemplate sends a registered template by name. The caller is expected
// to fall back to plain text when this fails.
func (s *TemplateService) SendTemplate(phone string, name string, params map[string]string) error {
	if s == nil || s.twilioService == nil {
		return fmt.Errorf("template service not configured")
	}

	config, ok := WhatsAppTemplates[name]
	if !ok {
		return fmt.Errorf("unknown template: %s", name)
	}

	for _, p := range config.Parameters {
		if _, ok := params[p]; !ok {
			return fmt.Errorf("template %s missing parameter %s", name, p)
		}
	}

	return s.twilioService.SendWhatsAppTemplate(phone, config.SID, params)
}
