package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// SMSSender delivers an OTP code to a phone number.
//
// The bool result reports whether the provider accepted the message; a
// non-nil error means the provider itself failed (network, auth, 5xx).
type SMSSender interface {
	Send(ctx context.Context, phone, code string) (bool, error)
}

// NewSMSSenderFromConfig selects the mock or the Twilio sender.
func NewSMSSenderFromConfig(cfg *config.Config) SMSSender {
	if cfg.UseRealSMSService {
		return NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone)
	}
	return NewMockSMSSender(cfg.MockSMSFailureRate)
}

// ---------------------------------------------------------------------
// Mock sender
// ---------------------------------------------------------------------

// mockSMSSender logs the code instead of delivering it. failureRate in
// [0,1) simulates provider rejections for testing the failure path.
type mockSMSSender struct {
	failureRate float64
}

func NewMockSMSSender(failureRate float64) SMSSender {
	return &mockSMSSender{failureRate: failureRate}
}

func (s *mockSMSSender) Send(ctx context.Context, phone, code string) (bool, error) {
	utils.Logger.Infof("[MOCKED SMS] Sending OTP %s to %s", code, phone)

	if s.failureRate > 0 && rand.Float64() < s.failureRate {
		utils.Logger.Warnf("[MOCKED SMS] Simulated failure for %s", phone)
		return false, nil
	}
	return true, nil
}

// ---------------------------------------------------------------------
// Twilio sender
// ---------------------------------------------------------------------

type twilioSMSSender struct {
	client    *twilio.RestClient
	fromPhone string
}

func NewTwilioSMSSender(accountSID, authToken, fromPhone string) SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &twilioSMSSender{client: client, fromPhone: fromPhone}
}

func (s *twilioSMSSender) Send(ctx context.Context, phone, code string) (bool, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.fromPhone)
	params.SetBody(fmt.Sprintf("Your verification code is %s", code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return false, fmt.Errorf("failed to send sms via twilio: %w", err)
	}
	return true, nil
}
