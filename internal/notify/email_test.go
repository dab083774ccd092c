package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{FromEmail: "care@prescripto.test"}, nil); s != nil {
		t.Fatalf("expected nil sender without an API key")
	}
	if s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "care@prescripto.test"}, nil); s == nil {
		t.Fatalf("expected sender with an API key")
	}
}

func TestSendGridSenderSend(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeMailClient
		wantErr bool
	}{
		{
			name:   "accepted",
			client: &fakeMailClient{status: 202},
		},
		{
			name:    "rejected status",
			client:  &fakeMailClient{status: 401},
			wantErr: true,
		},
		{
			name:    "transport error",
			client:  &fakeMailClient{err: fmt.Errorf("dial tcp: timeout")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "care@prescripto.test"}, nil)
			s.client = tt.client

			err := s.Send(context.Background(), EmailMessage{To: "harsh@prescripto.test", Subject: "Booking confirmed"})
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Send returned error: %v", err)
			}
		})
	}
}

func TestSendGridSenderRejectsMissingRecipient(t *testing.T) {
	s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "care@prescripto.test"}, nil)
	client := &fakeMailClient{status: 202}
	s.client = client

	if err := s.Send(context.Background(), EmailMessage{Subject: "no one home"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if client.sent != nil {
		t.Fatalf("expected no message sent")
	}
}

func TestStubEmailSenderSwallowsSend(t *testing.T) {
	s := NewStubEmailSender(nil)
	if err := s.Send(context.Background(), EmailMessage{To: "harsh@prescripto.test", Subject: "test"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
}

type fakeMailClient struct {
	status int
	err    error
	sent   *mail.SGMailV3
}

func (f *fakeMailClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = email
	return &rest.Response{StatusCode: f.status}, nil
}
