package messaging

import (
	"context"
	"strings"
	"testing"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/whatsapp"
)

func TestRenderReplyPlainText(t *testing.T) {
	got := RenderReply(models.TextReply("hello"))
	if got != "hello" {
		t.Errorf("expected plain body, got %q", got)
	}
}

func TestRenderReplyKeyboardRows(t *testing.T) {
	reply := models.KeyboardReply("Pick a role:",
		[]string{"Student"},
		[]string{"Teacher"},
	)
	got := RenderReply(reply)
	if !strings.Contains(got, "Pick a role:") {
		t.Errorf("body missing from rendered reply: %q", got)
	}
	if !strings.Contains(got, "▫️ Student") || !strings.Contains(got, "▫️ Teacher") {
		t.Errorf("labels missing from rendered reply: %q", got)
	}
}

func TestRenderReplyInlineHint(t *testing.T) {
	reply := models.InlineReply("Enter your password:", "Forgot Password", models.CallbackForgotPassword)
	got := RenderReply(reply)
	if !strings.Contains(got, "Forgot Password") {
		t.Errorf("inline label missing: %q", got)
	}
	if !strings.Contains(got, "Reply with an option above") {
		t.Errorf("inline hint missing: %q", got)
	}
}

func TestInlineButtonTrackingResolvesCallback(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	reply := models.InlineReply("Enter your password:", "Forgot Password", models.CallbackForgotPassword)

	if err := svc.SendMessage(context.Background(), "chat1", reply); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	token, ok := svc.callbackFor("chat1", "forgot password")
	if !ok {
		t.Fatal("label match should resolve to a callback")
	}
	if token != models.CallbackForgotPassword {
		t.Errorf("expected %q, got %q", models.CallbackForgotPassword, token)
	}

	// The match is consumed: the same text is plain input next time.
	if _, ok := svc.callbackFor("chat1", "Forgot Password"); ok {
		t.Error("callback should be consumed after the first match")
	}
}

func TestInlineButtonTrackingIgnoresOtherText(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	reply := models.InlineReply("Enter your password:", "Forgot Password", models.CallbackForgotPassword)

	if err := svc.SendMessage(context.Background(), "chat1", reply); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if _, ok := svc.callbackFor("chat1", "pass1"); ok {
		t.Error("non-label text should not resolve to a callback")
	}
	if _, ok := svc.callbackFor("chat2", "Forgot Password"); ok {
		t.Error("labels are tracked per chat")
	}
}

func TestSendMessageRejectsEmptyChatID(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	err := svc.SendMessage(context.Background(), "", models.TextReply("hello"))
	if err == nil {
		t.Error("expected error for empty chat id")
	}
}

func TestPlainKeyboardDoesNotTrackCallbacks(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	reply := models.KeyboardReply("Pick:", []string{"Student"})

	if err := svc.SendMessage(context.Background(), "chat1", reply); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if _, ok := svc.callbackFor("chat1", "Student"); ok {
		t.Error("reply keyboards carry no callback tokens")
	}
}
