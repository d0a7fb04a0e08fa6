package service

import (
	"errors"
	"testing"

	"github.com/esim-backoffice/internal/config"
)

func TestCaptchaDisabledProvider(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Provider: "none"})

	if svc.Enabled() {
		t.Fatalf("provider none should not be enabled")
	}
	// 未启用时放行空载荷
	if err := svc.Verify(CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha should pass verification: %v", err)
	}
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("disabled captcha generate want ErrCaptchaInvalid got %v", err)
	}
}

func TestCaptchaImageProvider(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{
		Provider: "image",
		Length:   4,
		Width:    240,
		Height:   80,
	})

	if !svc.Enabled() {
		t.Fatalf("provider image should be enabled")
	}

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("challenge fields should be populated: %+v", challenge)
	}

	if err := svc.Verify(CaptchaVerifyPayload{}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("blank payload want ErrCaptchaInvalid got %v", err)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "wrong"}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("wrong code want ErrCaptchaInvalid got %v", err)
	}
}
