package service

import (
	"errors"
	"testing"

	"github.com/esim-backoffice/internal/config"
)

func TestValidatePassword(t *testing.T) {
	strict := config.PasswordPolicyConfig{
		MinLength:      10,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	cases := []struct {
		name     string
		policy   config.PasswordPolicyConfig
		password string
		wantErr  bool
	}{
		{name: "empty policy accepts anything", policy: config.PasswordPolicyConfig{}, password: "x", wantErr: false},
		{name: "too short", policy: strict, password: "Aa1!x", wantErr: true},
		{name: "missing upper", policy: strict, password: "aaaa1111!!!!", wantErr: true},
		{name: "missing lower", policy: strict, password: "AAAA1111!!!!", wantErr: true},
		{name: "missing number", policy: strict, password: "AAAAaaaa!!!!", wantErr: true},
		{name: "missing special", policy: strict, password: "AAAAaaaa1111", wantErr: true},
		{name: "all requirements met", policy: strict, password: "AAAAaaaa1111!", wantErr: false},
		{name: "min length only", policy: config.PasswordPolicyConfig{MinLength: 8}, password: "12345678", wantErr: false},
		{name: "multibyte counts as runes", policy: config.PasswordPolicyConfig{MinLength: 4}, password: "密码测试", wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.policy, tc.password)
			if tc.wantErr {
				if !errors.Is(err, ErrPasswordPolicyFailed) {
					t.Fatalf("want ErrPasswordPolicyFailed got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
