package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/config"
	"github.com/esim-backoffice/internal/models"
)

// ErrMailerUnavailable 邮件投递服务不可用
var ErrMailerUnavailable = errors.New("邮件投递服务不可用")

// MailerClient 通过投递服务发送财务单据邮件
type MailerClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMailerClient 创建单据投递客户端
func NewMailerClient(cfg config.BillingConfig) *MailerClient {
	timeout := time.Duration(cfg.MailerTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MailerClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.MailerBaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.MailerAPIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

type documentDeliveryRequest struct {
	Email    string                    `json:"email"`
	Document *models.FinancialDocument `json:"document"`
}

// SendDocument 投递单据到收件邮箱
func (m *MailerClient) SendDocument(doc *models.FinancialDocument, email string) error {
	if m == nil || m.baseURL == "" {
		return ErrMailerUnavailable
	}
	if doc == nil || strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: empty delivery target", ErrMailerUnavailable)
	}

	body, err := json.Marshal(documentDeliveryRequest{
		Email:    strings.TrimSpace(email),
		Document: doc,
	})
	if err != nil {
		return fmt.Errorf("%w: encode request failed", ErrMailerUnavailable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.client.Timeout)
	defer cancel()

	endpoint := m.baseURL + "/v1/documents/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrMailerUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMailerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: status %d", ErrMailerUnavailable, resp.StatusCode)
	}
	return nil
}
