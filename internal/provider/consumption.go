package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/config"
)

// ErrConsumptionUnavailable 运营商用量接口不可用
var ErrConsumptionUnavailable = errors.New("用量接口不可用")

// ConsumptionClient 调用运营商接口查询 eSIM 用量
type ConsumptionClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewConsumptionClient 创建运营商用量客户端
func NewConsumptionClient(cfg config.EsimConfig) *ConsumptionClient {
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ConsumptionClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.ProviderBaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.ProviderAPIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

type consumptionResponse struct {
	ICCID      string `json:"iccid"`
	DataUsedMB int64  `json:"data_used_mb"`
}

// FetchConsumption 查询指定 ICCID 的已用流量（MB）
func (p *ConsumptionClient) FetchConsumption(iccid string) (int64, error) {
	if p == nil || p.baseURL == "" {
		return 0, ErrConsumptionUnavailable
	}
	iccid = strings.TrimSpace(iccid)
	if iccid == "" {
		return 0, fmt.Errorf("%w: empty iccid", ErrConsumptionUnavailable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	endpoint := p.baseURL + "/v1/profiles/" + url.PathEscape(iccid) + "/consumption"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request failed", ErrConsumptionUnavailable)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConsumptionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("%w: read response failed", ErrConsumptionUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrConsumptionUnavailable, resp.StatusCode)
	}

	var parsed consumptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("%w: decode response failed", ErrConsumptionUnavailable)
	}
	if parsed.DataUsedMB < 0 {
		return 0, fmt.Errorf("%w: negative usage", ErrConsumptionUnavailable)
	}
	return parsed.DataUsedMB, nil
}
