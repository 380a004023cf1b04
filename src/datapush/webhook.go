// Package datapush delivers summary reports to the outside: a text webhook
// and an xlsx report workbook. It consumes only the plain dashboard payload.
package datapush

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"superstore-dashboard/src/processor"
)

const (
	retryTimes    = 5
	retryInterval = 2 * time.Second
)

// WebhookPusher posts summary text messages to a configured webhook.
type WebhookPusher struct {
	url    string
	client *http.Client
}

func NewWebhookPusher(url string) *WebhookPusher {
	return &WebhookPusher{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// PushSummary formats the dashboard summary and posts it, retrying on
// failure.
func (w *WebhookPusher) PushSummary(d *processor.Dashboard) error {
	if w.url == "" {
		return fmt.Errorf("no webhook url configured")
	}

	content := FormatSummary(d)
	payload := map[string]interface{}{
		"msgtype": "text",
		"text": map[string]string{
			"content": content,
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize webhook payload: %w", err)
	}

	return retry(func() error {
		return w.post(payloadBytes)
	}, retryTimes, retryInterval)
}

func (w *WebhookPusher) post(payload []byte) error {
	req, err := http.NewRequest("POST", w.url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %s", resp.Status)
	}

	// Webhook endpoints in the DingTalk/WeCom family answer 200 with an
	// error code in the body; treat a non-JSON body as success.
	var result webhookResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message: %s", result.ErrMsg)
	}
	return nil
}

// FormatSummary renders the summary metrics as a human-readable report with
// locale-aware number grouping.
func FormatSummary(d *processor.Dashboard) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("Superstore dashboard summary\n")
	fmt.Fprintf(&b, "Generated at %s\n", d.GeneratedAt.Format("2006-01-02 15:04:05"))

	if d.Summary == nil || !d.Summary.HasData {
		b.WriteString("No order data for the current selection.\n")
		return b.String()
	}

	s := d.Summary
	p.Fprintf(&b, "Total sales: $%.2f\n", s.TotalSales)
	p.Fprintf(&b, "Total profit: $%.2f\n", s.TotalProfit)
	p.Fprintf(&b, "Total quantity: %.0f\n", s.TotalQuantity)
	p.Fprintf(&b, "Average sales: $%.2f\n", s.AverageSales)
	p.Fprintf(&b, "Orders: %d\n", s.OrderCount)
	if s.FirstOrderDate != "" {
		fmt.Fprintf(&b, "Order dates: %s to %s\n", s.FirstOrderDate, s.LastOrderDate)
	}

	if len(d.RegionProfit) > 0 {
		b.WriteString("Profit by region:\n")
		for _, r := range d.RegionProfit {
			p.Fprintf(&b, "  %s: $%.2f\n", r.Region, r.TotalProfit)
		}
	}

	if len(d.LowStock) > 0 {
		p.Fprintf(&b, "Low stock products: %d\n", len(d.LowStock))
	}

	return b.String()
}

func retry(fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("failed after %d attempts: %v", times, err)
}
