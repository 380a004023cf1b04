package datapush

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"superstore-dashboard/src/processor"
)

func testDashboard() *processor.Dashboard {
	return &processor.Dashboard{
		GeneratedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Summary: &processor.Summary{
			TotalSales:     12345.6,
			TotalProfit:    2345.6,
			TotalQuantity:  321,
			AverageSales:   123.4,
			OrderCount:     100,
			FirstOrderDate: "2024-01-01",
			LastOrderDate:  "2024-05-31",
			HasData:        true,
		},
		RegionProfit: []processor.RegionProfit{
			{Region: "West", TotalProfit: 1500},
		},
		LowStock: []processor.StockRow{
			{ProductID: "P1", ProductName: "Chair", Stock: 12},
		},
	}
}

func TestPushSummary(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		fmt.Fprint(w, `{"errcode":0,"errmsg":"ok"}`)
	}))
	defer srv.Close()

	pusher := NewWebhookPusher(srv.URL)
	if err := pusher.PushSummary(testDashboard()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["msgtype"] != "text" {
		t.Errorf("msgtype = %v, want text", received["msgtype"])
	}
	text, ok := received["text"].(map[string]interface{})
	if !ok {
		t.Fatalf("payload text block = %v", received["text"])
	}
	content, _ := text["content"].(string)
	if !strings.Contains(content, "Total sales") {
		t.Errorf("content lacks summary metrics:\n%s", content)
	}
}

func TestPushSummaryNoURL(t *testing.T) {
	pusher := NewWebhookPusher("")
	if err := pusher.PushSummary(testDashboard()); err == nil {
		t.Fatal("expected an error without a webhook url")
	}
}

func TestPostRejectedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errcode":310000,"errmsg":"keyword not in content"}`)
	}))
	defer srv.Close()

	pusher := NewWebhookPusher(srv.URL)
	err := pusher.post([]byte(`{}`))
	if err == nil || !strings.Contains(err.Error(), "keyword not in content") {
		t.Fatalf("err = %v, want the webhook rejection", err)
	}
}

func TestPostNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	pusher := NewWebhookPusher(srv.URL)
	if err := pusher.post([]byte(`{}`)); err != nil {
		t.Fatalf("a 200 with a non-JSON body must count as success, got %v", err)
	}
}

func TestFormatSummary(t *testing.T) {
	content := FormatSummary(testDashboard())

	for _, want := range []string{
		"Total sales: $12,345.60",
		"Orders: 100",
		"Order dates: 2024-01-01 to 2024-05-31",
		"West: $1,500.00",
		"Low stock products: 1",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("summary lacks %q:\n%s", want, content)
		}
	}
}

func TestFormatSummaryNoData(t *testing.T) {
	d := &processor.Dashboard{GeneratedAt: time.Now(), Summary: &processor.Summary{}}
	content := FormatSummary(d)
	if !strings.Contains(content, "No order data") {
		t.Errorf("empty summary = %q", content)
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}, 5, time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	err = retry(func() error { return fmt.Errorf("permanent") }, 2, time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "2 attempts") {
		t.Errorf("err = %v, want the attempt count", err)
	}
}
