package retrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookDispatcher は学習パイプラインのWebhookへ起動要求をPOSTする。
type WebhookDispatcher struct {
	client     *http.Client
	webhookURL string
	now        func() time.Time
}

// NewWebhookDispatcher はWebhookDispatcherを生成する。
func NewWebhookDispatcher(webhookURL string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = dispatchTimeout
	}
	return &WebhookDispatcher{
		client:     &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

type dispatchRequest struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// Dispatch は起動要求を送信する。2xx以外の応答はエラーとして扱う。
func (d *WebhookDispatcher) Dispatch(ctx context.Context) error {
	if d.webhookURL == "" {
		return fmt.Errorf("再学習WebhookのURLが設定されていません")
	}
	body, err := json.Marshal(dispatchRequest{
		Reason:      "interaction_threshold",
		RequestedAt: d.now(),
	})
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("Webhookへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhookが異常応答を返しました: status=%d", resp.StatusCode)
	}
	return nil
}

var _ Dispatcher = (*WebhookDispatcher)(nil)
