package feishu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ashare-data-collector/pkg/notify"
	"ashare-data-collector/pkg/utils"
)

// Client posts messages to a Feishu bot webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a Feishu webhook client.
func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// SendText sends a plain text message.
func (c *Client) SendText(text string) error {
	payload := map[string]interface{}{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	}
	return c.post(payload)
}

// SendCard sends an interactive card with a title and key/value lines.
// A timestamp line is appended automatically.
func (c *Client) SendCard(title string, fields []notify.CardField) error {
	elements := make([]map[string]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		elements = append(elements, markdownDiv(fmt.Sprintf("**%s**: %s", f.Label, f.Value)))
	}
	elements = append(elements, markdownDiv(fmt.Sprintf("**执行时间**: %s",
		utils.TimeNowCST().Format("2006-01-02 15:04:05"))))

	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"elements": elements,
			"header": map[string]interface{}{
				"title":    map[string]string{"tag": "plain_text", "content": title},
				"template": "blue",
			},
		},
	}
	return c.post(payload)
}

func markdownDiv(content string) map[string]interface{} {
	return map[string]interface{}{
		"tag": "div",
		"text": map[string]string{
			"content": content,
			"tag":     "lark_md",
		},
	}
}

func (c *Client) post(payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal feishu payload: %w", err)
	}

	resp, err := c.httpClient.Post(c.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post to feishu webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feishu webhook returned status %d", resp.StatusCode)
	}

	var result webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode feishu response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("feishu webhook error: %s (code %d)", result.Msg, result.Code)
	}
	return nil
}
