// Package telegram sends notification messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"relay/internal/constants"
	apperrors "relay/pkg/errors"
)

const ParseModeHTML = "HTML"

type Config struct {
	// APIURL is the Bot API root, https://api.telegram.org in production.
	APIURL                string
	Token                 string
	ParseMode             string
	DisableWebPagePreview bool
}

// Client calls sendMessage. It does not retry.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: constants.DefaultHTTPTimeout})
}

func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{cfg: cfg, httpClient: httpClient}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// APIError is a rejection reported by the Bot API, such as a blocked bot or
// an unknown chat.
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.ErrorCode, e.Description)
}

// Permanent reports whether the chat itself rejected the message. Those
// rejections say nothing about the health of the API.
func (e *APIError) Permanent() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusForbidden
}

// Send delivers text to one chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             c.cfg.ParseMode,
		DisableWebPagePreview: c.cfg.DisableWebPagePreview,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.APIURL, c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.ErrDeliveryFailed.WithCause(redact(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apperrors.ErrDeliveryFailed.WithCause(fmt.Errorf("read response: %w", err))
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
			return apperrors.ErrDeliveryFailed.WithCause(&APIError{StatusCode: resp.StatusCode, ErrorCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)})
		}
		return apperrors.ErrDeliveryFailed.WithCause(fmt.Errorf("decode response: %w", err))
	}

	if !result.OK || resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		code := result.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return apperrors.ErrDeliveryFailed.WithCause(&APIError{StatusCode: resp.StatusCode, ErrorCode: code, Description: result.Description})
	}

	return nil
}

// IsPermanent reports whether err is a per-chat rejection from the API.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}

// redactedError hides the bot token in the message but keeps the chain, so
// callers can still match context.Canceled and friends.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
