package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// EmailChecker probes whether an address can actually receive mail.
// Used by Signup when deliverability verification is enabled, and by the
// standalone verify-email-existence endpoint.
type EmailChecker interface {
	CheckEmail(ctx context.Context, email string) (*EmailCheckResult, error)
}

// EmailCheckResult is the distilled verdict of a deliverability probe.
type EmailCheckResult struct {
	Email        string  `json:"email"`
	Deliverable  bool    `json:"deliverable"`
	QualityScore float64 `json:"quality_score"`
	ValidFormat  bool    `json:"is_valid_format"`
	MXFound      bool    `json:"is_mx_found"`
	SMTPValid    bool    `json:"is_smtp_valid"`
	Disposable   bool    `json:"is_disposable_email"`
	FreeEmail    bool    `json:"is_free_email"`
}

// Deliverable addresses must pass every strict check: deliverable
// verdict, valid format, MX found, SMTP valid, not disposable.
func (r *EmailCheckResult) Strict() bool {
	return r.Deliverable && r.ValidFormat && r.MXFound && r.SMTPValid && !r.Disposable
}

// AbstractEmailChecker implements EmailChecker against the AbstractAPI
// email validation endpoint.
type AbstractEmailChecker struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ EmailChecker = (*AbstractEmailChecker)(nil)

func NewAbstractEmailChecker(apiKey string) *AbstractEmailChecker {
	return &AbstractEmailChecker{
		apiKey:  apiKey,
		baseURL: "https://emailvalidation.abstractapi.com/v1/",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the checker at a different endpoint. Tests use it
// to target an httptest server.
func (c *AbstractEmailChecker) WithBaseURL(u string) *AbstractEmailChecker {
	c.baseURL = u
	return c
}

type abstractAPIResponse struct {
	Email        string  `json:"email"`
	Deliverable  string  `json:"deliverability"`
	QualityScore float64 `json:"quality_score,string"`
	ValidFormat  struct {
		Value bool `json:"value"`
	} `json:"is_valid_format"`
	MXFound struct {
		Value bool `json:"value"`
	} `json:"is_mx_found"`
	SMTPValid struct {
		Value bool `json:"value"`
	} `json:"is_smtp_valid"`
	Disposable struct {
		Value bool `json:"value"`
	} `json:"is_disposable_email"`
	FreeEmail struct {
		Value bool `json:"value"`
	} `json:"is_free_email"`
}

func (c *AbstractEmailChecker) CheckEmail(ctx context.Context, email string) (*EmailCheckResult, error) {
	u := fmt.Sprintf("%s?api_key=%s&email=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("email validation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("email validation request: unexpected status %d", resp.StatusCode)
	}

	var body abstractAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("email validation response: %w", err)
	}

	return &EmailCheckResult{
		Email:        body.Email,
		Deliverable:  body.Deliverable == "DELIVERABLE",
		QualityScore: body.QualityScore,
		ValidFormat:  body.ValidFormat.Value,
		MXFound:      body.MXFound.Value,
		SMTPValid:    body.SMTPValid.Value,
		Disposable:   body.Disposable.Value,
		FreeEmail:    body.FreeEmail.Value,
	}, nil
}
