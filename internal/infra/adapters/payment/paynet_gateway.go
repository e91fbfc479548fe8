package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PaynetGateway)(nil)

// PaynetGateway implements adapter.PaymentGateway against the Paynet
// eCommerce API v0.5: password-grant auth, a single payment registration
// call, and a signed settlement notification.
type PaynetGateway struct {
	cfg    config.PaynetConfig
	client *http.Client
}

func NewPaynetGateway(cfg config.PaynetConfig) (*PaynetGateway, error) {
	if cfg.MerchantCode == "" {
		return nil, errors.New("merchant code empty")
	}
	if cfg.APIHost() == "" {
		return nil, errors.New("api host empty")
	}
	if _, err := url.Parse(cfg.CallbackURL); err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}
	return &PaynetGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *PaynetGateway) Name() string { return "paynet" }

// currencyNumeric maps ISO alpha codes to the numeric codes the API expects.
func currencyNumeric(code string) int {
	switch strings.ToUpper(code) {
	case "MDL", "":
		return 498
	case "EUR":
		return 978
	case "USD":
		return 840
	}
	return 498
}

// isoNoMillis formats timestamps the way the registration endpoint wants
// them: ISO without milliseconds and without the zone suffix.
func isoNoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

func (p *PaynetGateway) authenticate(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {p.cfg.Username},
		"password":   {p.cfg.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIHost()+"/auth", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("paynet auth http %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("paynet auth decode: %w", err)
	}
	token := out.AccessToken
	if token == "" {
		token = out.Token
	}
	if token == "" {
		return "", errors.New("paynet auth: no access token in response")
	}
	return token, nil
}

type paynetProduct struct {
	LineNo      int    `json:"LineNo"`
	Code        string `json:"Code"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	UnitPrice   int64  `json:"UnitPrice"` // minor units
	UnitProduct string `json:"UnitProduct"`
	Quantity    int    `json:"Quantity"`
	Amount      int64  `json:"Amount"` // minor units
}

type paynetService struct {
	Name        string          `json:"Name"`
	Description string          `json:"Description"`
	Products    []paynetProduct `json:"products"`
}

type paynetRegistration struct {
	Invoice      int64           `json:"Invoice"`
	Currency     int             `json:"Currency"`
	MerchantCode string          `json:"MerchantCode"`
	SaleAreaCode string          `json:"SaleAreaCode"`
	ExternalID   string          `json:"ExternalID"`
	ExpiryDate   string          `json:"ExpiryDate"`
	LinkSuccess  string          `json:"LinkUrlSucces"`
	LinkCancel   string          `json:"LinkUrlCancel"`
	Services     []paynetService `json:"Services"`
	SignVersion  string          `json:"SignVersion"`
}

// RequestPayment registers the order with the gateway and returns the portal
// redirect. Amounts are converted to minor units once, here.
func (p *PaynetGateway) RequestPayment(ctx context.Context, order *model.Order, description string) (string, string, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return "", "", err
	}

	invoice, err := strconv.ParseInt(order.Invoice, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("order invoice %q is not numeric: %w", order.Invoice, err)
	}

	minor := order.Amount * 100
	siteBase := strings.TrimSuffix(p.cfg.CallbackURL, "/api/payment/callback")
	reg := paynetRegistration{
		Invoice:      invoice,
		Currency:     currencyNumeric(order.Currency),
		MerchantCode: p.cfg.MerchantCode,
		SaleAreaCode: p.cfg.SaleAreaCode,
		ExternalID:   order.ID,
		ExpiryDate:   isoNoMillis(time.Now().Add(2 * time.Hour)),
		LinkSuccess:  siteBase + "/plata/success?order=" + order.ID,
		LinkCancel:   siteBase + "/plata?order=" + order.ID,
		Services: []paynetService{{
			Name:        description,
			Description: description,
			Products: []paynetProduct{{
				LineNo:      1,
				Code:        order.ProductID,
				Name:        description,
				Description: "Acces online",
				UnitPrice:   minor,
				UnitProduct: "pcs",
				Quantity:    1,
				Amount:      minor,
			}},
		}},
		SignVersion: "v05",
	}

	b, _ := json.Marshal(reg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIHost()+"/api/Payments", bytes.NewReader(b))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("paynet payments http %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		PaymentID json.Number `json:"PaymentID"`
		ID        json.Number `json:"ID"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", fmt.Errorf("paynet payments decode: %w", err)
	}
	paymentID := out.PaymentID.String()
	if paymentID == "" || paymentID == "0" {
		paymentID = out.ID.String()
	}
	if paymentID == "" || paymentID == "0" {
		return "", "", errors.New("paynet payments: no payment id in response")
	}

	payURL := fmt.Sprintf("%s/acquiring/getecom?operation=%s", p.cfg.PortalHost, paymentID)
	return paymentID, payURL, nil
}

// VerifyNotification checks the keyed hash over the concatenated event
// fields. A mismatch must be rejected before any order is touched.
func (p *PaynetGateway) VerifyNotification(n adapter.Notification) error {
	secret := p.cfg.NotifySecret()
	if secret == "" {
		// No secret configured for this environment; nothing to check.
		return nil
	}
	expected := SignNotification(n, secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.Signature)) != 1 {
		return domain.ErrBadSignature
	}
	return nil
}

// SignNotification computes the notification signature: a hex SHA-256 over
// the concatenated event fields and the notify secret.
func SignNotification(n adapter.Notification, secret string) string {
	payload := n.EventID + n.OrderID + n.PaymentID + strconv.FormatInt(n.Amount, 10) + n.Status + secret
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
