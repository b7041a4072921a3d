package paymentsvc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/order"
)

const (
	serviceName = "paypal"

	tokenEndpoint   = "/v1/oauth2/token"
	paymentEndpoint = "/v1/payments/payment"
	executeEndpoint = "/v1/payments/payment/{paymentID}/execute"

	approvedState = "approved"
)

var nowFunc = time.Now // mockable

type (
	paypalProcessor struct {
		client    *resty.Client
		clientID  string
		secret    string
		returnURL string
		cancelURL string

		mu          sync.Mutex
		accessToken string
		expiresAt   time.Time
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"` // seconds
	}

	apiError struct {
		Name             string `json:"name"`
		Message          string `json:"message"`
		DebugID          string `json:"debug_id"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	link struct {
		Href   string `json:"href"`
		Rel    string `json:"rel"`
		Method string `json:"method"`
	}

	item struct {
		Name     string `json:"name"`
		SKU      string `json:"sku"`
		Price    string `json:"price"`
		Currency string `json:"currency"`
		Quantity int    `json:"quantity"`
	}

	amount struct {
		Currency string `json:"currency"`
		Total    string `json:"total"`
	}

	transaction struct {
		ItemList struct {
			Items []item `json:"items"`
		} `json:"item_list"`
		Amount        amount `json:"amount"`
		Description   string `json:"description,omitempty"`
		InvoiceNumber string `json:"invoice_number,omitempty"`
	}

	paymentRequest struct {
		Intent string `json:"intent"`
		Payer  struct {
			PaymentMethod string `json:"payment_method"`
		} `json:"payer"`
		RedirectURLs struct {
			ReturnURL string `json:"return_url"`
			CancelURL string `json:"cancel_url"`
		} `json:"redirect_urls"`
		Transactions []transaction `json:"transactions"`
	}

	paymentResponse struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Links []link `json:"links"`
	}
)

var _ order.PaymentProcessor = (*paypalProcessor)(nil)

// NewPayPalProcessor returns a PaymentProcessor backed by the PayPal REST payments API.
func NewPayPalProcessor(conf *core.Config) order.PaymentProcessor {
	client := resty.New().
		SetBaseURL(conf.Payment.BaseURL).
		SetTimeout(conf.Payment.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			// only retry requests that never reached PayPal or hit a transient error
			return err != nil || res.StatusCode() == http.StatusServiceUnavailable
		})

	return &paypalProcessor{
		client:    client,
		clientID:  conf.Payment.ClientID,
		secret:    conf.Payment.ClientSecret,
		returnURL: conf.Payment.ReturnURL,
		cancelURL: conf.Payment.CancelURL,
	}
}

func upstreamErr(err error) error {
	return core.NewUpstreamError(serviceName, err)
}

func responseErr(res *resty.Response, doing string) error {
	msg := res.Status()
	if apiErr, ok := res.Error().(*apiError); ok && apiErr != nil {
		switch {
		case apiErr.Message != "":
			msg = apiErr.Name + ": " + apiErr.Message
		case apiErr.ErrorDescription != "":
			msg = apiErr.Error + ": " + apiErr.ErrorDescription
		}
	}
	return upstreamErr(errors.Errorf("%s: %s", doing, msg))
}

// token returns a cached OAuth2 access token, requesting a new one a minute before the current one expires.
func (p *paypalProcessor) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && nowFunc().Before(p.expiresAt) {
		return p.accessToken, nil
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.clientID, p.secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tokenResponse{}).
		SetError(&apiError{}).
		Post(tokenEndpoint)
	if err != nil {
		return "", upstreamErr(errors.Wrap(err, "requesting access token"))
	}
	if res.IsError() {
		return "", responseErr(res, "requesting access token")
	}

	tr := res.Result().(*tokenResponse)
	p.accessToken = tr.AccessToken
	p.expiresAt = nowFunc().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return p.accessToken, nil
}

func (p *paypalProcessor) CreatePayment(ctx context.Context, req order.PaymentRequest) (order.Payment, error) {
	token, err := p.token(ctx)
	if err != nil {
		return order.Payment{}, err
	}

	total := req.Amount.StringFixed(2)
	tx := transaction{
		Amount:        amount{Currency: req.Currency, Total: total},
		Description:   req.Description,
		InvoiceNumber: req.ReferenceID,
	}
	tx.ItemList.Items = []item{{
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    total,
		Currency: req.Currency,
		Quantity: 1,
	}}
	body := paymentRequest{Intent: "sale", Transactions: []transaction{tx}}
	body.Payer.PaymentMethod = "paypal"
	body.RedirectURLs.ReturnURL = p.returnURL
	body.RedirectURLs.CancelURL = p.cancelURL

	res, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&paymentResponse{}).
		SetError(&apiError{}).
		Post(paymentEndpoint)
	if err != nil {
		return order.Payment{}, upstreamErr(errors.Wrap(err, "creating payment"))
	}
	if res.IsError() {
		return order.Payment{}, responseErr(res, "creating payment")
	}

	pr := res.Result().(*paymentResponse)
	for _, l := range pr.Links {
		if l.Rel == "approval_url" {
			return order.Payment{ID: pr.ID, ApprovalURL: l.Href}, nil
		}
	}
	return order.Payment{}, upstreamErr(errors.New("creating payment: no approval url returned"))
}

func (p *paypalProcessor) ExecutePayment(ctx context.Context, paymentID, payerID string) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("paymentID", paymentID).
		SetBody(map[string]string{"payer_id": payerID}).
		SetResult(&paymentResponse{}).
		SetError(&apiError{}).
		Post(executeEndpoint)
	if err != nil {
		return upstreamErr(errors.Wrap(err, "executing payment"))
	}
	if res.IsError() {
		return responseErr(res, "executing payment")
	}

	if pr := res.Result().(*paymentResponse); pr.State != approvedState {
		return upstreamErr(errors.Errorf("executing payment: payment %s is %q", paymentID, pr.State))
	}
	return nil
}
