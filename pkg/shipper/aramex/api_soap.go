package aramex

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultEndpoint is the production rate calculator service.
	DefaultEndpoint = "https://ws.aramex.net/ShippingAPI.V2/RateCalculator/Service_1_0.svc"

	soapAction = "http://ws.aramex.net/ShippingAPI/v1/Service_1_0/CalculateRate"
)

// SOAPAPIClient is the production implementation of APIClient using SOAP.
type SOAPAPIClient struct {
	endpoint   string
	httpClient *http.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &SOAPAPIClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CalculateRate posts a RateCalculatorRequest envelope.
func (c *SOAPAPIClient) CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	body, err := buildRateEnvelope(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("Accept", "text/xml")
	httpReq.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseSOAPError(resp.StatusCode, data)
	}
	return parseRateResponse(data)
}

const rateEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:typ="http://ws.aramex.net/ShippingAPI/v1/">
  <soapenv:Header/>
  <soapenv:Body>
    <typ:RateCalculatorRequest>
      <typ:ClientInfo>
        <typ:AccountCountryCode>{{xml .ClientInfo.AccountCountryCode}}</typ:AccountCountryCode>
        <typ:AccountEntity>{{xml .ClientInfo.AccountEntity}}</typ:AccountEntity>
        <typ:AccountNumber>{{xml .ClientInfo.AccountNumber}}</typ:AccountNumber>
        <typ:AccountPin>{{xml .ClientInfo.AccountPin}}</typ:AccountPin>
        <typ:UserName>{{xml .ClientInfo.UserName}}</typ:UserName>
        <typ:Password>{{xml .ClientInfo.Password}}</typ:Password>
        <typ:Version>{{xml .ClientInfo.Version}}</typ:Version>
      </typ:ClientInfo>
      <typ:Transaction>
        <typ:Reference1>{{xml .Reference}}</typ:Reference1>
      </typ:Transaction>
      <typ:OriginAddress>
        <typ:City>{{xml .OriginAddress.City}}</typ:City>
        <typ:CountryCode>{{xml .OriginAddress.CountryCode}}</typ:CountryCode>
      </typ:OriginAddress>
      <typ:DestinationAddress>
        <typ:City>{{xml .DestinationAddress.City}}</typ:City>
        <typ:CountryCode>{{xml .DestinationAddress.CountryCode}}</typ:CountryCode>
      </typ:DestinationAddress>
      <typ:ShipmentDetails>
        <typ:PaymentType>{{xml .Details.PaymentType}}</typ:PaymentType>
        <typ:ProductGroup>{{xml .Details.ProductGroup}}</typ:ProductGroup>
        <typ:ProductType>{{xml .Details.ProductType}}</typ:ProductType>
        <typ:ActualWeight>
          <typ:Value>{{printf "%.3f" .Details.WeightKg}}</typ:Value>
          <typ:Unit>KG</typ:Unit>
        </typ:ActualWeight>
        <typ:ChargeableWeight>
          <typ:Value>{{printf "%.3f" .Details.WeightKg}}</typ:Value>
          <typ:Unit>KG</typ:Unit>
        </typ:ChargeableWeight>
        <typ:NumberOfPieces>{{.Details.NumberOfPieces}}</typ:NumberOfPieces>
      </typ:ShipmentDetails>
    </typ:RateCalculatorRequest>
  </soapenv:Body>
</soapenv:Envelope>`

var rateEnvelope = template.Must(template.New("rate").Funcs(template.FuncMap{
	"xml": escapeXML,
}).Parse(rateEnvelopeTemplate))

func escapeXML(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func buildRateEnvelope(req *RateRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := rateEnvelope.Execute(&buf, req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Namespaces vary between deployments, so elements are matched by local name.
type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Fault        *soapFault              `xml:"Fault,omitempty"`
	RateResponse *rateCalculatorResponse `xml:"RateCalculatorResponse,omitempty"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type rateCalculatorResponse struct {
	HasErrors     string             `xml:"HasErrors"`
	Notifications []notificationNode `xml:"Notifications>Notification"`
	TotalAmount   *moneyNode         `xml:"TotalAmount"`
}

type notificationNode struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

type moneyNode struct {
	CurrencyCode string `xml:"CurrencyCode"`
	Value        string `xml:"Value"`
}

func parseSOAPError(status int, body []byte) error {
	var env soapEnvelope
	if err := xml.Unmarshal(body, &env); err == nil && env.Body.Fault != nil {
		return &APIError{
			StatusCode:  status,
			Code:        env.Body.Fault.Code,
			Description: env.Body.Fault.String,
		}
	}

	if len(body) > 4096 {
		body = body[:4096]
	}
	return &APIError{
		StatusCode:  status,
		Code:        fmt.Sprintf("HTTP_%d", status),
		Description: string(body),
	}
}

func parseRateResponse(data []byte) (*RateResponse, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &APIError{Code: "EMPTY_RESPONSE", Description: "empty response body"}
	}

	var env soapEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if env.Body.Fault != nil {
		return nil, &APIError{
			Code:        env.Body.Fault.Code,
			Description: env.Body.Fault.String,
		}
	}

	if env.Body.RateResponse == nil {
		return nil, &APIError{Code: "PARSE_ERROR", Description: "no RateCalculatorResponse in body"}
	}

	raw := env.Body.RateResponse
	out := &RateResponse{
		HasErrors: strings.EqualFold(strings.TrimSpace(raw.HasErrors), "true"),
	}
	for _, n := range raw.Notifications {
		out.Notifications = append(out.Notifications, Notification{
			Code:    strings.TrimSpace(n.Code),
			Message: strings.TrimSpace(n.Message),
		})
	}
	if raw.TotalAmount != nil {
		if v, err := decimal.NewFromString(strings.TrimSpace(raw.TotalAmount.Value)); err == nil {
			out.TotalAmount = &Money{
				Value:        v,
				CurrencyCode: strings.TrimSpace(raw.TotalAmount.CurrencyCode),
			}
		}
	}
	return out, nil
}

// Ensure SOAPAPIClient implements APIClient
var _ APIClient = (*SOAPAPIClient)(nil)
