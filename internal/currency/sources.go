package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

const (
	DefaultGoogleURL          = "https://www.google.com/finance/quote/USD-PEN"
	DefaultExchangeRateAPIURL = "https://api.exchangerate-api.com/v4/latest/USD"
)

// A página muda de formato com frequência; o primeiro padrão com valor positivo vence.
var googlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`data-last-price="([0-9.]+)"`),
	regexp.MustCompile(`data-value="([0-9.]+)"`),
	regexp.MustCompile(`"([0-9.]+)"\s*PEN`),
	regexp.MustCompile(`class="YMlKec fxKbKc">([0-9.]+)<`),
}

var errNoRate = errors.New("rate not found in response")

// GoogleFinance extrai a cotação do HTML da página de quote.
type GoogleFinance struct {
	URL  string
	HTTP *http.Client
}

func NewGoogleFinance(url string) *GoogleFinance {
	if url == "" {
		url = DefaultGoogleURL
	}
	return &GoogleFinance{URL: url, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

func (g *GoogleFinance) Name() string { return SourceGoogle }

func (g *GoogleFinance) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	body, err := get(g.HTTP, req)
	if err != nil {
		return 0, err
	}
	return parseGoogle(body)
}

func parseGoogle(html []byte) (float64, error) {
	for _, re := range googlePatterns {
		m := re.FindSubmatch(html)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(string(m[1]), 64)
		if err == nil && v > 0 {
			return v, nil
		}
	}
	return 0, errNoRate
}

// ExchangeRateAPI lê o JSON de cotações com base em USD.
// Path é avaliado com jsonpath; o padrão é $.rates.PEN.
type ExchangeRateAPI struct {
	URL  string
	Path string
	HTTP *http.Client
}

func NewExchangeRateAPI(url string) *ExchangeRateAPI {
	if url == "" {
		url = DefaultExchangeRateAPIURL
	}
	return &ExchangeRateAPI{URL: url, Path: "$.rates.PEN", HTTP: &http.Client{Timeout: 5 * time.Second}}
}

func (e *ExchangeRateAPI) Name() string { return SourceExchangeRateAPI }

func (e *ExchangeRateAPI) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := get(e.HTTP, req)
	if err != nil {
		return 0, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	val, err := jsonpath.Get(e.Path, doc)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", e.Path, err)
	}
	// jsonpath pode devolver lista de um elemento
	if list, ok := val.([]any); ok && len(list) > 0 {
		val = list[0]
	}
	rate, ok := val.(float64)
	if !ok || !(rate > 0) {
		return 0, errNoRate
	}
	return rate, nil
}

func get(c *http.Client, req *http.Request) ([]byte, error) {
	res, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("%s http %d", req.URL.Host, res.StatusCode)
	}
	return io.ReadAll(io.LimitReader(res.Body, 4<<20))
}
