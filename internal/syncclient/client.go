package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/pkg/contracts/syncapi"
)

// Client fala com o servidor de sync remoto. BaseURL inclui o prefixo /api.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Probe consulta /health com timeout de 2s. Qualquer erro conta como indisponível.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode < 300
}

// Save envia a imagem inteira do banco do cliente.
func (c *Client) Save(ctx context.Context, userID string, image []byte) (bool, error) {
	body, err := json.Marshal(syncapi.SaveRequest{UserID: userID, DBData: image})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/db/save", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return false, fmt.Errorf("sync save http %d", res.StatusCode)
	}
	var out syncapi.Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// Load busca a imagem do cliente. Imagem inexistente (404) não é erro: ok=false.
func (c *Client) Load(ctx context.Context, userID string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/db/load/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, false, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if res.StatusCode >= 300 {
		return nil, false, fmt.Errorf("sync load http %d", res.StatusCode)
	}
	var out syncapi.Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, false, err
	}
	if !out.Success || len(out.DBData) == 0 {
		return nil, false, nil
	}
	return out.DBData, true, nil
}

// List devolve os ids de cliente com imagem no servidor.
func (c *Client) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/db/list", nil)
	if err != nil {
		return nil, err
	}
	var out syncapi.Response
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Databases, nil
}

// Delete remove a imagem do cliente no servidor.
func (c *Client) Delete(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/db/delete/"+url.PathEscape(userID), nil)
	if err != nil {
		return err
	}
	var out syncapi.Response
	return c.do(req, &out)
}

// ExchangeRate usa o proxy de cotação do servidor.
func (c *Client) ExchangeRate(ctx context.Context) (float64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/exchange-rate", nil)
	if err != nil {
		return 0, "", err
	}
	var out syncapi.RateResponse
	if err := c.do(req, &out); err != nil {
		return 0, "", err
	}
	if !out.Success || !(out.USDPEN > 0) {
		return 0, "", fmt.Errorf("sync exchange-rate: %s", out.Error)
	}
	return out.USDPEN, out.Source, nil
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("sync %s %s http %d", req.Method, req.URL.Path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// RateSource expõe o proxy de cotação como fonte do provider de câmbio.
type RateSource struct {
	Client *Client
}

func (r RateSource) Name() string { return currency.SourceSyncServer }

func (r RateSource) Fetch(ctx context.Context) (float64, error) {
	rate, _, err := r.Client.ExchangeRate(ctx)
	return rate, err
}
