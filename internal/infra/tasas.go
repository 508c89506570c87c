package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// TasaReferencia is the official USD/VES reference rate used to pre-fill the
// sale form. The provider exposes the BCV published value.
type TasaReferencia struct {
	Moneda        string          `json:"moneda"`
	Promedio      decimal.Decimal `json:"promedio"`
	FechaConsulta time.Time       `json:"fecha_consulta"`
}

type tasaProviderResponse struct {
	Moneda   string          `json:"moneda"`
	Promedio decimal.Decimal `json:"promedio"`
}

// TasaClient fetches the reference rate from the external provider.
// Calls go through a circuit breaker so a provider outage fast-fails instead
// of stalling the sale form.
type TasaClient struct {
	providerURL string
	httpClient  *http.Client
	cb          *CircuitBreaker
}

func NewTasaClient(providerURL string, cb *CircuitBreaker) *TasaClient {
	return &TasaClient{
		providerURL: providerURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		cb:          cb,
	}
}

// Breaker exposes the circuit breaker state for the health endpoint.
func (c *TasaClient) Breaker() *CircuitBreaker { return c.cb }

// Obtener fetches the current reference rate.
func (c *TasaClient) Obtener(ctx context.Context) (*TasaReferencia, error) {
	var tasa *TasaReferencia
	err := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.providerURL, nil)
		if err != nil {
			return fmt.Errorf("tasas: create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("tasas: provider unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tasas: provider returned %d", resp.StatusCode)
		}

		var raw tasaProviderResponse
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return fmt.Errorf("tasas: decode response: %w", err)
		}
		if !raw.Promedio.IsPositive() {
			return fmt.Errorf("tasas: provider returned non-positive rate %s", raw.Promedio)
		}

		tasa = &TasaReferencia{
			Moneda:        raw.Moneda,
			Promedio:      raw.Promedio,
			FechaConsulta: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasa, nil
}
