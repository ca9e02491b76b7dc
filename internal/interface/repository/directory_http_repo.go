package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// HTTPDirectory talks to the external electrician/customer directory service.
// The directory owns verification status and coordinates; this engine only
// reads them.
type HTTPDirectory struct {
	httpClient *resty.Client
	logger     logger.Logger
}

// NewHTTPDirectory creates a directory client for the given base URL. token
// may be empty for unauthenticated deployments.
func NewHTTPDirectory(baseURL, token string, log logger.Logger) *HTTPDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPDirectory{
		httpClient: client,
		logger:     log,
	}
}

type listElectriciansResponse struct {
	Electricians []*entity.Electrician `json:"electricians"`
}

// ListVerifiedWithLocation fetches the verified electricians that carry
// coordinates.
func (d *HTTPDirectory) ListVerifiedWithLocation(ctx context.Context) ([]*entity.Electrician, error) {
	var response listElectriciansResponse
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetQueryParam("status", entity.ElectricianVerified).
		SetResult(&response).
		Get("/api/v1/electricians")

	if err != nil {
		return nil, fmt.Errorf("directory list failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("directory list returned status %d", resp.StatusCode())
	}

	out := make([]*entity.Electrician, 0, len(response.Electricians))
	for _, e := range response.Electricians {
		if e.IsVerified() && e.HasLocation() {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetProfile fetches one electrician profile, (nil, nil) for an unknown id.
func (d *HTTPDirectory) GetProfile(ctx context.Context, electricianID string) (*entity.ElectricianProfile, error) {
	var profile entity.ElectricianProfile
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/api/v1/electricians/" + electricianID)

	if err != nil {
		return nil, fmt.Errorf("directory profile fetch failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("directory profile returned status %d", resp.StatusCode())
	}
	return &profile, nil
}

// Customers exposes the customer side of the directory.
func (d *HTTPDirectory) Customers() *HTTPCustomerDirectory {
	return &HTTPCustomerDirectory{dir: d}
}

// HTTPCustomerDirectory implements the CustomerDirectory interface over the
// same directory service.
type HTTPCustomerDirectory struct {
	dir *HTTPDirectory
}

// GetProfile fetches one customer profile, (nil, nil) for an unknown ref.
func (d *HTTPCustomerDirectory) GetProfile(ctx context.Context, customerRef string) (*entity.CustomerProfile, error) {
	var profile entity.CustomerProfile
	resp, err := d.dir.httpClient.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/api/v1/customers/" + customerRef)

	if err != nil {
		return nil, fmt.Errorf("directory customer fetch failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("directory customer returned status %d", resp.StatusCode())
	}
	return &profile, nil
}
