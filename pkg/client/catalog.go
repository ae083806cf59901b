package client

import (
	"context"
	"net/url"
	"strconv"

	"ptcms/pkg/model"
)

// CatalogClient reads the reference data the order console needs. None of
// these endpoints are written to by this service.
type CatalogClient struct {
	httpClient *HttpClient
}

func NewCatalogClient(httpClient *HttpClient) *CatalogClient {
	return &CatalogClient{
		httpClient: httpClient,
	}
}

func (c *CatalogClient) VehicleCategories(ctx context.Context) ([]model.VehicleCategory, error) {
	resp, err := c.httpClient.GET(ctx, "/api/vehicle-categories")
	if err != nil {
		return nil, err
	}
	return decodeList[model.VehicleCategory](resp)
}

func (c *CatalogClient) Branches(ctx context.Context) ([]model.Branch, error) {
	resp, err := c.httpClient.GET(ctx, "/api/branches?page=0")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Branch](resp)
}

func (c *CatalogClient) HireTypes(ctx context.Context) ([]model.HireType, error) {
	resp, err := c.httpClient.GET(ctx, "/api/hire-types")
	if err != nil {
		return nil, err
	}
	return decodeList[model.HireType](resp)
}

func (c *CatalogClient) DriversByBranch(ctx context.Context, branchID int64) ([]model.Driver, error) {
	resp, err := c.httpClient.GET(ctx, "/api/drivers/branch/"+strconv.FormatInt(branchID, 10))
	if err != nil {
		return nil, err
	}
	return decodeList[model.Driver](resp)
}

func (c *CatalogClient) VehiclesByBranch(ctx context.Context, branchID int64) ([]model.Vehicle, error) {
	resp, err := c.httpClient.GET(ctx, "/api/vehicles?branchId="+strconv.FormatInt(branchID, 10))
	if err != nil {
		return nil, err
	}
	return decodeList[model.Vehicle](resp)
}

func (c *CatalogClient) SystemSetting(ctx context.Context, key string) (*model.SystemSetting, error) {
	resp, err := c.httpClient.GET(ctx, "/api/system-settings/key/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}

	var setting model.SystemSetting
	if err := decodeData(resp, &setting); err != nil {
		return nil, err
	}
	if setting.Key == "" {
		setting.Key = key
	}
	return &setting, nil
}
