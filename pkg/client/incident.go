package client

import (
	"context"
	"net/url"
	"strconv"

	"ptcms/pkg/model"
)

type IncidentClient struct {
	httpClient *HttpClient
}

func NewIncidentClient(httpClient *HttpClient) *IncidentClient {
	return &IncidentClient{
		httpClient: httpClient,
	}
}

func resolvedQuery(resolved *bool) string {
	if resolved == nil {
		return ""
	}
	q := url.Values{}
	q.Set("resolved", strconv.FormatBool(*resolved))
	return "?" + q.Encode()
}

func (c *IncidentClient) ByBranch(ctx context.Context, branchID int64, resolved *bool) ([]model.Incident, error) {
	path := "/api/incidents/branch/" + strconv.FormatInt(branchID, 10) + resolvedQuery(resolved)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Incident](resp)
}

func (c *IncidentClient) ByDriver(ctx context.Context, driverID int64, resolved *bool) ([]model.Incident, error) {
	path := "/api/incidents/driver/" + strconv.FormatInt(driverID, 10) + resolvedQuery(resolved)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Incident](resp)
}

func (c *IncidentClient) Resolve(ctx context.Context, id int64, resolution *model.IncidentResolution) (*model.Incident, error) {
	path := "/api/incidents/" + strconv.FormatInt(id, 10) + "/resolve"
	resp, err := c.httpClient.POST(ctx, path, resolution)
	if err != nil {
		return nil, err
	}

	var incident model.Incident
	if err := decodeData(resp, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}
