package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 64 << 10

// ipAPIResponse ip-api.com 风格的 JSON 响应
type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	Timezone   string `json:"timezone"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
}

// HTTPGeolocator 通过 HTTP GET 查询地理位置，urlTemplate 中的 %s 替换为 IP
type HTTPGeolocator struct {
	client      *http.Client
	urlTemplate string
}

func NewHTTPGeolocator(urlTemplate string, client *http.Client) *HTTPGeolocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGeolocator{client: client, urlTemplate: urlTemplate}
}

func (g *HTTPGeolocator) Locate(ctx context.Context, ip string) (Geolocation, error) {
	endpoint := fmt.Sprintf(g.urlTemplate, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Geolocation{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Geolocation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Geolocation{}, fmt.Errorf("geolocation service returned %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return Geolocation{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return Geolocation{}, fmt.Errorf("geolocation lookup %s: %s", body.Status, body.Message)
	}

	isp := body.ISP
	if isp == "" {
		isp = body.Org
	}
	return Geolocation{
		Country:  nonEmpty(body.Country),
		Region:   nonEmpty(body.RegionName),
		City:     nonEmpty(body.City),
		Timezone: nonEmpty(body.Timezone),
		ISP:      nonEmpty(isp),
	}, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
