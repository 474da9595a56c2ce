package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/security"
)

// HTTPGeocoder はHTTP経由で位置解決サービスに問い合わせるGeocoder実装。
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
	guard   security.OutboundGuard
}

// NewHTTPGeocoder はHTTPGeocoderを生成する。
// clientにはguard.SafeClientで生成したSSRF防止機能付きクライアントを渡す。
func NewHTTPGeocoder(baseURL string, client *http.Client, guard security.OutboundGuard) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		guard:   guard,
	}
}

// locateResponse は位置解決サービスのレスポンス。
type locateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locate はユーザーの現在位置を位置解決サービスに問い合わせる。
// サービスが403を返した場合、ユーザーが位置情報の提供を拒否した
// ものとしてErrPermissionDeniedを返す。
func (g *HTTPGeocoder) Locate(ctx context.Context, userID string) (*model.Coordinate, error) {
	reqURL := g.baseURL + "/v1/locate?user_id=" + url.QueryEscape(userID)

	if err := g.guard.ValidateURL(reqURL); err != nil {
		return nil, fmt.Errorf("geocoder URL validation failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create locate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("locate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrPermissionDenied
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("locate failed with status %d: %s", resp.StatusCode, string(body))
	}

	var locResp locateResponse
	if err := json.NewDecoder(resp.Body).Decode(&locResp); err != nil {
		return nil, fmt.Errorf("failed to parse locate response: %w", err)
	}

	return &model.Coordinate{Lat: locResp.Lat, Lng: locResp.Lng}, nil
}

// compile-time interface check
var _ Geocoder = (*HTTPGeocoder)(nil)
