package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	"golang.org/x/time/rate"
)

// resource -> upstream endpoint path
var resourcePaths = map[string]string{
	constants.ResourceOrders:      "/api/v1/service-orders/",
	constants.ResourceEquipments:  "/api/v1/equipments/",
	constants.ResourceTechnicians: "/api/v1/technicians/",
}

// filter key -> upstream query parameter
var filterParams = map[string]string{
	constants.FilterUpdatedSince:  "updated_at__gt",
	constants.FilterIDGreaterThan: "id__gt",
	constants.FilterCreatedSince:  "created_at__gte",
	constants.FilterCreatedUntil:  "created_at__lte",
	constants.FilterPageSize:      "page_size",
}

// RESTProvider implements DataProvider against the upstream field-service API
type RESTProvider struct {
	client  *http.Client
	baseURL string
	token   string
	pacer   *rate.Limiter
}

// NewRESTProvider creates a provider with a request-level timeout and a
// steady request pacer that caps sustained calls per second regardless of
// the engine's adaptive backoff.
func NewRESTProvider(baseURL, token string, timeout time.Duration, requestsPerSec float64, burst int) *RESTProvider {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &RESTProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
		pacer:   rate.NewLimiter(rate.Limit(requestsPerSec), burst),
	}
}

// listResponse is the upstream paginated envelope
type listResponse struct {
	Count   int              `json:"count"`
	Next    *string          `json:"next"`
	Results []map[string]any `json:"results"`
}

// FetchPage fetches one page of a resource
func (p *RESTProvider) FetchPage(ctx context.Context, resource string, filters map[string]any, page int) (*PageResult, error) {
	path, ok := resourcePaths[resource]
	if !ok {
		return nil, NewProviderError(constants.ErrCodeResourceNotFound, KindFatal,
			fmt.Errorf("unknown resource %q", resource))
	}

	if err := p.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	for key, val := range filters {
		param, ok := filterParams[key]
		if !ok {
			continue
		}
		q.Set(param, fmt.Sprintf("%v", val))
	}

	reqURL := p.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		code := constants.ErrCodeNetworkError
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			code = constants.ErrCodeRequestTimeout
		}
		return nil, NewProviderError(code, KindTransient, err)
	}
	defer resp.Body.Close()

	if err := classifyHTTPStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewProviderError(constants.ErrCodeMalformedResponse, KindFatal, err)
	}

	return &PageResult{
		Records:    body.Results,
		HasNext:    body.Next != nil && *body.Next != "",
		TotalCount: body.Count,
	}, nil
}

func classifyHTTPStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(constants.ErrCodeAuthExpired, KindAuthExpired,
			fmt.Errorf("upstream returned %d", status))
	case status == http.StatusTooManyRequests:
		return NewProviderError(constants.ErrCodeRateLimited, KindRateLimited,
			fmt.Errorf("upstream returned %d", status))
	case status >= 500:
		return NewProviderError(constants.ErrCodeServerError, KindTransient,
			fmt.Errorf("upstream returned %d", status))
	case status == http.StatusNotFound:
		return NewProviderError(constants.ErrCodeResourceNotFound, KindFatal,
			fmt.Errorf("upstream returned %d", status))
	default:
		return NewProviderError(constants.ErrCodeBadRequest, KindFatal,
			fmt.Errorf("upstream returned %d", status))
	}
}
