package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/okian/capio/pkg/logger"
)

// Endpoint binds a named call to a fixed method and path under the base URL.
type Endpoint struct {
	Name   string
	Method string
	Path   string
}

// Endpoint bindings consumed by the dashboard.
var (
	EndpointGetProducts                       = Endpoint{Name: "getProducts", Method: http.MethodGet, Path: "/products/"}
	EndpointSubmitPurchase                    = Endpoint{Name: "submitPurchase", Method: http.MethodPost, Path: "/products/purchase/"}
	EndpointGetPurchaseHistory                = Endpoint{Name: "getPurchaseHistory", Method: http.MethodGet, Path: "/products/history/"}
	EndpointGetRecommendations                = Endpoint{Name: "getRecommendations", Method: http.MethodGet, Path: "/products/recommendations/"}
	EndpointSubmitSales                       = Endpoint{Name: "submitSales", Method: http.MethodPost, Path: "/sales/submit/"}
	EndpointGetSalesHistory                   = Endpoint{Name: "getSalesHistory", Method: http.MethodGet, Path: "/sales/history/"}
	EndpointGetSalesPrediction                = Endpoint{Name: "getSalesPrediction", Method: http.MethodGet, Path: "/sales/predict/"}
	EndpointGetSalesPerCategory               = Endpoint{Name: "getSalesPerCategory", Method: http.MethodGet, Path: "/sales/per-category/"}
	EndpointGetMachineLearningPrediction      = Endpoint{Name: "getMachineLearningPrediction", Method: http.MethodGet, Path: "/prediction/sales/"}
	EndpointGetMachineLearningRecommendations = Endpoint{Name: "getMachineLearningRecommendations", Method: http.MethodGet, Path: "/prediction/products/"}
)

// Endpoints lists every binding in declaration order.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointGetProducts,
		EndpointSubmitPurchase,
		EndpointGetPurchaseHistory,
		EndpointGetRecommendations,
		EndpointSubmitSales,
		EndpointGetSalesHistory,
		EndpointGetSalesPrediction,
		EndpointGetSalesPerCategory,
		EndpointGetMachineLearningPrediction,
		EndpointGetMachineLearningRecommendations,
	}
}

// Products

func (c *Client) GetProducts(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetProducts, nil, nil)
}

// SubmitPurchase posts payload as-is; its shape is the backend's concern.
func (c *Client) SubmitPurchase(ctx context.Context, payload any) (*Response, error) {
	return c.do(ctx, EndpointSubmitPurchase, payload, nil)
}

func (c *Client) GetPurchaseHistory(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetPurchaseHistory, nil, nil)
}

// GetRecommendations additionally logs the attempt, the raw result and any
// failure detail before returning the outcome unchanged.
func (c *Client) GetRecommendations(ctx context.Context) (*Response, error) {
	c.logger.Info(ctx, "fetching recommendations")

	resp, err := c.do(ctx, EndpointGetRecommendations, nil, nil)
	if err != nil {
		fields := []logger.Field{logger.Error(err)}
		if ge, ok := AsError(err); ok && ge.Kind == KindStatus {
			fields = append(fields,
				logger.Int("status", ge.Status),
				logger.String("body", string(ge.Body)),
			)
		}
		c.logger.Error(ctx, "error fetching recommendations", fields...)
		return nil, err
	}

	c.logger.Info(ctx, "recommendations response", logger.String("data", string(resp.Data)))
	return resp, nil
}

// Sales

// SubmitSales posts payload as-is; its shape is the backend's concern.
func (c *Client) SubmitSales(ctx context.Context, payload any) (*Response, error) {
	return c.do(ctx, EndpointSubmitSales, payload, nil)
}

func (c *Client) GetSalesHistory(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetSalesHistory, nil, nil)
}

func (c *Client) GetSalesPrediction(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetSalesPrediction, nil, nil)
}

func (c *Client) GetSalesPerCategory(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetSalesPerCategory, nil, nil)
}

// Machine learning predictions

func (c *Client) GetMachineLearningPrediction(ctx context.Context) (*Response, error) {
	return c.do(ctx, EndpointGetMachineLearningPrediction, nil, nil)
}

// GetMachineLearningRecommendations passes userID as the user_id query parameter.
func (c *Client) GetMachineLearningRecommendations(ctx context.Context, userID string) (*Response, error) {
	return c.do(ctx, EndpointGetMachineLearningRecommendations, nil, url.Values{"user_id": {userID}})
}
