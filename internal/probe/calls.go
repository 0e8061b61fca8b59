package probe

import (
	"context"
	"time"

	"github.com/okian/capio/internal/gateway"
)

// call invokes one gateway method.
type call func(ctx context.Context, c *gateway.Client, cfg *Config) (*gateway.Response, error)

// writes are skipped unless Config.IncludeWrites is set.
var writes = map[string]bool{
	gateway.EndpointSubmitPurchase.Name: true,
	gateway.EndpointSubmitSales.Name:    true,
}

var calls = map[string]call{
	gateway.EndpointGetProducts.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetProducts(ctx)
	},
	gateway.EndpointSubmitPurchase.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.SubmitPurchase(ctx, samplePurchase())
	},
	gateway.EndpointGetPurchaseHistory.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetPurchaseHistory(ctx)
	},
	gateway.EndpointGetRecommendations.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetRecommendations(ctx)
	},
	gateway.EndpointSubmitSales.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.SubmitSales(ctx, sampleSale())
	},
	gateway.EndpointGetSalesHistory.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetSalesHistory(ctx)
	},
	gateway.EndpointGetSalesPrediction.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetSalesPrediction(ctx)
	},
	gateway.EndpointGetSalesPerCategory.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetSalesPerCategory(ctx)
	},
	gateway.EndpointGetMachineLearningPrediction.Name: func(ctx context.Context, c *gateway.Client, _ *Config) (*gateway.Response, error) {
		return c.GetMachineLearningPrediction(ctx)
	},
	gateway.EndpointGetMachineLearningRecommendations.Name: func(ctx context.Context, c *gateway.Client, cfg *Config) (*gateway.Response, error) {
		return c.GetMachineLearningRecommendations(ctx, cfg.UserID)
	},
}

func samplePurchase() gateway.PurchaseRequest {
	return gateway.PurchaseRequest{
		Product:  gateway.IntID(1),
		Quantity: 1,
		Date:     time.Now().Format(time.DateOnly),
	}
}

func sampleSale() gateway.Sale {
	return gateway.Sale{
		Date:              time.Now().Format(time.DateOnly),
		TotalSales:        0,
		EconomicIndicator: 1,
	}
}
