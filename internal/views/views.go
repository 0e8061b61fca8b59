// Package views holds the dashboard pages registered in the route table.
//
// A view is built lazily by its route's loader and renders a Page by calling
// the backend gateway. Gateway failures end up on the page as section errors;
// they never abort the render.
package views

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/okian/capio/internal/gateway"
	"github.com/okian/capio/internal/router"
	"github.com/okian/capio/pkg/logger"
)

// AppName is the name shown in every page title.
const AppName = "CAPIO"

// Gateway is the subset of the backend client the pages call.
type Gateway interface {
	GetProducts(ctx context.Context) (*gateway.Response, error)
	GetPurchaseHistory(ctx context.Context) (*gateway.Response, error)
	GetRecommendations(ctx context.Context) (*gateway.Response, error)
	GetSalesHistory(ctx context.Context) (*gateway.Response, error)
	GetSalesPrediction(ctx context.Context) (*gateway.Response, error)
	GetSalesPerCategory(ctx context.Context) (*gateway.Response, error)
	GetMachineLearningPrediction(ctx context.Context) (*gateway.Response, error)
}

// Section is one block of a page backed by a single gateway call.
type Section struct {
	Key   string
	Title string
	Data  any
	Error string
}

// Failed reports whether the section's call failed.
func (s Section) Failed() bool { return s.Error != "" }

// Page is the model every view renders.
type Page struct {
	View     string
	Path     string
	Title    string
	Sections []Section
	NotFound bool
}

type fetcher struct {
	key   string
	title string
	fetch func(ctx context.Context) (any, error)
}

func decoded[T any](call func(context.Context) (*gateway.Response, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		resp, err := call(ctx)
		if err != nil {
			return nil, err
		}
		return gateway.Decode[T](resp)
	}
}

// sectioned fetches its sections concurrently and lays them out in
// declaration order.
type sectioned struct {
	name     string
	fetchers []fetcher
	logger   logger.Logger
}

func (v *sectioned) Name() string { return v.name }

func (v *sectioned) Render(ctx context.Context, nav *router.Navigation) (any, error) {
	page := &Page{
		View:     v.name,
		Path:     nav.Path,
		Title:    nav.Title,
		Sections: make([]Section, len(v.fetchers)),
	}

	var g errgroup.Group
	for i, f := range v.fetchers {
		g.Go(func() error {
			s := Section{Key: f.key, Title: f.title}
			data, err := f.fetch(ctx)
			if err != nil {
				s.Error = err.Error()
				v.logger.Warn(ctx, "section failed",
					logger.String("view", v.name),
					logger.String("section", f.key),
					logger.Error(err),
				)
			} else {
				s.Data = data
			}
			page.Sections[i] = s
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// NewDashboard builds the landing page: sales history, forecast and
// product recommendations.
func NewDashboard(gw Gateway, l logger.Logger) router.View {
	return &sectioned{
		name:   "dashboard",
		logger: l,
		fetchers: []fetcher{
			{key: "sales_history", title: "Sales History", fetch: decoded[[]gateway.Sale](gw.GetSalesHistory)},
			{key: "sales_prediction", title: "Sales Forecast", fetch: decoded[gateway.SalesPrediction](gw.GetSalesPrediction)},
			{key: "recommendations", title: "Recommendations", fetch: decoded[gateway.Recommendations](gw.GetRecommendations)},
		},
	}
}

// NewProducts builds the product management page.
func NewProducts(gw Gateway, l logger.Logger) router.View {
	return &sectioned{
		name:   "products",
		logger: l,
		fetchers: []fetcher{
			{key: "products", title: "Products", fetch: decoded[[]gateway.Product](gw.GetProducts)},
			{key: "purchase_history", title: "Purchase History", fetch: decoded[[]gateway.Purchase](gw.GetPurchaseHistory)},
			{key: "recommendations", title: "Recommendations", fetch: decoded[gateway.Recommendations](gw.GetRecommendations)},
		},
	}
}

// NewSales builds the sales management page. Per-category and model
// predictions have no fixed shape and are kept raw.
func NewSales(gw Gateway, l logger.Logger) router.View {
	return &sectioned{
		name:   "sales",
		logger: l,
		fetchers: []fetcher{
			{key: "sales_history", title: "Sales History", fetch: decoded[[]gateway.Sale](gw.GetSalesHistory)},
			{key: "sales_per_category", title: "Sales per Category", fetch: decoded[json.RawMessage](gw.GetSalesPerCategory)},
			{key: "sales_prediction", title: "Sales Forecast", fetch: decoded[gateway.SalesPrediction](gw.GetSalesPrediction)},
			{key: "ml_prediction", title: "Model Prediction", fetch: decoded[json.RawMessage](gw.GetMachineLearningPrediction)},
		},
	}
}

type notFound struct{}

// NewNotFound builds the catch-all page. It makes no backend calls.
func NewNotFound() router.View { return notFound{} }

func (notFound) Name() string { return "notfound" }

func (notFound) Render(_ context.Context, nav *router.Navigation) (any, error) {
	return &Page{View: "notfound", Path: nav.Path, Title: nav.Title, NotFound: true}, nil
}

// Routes returns the dashboard route table entries in match order. Views are
// constructed on first navigation.
func Routes(gw Gateway, l logger.Logger) []router.Route {
	if l == nil {
		l = logger.Get().Named("views")
	}
	lazy := func(build func() router.View) router.Loader {
		return func(context.Context) (router.View, error) { return build(), nil }
	}
	return []router.Route{
		{Path: "/", Name: "Dashboard", Title: "Dashboard", Load: lazy(func() router.View { return NewDashboard(gw, l) })},
		{Path: "/products", Name: "Products", Title: "Product Management", Load: lazy(func() router.View { return NewProducts(gw, l) })},
		{Path: "/sales", Name: "Sales", Title: "Sales Management", Load: lazy(func() router.View { return NewSales(gw, l) })},
		{Path: router.CatchAll, Name: "NotFound", Title: "Page Not Found", Load: lazy(NewNotFound)},
	}
}
