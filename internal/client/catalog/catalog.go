package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/bekosirs/bekoctl/internal/apierrors"
	"github.com/bekosirs/bekoctl/internal/client"
	"github.com/bekosirs/bekoctl/internal/models"
)

// Catalog endpoints
const (
	ProductsPath   = "/api/products/"
	MyProductsPath = "/api/my-products/"
)

// Catalog reads product listings through the authenticated transport
type Catalog struct {
	client *client.Client
}

// New creates a catalog reader
func New(c *client.Client) *Catalog {
	return &Catalog{client: c}
}

// Products lists the catalog, filtered by name when query is non-blank
func (c *Catalog) Products(ctx context.Context, query string) ([]models.Product, error) {
	var products []models.Product
	if err := c.client.GetJSON(ctx, ProductsPath, &products); err != nil {
		return nil, refine(err, "products could not be loaded")
	}
	return models.FilterProducts(products, query), nil
}

// MyProducts lists the products assigned to the caller. The service answers
// 404 when nothing is assigned yet; that is an empty list, not an error.
func (c *Catalog) MyProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.client.GetJSON(ctx, MyProductsPath, &products); err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return []models.Product{}, nil
		}
		return nil, refine(err, "your products could not be loaded")
	}
	return products, nil
}

func refine(err error, fallback string) error {
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		return apiErr.Refine(apierrors.FromMessage, apierrors.FromDetail, apierrors.Literal(fallback))
	}
	return err
}
