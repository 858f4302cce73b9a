package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekosirs/bekoctl/internal/apierrors"
	"github.com/bekosirs/bekoctl/internal/client"
	"github.com/bekosirs/bekoctl/internal/logging"
)

const productsJSON = `[
	{"id":1,"name":"WTV 9612 Washing Machine","brand":"Beko","price":"18999.00","image":"","category":{"id":1,"name":"Laundry"},"status":"available","description":""},
	{"id":2,"name":"RCNE 560 Fridge","brand":"Beko","price":"27999.00","image":"","category":null,"status":"available","description":""}
]`

func newTestCatalog(t *testing.T, handler http.HandlerFunc) *Catalog {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(client.NewClient(srv.URL, time.Second, logging.Discard()))
}

func TestProducts(t *testing.T) {
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProductsPath, r.URL.Path)
		w.Write([]byte(productsJSON))
	})

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{name: "blank query", query: "  ", wantIDs: []int{1, 2}},
		{name: "case insensitive", query: "FRIDGE", wantIDs: []int{2}},
		{name: "no match", query: "oven", wantIDs: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := c.Products(context.Background(), tt.query)
			require.NoError(t, err)
			ids := []int{}
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMyProducts(t *testing.T) {
	t.Run("assigned", func(t *testing.T) {
		c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, MyProductsPath, r.URL.Path)
			w.Write([]byte(`[{"id":3,"name":"Dryer","assigned_date":"2026-01-15"}]`))
		})
		products, err := c.MyProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "2026-01-15", products[0].AssignedDate)
		assert.Equal(t, "-", products[0].CategoryName())
	})

	t.Run("not found is empty", func(t *testing.T) {
		c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not found."}`))
		})
		products, err := c.MyProducts(context.Background())
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NotNil(t, products)
	})

	t.Run("unauthorized", func(t *testing.T) {
		c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
		})
		_, err := c.MyProducts(context.Background())
		assert.ErrorIs(t, err, apierrors.ErrAuthRejected)
		assert.Equal(t, "Authentication credentials were not provided.", apierrors.UserMessage(err))
	})

	t.Run("server error fallback", func(t *testing.T) {
		c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.MyProducts(context.Background())
		assert.Equal(t, "your products could not be loaded", apierrors.UserMessage(err))
	})
}
