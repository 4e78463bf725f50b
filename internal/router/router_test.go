package router

import (
	"testing"

	"distriflow/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// The engine can be built without live backends: constructors only store
// their dependencies, nothing dials until a request arrives.
func TestRouteTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(&config.Config{}, nil, nil)

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /auth/login",
		"POST /auth/password-reset",
		"GET /health",
		"POST /api/shopify/orders",
		"GET /api/products",
		"POST /api/products/:id/components",
		"GET /api/sales/:id/payments",
		"POST /warehouse/api/orders",
		"POST /warehouse/api/receiving/:id",
		"POST /warehouse/api/adjustments",
		"POST /warehouse/api/assembly",
		"POST /reconciliation/api/transactions/auto-match",
		"POST /reconciliation/api/transactions/:id/unmatch",
		"GET /api/users",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "falta la ruta %s", route)
	}

	// The old nested reception route must be gone.
	assert.False(t, registered["POST /warehouse/api/orders/:id/receive"])
	assert.False(t, registered["POST /api/auth/login"])
}
