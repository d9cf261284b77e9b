package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DocsHandler serves the interactive API documentation. The OpenAPI document
// is generated in code so it cannot drift from a checked-in file.
type DocsHandler struct {
	version string
}

// NewDocsHandler creates a docs handler reporting the given API version.
func NewDocsHandler(version string) *DocsHandler {
	return &DocsHandler{version: version}
}

// OpenAPISpec is the root of the generated OpenAPI 3.0 document.
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Paths      map[string]interface{} `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

// OpenAPIInfo describes the API itself.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// OpenAPIComponents holds the shared schemas and security schemes.
type OpenAPIComponents struct {
	SecuritySchemes map[string]interface{} `json:"securitySchemes"`
	Schemas         map[string]interface{} `json:"schemas"`
}

// GetOpenAPIJSON returns the OpenAPI specification as JSON.
func (h *DocsHandler) GetOpenAPIJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.generateOpenAPISpec())
}

// GetSwaggerUI returns the Swagger UI page.
func (h *DocsHandler) GetSwaggerUI(c *gin.Context) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Aztec Exchange API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui.css" />
    <style>
        body { margin: 0; background: #fafafa; }
        .swagger-ui .topbar { background-color: #16213e; }
        .swagger-ui .topbar .download-url-wrapper { display: none; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/openapi.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout"
            });
        };
    </script>
</body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetRedocUI returns the ReDoc page.
func (h *DocsHandler) GetRedocUI(c *gin.Context) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Aztec Exchange API Documentation</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { margin: 0; padding: 0; }
    </style>
</head>
<body>
    <redoc spec-url='/openapi.json'></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *DocsHandler) generateOpenAPISpec() OpenAPISpec {
	errorResponse := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"description": description,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]interface{}{"$ref": "#/components/schemas/ErrorResponse"},
				},
			},
		}
	}
	jsonResponse := func(description, ref string) map[string]interface{} {
		return map[string]interface{}{
			"description": description,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]interface{}{"$ref": ref},
				},
			},
		}
	}
	apiKey := []map[string][]string{{"ApiKeyAuth": {}}}

	paths := map[string]interface{}{
		"/": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Service descriptor",
				"tags":    []string{"Root"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Service name, version and well-known paths"},
				},
			},
		},
		"/api/v1/health": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Engine health",
				"description": "Always returns 200. The status field reports healthy or degraded depending on whether the engine answered.",
				"tags":        []string{"Exchange"},
				"responses": map[string]interface{}{
					"200": jsonResponse("Health report", "#/components/schemas/Health"),
				},
			},
		},
		"/api/v1/orders": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":  "Place an order",
				"tags":     []string{"Exchange"},
				"security": apiKey,
				"requestBody": map[string]interface{}{
					"required": true,
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{"$ref": "#/components/schemas/PlaceOrderRequest"},
						},
					},
				},
				"responses": map[string]interface{}{
					"200": jsonResponse("Order accepted, with any trades it produced", "#/components/schemas/PlaceOrderResponse"),
					"400": errorResponse("Engine rejected the order"),
					"401": errorResponse("Invalid API key"),
					"422": errorResponse("Request failed validation"),
					"429": errorResponse("Rate limit exceeded"),
					"500": errorResponse("Engine unavailable"),
				},
			},
		},
		"/api/v1/orders/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":  "Get an order",
				"tags":     []string{"Exchange"},
				"security": apiKey,
				"parameters": []map[string]interface{}{
					{
						"name":     "id",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "integer", "format": "int64"},
					},
				},
				"responses": map[string]interface{}{
					"200": jsonResponse("The order", "#/components/schemas/Order"),
					"401": errorResponse("Invalid API key"),
					"404": errorResponse("Order not found"),
					"422": errorResponse("Order id is not an integer"),
					"500": errorResponse("Engine unavailable"),
				},
			},
			"delete": map[string]interface{}{
				"summary":  "Cancel an order",
				"tags":     []string{"Exchange"},
				"security": apiKey,
				"parameters": []map[string]interface{}{
					{
						"name":     "id",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "integer", "format": "int64"},
					},
				},
				"responses": map[string]interface{}{
					"200": jsonResponse("The cancelled order", "#/components/schemas/Order"),
					"401": errorResponse("Invalid API key"),
					"404": errorResponse("Order not found"),
					"422": errorResponse("Order id is not an integer"),
					"429": errorResponse("Rate limit exceeded"),
					"500": errorResponse("Engine unavailable"),
				},
			},
		},
		"/api/v1/book/{symbol}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Order book snapshot",
				"tags":    []string{"Exchange"},
				"parameters": []map[string]interface{}{
					{
						"name":     "symbol",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "string", "example": "BTC-USD"},
					},
					{
						"name":        "depth",
						"in":          "query",
						"description": "Price levels per side",
						"schema":      map[string]interface{}{"type": "integer", "default": 10},
					},
				},
				"responses": map[string]interface{}{
					"200": jsonResponse("Depth-limited book snapshot", "#/components/schemas/OrderBook"),
					"422": errorResponse("Depth is not an integer"),
					"500": errorResponse("Engine unavailable"),
				},
			},
		},
		"/api/v1/trades/{symbol}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Recent trades",
				"tags":    []string{"Exchange"},
				"parameters": []map[string]interface{}{
					{
						"name":     "symbol",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "string", "example": "BTC-USD"},
					},
					{
						"name":        "limit",
						"in":          "query",
						"description": "Maximum trades to return, capped at 1000",
						"schema":      map[string]interface{}{"type": "integer", "default": 100, "maximum": 1000},
					},
				},
				"responses": map[string]interface{}{
					"200": jsonResponse("Most recent trades", "#/components/schemas/TradeHistory"),
					"422": errorResponse("Limit is not an integer"),
					"500": errorResponse("Engine unavailable"),
				},
			},
		},
		"/api/v1/stats": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":  "Engine statistics",
				"tags":     []string{"Exchange"},
				"security": apiKey,
				"responses": map[string]interface{}{
					"200": jsonResponse("Lifetime engine counters", "#/components/schemas/Stats"),
					"401": errorResponse("Invalid API key"),
					"500": errorResponse("Engine unavailable"),
				},
			},
		},
		"/metrics": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Prometheus metrics",
				"tags":    []string{"Monitoring"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Metrics in Prometheus text exposition format"},
				},
			},
		},
	}

	fixedPoint := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "integer",
			"format":      "int64",
			"description": description + " (fixed point, scale 1e8)",
		}
	}
	int64Schema := map[string]interface{}{"type": "integer", "format": "int64"}

	schemas := map[string]interface{}{
		"PlaceOrderRequest": map[string]interface{}{
			"type":     "object",
			"required": []string{"account_id", "symbol", "side", "type", "price", "quantity"},
			"properties": map[string]interface{}{
				"account_id":      map[string]interface{}{"type": "string", "maxLength": 64},
				"symbol":          map[string]interface{}{"type": "string", "pattern": "^[A-Z]+-[A-Z]+$", "example": "BTC-USD"},
				"side":            map[string]interface{}{"type": "string", "enum": []string{"BUY", "SELL"}},
				"type":            map[string]interface{}{"type": "string", "enum": []string{"LIMIT", "MARKET"}},
				"price":           fixedPoint("Limit price, 0 for market orders"),
				"quantity":        fixedPoint("Order quantity"),
				"idempotency_key": map[string]interface{}{"type": "string", "maxLength": 64},
				"client_order_id": map[string]interface{}{"type": "string", "maxLength": 64},
			},
		},
		"Order": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":              int64Schema,
				"account_id":      map[string]interface{}{"type": "string"},
				"symbol":          map[string]interface{}{"type": "string"},
				"side":            map[string]interface{}{"type": "string", "enum": []string{"BUY", "SELL"}},
				"type":            map[string]interface{}{"type": "string", "enum": []string{"LIMIT", "MARKET"}},
				"price":           fixedPoint("Limit price"),
				"quantity":        fixedPoint("Original quantity"),
				"remaining_qty":   fixedPoint("Unfilled quantity"),
				"timestamp_ns":    int64Schema,
				"status":          map[string]interface{}{"type": "string", "enum": []string{"NEW", "PARTIAL", "FILLED", "CANCELLED", "REJECTED"}},
				"idempotency_key": map[string]interface{}{"type": "string"},
				"client_order_id": map[string]interface{}{"type": "string"},
			},
		},
		"Trade": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":                int64Schema,
				"buy_order_id":      int64Schema,
				"sell_order_id":     int64Schema,
				"symbol":            map[string]interface{}{"type": "string"},
				"price":             fixedPoint("Execution price"),
				"quantity":          fixedPoint("Executed quantity"),
				"timestamp_ns":      int64Schema,
				"buyer_account_id":  map[string]interface{}{"type": "string"},
				"seller_account_id": map[string]interface{}{"type": "string"},
			},
		},
		"BookLevel": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"price":       fixedPoint("Price level"),
				"quantity":    fixedPoint("Open quantity resting at this price"),
				"order_count": map[string]interface{}{"type": "integer"},
			},
		},
		"OrderBook": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"symbol": map[string]interface{}{"type": "string"},
				"bids":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/BookLevel"}},
				"asks":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/BookLevel"}},
			},
		},
		"TradeHistory": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"symbol": map[string]interface{}{"type": "string"},
				"trades": map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/Trade"}},
			},
		},
		"PlaceOrderResponse": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"order":  map[string]interface{}{"$ref": "#/components/schemas/Order"},
				"trades": map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/Trade"}},
			},
		},
		"Stats": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"total_orders":   int64Schema,
				"total_trades":   int64Schema,
				"total_cancels":  int64Schema,
				"total_rejects":  int64Schema,
				"event_sequence": int64Schema,
			},
		},
		"Health": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"status":           map[string]interface{}{"type": "string", "enum": []string{"healthy", "degraded"}},
				"timestamp_ns":     int64Schema,
				"engine_connected": map[string]interface{}{"type": "boolean"},
			},
		},
		"ErrorResponse": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"success": map[string]interface{}{"type": "boolean", "example": false},
				"error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"code":    map[string]interface{}{"type": "string", "example": "VALIDATION_ERROR"},
						"message": map[string]interface{}{"type": "string"},
						"fields": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"field":  map[string]interface{}{"type": "string"},
									"reason": map[string]interface{}{"type": "string"},
								},
							},
						},
					},
				},
				"request_id": map[string]interface{}{"type": "string"},
			},
		},
	}

	return OpenAPISpec{
		OpenAPI: "3.0.0",
		Info: OpenAPIInfo{
			Title:   "Aztec Exchange API",
			Version: h.version,
			Description: `HTTP gateway for a high-integrity order matching engine.

Orders match in price-time priority. All arithmetic is fixed point, so
results are deterministic and every event is replayable from the audit log.

### Authentication
Most endpoints require an ` + "`X-API-Key`" + ` header. Market data endpoints
are public.

### Fixed-Point Format
All prices and quantities use 8 decimal places (1e8 scale):
- ` + "`100000000`" + ` = 1.0
- ` + "`5000000000000`" + ` = 50,000.00`,
		},
		Paths: paths,
		Components: OpenAPIComponents{
			SecuritySchemes: map[string]interface{}{
				"ApiKeyAuth": map[string]interface{}{
					"type": "apiKey",
					"in":   "header",
					"name": "X-API-Key",
				},
			},
			Schemas: schemas,
		},
	}
}
