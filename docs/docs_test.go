package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerInfo_ReadDoc(t *testing.T) {
	var doc struct {
		BasePath string `json:"basePath"`
		Paths    map[string]map[string]struct {
			Summary string `json:"summary"`
		} `json:"paths"`
		Definitions map[string]struct {
			Properties map[string]map[string]interface{} `json:"properties"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, "Get the caller's cart", doc.Paths["/cart"]["get"].Summary)
	assert.Equal(t, "Add a product to the cart", doc.Paths["/cart/add"]["post"].Summary)
	assert.Equal(t, "Verify an order", doc.Paths["/orders/{id}/verify"]["patch"].Summary)
	assert.Equal(t, float64(1), doc.Definitions["handlers.AddToCartRequest"].Properties["quantity"]["default"])
}
