package recommend

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"showroom/inventory"
)

const submitToolName = "submit_recommendations"

// maxRecommendations caps what the model is asked for; the reconciler does not enforce it.
const maxRecommendations = 5

// payloadSchema describes the reply the model must produce. It is used as Ollama's
// structured output format and as the input schema of the Bedrock submit tool.
func payloadSchema() *jsonschema.Schema {
	minID := 0.0
	maxItems := maxRecommendations
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"success": {
				Type:        "boolean",
				Description: "false when no vehicle in the catalog fits the request",
			},
			"recommendations": {
				Type:     "array",
				MaxItems: &maxItems,
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id": {
							Type:        "integer",
							Description: "id of a vehicle from the catalog",
							Minimum:     &minID,
						},
						"matchReason": {
							Type:        "string",
							Description: "one or two sentences in the customer's language",
						},
					},
					Required: []string{"id", "matchReason"},
				},
			},
		},
		Required: []string{"success", "recommendations"},
	}
}

// systemPrompt renders the instructions followed by the current catalog.
func systemPrompt(catalog []inventory.Record) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nCATALOG (id | name | year | price (10k KRW) | mileage (km) | fuel | type)\n")
	if len(catalog) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, r := range catalog {
		fmt.Fprintf(&b, "%d | %s | %d | %d | %d | %s | %s\n",
			r.ID, r.Name, r.Year, r.Price, r.Mileage, r.FuelType, r.CarType)
	}
	return b.String()
}

const instructions = `You are a sales assistant for a used-car showroom.

GOAL
Pick the vehicles from the catalog below that best fit the customer's request and explain each pick briefly.

RULES
- Only use ids that appear in the catalog. Never invent vehicles.
- Order picks from best to worst fit. Return at most 5.
- Write matchReason in the same language as the request.
- If nothing fits, return "success": false with an empty "recommendations" array.

OUTPUT
Return ONE JSON object only, no markdown and no extra text:
{"success": boolean, "recommendations": [{"id": integer, "matchReason": string}]}`
