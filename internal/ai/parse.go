package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/domain"
)

// ParseTransactionInput asks the model to extract transaction details
// from a natural-language description and reconciles the answer into a
// patch. Only fields present and well-typed in the response make it
// into the patch; everything the model got wrong is silently dropped so
// the user's current draft fields stay intact.
func (c *Client) ParseTransactionInput(ctx context.Context, input string) (domain.TransactionPatch, error) {
	prompt := fmt.Sprintf(
		"Extract transaction details from this text: %q.\n"+
			"Available categories: %s.\n"+
			"If no category fits perfectly, choose 'Other'.\n"+
			"Return a JSON object with keys: amount (number), category (string), "+
			"description (cleaned string), type ('expense' or 'income').",
		input, strings.Join(domain.Categories, ", "))

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"amount":      {Type: genai.TypeNumber},
				"category":    {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
				"type":        {Type: genai.TypeString, Enum: []string{"expense", "income"}},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return domain.TransactionPatch{}, fmt.Errorf("ParseTransactionInput: generate content: %w", err)
	}

	raw, err := ExtractJSON(resp.Text())
	if err != nil {
		return domain.TransactionPatch{}, fmt.Errorf("ParseTransactionInput: %w", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.TransactionPatch{}, fmt.Errorf("ParseTransactionInput: %w", domain.ErrMalformedResponse)
	}

	return reconcilePatch(obj), nil
}

// reconcilePatch applies the field-level rules for Mode A extraction:
// wrong types and absent keys leave the corresponding patch field nil,
// amounts are coerced to their absolute value, and category values
// outside the closed enumeration are ignored.
func reconcilePatch(obj map[string]interface{}) domain.TransactionPatch {
	var p domain.TransactionPatch

	if v, ok := obj["amount"].(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
		a := math.Abs(v)
		p.Amount = &a
	}
	if v, ok := obj["category"].(string); ok && domain.KnownCategory(v) {
		cat := v
		p.Category = &cat
	}
	if v, ok := obj["description"].(string); ok {
		if desc := strings.TrimSpace(v); desc != "" {
			p.Description = &desc
		}
	}
	if v, ok := obj["type"].(string); ok {
		if t := domain.TxType(v); t.Valid() {
			p.Type = &t
		}
	}
	return p
}
