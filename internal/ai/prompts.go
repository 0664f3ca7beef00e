package ai

import "fmt"

// The prompts pin the exact JSON shape the service unmarshals into. The
// "no markdown" instruction is advisory only; responses are fence-stripped
// regardless before parsing.

func requestPrompt(text, today string) string {
	return fmt.Sprintf(`You are a procurement expert. Analyze the following procurement request and extract structured data.
Request: %q

Return ONLY a valid JSON object with this structure, no markdown code blocks:
{
  "budget": number (or null),
  "currency": "string" (e.g. USD),
  "deadline": "YYYY-MM-DD" (or null, calculate from relative dates if possible assuming today is %s),
  "items": [
    { "name": "string", "quantity": number, "specs": "string" }
  ],
  "requirements": ["string"]
}`, text, today)
}

func proposalPrompt(body string) string {
	return fmt.Sprintf(`You are a procurement assistant. Extract proposal details from this vendor email.
Email Body: %q

Return ONLY a valid JSON object with this structure, no markdown code blocks:
{
  "totalPrice": number,
  "deliveryTimeline": "string",
  "lineItems": [{ "name": "string", "price": number, "notes": "string" }],
  "warranty": "string",
  "score": number (1-100 based on completeness and tone),
  "summary": "string",
  "analysis": "string (brief pros/cons)"
}`, body)
}

func comparisonPrompt(originalRequest, proposalsJSON string) string {
	return fmt.Sprintf(`You are a procurement expert. Compare the following vendor proposals against the original request and recommend the best vendor.

Original Requirements: %q

Proposals:
%s

Return ONLY a valid JSON object with this structure, no markdown code blocks:
{
  "recommendation": "Vendor Name",
  "reasoning": "Detailed explanation of why this vendor is the best choice...",
  "key_differentiators": ["point 1", "point 2"],
  "rankings": [
    { "vendor": "Vendor Name", "rank": 1, "pros": "string", "cons": "string" }
  ]
}`, originalRequest, proposalsJSON)
}
