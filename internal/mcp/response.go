package mcp

import (
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResponseContext anchors a tool answer to the data it was computed from.
type ResponseContext struct {
	Fingerprint string `json:"dataset_fingerprint,omitempty"`
	Horizon     int    `json:"horizon,omitempty"`
	Label       string `json:"horizon_label,omitempty"`
}

// ResponseEnvelope is the JSON body of every successful tool call.
type ResponseEnvelope struct {
	Context  ResponseContext `json:"context"`
	Data     interface{}     `json:"data"`
	Warnings []string        `json:"warnings,omitempty"`
}

// WrapResponse builds the envelope of a tool answer.
func WrapResponse(data interface{}, ctx ResponseContext, warnings []string) ResponseEnvelope {
	return ResponseEnvelope{Context: ctx, Data: data, Warnings: warnings}
}

// textResult renders an envelope as the text content of a tool result.
func textResult(env ResponseEnvelope) (*mcpsdk.CallToolResult, any, error) {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool response: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(out)}},
	}, nil, nil
}
