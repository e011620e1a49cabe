// Package tools declares the tools the model may call and implements them.
package tools

import "github.com/tjfontaine/support-relay/internal/api/anthropic"

// Tool names as the model sees them.
const (
	NameSendText     = "send_text_to_user"
	NameCustomerInfo = "get_customer_info"
	NameWebSearch    = "web_search"
)

// Schema is the JSON schema of a tool's input object.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes a single input field.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// stringInput builds the schema of an object with one required string field.
func stringInput(field, description string) Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			field: {Type: "string", Description: description},
		},
		Required: []string{field},
	}
}

// CustomerInfoTools returns the customer-facing tools.
func CustomerInfoTools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        NameSendText,
			Description: "Sends a text message to a user unless the user is asking for information about a product",
			InputSchema: stringInput("text", "The piece of text to be sent to the user via text message"),
		},
		{
			Name:        NameCustomerInfo,
			Description: "gets information on a customer based on the customer's email.  Response includes email, and previous purchases. Only call this tool once a user has provided you with their email",
			InputSchema: stringInput("email", "The email of the user in question."),
		},
	}
}

// WebSearchTools returns the web search tool.
func WebSearchTools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        NameWebSearch,
			Description: "A tool to get information of a product by searching the web",
			InputSchema: stringInput("topic", "The topic to search the web for"),
		},
	}
}

// Tools returns every tool offered to the model, customer tools first.
// The slice is freshly allocated on each call.
func Tools() []anthropic.Tool {
	return append(CustomerInfoTools(), WebSearchTools()...)
}

// Names returns the tool names in the order Tools returns them.
func Names() []string {
	all := Tools()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}
