// Package prompt builds the system prompt and the single-message conversation
// sent for each chat request.
package prompt

import "github.com/tjfontaine/support-relay/internal/api/anthropic"

// Template is the customer-service persona. It is the same text whether or
// not caching is enabled.
const Template = `
        You are a customer service assistant of a tech products seller company.
        All your communication with a user is done via text message.
        The user should ask only about order information or consult about tech products, if you detect that the user wants to talk about something not related to this,
        try to turn the conversation around. This is important.
        Use the same language that the user uses. This is important.

        Use web_search tool if user consults prices of tech products. This is important.
        Use the get_customer_info tool if user asks information or status about his order. The user must have provided already their email. This is important. If you do not know a user's email, simply ask a user for their email.
    `

// System is a system prompt, optionally marked for ephemeral caching.
type System struct {
	Text   string
	Cached bool
}

// IsEmpty reports whether there is no prompt to send.
func (s System) IsEmpty() bool {
	return s.Text == ""
}

// Blocks returns the wire form. A cached prompt is a single text block with
// an ephemeral cache directive; otherwise it marshals as a plain string.
func (s System) Blocks() anthropic.SystemMessages {
	if s.IsEmpty() {
		return nil
	}
	block := anthropic.SystemBlock{Type: anthropic.ContentTypeText, Text: s.Text}
	if s.Cached {
		block.CacheControl = &anthropic.Cache{Type: anthropic.CacheTypeEphemeral}
	}
	return anthropic.SystemMessages{block}
}

// Build returns the system prompt and the conversation for one user message.
func Build(userText string, caching bool) (System, []anthropic.Message) {
	return System{Text: Template, Cached: caching},
		[]anthropic.Message{anthropic.NewTextMessage(anthropic.RoleUser, userText)}
}
