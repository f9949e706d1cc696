package whatsapp

import "fmt"

// envelopeObject marks a WhatsApp Business Account webhook delivery.
const envelopeObject = "whatsapp_business_account"

// WebhookPayload is the top-level webhook delivery from the Cloud API.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry. A single delivery may batch
// several entries.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message data for a "messages" field change.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata identifies the receiving phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a WhatsApp contact attached to a delivery.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the sender's display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Message represents an incoming WhatsApp message.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// Interactive holds a button/list reply on an inbound message.
type Interactive struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
}

// ButtonReply is the user's pick from an interactive button message.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Status represents a message delivery status update. The gateway skips
// these; they carry no user event.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// SendRequest is the payload for the Cloud API messages endpoint. Exactly one
// of Text, Image, Document, Interactive is set, matching Type.
type SendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type,omitempty"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *TextContent     `json:"text,omitempty"`
	Image            *MediaLink       `json:"image,omitempty"`
	Document         *MediaLink       `json:"document,omitempty"`
	Interactive      *SendInteractive `json:"interactive,omitempty"`
}

// MediaLink points the platform at hosted media.
type MediaLink struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

// SendInteractive is an outbound interactive button message.
type SendInteractive struct {
	Type   string             `json:"type"`
	Body   InteractiveBody    `json:"body"`
	Action *InteractiveAction `json:"action,omitempty"`
}

// InteractiveBody is the message text shown above the buttons.
type InteractiveBody struct {
	Text string `json:"text"`
}

// InteractiveAction carries the buttons.
type InteractiveAction struct {
	Buttons []InteractiveButton `json:"buttons"`
}

// InteractiveButton is a single reply button (the platform allows at most three).
type InteractiveButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// SendResponse is the Cloud API's acknowledgement of an accepted message.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Messages         []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// errorResponse is the Graph API error body.
type errorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents an error returned by the Graph API.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`

	// HTTPStatus is the status the error arrived with; filled by the client.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: %d %s (code %d)", e.HTTPStatus, e.Message, e.Code)
}
