package event

import "testing"

func TestReply_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   Reply
		wantErr bool
	}{
		{
			name:  "valid text",
			reply: NewTextReply(ChannelTelegram, "42", "hello"),
		},
		{
			name:    "empty text",
			reply:   Reply{Channel: ChannelTelegram, RecipientID: "42", Kind: ReplyText},
			wantErr: true,
		},
		{
			name:  "valid image",
			reply: Reply{Channel: ChannelWhatsApp, RecipientID: "521", Kind: ReplyImage, MediaURL: "https://example.com/a.png"},
		},
		{
			name:    "image without media url",
			reply:   Reply{Channel: ChannelWhatsApp, RecipientID: "521", Kind: ReplyImage},
			wantErr: true,
		},
		{
			name: "valid buttons",
			reply: Reply{
				Channel: ChannelTelegram, RecipientID: "42", Kind: ReplyButtons,
				Text:    "pick one",
				Buttons: []Button{{Title: "Tarot", Payload: "/book{\"session_type\":\"tarot\"}"}},
			},
		},
		{
			name:    "buttons without buttons",
			reply:   Reply{Channel: ChannelTelegram, RecipientID: "42", Kind: ReplyButtons, Text: "pick"},
			wantErr: true,
		},
		{
			name:    "missing recipient",
			reply:   Reply{Channel: ChannelTelegram, Kind: ReplyText, Text: "hi"},
			wantErr: true,
		},
		{
			name:    "unknown channel",
			reply:   Reply{Channel: "sms", RecipientID: "42", Kind: ReplyText, Text: "hi"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			reply:   Reply{Channel: ChannelTelegram, RecipientID: "42", Kind: "sticker"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.reply.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChannelID_Valid(t *testing.T) {
	t.Parallel()

	if !ChannelTelegram.Valid() || !ChannelWhatsApp.Valid() {
		t.Error("known channels must be valid")
	}
	if ChannelID("sms").Valid() {
		t.Error("unknown channel must be invalid")
	}
}
