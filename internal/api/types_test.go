package api

import (
	"strings"
	"testing"
	"time"
)

func TestMessageRecord_Validate(t *testing.T) {
	img := &AttachmentRecord{URL: "https://cdn.example/a.png", MediaType: MediaImage}

	tests := []struct {
		name    string
		msg     MessageRecord
		wantErr string
	}{
		{"text", MessageRecord{ID: "1", SenderID: "a", Kind: KindText, CiphertextForRecipient: "r", CiphertextForSender: "s"}, ""},
		{"image", MessageRecord{ID: "1", SenderID: "a", Kind: KindImage, Attachment: img}, ""},
		{"mixed", MessageRecord{ID: "1", SenderID: "a", Kind: KindMixed, CiphertextForRecipient: "r", CiphertextForSender: "s", Attachment: img}, ""},
		{"document", MessageRecord{ID: "1", SenderID: "a", Kind: KindImage, Attachment: &AttachmentRecord{URL: "u", MediaType: MediaDocument}}, ""},
		{"missing id", MessageRecord{SenderID: "a", Kind: KindImage, Attachment: img}, "id is required"},
		{"missing sender", MessageRecord{ID: "1", Kind: KindImage, Attachment: img}, "sender id is required"},
		{"recipient half only", MessageRecord{ID: "1", SenderID: "a", Kind: KindText, CiphertextForRecipient: "r"}, "incomplete"},
		{"sender half only", MessageRecord{ID: "1", SenderID: "a", Kind: KindMixed, CiphertextForSender: "s", Attachment: img}, "incomplete"},
		{"text without ciphertext", MessageRecord{ID: "1", SenderID: "a", Kind: KindText}, "no ciphertext"},
		{"text with attachment", MessageRecord{ID: "1", SenderID: "a", Kind: KindText, CiphertextForRecipient: "r", CiphertextForSender: "s", Attachment: img}, "carries an attachment"},
		{"image with ciphertext", MessageRecord{ID: "1", SenderID: "a", Kind: KindImage, CiphertextForRecipient: "r", CiphertextForSender: "s", Attachment: img}, "carries ciphertext"},
		{"image without attachment", MessageRecord{ID: "1", SenderID: "a", Kind: KindImage}, "url is required"},
		{"bad media type", MessageRecord{ID: "1", SenderID: "a", Kind: KindImage, Attachment: &AttachmentRecord{URL: "u", MediaType: "video"}}, "media type"},
		{"unknown kind", MessageRecord{ID: "1", SenderID: "a", Kind: "sticker"}, "unknown kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMessageRecord_SameContent(t *testing.T) {
	base := func() *MessageRecord {
		return &MessageRecord{
			ID:                     "1",
			SenderID:               "a",
			Kind:                   KindMixed,
			CiphertextForRecipient: "r",
			CiphertextForSender:    "s",
			Attachment:             &AttachmentRecord{URL: "u", MediaType: MediaImage},
		}
	}

	tests := []struct {
		name   string
		modify func(*MessageRecord)
		want   bool
	}{
		{"identical", func(*MessageRecord) {}, true},
		{"created at differs", func(m *MessageRecord) { m.CreatedAt = time.Unix(100, 0) }, true},
		{"sender differs", func(m *MessageRecord) { m.SenderID = "b" }, false},
		{"ciphertext differs", func(m *MessageRecord) { m.CiphertextForRecipient = "x" }, false},
		{"signature differs", func(m *MessageRecord) { m.Signature = "sig" }, false},
		{"expiry differs", func(m *MessageRecord) { m.ExpiresAfter = true }, false},
		{"attachment url differs", func(m *MessageRecord) { m.Attachment.URL = "v" }, false},
		{"attachment dropped", func(m *MessageRecord) { m.Attachment = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base()
			tt.modify(other)
			if got := base().SameContent(other); got != tt.want {
				t.Errorf("SameContent() = %v, want %v", got, tt.want)
			}
		})
	}
}
