package securexchat

import (
	"context"
	"errors"
	"testing"
)

func buildEnvelope(t *testing.T, dir Directory, from, to, text string, signKey string) *MessageEnvelope {
	t.Helper()
	b := NewEnvelopeBuilder(dir)
	var (
		te  *TextEnvelope
		err error
	)
	if signKey != "" {
		te, err = b.BuildSigned(context.Background(), text, from, to, signKey)
	} else {
		te, err = b.Build(context.Background(), text, from, to)
	}
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return &MessageEnvelope{ID: "m-" + from + "-" + to, SenderID: from, Body: *te}
}

func TestEnvelopeReader_Resolve(t *testing.T) {
	dir, alice, bob := newBuilderFixture(t)
	carol := testKeyPair(t, 2)
	env := buildEnvelope(t, dir, "alice", "bob", "hello", "")
	r := NewEnvelopeReader(ReaderPlaceholder("[unreadable]"))

	tests := []struct {
		name     string
		localID  string
		key      string
		expected string
		half     Half
		status   ReadStatus
	}{
		{"recipient", "bob", bob.PrivateKey, "hello", HalfRecipient, StatusReadable},
		{"sender", "alice", alice.PrivateKey, "hello", HalfSender, StatusReadable},
		{"sender under another id falls back", "alice-laptop", alice.PrivateKey, "hello", HalfSender, StatusReadable},
		{"third party", "carol", carol.PrivateKey, "[unreadable]", HalfNone, StatusUnreadable},
		{"sender with wrong key", "alice", bob.PrivateKey, "[unreadable]", HalfNone, StatusUnreadable},
		{"garbage key", "bob", "garbage", "[unreadable]", HalfNone, StatusUnreadable},
		{"empty key", "bob", "", "[unreadable]", HalfNone, StatusUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(env, tt.localID, tt.key); got != tt.expected {
				t.Errorf("Resolve() = %q, want %q", got, tt.expected)
			}
			res := r.ResolveDetail(context.Background(), env, tt.localID, tt.key)
			if res.Half != tt.half || res.Status != tt.status {
				t.Errorf("ResolveDetail() = %+v, want half %q status %q", res, tt.half, tt.status)
			}
			if res.Readable != (tt.status == StatusReadable) {
				t.Errorf("Readable = %v", res.Readable)
			}
			if !res.Readable && !errors.Is(res.Err, ErrDecryptionFailed) {
				t.Errorf("Err = %v, want ErrDecryptionFailed", res.Err)
			}
		})
	}
}

func TestEnvelopeReader_DefaultPlaceholderIsEmpty(t *testing.T) {
	dir, _, _ := newBuilderFixture(t)
	env := buildEnvelope(t, dir, "alice", "bob", "hello", "")

	if got := NewEnvelopeReader().Resolve(env, "carol", testKeyPair(t, 2).PrivateKey); got != "" {
		t.Errorf("Resolve() = %q, want empty placeholder", got)
	}
}

func TestEnvelopeReader_NeverPanics(t *testing.T) {
	r := NewEnvelopeReader(ReaderPlaceholder("?"))
	kp := testKeyPair(t, 0)

	envs := []*MessageEnvelope{
		nil,
		{ID: "garbage", SenderID: "a", Body: TextEnvelope{CiphertextForRecipient: "!!", CiphertextForSender: "??"}},
		{ID: "blank", SenderID: "a", Body: TextEnvelope{}},
	}
	for _, env := range envs {
		if got := r.Resolve(env, "b", kp.PrivateKey); got != "?" {
			t.Errorf("Resolve(%v) = %q, want placeholder", env, got)
		}
	}
}

func TestEnvelopeReader_AttachmentOnly(t *testing.T) {
	env := &MessageEnvelope{ID: "img", SenderID: "alice", Body: ImageEnvelope{Attachment: Attachment{URL: "u", MediaType: MediaImage}}}
	res := NewEnvelopeReader(ReaderPlaceholder("?")).ResolveDetail(context.Background(), env, "bob", testKeyPair(t, 1).PrivateKey)
	if res.Status != StatusNoText || res.Readable || res.Text != "" {
		t.Errorf("ResolveDetail() = %+v, want no text", res)
	}
}

func TestEnvelopeReader_MixedReadsText(t *testing.T) {
	dir, _, bob := newBuilderFixture(t)
	te := buildEnvelope(t, dir, "alice", "bob", "look", "").Body.(TextEnvelope)
	env := &MessageEnvelope{ID: "mix", SenderID: "alice", Body: MixedEnvelope{Text: te, Attachment: Attachment{URL: "u", MediaType: MediaDocument}}}

	if got := NewEnvelopeReader().Resolve(env, "bob", bob.PrivateKey); got != "look" {
		t.Errorf("Resolve() = %q, want look", got)
	}
}

func TestEnvelopeReader_LogsSwallowedFailures(t *testing.T) {
	dir, _, _ := newBuilderFixture(t)
	env := buildEnvelope(t, dir, "alice", "bob", "hello", "")
	logger := &recordingLogger{}

	NewEnvelopeReader(ReaderLogger(logger)).Resolve(env, "carol", testKeyPair(t, 2).PrivateKey)
	if debugs, _ := logger.count(); debugs != 1 {
		t.Errorf("debug logs = %d, want 1", debugs)
	}
}

func TestEnvelopeReader_Verification(t *testing.T) {
	dir, alice, bob := newBuilderFixture(t)
	signed := buildEnvelope(t, dir, "alice", "bob", "signed", alice.PrivateKey)
	unsigned := buildEnvelope(t, dir, "alice", "bob", "unsigned", "")

	forged := *signed
	te := signed.Body.(TextEnvelope)
	other := buildEnvelope(t, dir, "alice", "bob", "forged", "").Body.(TextEnvelope)
	other.Signature = te.Signature
	forged.Body = other

	tests := []struct {
		name    string
		mode    VerifyMode
		env     *MessageEnvelope
		localID string
		key     string
		status  ReadStatus
	}{
		{"none ignores forged", VerifyNone, &forged, "bob", bob.PrivateKey, StatusReadable},
		{"if-signed accepts signed", VerifyIfSigned, signed, "bob", bob.PrivateKey, StatusReadable},
		{"if-signed accepts unsigned", VerifyIfSigned, unsigned, "bob", bob.PrivateKey, StatusReadable},
		{"if-signed rejects forged", VerifyIfSigned, &forged, "bob", bob.PrivateKey, StatusUnverified},
		{"required accepts signed", VerifyRequired, signed, "bob", bob.PrivateKey, StatusReadable},
		{"required rejects unsigned", VerifyRequired, unsigned, "bob", bob.PrivateKey, StatusUnverified},
		{"own messages are not verified", VerifyRequired, unsigned, "alice", alice.PrivateKey, StatusReadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewEnvelopeReader(ReaderPlaceholder("!"), ReaderVerification(tt.mode, dir))
			res := r.ResolveDetail(context.Background(), tt.env, tt.localID, tt.key)
			if res.Status != tt.status {
				t.Errorf("Status = %s, want %s (err %v)", res.Status, tt.status, res.Err)
			}
			if tt.status == StatusUnverified {
				if res.Text != "!" {
					t.Errorf("Text = %q, want placeholder", res.Text)
				}
				if !errors.Is(res.Err, ErrSignatureInvalid) {
					t.Errorf("Err = %v, want ErrSignatureInvalid", res.Err)
				}
			}
		})
	}
}

func TestEnvelopeReader_VerificationUnknownSender(t *testing.T) {
	dir, alice, bob := newBuilderFixture(t)
	env := buildEnvelope(t, dir, "alice", "bob", "signed", alice.PrivateKey)
	env.SenderID = "ghost"

	r := NewEnvelopeReader(ReaderVerification(VerifyIfSigned, dir))
	res := r.ResolveDetail(context.Background(), env, "bob", bob.PrivateKey)
	if res.Status != StatusUnverified || !errors.Is(res.Err, ErrRecipientKeyUnavailable) {
		t.Errorf("ResolveDetail() = %+v", res)
	}
}

func TestEnvelopeReader_VerificationWithoutKeysIsDisabled(t *testing.T) {
	dir, _, bob := newBuilderFixture(t)
	env := buildEnvelope(t, dir, "alice", "bob", "plain", "")

	r := NewEnvelopeReader(ReaderVerification(VerifyRequired, nil))
	if got := r.Resolve(env, "bob", bob.PrivateKey); got != "plain" {
		t.Errorf("Resolve() = %q, want plain", got)
	}
}

func TestVerifyMode_String(t *testing.T) {
	tests := map[VerifyMode]string{
		VerifyNone:     "none",
		VerifyIfSigned: "if-signed",
		VerifyRequired: "required",
		VerifyMode(42): "unknown",
	}
	for mode, expected := range tests {
		if got := mode.String(); got != expected {
			t.Errorf("VerifyMode(%d).String() = %s, want %s", int(mode), got, expected)
		}
	}
}

func TestParseVerifyMode(t *testing.T) {
	for _, mode := range []VerifyMode{VerifyNone, VerifyIfSigned, VerifyRequired} {
		got, err := ParseVerifyMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseVerifyMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if got, err := ParseVerifyMode(""); err != nil || got != VerifyNone {
		t.Errorf("ParseVerifyMode(\"\") = %v, %v, want VerifyNone", got, err)
	}
	if _, err := ParseVerifyMode("always"); err == nil {
		t.Error("ParseVerifyMode(\"always\") expected error")
	}
}
