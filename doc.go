// Package securexchat provides a Go client SDK for end-to-end encrypted
// one-to-one chat.
//
// Each account has an RSA-2048 key pair. The public key is published to a
// shared directory; the private key never leaves the device. Every text
// message is encrypted twice with RSA-OAEP (SHA-256), once for the recipient
// and once for the sender, so both parties can read the stored conversation.
//
// Basic usage:
//
//	client, err := securexchat.New("alice",
//	    securexchat.WithBaseURL("https://relay.example.com"),
//	    securexchat.WithLocalStore(store),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create keys on first use
//	if _, err := client.Provision(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Send a message
//	_, err = client.Send(ctx, "bob", securexchat.OutgoingMessage{Text: "hello"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := client.Conversation(ctx, "bob")
//
//	// Or keep receiving as messages arrive
//	err = client.Watch(ctx, "bob", func(m securexchat.Message) {
//	    fmt.Println(m.SenderID, m.Text)
//	})
//
// Text is limited to MaxPlaintextSize bytes. Messages that cannot be
// decrypted are returned with Readable set to false rather than as errors.
package securexchat
