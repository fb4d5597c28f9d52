package securexchat

import (
	"context"
	"sync"
	"testing"

	"github.com/securexchat/client-go/localstore"
)

var (
	keyPoolOnce sync.Once
	keyPool     []*KeyPair
	keyPoolErr  error
)

// testKeyPair returns one of a few pre-generated key pairs. RSA generation
// is slow enough that tests share them.
func testKeyPair(t *testing.T, i int) *KeyPair {
	t.Helper()
	keyPoolOnce.Do(func() {
		for n := 0; n < 3; n++ {
			kp, err := GenerateKeyPair()
			if err != nil {
				keyPoolErr = err
				return
			}
			keyPool = append(keyPool, kp)
		}
	})
	if keyPoolErr != nil {
		t.Fatalf("GenerateKeyPair() error = %v", keyPoolErr)
	}
	return keyPool[i%len(keyPool)]
}

// testAccount publishes kp for accountID in dir and stores the private key
// in local.
func testAccount(t *testing.T, dir Directory, local LocalStore, accountID string, kp *KeyPair) {
	t.Helper()
	ctx := context.Background()
	if err := dir.PublishPublicKey(ctx, accountID, kp.PublicKey); err != nil {
		t.Fatalf("PublishPublicKey(%s) error = %v", accountID, err)
	}
	if local != nil {
		if err := local.Put(ctx, PrivateKeyStorageKey(accountID), kp.PrivateKey); err != nil {
			t.Fatalf("Put(%s) error = %v", accountID, err)
		}
	}
}

// testClient returns a client for accountID over the shared dir and log with
// its own local store.
func testClient(t *testing.T, accountID string, dir Directory, log MessageLog, opts ...Option) (*Client, LocalStore) {
	t.Helper()
	local := localstore.NewMemory()
	opts = append([]Option{WithDirectory(dir), WithMessageLog(log), WithLocalStore(local)}, opts...)
	c, err := New(accountID, opts...)
	if err != nil {
		t.Fatalf("New(%s) error = %v", accountID, err)
	}
	return c, local
}

type recordingLogger struct {
	mu     sync.Mutex
	debugs []string
	warns  []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, format)
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, format)
}

func (l *recordingLogger) count() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.debugs), len(l.warns)
}
