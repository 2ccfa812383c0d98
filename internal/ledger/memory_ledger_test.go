package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

func TestCheckAndRecord_FreshThenDuplicate(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	first, err := l.CheckAndRecord(ctx, domain.ProviderStripe, "pi_123", SourceCheckout, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, Fresh, first)

	second, err := l.CheckAndRecord(ctx, domain.ProviderStripe, "pi_123", SourceCheckout, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, Duplicate, second)
}

func TestCheckAndRecord_KeepsFirstWriterSource(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, err := l.CheckAndRecord(ctx, domain.ProviderStripe, "pi_src", SourceWebhook, nil)
	require.NoError(t, err)
	_, err = l.CheckAndRecord(ctx, domain.ProviderStripe, "pi_src", SourceCheckout, nil)
	require.NoError(t, err)

	rec, err := l.Get(ctx, domain.ProviderStripe, "pi_src")
	require.NoError(t, err)
	assert.Equal(t, SourceWebhook, rec.Source)
}

func TestCheckAndRecord_ProvidersDoNotCollide(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	first, err := l.CheckAndRecord(ctx, domain.ProviderStripe, "evt-1", SourceWebhook, nil)
	require.NoError(t, err)
	second, err := l.CheckAndRecord(ctx, domain.ProviderFlutterwave, "evt-1", SourceWebhook, nil)
	require.NoError(t, err)

	assert.Equal(t, Fresh, first)
	assert.Equal(t, Fresh, second)
}

func TestCheckAndRecord_ConcurrentExactlyOneFresh(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	const attempts = 50
	outcomes := make([]Outcome, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := l.CheckAndRecord(ctx, domain.ProviderStripe, "pi_contended", SourceCheckout, nil)
			require.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	fresh := 0
	for _, out := range outcomes {
		if out == Fresh {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestLinkOrder(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, err := l.CheckAndRecord(ctx, domain.ProviderFlutterwave, "8923", SourceWebhook, []byte("payload"))
	require.NoError(t, err)

	require.NoError(t, l.LinkOrder(ctx, domain.ProviderFlutterwave, "8923", "ORD-1"))

	rec, err := l.Get(ctx, domain.ProviderFlutterwave, "8923")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", rec.LinkedOrder)
	assert.Equal(t, Digest([]byte("payload")), rec.PayloadDigest)
	assert.False(t, rec.FirstSeenAt.IsZero())
}

func TestLinkOrder_NotFound(t *testing.T) {
	l := NewMemoryLedger()

	err := l.LinkOrder(context.Background(), domain.ProviderStripe, "missing", "ORD-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGet_NotFound(t *testing.T) {
	l := NewMemoryLedger()

	_, err := l.Get(context.Background(), domain.ProviderStripe, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
