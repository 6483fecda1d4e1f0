package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje.balance/pkg/metrics"
)

type fakeSQS struct {
	mu         sync.Mutex
	pending    []types.Message
	deleted    []string
	visibility map[string]int32
	visErr     error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	msgs := f.pending
	f.pending = nil
	f.mu.Unlock()
	if len(msgs) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibility[aws.ToString(params.ReceiptHandle)] = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, f.visErr
}

func (f *fakeSQS) snapshot() ([]string, map[string]int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vis := make(map[string]int32, len(f.visibility))
	for k, v := range f.visibility {
		vis[k] = v
	}
	return append([]string(nil), f.deleted...), vis
}

// outcomeProcessor decides the outcome from the message body.
type outcomeProcessor struct{}

func (outcomeProcessor) Process(_ context.Context, msg types.Message) (bool, int32, error) {
	switch aws.ToString(msg.Body) {
	case "retry":
		return true, 40, errors.New("temporary")
	case "fail":
		return false, 0, errors.New("malformed")
	}
	return false, 0, nil
}

func msg(handle, body string) types.Message {
	return types.Message{ReceiptHandle: aws.String(handle), Body: aws.String(body), MessageId: aws.String(handle)}
}

func TestWorkerHandlesOutcomes(t *testing.T) {
	client := &fakeSQS{
		pending:    []types.Message{msg("h-ok", "ok"), msg("h-retry", "retry"), msg("h-fail", "fail")},
		visibility: map[string]int32{},
	}
	m := metrics.NewManager()
	w := NewWorker(client, "queue-url", "payroll", outcomeProcessor{}, m)
	w.Concurrency = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		deleted, vis := client.snapshot()
		return len(deleted) == 1 && len(vis) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	series, err := testutil.GatherAndCount(m.Registry(), "fichaje_worker_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)

	deleted, vis := client.snapshot()
	assert.Equal(t, []string{"h-ok"}, deleted)
	assert.Equal(t, map[string]int32{"h-retry": 40}, vis)
}

// syncBuffer is a log sink shared by the worker goroutines and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWorkerLogsVisibilityFailure(t *testing.T) {
	var logs syncBuffer
	l := zerolog.New(&logs)
	previous, previousGlobal := zerolog.DefaultContextLogger, log.Logger
	zerolog.DefaultContextLogger, log.Logger = &l, l
	t.Cleanup(func() { zerolog.DefaultContextLogger, log.Logger = previous, previousGlobal })

	client := &fakeSQS{
		pending:    []types.Message{msg("h-retry", "retry")},
		visibility: map[string]int32{},
		visErr:     errors.New("receipt handle expired"),
	}
	w := NewWorker(client, "queue-url", "email", outcomeProcessor{}, nil)
	w.Concurrency = 1

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Failed to change message visibility for retry")
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Contains(t, logs.String(), "receipt handle expired")
	deleted, _ := client.snapshot()
	assert.Empty(t, deleted)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, int32(20), Backoff(1))
	assert.Equal(t, int32(80), Backoff(3))
	assert.Equal(t, int32(3600), Backoff(12))
}
