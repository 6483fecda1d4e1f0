package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	destinations []string
	bodies       [][]byte
	err          error
}

func (s *recordingSender) SendMessage(_ context.Context, destination string, body []byte) error {
	s.destinations = append(s.destinations, destination)
	s.bodies = append(s.bodies, body)
	return s.err
}

func TestProducerRoutesByQueue(t *testing.T) {
	sender := &recordingSender{}
	p := NewProducer(sender, "payroll-url", "email-url")

	event := MonthClosedEvent{MonthCloseID: 7, EmployeeID: "e1", Year: 2024, Month: 1, BalanceHours: -2.5}
	require.NoError(t, p.PublishPayroll(context.Background(), event))
	require.NoError(t, p.PublishEmail(context.Background(), event))

	assert.Equal(t, []string{"payroll-url", "email-url"}, sender.destinations)

	var decoded MonthClosedEvent
	require.NoError(t, json.Unmarshal(sender.bodies[0], &decoded))
	assert.Equal(t, event, decoded)
}

func TestProducerWrapsSendErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewProducer(&recordingSender{err: boom}, "payroll-url", "email-url")

	err := p.PublishPayroll(context.Background(), MonthClosedEvent{})

	assert.ErrorIs(t, err, boom)
}

func TestProducerRejectsUnmarshalableBody(t *testing.T) {
	p := NewProducer(&recordingSender{}, "payroll-url", "email-url")

	err := p.PublishEmail(context.Background(), make(chan int))

	assert.Error(t, err)
}

type fakeSQS struct {
	input *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSProducerSendsToQueueURL(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "payroll-url", "email-url")

	require.NoError(t, p.PublishPayroll(context.Background(), MonthClosedEvent{EmployeeID: "e1"}))

	require.NotNil(t, client.input)
	assert.Equal(t, "payroll-url", *client.input.QueueUrl)
	assert.Contains(t, *client.input.MessageBody, `"employeeId":"e1"`)
}
