package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/trade-sphere/pkg/events/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSQSEmitter(t *testing.T) {
	tradeID := uint64(7)
	evt := New(TypeEscrowFunded, &tradeID, map[string]string{"amount": "100"}, time.Unix(1700000000, 0))

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		emitter := NewSQSEmitter(mockClient, "https://sqs.local/queue")

		mockClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			var decoded Event
			if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded); err != nil {
				return false
			}
			return aws.ToString(in.QueueUrl) == "https://sqs.local/queue" &&
				decoded.ID == evt.ID &&
				aws.ToString(in.MessageAttributes["event_type"].StringValue) == "escrow.funded"
		})).Return(&sqs.SendMessageOutput{}, nil)

		err := emitter.Emit(context.Background(), evt)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		emitter := NewSQSEmitter(mockClient, "https://sqs.local/queue")

		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		err := emitter.Emit(context.Background(), evt)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		mockClient.AssertExpectations(t)
	})
}

type recordingEmitter struct {
	got []Event
	err error
}

func (r *recordingEmitter) Emit(ctx context.Context, evt Event) error {
	r.got = append(r.got, evt)
	return r.err
}

func TestMulti(t *testing.T) {
	first := &recordingEmitter{err: errors.New("first down")}
	second := &recordingEmitter{}
	evt := New(TypeTokenAdded, nil, nil, time.Now())

	err := Multi{first, nil, second}.Emit(context.Background(), evt)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
	assert.Len(t, first.got, 1)
	assert.Len(t, second.got, 1, "a failing emitter must not stop the others")
}

func TestNewCopiesTradeID(t *testing.T) {
	id := uint64(3)
	evt := New(TypeTradeCreated, &id, nil, time.Now())
	id = 9

	require.NotNil(t, evt.TradeID)
	assert.Equal(t, uint64(3), *evt.TradeID)
	assert.NotEmpty(t, evt.ID)
	assert.NotNil(t, evt.Attributes)
}
