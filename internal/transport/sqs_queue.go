package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSQueue implements Queue over AWS SQS. Queue URLs are resolved once and
// cached; a send to a missing queue creates it and retries.
type SQSQueue struct {
	client *sqs.Client

	mu   sync.Mutex
	urls map[string]string
}

// NewSQSQueue creates a queue service over an SQS client.
func NewSQSQueue(client *sqs.Client) *SQSQueue {
	return &SQSQueue{
		client: client,
		urls:   make(map[string]string),
	}
}

// Send enqueues the body. If the queue does not exist yet, it is created
// once and the send retried.
func (q *SQSQueue) Send(ctx context.Context, queue string, body []byte) error {
	url, err := q.queueURL(ctx, queue)
	var nf *types.QueueDoesNotExist
	if errors.As(err, &nf) {
		url, err = q.createQueue(ctx, queue)
	}
	if err != nil {
		return fmt.Errorf("sqs resolve %s: %w", queue, err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sqs send %s: %w", queue, err)
	}
	return nil
}

// Pop receives at most one message. The message stays invisible until its
// visibility timeout lapses; it must be deleted after processing or it will
// be redelivered.
func (q *SQSQueue) Pop(ctx context.Context, queue string) (*Message, error) {
	url, err := q.queueURL(ctx, queue)
	var nf *types.QueueDoesNotExist
	if errors.As(err, &nf) {
		return nil, nil // nothing ever sent yet
	}
	if err != nil {
		return nil, fmt.Errorf("sqs resolve %s: %w", queue, err)
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive %s: %w", queue, err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}
	msg := out.Messages[0]
	return &Message{
		ID:   aws.ToString(msg.ReceiptHandle),
		Body: []byte(aws.ToString(msg.Body)),
	}, nil
}

// Delete acknowledges a popped message so it is not redelivered.
func (q *SQSQueue) Delete(ctx context.Context, queue string, msgID string) error {
	url, err := q.queueURL(ctx, queue)
	if err != nil {
		return fmt.Errorf("sqs resolve %s: %w", queue, err)
	}
	_, err = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: aws.String(msgID),
	})
	if err != nil {
		return fmt.Errorf("sqs delete %s: %w", queue, err)
	}
	return nil
}

func (q *SQSQueue) queueURL(ctx context.Context, queue string) (string, error) {
	q.mu.Lock()
	if url, ok := q.urls[queue]; ok {
		q.mu.Unlock()
		return url, nil
	}
	q.mu.Unlock()

	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		return "", err
	}
	url := aws.ToString(out.QueueUrl)

	q.mu.Lock()
	q.urls[queue] = url
	q.mu.Unlock()
	return url, nil
}

func (q *SQSQueue) createQueue(ctx context.Context, queue string) (string, error) {
	out, err := q.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		return "", err
	}
	url := aws.ToString(out.QueueUrl)

	q.mu.Lock()
	q.urls[queue] = url
	q.mu.Unlock()
	return url, nil
}
