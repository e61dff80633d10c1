package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName = "stepguard_submissions"

	// SubjectVerifySend delivers a verification code.
	SubjectVerifySend = "stepguard.verify.send"
	// SubjectVerifyCheck evaluates an entered verification code.
	SubjectVerifyCheck = "stepguard.verify.check"
)

// SubjectForSubmit returns the request subject for a flow's final submit.
// Example: "stepguard.submit.enrollment"
func SubjectForSubmit(flow string) string {
	return fmt.Sprintf("stepguard.submit.%s", flow)
}

// SubjectForReceipt returns the stream subject accepted submissions of a flow
// are recorded on. Example: "stepguard.receipts.enrollment"
func SubjectForReceipt(flow string) string {
	return fmt.Sprintf("stepguard.receipts.%s", flow)
}

// SubjectAllSubmits matches every flow's submit subject.
const SubjectAllSubmits = "stepguard.submit.*"

// SetupStream creates or updates the stream of accepted submissions. With
// persist unset the stream lives in memory and is lost on shutdown.
func SetupStream(ctx context.Context, js jetstream.JetStream, persist bool) (jetstream.Stream, error) {
	storage := jetstream.MemoryStorage
	if persist {
		storage = jetstream.FileStorage
	}
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"stepguard.receipts.>"},
		Storage:  storage,
		MaxAge:   90 * 24 * time.Hour,
	})
}

// CreateConsumer creates an ordered consumer that replays receipts for one
// flow, or all flows when flow is empty, from the beginning.
func CreateConsumer(ctx context.Context, stream jetstream.Stream, flow string) (jetstream.Consumer, error) {
	filter := "stepguard.receipts.>"
	if flow != "" {
		filter = SubjectForReceipt(flow)
	}
	return stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
}
