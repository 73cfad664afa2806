package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type exampleCountingSink struct {
	total int
}

func (s *exampleCountingSink) Consume(_ context.Context, batch []Event) error {
	s.total += len(batch)
	return nil
}

func (s *exampleCountingSink) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit emits the item events of one year; Close delivers those
// still waiting for the ticker.
func ExampleHub_Emit() {
	sink := &exampleCountingSink{}
	hub := NewHub(Config{FlushEvery: time.Hour}, sink)

	run := UUIDToBytes(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	for _, record := range []string{"4031361", "4031362", "4031363"} {
		hub.Emit(Event{
			RunID: run,
			TS:    time.Unix(0, 0),
			Stage: StageItemDone,
			Year:  2023,
			URL:   "https://digitallibrary.un.org/record/" + record,
		})
	}
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("items forwarded: %d\n", sink.total)
	// Output:
	// items forwarded: 3
}

// ExampleSink totals the records reconciled per year.
func ExampleSink() {
	var records int
	capture := sinkFunc(func(_ context.Context, batch []Event) error {
		for _, evt := range batch {
			records += evt.Records
		}
		return nil
	})
	hub := NewHub(Config{Buffer: 2}, capture)

	hub.Emit(Event{
		RunID:   UUIDToBytes(uuid.MustParse("00000000-0000-0000-0000-000000000002")),
		TS:      time.Unix(0, 0),
		Stage:   StageYearDone,
		Year:    2023,
		Records: 341,
	})
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("records reconciled: %d\n", records)
	// Output:
	// records reconciled: 341
}

type sinkFunc func(context.Context, []Event) error

func (f sinkFunc) Consume(ctx context.Context, batch []Event) error {
	return f(ctx, batch)
}

func (sinkFunc) Close(context.Context) error {
	return nil
}
