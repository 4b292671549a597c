// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/vault/event"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testEvtType event.EventType = "test.event"

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	_, otherCh := eb.Subscribe("other.event")
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	assert.Equal(t, 999, receive(t, sub1Ch).Data)
	assert.Equal(t, 999, receive(t, sub2Ch).Data)
	select {
	case <-otherCh:
		t.Fatal("subscriber of another type received the event")
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	_, ok := <-subCh
	assert.False(t, ok, "unsubscribe closes the channel")
	// Unsubscribing twice is harmless
	eb.Unsubscribe(testEvtType, subId)
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var got atomic.Int64
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		v, _ := evt.Data.(int)
		got.Add(int64(v))
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 5))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 7))
	require.Eventually(t, func() bool {
		return got.Load() == 12
	}, time.Second, 10*time.Millisecond)
	// Stop closes the channel so the handler goroutine exits
	eb.Stop()
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.ProposalCreatedEventType)
	ok := eb.PublishAsync(
		event.ProposalCreatedEventType,
		event.NewEvent(
			event.ProposalCreatedEventType,
			event.ProposalCreatedEvent{ProposalID: 3, Amount: "600"},
		),
	)
	require.True(t, ok)
	evt := receive(t, subCh)
	data, isCreated := evt.Data.(event.ProposalCreatedEvent)
	require.True(t, isCreated)
	assert.Equal(t, uint64(3), data.ProposalID)
}

func TestEventBusReusableAfterStop(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, oldCh := eb.Subscribe(testEvtType)
	eb.Stop()
	_, ok := <-oldCh
	assert.False(t, ok)

	_, subCh := eb.Subscribe(testEvtType)
	require.True(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 1)))
	assert.Equal(t, 1, receive(t, subCh).Data)
	eb.Stop()
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	receive(t, subCh)
	eb.Unsubscribe(testEvtType, subId)
	count, err := testutil.GatherAndCount(reg, "vault_event_bus_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
