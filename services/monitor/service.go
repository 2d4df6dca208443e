package monitor

import (
	"context"
	"io"

	"joyled/bus"
	"joyled/types"
	"joyled/x/conv"
)

var (
	topicSample = bus.T(types.TopicJoy, types.TopicSample)
	topicInput  = bus.T(types.TopicInput, "#")
)

// Service writes one diagnostic line per control tick ("X: <x>, Y: <y>") and
// a notice for each mode change, button event and ISR drop.
type Service struct {
	out  io.Writer
	line []byte

	lastDrops uint32
	stopped   chan struct{}
}

func New(out io.Writer) *Service {
	return &Service{out: out, line: make([]byte, 0, 48), stopped: make(chan struct{})}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, sampleSub, inputSub *bus.Subscription) {
	defer close(s.stopped)
	defer conn.Unsubscribe(sampleSub)
	defer conn.Unsubscribe(inputSub)

	for {
		select {
		case <-ctx.Done():
			println("[monitor] stopping")
			return
		case msg := <-sampleSub.Channel():
			s.handle(msg)
		case msg := <-inputSub.Channel():
			s.handle(msg)
		}
	}
}

// Start the monitor service. Subscriptions are in place when Start returns.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	sampleSub := conn.Subscribe(topicSample)
	inputSub := conn.Subscribe(topicInput)
	go s.serviceLoop(ctx, conn, sampleSub, inputSub)
	return nil
}

// Done is closed when the service loop exits.
func (s *Service) Done() <-chan struct{} { return s.stopped }

func (s *Service) handle(msg *bus.Message) {
	b := s.line[:0]
	switch v := msg.Payload.(type) {
	case types.SampleValue:
		b = append(b, "X: "...)
		b = conv.AppendUint(b, uint64(v.X.Calibrated))
		b = append(b, ", Y: "...)
		b = conv.AppendUint(b, uint64(v.Y.Calibrated))
		if v.X.Held {
			b = append(b, " (x held)"...)
		}
	case types.ModeValue:
		b = append(b, "mode: "...)
		b = append(b, v.LEDMode...)
		b = append(b, ", border: "...)
		if v.BorderDoubled {
			b = append(b, "double"...)
		} else {
			b = append(b, "single"...)
		}
	case types.ButtonEvent:
		b = append(b, "button "...)
		b = append(b, v.Button...)
		b = append(b, " at "...)
		b = conv.AppendUint(b, uint64(v.AtMs))
		b = append(b, "ms"...)
	case types.InputStats:
		if v.Dropped == s.lastDrops {
			return
		}
		s.lastDrops = v.Dropped
		b = append(b, "input: isr queue dropped "...)
		b = conv.AppendUint(b, uint64(v.Dropped))
	default:
		return
	}
	b = append(b, '\n')
	s.line = b
	_, _ = s.out.Write(b)
}
