package bus

// Bus is the contract between channels and the agent core.
type Bus interface {
	// PublishInbound delivers a session event from a channel to the agent.
	PublishInbound(ev InboundEvent)
	// PublishOutbound delivers a reply from the agent to a channel.
	PublishOutbound(reply OutboundReply)
	// InboundChan returns a receive-only channel for the agent to consume.
	InboundChan() <-chan InboundEvent
	// OutboundChan returns a receive-only channel for the channel manager to consume.
	OutboundChan() <-chan OutboundReply
}

// MessageBus is the default in-process Bus implementation backed by buffered
// Go channels, so channel adapters never block on a slow consumer.
type MessageBus struct {
	inbound  chan InboundEvent
	outbound chan OutboundReply
}

func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundEvent, bufSize),
		outbound: make(chan OutboundReply, bufSize),
	}
}

func (b *MessageBus) PublishInbound(ev InboundEvent) {
	b.inbound <- ev
}

func (b *MessageBus) PublishOutbound(reply OutboundReply) {
	b.outbound <- reply
}

func (b *MessageBus) InboundChan() <-chan InboundEvent {
	return b.inbound
}

func (b *MessageBus) OutboundChan() <-chan OutboundReply {
	return b.outbound
}
