// Package realtime establishes bidirectional sessions with a realtime
// inference endpoint over WebRTC or WebSocket, exchanges JSON control events
// over a reliable ordered channel, and serves server-initiated tool calls
// with locally registered handlers.
//
// # Connecting
//
// A session is described by a SessionConfig and driven by a Controller. The
// Client performs the negotiation round trip (credential minting plus SDP
// exchange) during Connect:
//
//	client := realtime.NewClient(apiKey)
//	handle, err := client.Connect(ctx, &realtime.SessionConfig{
//	    Model:        realtime.ModelGPT4oRealtimePreview,
//	    Instructions: "You are a helpful assistant.",
//	    Tools:        []*realtime.Tool{clock},
//	})
//	if err != nil {
//	    return err
//	}
//	defer handle.Dispose()
//
// Connect has no built-in timeout on the channel-open wait; bound it with
// the context:
//
//	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
//	defer cancel()
//
// # Tools
//
// A tool pairs a JSON-Schema-described declaration with a handler. The
// schema is derived from the argument type:
//
//	clock := realtime.MustNewTool("get_current_time", "Returns the current time.",
//	    func(ctx context.Context, h *realtime.Handle, _ struct{}) (string, error) {
//	        return time.Now().Format(time.RFC3339), nil
//	    })
//
// When the remote side sends a tool_call event, the matching handler runs on
// its own goroutine and exactly one correlated tool_output event is sent
// back, carrying the result or the error. Handler failures never terminate
// the session.
//
// # Events
//
// Inbound events are fanned out, in arrival order, to every subscriber:
//
//	for event := range handle.Events() {
//	    switch event.Type {
//	    case realtime.EventTypeResponseTextDelta:
//	        fmt.Print(event.Delta)
//	    case realtime.EventTypeResponseDone:
//	        fmt.Println()
//	    }
//	}
//
// Subscriber buffers are unbounded and there is no replay for late
// subscribers; consumers are expected to keep up.
package realtime
