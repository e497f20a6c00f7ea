package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// pendingCall tracks one in-flight tool invocation, from the moment the
// tool_call event is routed until its output event is sent.
type pendingCall struct {
	callID  string
	name    string
	started time.Time
}

// dispatcher matches inbound tool_call events to registered tools, executes
// them concurrently and emits exactly one correlated tool_output per
// invocation. Handler failures are captured locally and converted into
// error-tagged outputs; they never destabilize the session.
type dispatcher struct {
	registry map[string]*Tool
	out      *outbound
	handle   func() *Handle
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingCall
	wg      sync.WaitGroup
}

func newDispatcher(registry map[string]*Tool, out *outbound, handle func() *Handle, logger *slog.Logger) *dispatcher {
	return &dispatcher{
		registry: registry,
		out:      out,
		handle:   handle,
		logger:   logger,
		pending:  make(map[string]*pendingCall),
	}
}

// dispatch handles one tool_call event. It never blocks the router: tool
// execution runs on its own goroutine.
func (d *dispatcher) dispatch(e *Event) {
	d.mu.Lock()
	if _, live := d.pending[e.CallID]; live {
		d.mu.Unlock()
		d.logger.Warn("duplicate tool call for live correlation id",
			"call_id", e.CallID, "name", e.Name)
		return
	}

	tool, ok := d.registry[e.Name]
	if !ok {
		d.mu.Unlock()
		d.logger.Warn("tool not registered", "name", e.Name, "call_id", e.CallID)
		d.emit(NewToolErrorOutput(e.CallID, errCodeToolNotFound,
			fmt.Errorf("tool %q is not registered", e.Name)))
		return
	}

	d.pending[e.CallID] = &pendingCall{
		callID:  e.CallID,
		name:    e.Name,
		started: time.Now(),
	}
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(tool, e.CallID, e.Arguments)
}

// run executes one tool invocation to completion. Disposal does not cancel
// it; a late output simply fails ErrNotOpen and is discarded.
func (d *dispatcher) run(tool *Tool, callID, args string) {
	defer d.wg.Done()

	output, err := d.invoke(tool, args)

	var e *Event
	if err != nil {
		d.logger.Warn("tool execution failed", "name", tool.Name,
			"call_id", callID, "error", err)
		e = NewToolErrorOutput(callID, errCodeToolExecution, err)
	} else {
		e = NewToolOutput(callID, output)
	}
	d.emit(e)

	d.mu.Lock()
	delete(d.pending, callID)
	d.mu.Unlock()
}

// invoke calls the tool, converting a panic in the handler body into an
// ordinary error.
func (d *dispatcher) invoke(tool *Tool, args string) (output string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("tool %q panicked: %v", tool.Name, v)
		}
	}()
	return tool.Invoke(context.Background(), d.handle(), args)
}

func (d *dispatcher) emit(e *Event) {
	if err := d.out.send(e); err != nil {
		if err == ErrNotOpen {
			d.logger.Debug("discarding tool output after close", "call_id", e.CallID)
			return
		}
		d.logger.Error("send tool output", "call_id", e.CallID, "error", err)
	}
}

// wait blocks until all in-flight tool executions have completed.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
