package bankledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// queuedCommand represents a command enqueued in the command bus, together
// with the context it was dispatched under and the channel carrying the
// result back to the dispatcher.
type queuedCommand struct {
	Ctx        context.Context
	Command    Command
	ResponseCh chan<- commandResult
}

type commandResult struct {
	Result AppendResult
	Err    error
}

// CommandBus is an in-memory, type-safe command dispatcher. Commands are
// sharded by aggregate id, so commands for one aggregate are processed by a
// single worker in dispatch order. That makes the single-writer-per-
// aggregate assumption practical without any external coordination:
// concurrent commands for different aggregates proceed in parallel.
type CommandBus struct {
	handlers   map[string]func(ctx context.Context, command Command) (AppendResult, error)
	queues     []chan queuedCommand
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	shardCount int
}

// NewCommandBus creates a CommandBus with the given queue buffer size and
// shard count. Workers start immediately.
func NewCommandBus(bufferSize int, shardCount int) *CommandBus {
	if shardCount <= 0 {
		shardCount = 1
	}

	bus := &CommandBus{
		queues:     make([]chan queuedCommand, shardCount),
		handlers:   make(map[string]func(ctx context.Context, command Command) (AppendResult, error)),
		shardCount: shardCount,
	}

	for i := 0; i < shardCount; i++ {
		bus.queues[i] = make(chan queuedCommand, bufferSize)
		go bus.worker(bus.queues[i])
	}

	return bus
}

// Dispatch enqueues a command for its aggregate's shard and waits for the
// result. Safe to call concurrently. Returns an error immediately if the
// bus has been stopped or the context ends before the command is handled.
func (b *CommandBus) Dispatch(ctx context.Context, cmd Command) (AppendResult, error) {
	// The stop check and the wg.Add form one critical section: Stop cannot
	// pass wg.Wait and close the queues while a dispatch is in this window.
	b.mu.RLock()
	if b.stopped {
		b.mu.RUnlock()
		return AppendResult{Successful: false}, fmt.Errorf("command bus is stopped")
	}
	b.wg.Add(1)
	b.mu.RUnlock()
	defer b.wg.Done()

	responseCh := make(chan commandResult, 1)

	shard := b.getShard(cmd.AggregateID())

	select {
	case b.queues[shard] <- queuedCommand{Ctx: ctx, Command: cmd, ResponseCh: responseCh}:
		select {
		case result := <-responseCh:
			return result.Result, result.Err
		case <-ctx.Done():
			return AppendResult{Successful: false}, ctx.Err()
		}
	case <-ctx.Done():
		return AppendResult{Successful: false}, ctx.Err()
	}
}

// worker processes commands from a single shard queue.
func (b *CommandBus) worker(queue chan queuedCommand) {
	for cmd := range queue {
		cmdName := TypeName(cmd.Command)

		b.mu.RLock()
		h, exists := b.handlers[cmdName]
		b.mu.RUnlock()

		if !exists {
			cmd.ResponseCh <- commandResult{
				Result: AppendResult{Successful: false},
				Err:    fmt.Errorf("no handler for command %s", cmdName),
			}
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					cmd.ResponseCh <- commandResult{
						Result: AppendResult{Successful: false},
						Err:    fmt.Errorf("panic in handler: %v", r),
					}
				}
			}()

			res, err := h(cmd.Ctx, cmd.Command)
			cmd.ResponseCh <- commandResult{Result: res, Err: err}
		}()
	}
}

func (b *CommandBus) getShard(aggregateID string) int {
	hash := fnv.New32a()
	hash.Write([]byte(aggregateID))
	return int(hash.Sum32() % uint32(b.shardCount))
}

// Register adds a typed command handler to the bus. The command type name
// is derived from C; registering two handlers for one type panics.
func Register[C Command](b *CommandBus, handler CommandHandler[C]) {
	var zero C
	cmdName := TypeName(zero)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[cmdName]; exists {
		panic(fmt.Sprintf("handler already registered for command type %s", cmdName))
	}

	b.handlers[cmdName] = func(ctx context.Context, cmd Command) (AppendResult, error) {
		c, ok := cmd.(C)
		if !ok {
			return AppendResult{Successful: false}, fmt.Errorf("expected command type %s but got %T", cmdName, cmd)
		}
		return handler(ctx, c)
	}
}

// Stop shuts the bus down: no new commands are accepted, queues are
// drained, and Stop returns once all in-flight commands finished.
// Idempotent.
func (b *CommandBus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()

	b.wg.Wait()
	for _, q := range b.queues {
		close(q)
	}
}
