package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"energy_routing/protocol"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type TaskProcessor func(ctx context.Context, task Task) (string, error)

// RouteComputer is the part of the route service a worker needs
type RouteComputer interface {
	Compute(ctx context.Context, req *protocol.RouteRequest) *protocol.RouteResponse
}

type TaskWorker struct {
	client     *clientv3.Client
	workerID   string
	processors map[string]TaskProcessor
	wg         sync.WaitGroup
}

func NewTaskWorker(config EtcdConfig, workerID string) (*TaskWorker, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return newTaskWorker(client, workerID), nil
}

func newTaskWorker(client *clientv3.Client, workerID string) *TaskWorker {
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%d", time.Now().Unix())
	}
	return &TaskWorker{
		client:     client,
		workerID:   workerID,
		processors: make(map[string]TaskProcessor),
	}
}

func (w *TaskWorker) Close() {
	w.wg.Wait()
	if w.client != nil {
		w.client.Close()
	}
}

// RegisterProcessor must be called before Start
func (w *TaskWorker) RegisterProcessor(taskType string, processor TaskProcessor) {
	w.processors[taskType] = processor
}

func (w *TaskWorker) RegisterRouteProcessor(computer RouteComputer) {
	w.RegisterProcessor(TaskTypeRoute, RouteProcessor(computer))
}

// RouteProcessor decodes a route request payload and returns the JSON route
// response. A response carrying an error code is returned along with its error.
func RouteProcessor(computer RouteComputer) TaskProcessor {
	return func(ctx context.Context, task Task) (string, error) {
		var req protocol.RouteRequest
		if err := json.Unmarshal([]byte(task.Payload), &req); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}

		resp := computer.Compute(ctx, &req)
		out, err := json.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal route response: %w", err)
		}
		return string(out), resp.Err()
	}
}

// Start watches for pending tasks until ctx is done
func (w *TaskWorker) Start(ctx context.Context) error {
	log.Infof("[%s] Worker starting...", w.workerID)
	for taskType := range w.processors {
		log.Infof("[%s] - processor registered: %s", w.workerID, taskType)
	}

	watchChan := w.client.Watch(ctx, TaskPrefix, clientv3.WithPrefix())

	for {
		select {
		case <-ctx.Done():
			log.Infof("[%s] Worker shutting down...", w.workerID)
			return nil

		case resp, ok := <-watchChan:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watch channel closed")
			}
			if err := resp.Err(); err != nil {
				log.Warnf("[%s] Watch error: %v", w.workerID, err)
				continue
			}

			for _, event := range resp.Events {
				if event.Type != clientv3.EventTypePut {
					continue
				}
				w.wg.Add(1)
				go func(ev *clientv3.Event) {
					defer w.wg.Done()
					w.handleTaskEvent(ctx, ev)
				}(event)
			}
		}
	}
}

func (w *TaskWorker) handleTaskEvent(ctx context.Context, event *clientv3.Event) {
	var task Task
	if err := json.Unmarshal(event.Kv.Value, &task); err != nil {
		log.Errorf("[%s] Failed to unmarshal task: %v", w.workerID, err)
		return
	}
	if task.Status != StatusPending {
		return
	}
	if _, ok := w.processors[task.Type]; !ok {
		log.Errorf("[%s] No processor registered for task type: %s", w.workerID, task.Type)
		return
	}

	// claim the task; another worker may have moved it on already
	key := string(event.Kv.Key)
	task.Status = StatusProcessing
	taskJSON, _ := json.Marshal(task)
	txn, err := w.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", event.Kv.ModRevision)).
		Then(clientv3.OpPut(key, string(taskJSON))).
		Commit()
	if err != nil {
		log.Errorf("[%s] Failed to update task status: %v", w.workerID, err)
		return
	}
	if !txn.Succeeded {
		log.Debugf("[%s] Task %s claimed by another worker", w.workerID, task.ID)
		return
	}

	log.Infof("[%s] Processing task: %s (Type: %s)", w.workerID, task.ID, task.Type)
	result := w.process(ctx, &task)

	resultJSON, _ := json.Marshal(result)
	if _, err := w.client.Put(ctx, ResultPrefix+task.ID, string(resultJSON)); err != nil {
		log.Errorf("[%s] Failed to store task result: %v", w.workerID, err)
		return
	}

	taskJSON, _ = json.Marshal(task)
	if _, err := w.client.Put(ctx, key, string(taskJSON)); err != nil {
		log.Errorf("[%s] Failed to update task status after completion: %v", w.workerID, err)
	}
}

// process runs the task's processor and sets the final task status
func (w *TaskWorker) process(ctx context.Context, task *Task) TaskResult {
	result := TaskResult{TaskID: task.ID, WorkerID: w.workerID}

	processor, ok := w.processors[task.Type]
	var out string
	var err error
	if ok {
		out, err = processor(ctx, *task)
	} else {
		err = fmt.Errorf("no processor for task type %s", task.Type)
	}

	result.Result = out
	result.CompletedAt = time.Now()
	if err != nil {
		task.Status = StatusFailed
		result.Error = err.Error()
		log.Errorf("[%s] Task processing failed: %s - %v", w.workerID, task.ID, err)
	} else {
		task.Status = StatusCompleted
		log.Infof("[%s] Task completed: %s", w.workerID, task.ID)
	}
	return result
}
