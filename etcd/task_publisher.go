package etcd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"energy_routing/protocol"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	TaskPrefix   = "/route_tasks/"
	ResultPrefix = "/route_results/"

	TaskTypeRoute = "route.compute"

	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var ErrResultTimeout = errors.New("timeout waiting for result")

type Task struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

type TaskResult struct {
	TaskID      string    `json:"task_id"`
	WorkerID    string    `json:"worker_id,omitempty"`
	Result      string    `json:"result"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
}

func DefaultEtcdConfig() EtcdConfig {
	return EtcdConfig{
		Endpoints:   []string{"127.0.0.1:2379"},
		DialTimeout: 5 * time.Second,
	}
}

func newClient(config EtcdConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// TaskPublisher submits route tasks and collects their results
type TaskPublisher struct {
	client      *clientv3.Client
	publisherID string
}

func NewTaskPublisher(config EtcdConfig) (*TaskPublisher, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return &TaskPublisher{
		client:      client,
		publisherID: "publisher-" + uuid.NewString()[:8],
	}, nil
}

func (p *TaskPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func CreateTask(taskType, payload string) Task {
	return Task{
		ID:        "task-" + uuid.NewString(),
		Type:      taskType,
		Payload:   payload,
		CreatedAt: time.Now(),
		Status:    StatusPending,
	}
}

// NewRouteTask wraps req in a route.compute task. The task shares the
// request's ID so results can be matched either way.
func NewRouteTask(req *protocol.RouteRequest) (Task, error) {
	req.EnsureDefaults()
	payload, err := json.Marshal(req)
	if err != nil {
		return Task{}, fmt.Errorf("failed to marshal route request: %w", err)
	}
	task := CreateTask(TaskTypeRoute, string(payload))
	task.ID = "task-" + req.RequestID
	return task, nil
}

func (p *TaskPublisher) PublishTask(ctx context.Context, task Task) error {
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if _, err := p.client.Put(ctx, TaskPrefix+task.ID, string(taskJSON)); err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}

	log.Infof("[%s] Task published: %s (Type: %s)", p.publisherID, task.ID, task.Type)
	return nil
}

func (p *TaskPublisher) PublishRouteRequest(ctx context.Context, req *protocol.RouteRequest) (Task, error) {
	task, err := NewRouteTask(req)
	if err != nil {
		return Task{}, err
	}
	return task, p.PublishTask(ctx, task)
}

// GetTaskResult returns the stored result, or nil when the task has none yet
func (p *TaskPublisher) GetTaskResult(ctx context.Context, taskID string) (*TaskResult, int64, error) {
	resp, err := p.client.Get(ctx, ResultPrefix+taskID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get task result: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, resp.Header.Revision, nil
	}

	var result TaskResult
	if err := json.Unmarshal(resp.Kvs[0].Value, &result); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal task result: %w", err)
	}
	return &result, resp.Header.Revision, nil
}

// WatchTaskResults streams results written for taskID after revision rev.
// rev 0 watches from now.
func (p *TaskPublisher) WatchTaskResults(ctx context.Context, taskID string, rev int64) <-chan *TaskResult {
	resultChan := make(chan *TaskResult)

	var opts []clientv3.OpOption
	if rev > 0 {
		opts = append(opts, clientv3.WithRev(rev))
	}

	go func() {
		defer close(resultChan)

		watchChan := p.client.Watch(ctx, ResultPrefix+taskID, opts...)
		for resp := range watchChan {
			for _, event := range resp.Events {
				if event.Type != clientv3.EventTypePut {
					continue
				}
				result, err := decodeTaskResult(event.Kv.Value)
				if err != nil {
					log.Warningf("Failed to unmarshal task result: %v", err)
					continue
				}
				select {
				case resultChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan
}

// WaitForResult returns the task's result, waiting up to timeout for a worker
// to write it. A result stored before the call is returned immediately.
func (p *TaskPublisher) WaitForResult(ctx context.Context, taskID string, timeout time.Duration) (*TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, rev, err := p.GetTaskResult(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	select {
	case result, ok := <-p.WatchTaskResults(ctx, taskID, rev+1):
		if ok {
			return result, nil
		}
		if ctx.Err() == nil {
			return nil, fmt.Errorf("watch on task %s closed", taskID)
		}
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: task %s", ErrResultTimeout, taskID)
	}
	return nil, ctx.Err()
}

// WaitForRoute waits for a route.compute result and decodes it
func (p *TaskPublisher) WaitForRoute(ctx context.Context, taskID string, timeout time.Duration) (*protocol.RouteResponse, error) {
	result, err := p.WaitForResult(ctx, taskID, timeout)
	if err != nil {
		return nil, err
	}
	return DecodeRouteResult(result)
}

// DecodeRouteResult turns a stored result back into the route response the
// worker produced. Failed routes return the response and its RemoteError.
func DecodeRouteResult(result *TaskResult) (*protocol.RouteResponse, error) {
	if result.Result == "" {
		return nil, fmt.Errorf("task %s failed: %s", result.TaskID, result.Error)
	}
	var resp protocol.RouteResponse
	if err := json.Unmarshal([]byte(result.Result), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route response: %w", err)
	}
	return &resp, resp.Err()
}

func decodeTaskResult(data []byte) (*TaskResult, error) {
	var result TaskResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
