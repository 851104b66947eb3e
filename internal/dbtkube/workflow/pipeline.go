// Package workflow assembles and executes the task graph: named tasks with
// explicit upstream edges, each carrying a dbt invocation, plus the executor
// that submits the built pods in dependency order.
package workflow

import (
	"fmt"
	"time"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/jobspec"
	"github.com/anhhoangdev/dbtkube/pkg/config"
	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

// Task is one node in the pipeline graph: a dbt invocation, the resource
// tier of its pod, and the tasks that must complete before it.
type Task struct {
	ID         string
	Invocation domain.Invocation
	Tier       config.Tier
	Upstream   []string
}

// Policy is the pipeline-level retry and concurrency policy handed to
// whatever drives the pipeline.
type Policy struct {
	Retries       int
	RetryDelay    time.Duration
	MaxActiveRuns int
	Schedule      string
}

// Pipeline is a named DAG of dbt tasks. Construction order is preserved for
// stable iteration; edges are validated separately via Validate.
type Pipeline struct {
	ID     string
	Policy Policy

	tasks []*Task
	byID  map[string]*Task
}

// NewPipeline creates an empty pipeline with the given policy.
func NewPipeline(id string, policy Policy) *Pipeline {
	return &Pipeline{
		ID:     id,
		Policy: policy,
		byID:   make(map[string]*Task),
	}
}

// AddTask appends a task to the pipeline. Task IDs must be unique.
func (p *Pipeline) AddTask(task *Task) error {
	if _, exists := p.byID[task.ID]; exists {
		return errors.WrapPipelineError(p.ID, "add-task",
			fmt.Errorf("%w: %q", errors.ErrDuplicateTask, task.ID))
	}
	p.tasks = append(p.tasks, task)
	p.byID[task.ID] = task
	return nil
}

// Task returns the task with the given id.
func (p *Pipeline) Task(id string) (*Task, error) {
	task, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownTask, id)
	}
	return task, nil
}

// Tasks returns the tasks in insertion order.
func (p *Pipeline) Tasks() []*Task {
	return p.tasks
}

// Validate checks that every upstream reference names a known task and that
// the graph is acyclic.
func (p *Pipeline) Validate() error {
	for _, task := range p.tasks {
		for _, up := range task.Upstream {
			if _, ok := p.byID[up]; !ok {
				return errors.WrapPipelineError(p.ID, "validate",
					fmt.Errorf("%w: task %q references %q", errors.ErrUpstreamNotFound, task.ID, up))
			}
		}
	}
	if _, err := p.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns the tasks in an order where every task appears
// after all of its upstreams. Ties break by insertion order so the result
// is deterministic. Fails on cycles.
func (p *Pipeline) TopologicalOrder() ([]*Task, error) {
	indegree := make(map[string]int, len(p.tasks))
	downstream := make(map[string][]string, len(p.tasks))
	for _, task := range p.tasks {
		indegree[task.ID] = 0
	}
	for _, task := range p.tasks {
		for _, up := range task.Upstream {
			indegree[task.ID]++
			downstream[up] = append(downstream[up], task.ID)
		}
	}

	var order []*Task
	// Kahn's algorithm over the insertion-ordered slice keeps output stable.
	ready := make([]string, 0, len(p.tasks))
	for _, task := range p.tasks {
		if indegree[task.ID] == 0 {
			ready = append(ready, task.ID)
		}
	}

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, p.byID[id])

		for _, dep := range downstream[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(p.tasks) {
		return nil, errors.WrapPipelineError(p.ID, "topological-order", errors.ErrDependencyCycle)
	}
	return order, nil
}

// BuildAll builds the JobRequest for every task at graph-construction time,
// in topological order. A build failure stops immediately; nothing has been
// submitted yet.
func (p *Pipeline) BuildAll(cfg *jobspec.Config, settings *config.Settings, rc domain.RunContext) ([]*BuiltTask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	order, err := p.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	built := make([]*BuiltTask, 0, len(order))
	for _, task := range order {
		taskRC := rc
		taskRC.TaskID = task.ID

		taskCfg := cfg.ForTier(task.Tier, settings.ResourceTier(task.Tier))
		req, err := jobspec.Build(&task.Invocation, taskCfg, taskRC)
		if err != nil {
			return nil, err
		}
		built = append(built, &BuiltTask{Task: task, Request: req})
	}
	return built, nil
}

// BuiltTask pairs a graph node with its fully resolved job request.
type BuiltTask struct {
	Task    *Task
	Request *jobspec.JobRequest
}
