package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Policy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// MaxRestarts bounds restarts per task; 0 restarts forever.
	MaxRestarts int
}

type RestartPolicy string

const (
	RestartPermanent RestartPolicy = "permanent"
	RestartTransient RestartPolicy = "transient"
	RestartTemporary RestartPolicy = "temporary"
)

type TaskSpec struct {
	Name    string
	Restart RestartPolicy
	Run     func(ctx context.Context) error
}

type TaskStatus struct {
	Name          string        `json:"name"`
	RestartPolicy RestartPolicy `json:"restart_policy"`
	Running       bool          `json:"running"`
	RestartCount  int           `json:"restart_count"`
	LastError     string        `json:"last_error,omitempty"`
	Failed        bool          `json:"failed"`
}

type Hooks struct {
	OnRestart func(name string, err error, restartCount int)
	OnFailure func(name string, err error, restartCount int)
}

// ErrTaskFailed is reported on Failures when a task exhausts its restarts.
var ErrTaskFailed = errors.New("supervised task failed")

func defaultPolicy() Policy {
	return Policy{
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

func normalizePolicy(policy Policy) Policy {
	def := defaultPolicy()
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = def.MaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = def.BackoffFactor
	}
	return policy
}

// Supervisor keeps the long-running background tasks of a process alive,
// restarting them with exponential backoff according to their restart
// policy.
type Supervisor struct {
	policy   Policy
	hooks    Hooks
	failures chan error

	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	spec   TaskSpec
	cancel context.CancelFunc
	done   chan struct{}

	running      bool
	restartCount int
	lastErr      error
	failed       bool
}

func NewSupervisor(policy Policy, hooks Hooks) *Supervisor {
	return &Supervisor{
		policy:   normalizePolicy(policy),
		hooks:    hooks,
		failures: make(chan error, 16),
		tasks:    make(map[string]*task),
	}
}

// Failures delivers one error per task that gave up restarting.
func (s *Supervisor) Failures() <-chan error { return s.failures }

// Start runs spec.Run in its own goroutine under a context derived from ctx.
func (s *Supervisor) Start(ctx context.Context, spec TaskSpec) error {
	if spec.Name == "" {
		return errors.New("task name is required")
	}
	if spec.Run == nil {
		return errors.New("task runner is required")
	}
	switch spec.Restart {
	case RestartPermanent, RestartTransient, RestartTemporary:
	default:
		spec.Restart = RestartPermanent
	}

	s.mu.Lock()
	if current, exists := s.tasks[spec.Name]; exists && current.running {
		s.mu.Unlock()
		return fmt.Errorf("task already running: %s", spec.Name)
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{
		spec:    spec,
		cancel:  cancel,
		done:    make(chan struct{}),
		running: true,
	}
	s.tasks[spec.Name] = t
	s.mu.Unlock()

	go s.run(taskCtx, t)
	return nil
}

func (s *Supervisor) run(ctx context.Context, t *task) {
	defer func() {
		s.mu.Lock()
		t.running = false
		s.mu.Unlock()
		close(t.done)
	}()

	backoff := s.policy.InitialBackoff
	for {
		err := t.spec.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		t.lastErr = err
		restarts := t.restartCount
		s.mu.Unlock()

		if !shouldRestart(t.spec.Restart, err) {
			return
		}
		if s.policy.MaxRestarts > 0 && restarts >= s.policy.MaxRestarts {
			s.mu.Lock()
			t.failed = true
			s.mu.Unlock()
			if s.hooks.OnFailure != nil {
				s.hooks.OnFailure(t.spec.Name, err, restarts)
			}
			select {
			case s.failures <- fmt.Errorf("%w: %s: %v", ErrTaskFailed, t.spec.Name, err):
			default:
			}
			return
		}

		restarts++
		s.mu.Lock()
		t.restartCount = restarts
		s.mu.Unlock()
		if s.hooks.OnRestart != nil {
			s.hooks.OnRestart(t.spec.Name, err, restarts)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * s.policy.BackoffFactor)
		if backoff > s.policy.MaxBackoff {
			backoff = s.policy.MaxBackoff
		}
	}
}

func shouldRestart(policy RestartPolicy, err error) bool {
	switch policy {
	case RestartTransient:
		return err != nil
	case RestartTemporary:
		return false
	default:
		return true
	}
}

func (s *Supervisor) Stop(name string) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	delete(s.tasks, name)
	s.mu.Unlock()
	if !ok {
		return
	}
	t.cancel()
	<-t.done
}

func (s *Supervisor) StopAll() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

// Tasks lists the names of tasks that are currently running.
func (s *Supervisor) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name, t := range s.tasks {
		if t.running {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Status reports every task the supervisor knows about, finished ones
// included, sorted by name.
func (s *Supervisor) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, TaskStatus{
			Name:          t.spec.Name,
			RestartPolicy: t.spec.Restart,
			Running:       t.running,
			RestartCount:  t.restartCount,
			LastError:     errString(t.lastErr),
			Failed:        t.failed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
