package orchestrator

// Outcome is the terminal result of one send: exactly one of Answer or Err
// is meaningful.
type Outcome struct {
	Answer string
	Err    error
}

// Task is the handle for one in-flight send.
type Task struct {
	query   string
	done    chan struct{}
	outcome Outcome
}

func newTask(query string) *Task {
	return &Task{query: query, done: make(chan struct{})}
}

// Query returns the submitted question text.
func (t *Task) Query() string { return t.query }

// Done is closed when the send has completed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Outcome blocks until completion and returns the result.
func (t *Task) Outcome() Outcome {
	<-t.done
	return t.outcome
}

func (t *Task) succeed(answer string) {
	t.outcome = Outcome{Answer: answer}
	close(t.done)
}

func (t *Task) fail(err error) {
	t.outcome = Outcome{Err: err}
	close(t.done)
}
