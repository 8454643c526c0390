package sync

// loop is a single-consumer task queue: the cooperative scheduler that owns
// all cache state. Fetch completions, mutation settlements and realtime
// events are posted here and run one at a time, never concurrently.
type loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
}

func newLoop() *loop {
	l := &loop{
		tasks: make(chan func(), 256),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			// drain whatever was queued before shutdown
			for {
				select {
				case fn := <-l.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// do posts fn for execution. Returns false if the loop is shut down.
// Must not be called from within a running task; tasks call helpers directly.
func (l *loop) do(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// call posts fn and waits for it to finish.
func (l *loop) call(fn func()) {
	ran := make(chan struct{})
	if !l.do(func() {
		fn()
		close(ran)
	}) {
		return
	}
	select {
	case <-ran:
	case <-l.done:
	}
}

func (l *loop) close() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
	<-l.done
}
