// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package nexusq

import (
	"sync"
	"time"

	"github.com/go-nexus/nexusq/waitstrategy"
)

// Semaphore bounds the number of concurrent holders of a resource to the
// count given to NewSemaphore. The stress test uses it to cap how many
// producer goroutines are mid-send at once against a small ring buffer.
type Semaphore struct {
	mu      sync.Mutex
	n       int
	waiters waitstrategy.Event
}

func NewSemaphore(n int) *Semaphore {
	return &Semaphore{n: n}
}

func (s *Semaphore) Acquire() {
	s.AcquireContext(nil)
}

func (s *Semaphore) AcquireContext(context doneContext) error {
	s.mu.Lock()
	s.n--
	if s.n >= 0 {
		s.mu.Unlock()
		return nil
	}

	// need to wait. Create listener before unlock, so to ensure the wait is
	// already registered before the semaphore can send a signal.
	listener := s.waiters.Listen()
	s.mu.Unlock()

	if context == nil {
		listener.Wait()
		return nil
	}

	err := listener.WaitContext(context)
	if err != nil {
		s.abort(listener)
	}
	return err
}

func (s *Semaphore) AcquireTimeout(dur time.Duration) bool {
	switch {
	case dur == 0:
		return s.TryAcquire()
	case dur < 0:
		s.Acquire()
		return true
	}

	s.mu.Lock()
	s.n--
	if s.n >= 0 {
		s.mu.Unlock()
		return true
	}

	// need to wait. Create listener before unlock, so to ensure the wait is
	// already registered before the semaphore can send a signal.
	listener := s.waiters.Listen()
	s.mu.Unlock()

	ok := listener.WaitDeadline(time.Now().Add(dur))
	if !ok {
		s.abort(listener)
	}
	return ok
}

func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	ok := s.n > 0
	if ok {
		s.n--
	}
	s.mu.Unlock()
	return ok
}

func (s *Semaphore) Release() {
	s.mu.Lock()
	s.doRelease()
	s.mu.Unlock()
}

func (s *Semaphore) abort(l *waitstrategy.Listener) {
	s.mu.Lock()
	l.Cancel()
	s.n++
	s.mu.Unlock()
}

func (s *Semaphore) doRelease() {
	s.n++
	if s.n <= 0 {
		s.waiters.NotifyOne()
	}
}
