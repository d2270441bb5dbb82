/*
Copyright 2024 Henri Remonen

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package fetcher

import (
	"sync"

	"github.com/temoto/robotstxt"
)

// Storer is a cache for the robots.txt rules of the hosts a Fetcher talks to.
type Storer interface {
	// Robots returns the cached rules for host.
	Robots(host string) (*robotstxt.RobotsData, bool)
	// StoreRobots caches the rules for host.
	StoreRobots(host string, robots *robotstxt.RobotsData)
}

type InMemoryStore struct {
	robots map[string]*robotstxt.RobotsData
	lock   *sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		robots: make(map[string]*robotstxt.RobotsData),
		lock:   &sync.RWMutex{},
	}
}

func (s *InMemoryStore) Robots(host string) (*robotstxt.RobotsData, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	robots, ok := s.robots[host]
	return robots, ok
}

func (s *InMemoryStore) StoreRobots(host string, robots *robotstxt.RobotsData) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.robots[host] = robots
}
