// Package stats keeps per-site click counts used to rank hints.
package stats

import (
	"context"
	"encoding/json"
	"sort"
)

// RecordName is the storage key the statistics live under.
const RecordName = "linkStats"

// Stats maps hostname to element key to click count.
type Stats map[string]map[string]int

// Count returns the number of recorded clicks for key on host.
func (s Stats) Count(host, key string) int {
	return s[host][key]
}

// Increment adds one click for key on host.
func (s Stats) Increment(host, key string) {
	m := s[host]
	if m == nil {
		m = make(map[string]int)
		s[host] = m
	}
	m[key]++
}

// Clone returns a deep copy.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for host, keys := range s {
		m := make(map[string]int, len(keys))
		for k, v := range keys {
			m[k] = v
		}
		out[host] = m
	}
	return out
}

// Hosts returns the recorded hostnames in sorted order.
func (s Stats) Hosts() []string {
	hosts := make([]string, 0, len(s))
	for host := range s {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Entry is one element's click count.
type Entry struct {
	Key   string
	Count int
}

// Ranked returns host's elements, most clicked first. Ties sort by key.
func (s Stats) Ranked(host string) []Entry {
	entries := make([]Entry, 0, len(s[host]))
	for k, v := range s[host] {
		entries = append(entries, Entry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Store persists the whole statistics record.
type Store interface {
	Load(ctx context.Context) (Stats, error)
	Save(ctx context.Context, s Stats) error
}

// decode parses a stored record. Empty input is an empty record.
func decode(data []byte) (Stats, error) {
	s := Stats{}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = Stats{}
	}
	return s, nil
}
