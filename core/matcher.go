package core

import "strings"

// TopicMatcher determines whether a subscription pattern matches a given topic.
type TopicMatcher interface {
	Match(pattern string, topic string) bool
}

// DefaultMatcher matches dot-separated topics with support for a
// single-level wildcard (*) and a multi-level wildcard (#). Routing keys
// such as "data_OrderCreated" are a single level and match exactly or via "*".
//
//	"data_OrderCreated" matches "data_OrderCreated"
//	"orders.*"          matches "orders.created", not "orders.us.created"
//	"payments.#"        matches "payments.created" and "payments.us.created"
type DefaultMatcher struct{}

func (DefaultMatcher) Match(pattern, topic string) bool {
	return matchFrom(strings.Split(pattern, "."), 0, strings.Split(topic, "."), 0)
}

func matchFrom(pat []string, pi int, top []string, ti int) bool {
	for pi < len(pat) && ti < len(top) {
		switch pat[pi] {
		case "#":
			if pi == len(pat)-1 {
				return true
			}
			// # in the middle consumes zero or more levels
			for next := ti; next <= len(top); next++ {
				if matchFrom(pat, pi+1, top, next) {
					return true
				}
			}
			return false
		case "*":
		default:
			if pat[pi] != top[ti] {
				return false
			}
		}
		pi++
		ti++
	}
	return pi == len(pat) && ti == len(top)
}
