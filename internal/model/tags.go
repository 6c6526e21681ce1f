package model

import (
	"fmt"
	"strings"
)

// TagType is the account tag key holding the account's business type.
const TagType = "type"

// Tag is one key/value pair of an account's inline tag list.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered key/value list serialized inline as "k1:v1,k2:v2".
type Tags []Tag

// Get returns the value stored under key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// With returns a copy of t with key set to value. Existing keys keep their
// position, new keys are appended.
func (t Tags) With(key, value string) Tags {
	out := make(Tags, 0, len(t)+1)
	found := false
	for _, tag := range t {
		if tag.Key == key {
			tag.Value = value
			found = true
		}
		out = append(out, tag)
	}
	if !found {
		out = append(out, Tag{Key: key, Value: value})
	}
	return out
}

// Validate rejects keys or values that would break the inline encoding.
func (t Tags) Validate() error {
	for _, tag := range t {
		if tag.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidTag)
		}
		if strings.ContainsAny(tag.Key, ",:") || strings.ContainsAny(tag.Value, ",:") {
			return fmt.Errorf("%w: %q=%q contains ',' or ':'", ErrInvalidTag, tag.Key, tag.Value)
		}
	}
	return nil
}

// String encodes the tags inline. Callers validate first.
func (t Tags) String() string {
	parts := make([]string, len(t))
	for i, tag := range t {
		parts[i] = tag.Key + ":" + tag.Value
	}
	return strings.Join(parts, ",")
}

// ParseTags decodes an inline tag string. An empty string yields nil.
func ParseTags(s string) (Tags, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var tags Tags
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: malformed pair %q", ErrInvalidTag, part)
		}
		if strings.Contains(value, ":") {
			return nil, fmt.Errorf("%w: value of %q contains ':'", ErrInvalidTag, key)
		}
		tags = append(tags, Tag{Key: key, Value: value})
	}
	return tags, nil
}
