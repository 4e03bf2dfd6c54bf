package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Params is the string-keyed parameter bag of a tool call.
// Values are strings, json.Number, booleans or nil as decoded from the model
// reply, plus any context values injected by the orchestrator.
type Params map[string]any

// String returns the value under key rendered as a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case fmt.Stringer:
		return val.String(), true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return string(raw), true
}

// Require returns the non-blank string value under key.
func (p Params) Require(key string) (string, error) {
	s, ok := p.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return s, nil
}

// Decode copies the bag into the struct pointed to by out, converting
// loosely typed values (numbers as strings and so on).
func (p Params) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "param",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return nil
}

// With returns a copy of the bag with key set to value.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// Without returns a copy of the bag with key removed.
func (p Params) Without(key string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if k != key {
			out[k] = v
		}
	}
	return out
}
