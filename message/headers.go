package message

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ErrHeaderNotFound is returned when a header is not present in the message.
var ErrHeaderNotFound = errors.New("header not found")

// HeaderTypeError is returned when a header exists, but its value cannot be read as the requested type.
type HeaderTypeError struct {
	Name  string
	Value interface{}
	Type  string
}

func (e HeaderTypeError) Error() string {
	return fmt.Sprintf("header %s with value %#v cannot be read as %s", e.Name, e.Value, e.Type)
}

// Destination is a reference to a place where messages can be sent.
//
// Destinations are carried in headers only as references,
// they are rendered with String() and must not outlive the hop.
type Destination interface {
	fmt.Stringer
	DestinationName() string
}

// Queue is a point-to-point Destination.
type Queue string

func (q Queue) DestinationName() string { return string(q) }
func (q Queue) String() string          { return "queue://" + string(q) }

// Topic is a publish-subscribe Destination.
type Topic string

func (t Topic) DestinationName() string { return string(t) }
func (t Topic) String() string          { return "topic://" + string(t) }

// Headers are key-values sent with a message.
// Values are strings, integers or destinations.
type Headers map[string]interface{}

func (h Headers) Contains(name string) bool {
	_, ok := h[name]
	return ok
}

// Get returns the raw value of the header or nil.
func (h Headers) Get(name string) interface{} {
	return h[name]
}

// GetString returns the string header form of the value.
func (h Headers) GetString(name string) (string, error) {
	v, ok := h[name]
	if !ok {
		return "", errors.Wrap(ErrHeaderNotFound, name)
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", HeaderTypeError{Name: name, Value: v, Type: "string"}
	}
}

// GetInt returns the header as an integer.
// String values are parsed.
func (h Headers) GetInt(name string) (int, error) {
	v, ok := h[name]
	if !ok {
		return 0, errors.Wrap(ErrHeaderNotFound, name)
	}

	switch val := v.(type) {
	case int:
		return val, nil
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, errors.WithStack(HeaderTypeError{Name: name, Value: v, Type: "int"})
		}
		return i, nil
	default:
		return 0, errors.WithStack(HeaderTypeError{Name: name, Value: v, Type: "int"})
	}
}

// GetDestination returns the header as a Destination.
func (h Headers) GetDestination(name string) (Destination, error) {
	v, ok := h[name]
	if !ok {
		return nil, errors.Wrap(ErrHeaderNotFound, name)
	}

	d, ok := v.(Destination)
	if !ok {
		return nil, errors.WithStack(HeaderTypeError{Name: name, Value: v, Type: "destination"})
	}

	return d, nil
}

func (h Headers) SetString(name, value string) {
	h[name] = value
}

func (h Headers) SetInt(name string, value int) {
	h[name] = value
}

func (h Headers) SetDestination(name string, value Destination) {
	h[name] = value
}

func (h Headers) Delete(name string) {
	delete(h, name)
}

// Names returns all header names in lexical order.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Copy returns a shallow copy of the headers.
// Header values are immutable scalars or references, so a shallow copy is independent.
func (h Headers) Copy() Headers {
	cpy := make(Headers, len(h))
	for k, v := range h {
		cpy[k] = v
	}

	return cpy
}
