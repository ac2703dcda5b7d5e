package stockfish

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionType is the declared kind of an advertised UCI option.
type OptionType int

const (
	OptionCheck OptionType = iota
	OptionSpin
	OptionCombo
	OptionButton
	OptionString
)

// advertisedOption is one "option name ... type ..." line from the
// handshake. Type, range and default are immutable after ingestion.
type advertisedOption struct {
	Name    string
	Type    OptionType
	Default string
	Min     int
	Max     int
	Choices []string
}

type engineOption struct {
	advertisedOption
	requested    string
	hasRequested bool
}

// optionSet mirrors the engine's advertised options and the values the
// client has successfully applied. It validates requests and renders the
// setoption command text, but never talks to the process itself.
type optionSet struct {
	byName map[string]*engineOption
}

func newOptionSet() optionSet {
	return optionSet{byName: make(map[string]*engineOption)}
}

// ingest records an advertisement. A repeated name overwrites the
// earlier entry; the last line from the engine wins.
func (s *optionSet) ingest(adv advertisedOption) {
	s.byName[adv.Name] = &engineOption{advertisedOption: adv}
}

// request validates a value against the advertised type and range and
// returns the setoption command to send. It does not record the value;
// call apply once the engine has acknowledged the round-trip.
func (s *optionSet) request(name, value string) (string, error) {
	opt, ok := s.byName[name]
	if !ok {
		return "", &OptionError{Name: name, Value: value, Reason: OptionUnknown}
	}
	switch opt.Type {
	case OptionCheck:
		if value != "true" && value != "false" {
			return "", &OptionError{Name: name, Value: value, Reason: OptionTypeMismatch}
		}
	case OptionSpin:
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", &OptionError{Name: name, Value: value, Reason: OptionTypeMismatch}
		}
		if n < opt.Min || n > opt.Max {
			return "", &OptionError{Name: name, Value: value, Reason: OptionOutOfRange}
		}
	case OptionCombo:
		found := false
		for _, c := range opt.Choices {
			if strings.EqualFold(c, value) {
				found = true
				break
			}
		}
		if !found {
			return "", &OptionError{Name: name, Value: value, Reason: OptionBadChoice}
		}
	case OptionButton:
		if value != "" {
			return "", &OptionError{Name: name, Value: value, Reason: OptionTypeMismatch}
		}
		return fmt.Sprintf("setoption name %s", name), nil
	case OptionString:
	}
	return fmt.Sprintf("setoption name %s value %s", name, value), nil
}

// apply records a value as durably set. Only call it for a value that
// request accepted and the engine acknowledged.
func (s *optionSet) apply(name, value string) {
	if opt, ok := s.byName[name]; ok && opt.Type != OptionButton {
		opt.requested = value
		opt.hasRequested = true
	}
}

// current returns the last applied value, or the advertised default if
// the option was never overridden.
func (s *optionSet) current(name string) (string, error) {
	opt, ok := s.byName[name]
	if !ok {
		return "", &OptionError{Name: name, Reason: OptionUnknown}
	}
	if opt.hasRequested {
		return opt.requested, nil
	}
	return opt.Default, nil
}
