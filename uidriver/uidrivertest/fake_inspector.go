package uidrivertest

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/mozilla/vpn-test-harness/framework/helpers"
	"github.com/mozilla/vpn-test-harness/servicedef"
	"github.com/mozilla/vpn-test-harness/uidriver"
)

type element struct {
	props   map[string]string
	onClick func()
}

// FakeInspector is an in-memory model of the client UI. Elements are identified by their
// selector path and carry string properties; "visible" and "busy" are the ones queries look at.
// Click handlers and the activate/deactivate/reset hooks run without the lock held, so they may
// call back into the FakeInspector.
type FakeInspector struct {
	elements     map[string]*element
	features     map[string]bool
	lastURL      string
	connection   string
	active       bool
	commands     []string
	onActivate   func()
	onDeactivate func()
	onReset      func()
	lock         sync.Mutex
}

func NewFakeInspector() *FakeInspector {
	return &FakeInspector{
		elements:   make(map[string]*element),
		features:   make(map[string]bool),
		connection: servicedef.ConnectionStable,
	}
}

func (f *FakeInspector) elementLocked(path string) *element {
	e := f.elements[path]
	if e == nil {
		e = &element{props: map[string]string{"visible": "false", "busy": "false"}}
		f.elements[path] = e
	}
	return e
}

// Show makes an element visible, creating it if necessary.
func (f *FakeInspector) Show(s uidriver.Selector) { f.SetProp(s, "visible", "true") }

// Hide makes an element invisible, creating it if necessary.
func (f *FakeInspector) Hide(s uidriver.Selector) { f.SetProp(s, "visible", "false") }

// Remove deletes an element, so queries for it fail in any state.
func (f *FakeInspector) Remove(s uidriver.Selector) {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.elements, string(s))
}

// SetBusy sets the "busy" property.
func (f *FakeInspector) SetBusy(s uidriver.Selector, busy bool) {
	f.SetProp(s, "busy", strconv.FormatBool(busy))
}

func (f *FakeInspector) SetProp(s uidriver.Selector, name, value string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.elementLocked(string(s)).props[name] = value
}

// Prop returns a property value and whether the element has it.
func (f *FakeInspector) Prop(s uidriver.Selector, name string) (string, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	e := f.elements[string(s)]
	if e == nil {
		return "", false
	}
	v, ok := e.props[name]
	return v, ok
}

// IsVisible reports whether an element exists and is visible.
func (f *FakeInspector) IsVisible(s uidriver.Selector) bool {
	v, _ := f.Prop(s, "visible")
	return v == "true"
}

// OnClick sets what happens when an element is clicked.
func (f *FakeInspector) OnClick(s uidriver.Selector, fn func()) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.elementLocked(string(s)).onClick = fn
}

func (f *FakeInspector) OnActivate(fn func())   { f.setHook(&f.onActivate, fn) }
func (f *FakeInspector) OnDeactivate(fn func()) { f.setHook(&f.onDeactivate, fn) }
func (f *FakeInspector) OnReset(fn func())      { f.setHook(&f.onReset, fn) }

func (f *FakeInspector) setHook(hook *func(), fn func()) {
	f.lock.Lock()
	defer f.lock.Unlock()
	*hook = fn
}

func (f *FakeInspector) SetLastURL(u string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.lastURL = u
}

func (f *FakeInspector) SetFeature(name string, on bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.features[name] = on
}

func (f *FakeInspector) Feature(name string) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.features[name]
}

func (f *FakeInspector) ConnectionStability() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.connection
}

func (f *FakeInspector) Active() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.active
}

func (f *FakeInspector) SetActive(active bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.active = active
}

// Commands returns every command received so far, as "name arg1 arg2".
func (f *FakeInspector) Commands() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return helpers.CopyOf(f.commands)
}

// CountCommands returns how many times a command was received, regardless of arguments.
func (f *FakeInspector) CountCommands(name string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, c := range f.commands {
		if c == name || len(c) > len(name) && c[:len(name)+1] == name+" " {
			n++
		}
	}
	return n
}

func (f *FakeInspector) Command(name string, args ...string) (servicedef.InspectorResponse, error) {
	value, hook, err := f.dispatch(name, args)
	if err != nil {
		return servicedef.InspectorResponse{Type: name, Error: err.Error()},
			&uidriver.InspectorError{Command: name, Message: err.Error()}
	}
	if hook != nil {
		hook()
	}
	return servicedef.InspectorResponse{Type: name, Value: value}, nil
}

func (f *FakeInspector) dispatch(name string, args []string) (ldvalue.Value, func(), error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	line := name
	for _, a := range args {
		line += " " + a
	}
	f.commands = append(f.commands, line)

	want, known := argCounts[name]
	if !known {
		return ldvalue.Null(), nil, fmt.Errorf("unknown command %q", name)
	}
	if len(args) != want {
		return ldvalue.Null(), nil, fmt.Errorf("%s takes %d arguments", name, want)
	}

	switch name {
	case servicedef.CommandQuery:
		e, err := f.matchLocked(args[0])
		if err != nil {
			return ldvalue.Null(), nil, err
		}
		return ldvalue.Bool(e != nil), nil, nil
	case servicedef.CommandClick:
		e, err := f.matchLocked(args[0])
		if err != nil {
			return ldvalue.Null(), nil, err
		}
		if e == nil {
			return ldvalue.Null(), nil, fmt.Errorf("no element matches %s", args[0])
		}
		return ldvalue.Null(), e.onClick, nil
	case servicedef.CommandProperty:
		e, err := f.matchLocked(args[0])
		if err != nil {
			return ldvalue.Null(), nil, err
		}
		if e == nil {
			return ldvalue.Null(), nil, fmt.Errorf("no element matches %s", args[0])
		}
		return ldvalue.String(e.props[args[1]]), nil, nil
	case servicedef.CommandSetProperty:
		e, err := f.matchLocked(args[0])
		if err != nil {
			return ldvalue.Null(), nil, err
		}
		if e == nil {
			return ldvalue.Null(), nil, fmt.Errorf("no element matches %s", args[0])
		}
		e.props[args[1]] = args[2]
		return ldvalue.Null(), nil, nil
	case servicedef.CommandLastURL:
		return ldvalue.String(f.lastURL), nil, nil
	case servicedef.CommandForceConnectionStability:
		switch args[0] {
		case servicedef.ConnectionStable, servicedef.ConnectionUnstable, servicedef.ConnectionNoSignal:
			f.connection = args[0]
			return ldvalue.Null(), nil, nil
		}
		return ldvalue.Null(), nil, fmt.Errorf("unknown connection stability %q", args[0])
	case servicedef.CommandIsFeatureFlippedOn:
		return ldvalue.Bool(f.features[args[0]]), nil, nil
	case servicedef.CommandFlipOnFeature:
		f.features[args[0]] = true
		return ldvalue.Null(), nil, nil
	case servicedef.CommandFlipOffFeature:
		f.features[args[0]] = false
		return ldvalue.Null(), nil, nil
	case servicedef.CommandActivate, servicedef.CommandDeactivate:
		f.active = name == servicedef.CommandActivate
		return ldvalue.Null(), helpers.IfElse(f.active, f.onActivate, f.onDeactivate), nil
	default: // CommandReset
		f.active = false
		f.lastURL = ""
		f.connection = servicedef.ConnectionStable
		return ldvalue.Null(), f.onReset, nil
	}
}

var argCounts = map[string]int{ //nolint:gochecknoglobals
	servicedef.CommandQuery:                    1,
	servicedef.CommandClick:                    1,
	servicedef.CommandProperty:                 2,
	servicedef.CommandSetProperty:              3,
	servicedef.CommandLastURL:                  0,
	servicedef.CommandForceConnectionStability: 1,
	servicedef.CommandIsFeatureFlippedOn:       1,
	servicedef.CommandFlipOnFeature:            1,
	servicedef.CommandFlipOffFeature:           1,
	servicedef.CommandActivate:                 0,
	servicedef.CommandDeactivate:               0,
	servicedef.CommandReset:                    0,
}

// matchLocked returns the element an expression refers to, or nil if the element does not
// exist or one of the filters does not hold.
func (f *FakeInspector) matchLocked(expr string) (*element, error) {
	path, filters, err := uidriver.ParseExpression(expr)
	if err != nil {
		return nil, err
	}
	e := f.elements[path]
	if e == nil {
		return nil, nil
	}
	for name, want := range filters {
		if e.props[name] != want {
			return nil, nil
		}
	}
	return e, nil
}
