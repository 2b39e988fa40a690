package descriptor

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/hostbind/errors"
)

// Manifest mirrors the TOML layout an external annotation parser produces.
//
//	module = "math"
//
//	[[function]]
//	name = "Add"
//	export = "add"
//	return = "int32"
//
//	  [[function.param]]
//	  kind = "value"
//	  type = "int32"
type Manifest struct {
	Module    string             `toml:"module"`
	Functions []functionManifest `toml:"function"`
}

type functionManifest struct {
	Name     string          `toml:"name"`
	Export   string          `toml:"export"`
	Kind     string          `toml:"kind"`
	Receiver string          `toml:"receiver"`
	Owner    string          `toml:"owner"`
	Return   string          `toml:"return"`
	Fallible bool            `toml:"fallible"`
	Async    bool            `toml:"async"`
	Strict   bool            `toml:"strict"`
	Params   []paramManifest `toml:"param"`
}

type paramManifest struct {
	Kind    string   `toml:"kind"`
	Type    string   `toml:"type"`
	Mode    string   `toml:"mode"`
	Inputs  []string `toml:"inputs"`
	Return  string   `toml:"return"`
	Pure    bool     `toml:"pure"`
	Binding string   `toml:"binding"`
}

// Load parses a TOML manifest into validated function descriptors.
func Load(data []byte) ([]*Function, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseDescribe, errors.KindInvalidInput, err, "parse manifest")
	}
	return m.Descriptors()
}

// LoadFile reads and parses a TOML manifest from disk.
func LoadFile(path string) ([]*Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDescribe, errors.KindInvalidInput, err, fmt.Sprintf("read manifest %s", path))
	}
	return Load(data)
}

// Descriptors converts the manifest into validated descriptors.
func (m *Manifest) Descriptors() ([]*Function, error) {
	fns := make([]*Function, 0, len(m.Functions))
	for i := range m.Functions {
		fn, err := m.Functions[i].descriptor(m.Module)
		if err != nil {
			return nil, err
		}
		if err := fn.Validate(); err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func (fm *functionManifest) descriptor(modulePath string) (*Function, error) {
	kind, err := parseKind(fm.Kind)
	if err != nil {
		return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(fm.Name).Cause(err).Detail("kind").Build()
	}
	recv, err := parseReceiver(fm.Receiver)
	if err != nil {
		return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(fm.Name).Cause(err).Detail("receiver").Build()
	}

	fn := &Function{
		Name:         fm.Name,
		ExportedName: fm.Export,
		Kind:         kind,
		Receiver:     recv,
		Owner:        fm.Owner,
		Return:       fm.Return,
		Fallible:     fm.Fallible,
		Async:        fm.Async,
		Strict:       fm.Strict,
		ModulePath:   modulePath,
	}

	for i, pm := range fm.Params {
		p, err := pm.param()
		if err != nil {
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Path(fm.Name, fmt.Sprintf("param%d", i)).Cause(err).Build()
		}
		fn.Params = append(fn.Params, p)
	}
	return fn, nil
}

func (pm *paramManifest) param() (Param, error) {
	switch pm.Kind {
	case "", "value":
		mode, err := parseRefMode(pm.Mode)
		if err != nil {
			return nil, err
		}
		return ValueParam{Type: pm.Type, Mode: mode}, nil
	case "callback":
		return CallbackParam{Callback: Callback{
			Inputs:      pm.Inputs,
			Return:      pm.Return,
			Pure:        pm.Pure,
			BindingName: pm.Binding,
		}}, nil
	case "env":
		return EnvParam{}, nil
	}
	return nil, fmt.Errorf("unknown parameter kind %q", pm.Kind)
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "", "plain":
		return Plain, nil
	case "constructor":
		return Constructor, nil
	case "factory":
		return Factory, nil
	}
	return Plain, fmt.Errorf("unknown kind %q", s)
}

func parseReceiver(s string) (Receiver, error) {
	switch s {
	case "", "none":
		return ReceiverNone, nil
	case "borrowed", "ref":
		return ReceiverBorrowed, nil
	case "mut-borrowed", "mut":
		return ReceiverMutBorrowed, nil
	case "value":
		// A by-value receiver is rejected upstream; a manifest carrying one
		// is malformed, not a generation-time condition.
		return ReceiverNone, fmt.Errorf("by-value receivers are not bindable")
	}
	return ReceiverNone, fmt.Errorf("unknown receiver %q", s)
}

func parseRefMode(s string) (RefMode, error) {
	switch s {
	case "", "owned":
		return Owned, nil
	case "borrowed", "ref":
		return Borrowed, nil
	case "mut-borrowed", "mut":
		return MutBorrowed, nil
	}
	return Owned, fmt.Errorf("unknown reference mode %q", s)
}
