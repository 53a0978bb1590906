package format

import (
	"strings"

	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

// LoadLayouts reads named field specs from a properties file, one
// "name = spec" entry per line.
func LoadLayouts(path string) (map[string]Spec, error) {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, errors.Wrap(err, "format: load layouts")
	}
	layouts := make(map[string]Spec, props.Len())
	for _, name := range props.Keys() {
		spec, err := Parse(props.GetString(name, ""))
		if err != nil {
			return nil, errors.Wrapf(err, "layout %s", name)
		}
		layouts[name] = spec
	}
	return layouts, nil
}

// Resolve turns a command line argument into a spec: "@name" looks the
// layout up, anything else is parsed as a spec.
func Resolve(arg string, layouts map[string]Spec) (Spec, error) {
	name, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return Parse(arg)
	}
	spec, ok := layouts[name]
	if !ok {
		return nil, errors.Wrapf(ErrBadSpec, "no layout named %q", name)
	}
	return spec, nil
}
