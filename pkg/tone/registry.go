package tone

import (
	"sort"
	"sync"

	"github.com/matzehuels/plasmafractal/pkg/errors"
)

// Built-in mapper names.
const (
	NameColor      = "color"
	NameGrayscale  = "grayscale"
	NameFirewater  = "firewater"
	NamePurpleHaze = "purplehaze"
)

// DefaultName is the mapper used when none is configured.
const DefaultName = NameColor

// Factory constructs a Mapper.
type Factory func() Mapper

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// firewaterCeiling is the absolute height above which firewater saturates.
const firewaterCeiling = 0.8

func init() {
	Register(NameColor, Color)
	Register(NameGrayscale, Grayscale)
	Register(NameFirewater, func() Mapper { return WithMaxHeight(Color(), firewaterCeiling) })
	Register(NamePurpleHaze, func() Mapper { return WithOverlay(Color(), 0x000000FF) })
}

// Register adds a mapper factory under name, replacing any previous entry.
// Invalid names and nil factories are ignored.
func Register(name string, f Factory) {
	if f == nil || errors.ValidateMapperName(name) != nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup constructs the mapper registered under name.
func Lookup(name string) (Mapper, error) {
	if err := errors.ValidateMapperName(name); err != nil {
		return nil, err
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeMapperNotFound, "unknown mapper %q (available: %v)", name, Names())
	}
	return f(), nil
}

// Names returns the registered mapper names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the registered name following current, wrapping around.
// An unknown current yields the first name.
func Next(current string) string {
	names := Names()
	if len(names) == 0 {
		return ""
	}
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
