package log

import (
	"errors"
	"fmt"
	"strings"
)

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Common modules. Packages can define additional ones with NewModule.
const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModPPU
	ModInput
	ModMapper
	ModSnapshot

	endStandardMods
)

var modCount = endStandardMods

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "emu", "cpu", "mem", "ppu", "input", "mapper", "snapshot",
}

// NewModule registers a new log module. It must be called during package
// initialization.
func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

// Enabled reports whether a message at the given level would be emitted by
// mod. Warnings and more severe levels are always enabled.
func (mod Module) Enabled(level Level) bool {
	if disabled.Load() {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

func (mod Module) WithFields(fields Fields) Entry {
	return Entry{mod: mod}.WithFields(fields)
}

// printf-like family

func (mod Module) Debugf(format string, args ...any) { Entry{mod: mod}.Debugf(format, args...) }
func (mod Module) Infof(format string, args ...any)  { Entry{mod: mod}.Infof(format, args...) }
func (mod Module) Warnf(format string, args ...any)  { Entry{mod: mod}.Warnf(format, args...) }
func (mod Module) Errorf(format string, args ...any) { Entry{mod: mod}.Errorf(format, args...) }
func (mod Module) Fatalf(format string, args ...any) { Entry{mod: mod}.Fatalf(format, args...) }

// Zero-alloc chained entries

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	e := NewEntryZ()
	e.lvl = lvl
	e.msg = msg
	e.mod = mod
	return e
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }

// ParseModules converts module names into a mask. "all" selects every module
// and "no" turns logging off, it can't be combined with other names.
func ParseModules(names []string) (mask ModuleMask, off bool, err error) {
	for _, name := range names {
		switch name = strings.TrimSpace(name); name {
		case "":
		case "all":
			mask = ModuleMaskAll
		case "no":
			off = true
		default:
			mod, ok := ModuleByName(name)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %q", name)
			}
			mask |= mod.Mask()
		}
	}
	if off && mask != 0 {
		return 0, false, errors.New("cannot combine 'no' with other log modules")
	}
	return mask, off, nil
}
