package build

import (
	"fmt"

	"github.com/deploysync/selectcore/internal/model"
)

// ImplElem is "this implementation is chosen".
type ImplElem struct {
	Impl *model.Implementation
}

func (ImplElem) isVarLabel() {}
func (l ImplElem) String() string { return fmt.Sprintf("impl %s", l.Impl.ID) }

// CommandElem is "this command record is chosen".
type CommandElem struct {
	Command *model.Command
	Impl    *model.Implementation
}

func (CommandElem) isVarLabel() {}
func (l CommandElem) String() string {
	return fmt.Sprintf("command %q of %s", l.Command.Name, l.Impl.ID)
}

// MachineGroupElem is an auxiliary variable used to keep 32- and
// 64-bit implementations from being mixed across a solution.
type MachineGroupElem struct {
	Name string
}

func (MachineGroupElem) isVarLabel() {}
func (l MachineGroupElem) String() string { return fmt.Sprintf("machine group %s", l.Name) }

// InterfaceElem is "some candidate for this interface is selected",
// only allocated for interfaces reached through an optional
// (non-essential) dependency.
type InterfaceElem struct {
	Interface model.Interface
}

func (InterfaceElem) isVarLabel() {}
func (l InterfaceElem) String() string { return fmt.Sprintf("interface %s in use", l.Interface) }
