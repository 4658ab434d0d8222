package build

import (
	"fmt"

	"github.com/deploysync/selectcore/internal/model"
)

// Requirement is either a plain interface request or a request for a
// named command on an interface — the two shapes the root requirement
// and every dependency's required-command list reduce to.
type Requirement interface {
	fmt.Stringer
	isRequirement()
}

// ReqIface requests any candidate for Iface.
type ReqIface struct {
	Iface model.Interface
}

func (ReqIface) isRequirement() {}
func (r ReqIface) String() string { return string(r.Iface) }

// ReqCommand requests a candidate offering command Name on Iface.
type ReqCommand struct {
	Name  string
	Iface model.Interface
}

func (ReqCommand) isRequirement() {}
func (r ReqCommand) String() string { return fmt.Sprintf("%s on %s", r.Name, r.Iface) }
