package root

import (
	"github.com/zenGate-Global/palmyra-profiles/apps/cli/cmd/aliases"
	"github.com/zenGate-Global/palmyra-profiles/apps/cli/cmd/auth"
	"github.com/zenGate-Global/palmyra-profiles/apps/cli/cmd/bootstrap"
)

func init() {
	Root().AddCommand(aliases.Command())
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
}
